package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/daily"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

type DailyService interface {
	QuestionsForUser(ctx context.Context, userID string) (*daily.UserQuestions, error)
	SubmitAnswer(ctx context.Context, userID, category string, index int, choice string) (*models.DailyAnswerResponse, error)
	Leaderboard(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error)
	UserStats(ctx context.Context, userID string) (*daily.Stats, error)
}

type DailyHandler struct {
	service DailyService
	logger  *zap.Logger
}

func NewDailyHandler(service DailyService, logger *zap.Logger) *DailyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyHandler{service: service, logger: logger}
}

func (handler *DailyHandler) QuestionsHandler(writer http.ResponseWriter, request *http.Request) {
	questions, err := handler.service.QuestionsForUser(request.Context(), middleware.UserID(request))
	if err != nil {
		handler.writeError(writer, err, "Failed to fetch daily questions")
		return
	}
	utils.JSON(writer, http.StatusOK, questions)
}

func (handler *DailyHandler) AnswerHandler(writer http.ResponseWriter, request *http.Request) {
	req := middleware.GetValidatedRequest[*models.DailyAnswerRequest](request)

	result, err := handler.service.SubmitAnswer(request.Context(), middleware.UserID(request),
		req.Category, *req.QuestionIndex, req.SelectedAnswer)
	if err != nil {
		handler.writeError(writer, err, "Failed to submit answer")
		return
	}
	utils.JSON(writer, http.StatusOK, result)
}

// LeaderboardHandler accepts optional date (YYYY-MM-DD) and limit (1-100) query parameters.
func (handler *DailyHandler) LeaderboardHandler(writer http.ResponseWriter, request *http.Request) {
	limit := daily.DefaultLeaderboardLimit
	if limitStr := request.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > daily.MaxLeaderboardLimit {
			utils.JSONError(writer, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer between 1 and 100")
			return
		}
		limit = l
	}

	date := request.URL.Query().Get("date")
	if date != "" && !validDate(date) {
		utils.JSONError(writer, http.StatusBadRequest, "invalid_date", "date must be formatted as YYYY-MM-DD")
		return
	}

	entries, err := handler.service.Leaderboard(request.Context(), date, limit)
	if err != nil {
		handler.writeError(writer, err, "Failed to fetch leaderboard")
		return
	}
	utils.JSON(writer, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (handler *DailyHandler) StatsHandler(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.UserStats(request.Context(), middleware.UserID(request))
	if err != nil {
		handler.writeError(writer, err, "Failed to fetch stats")
		return
	}
	utils.JSON(writer, http.StatusOK, stats)
}

func (handler *DailyHandler) writeError(writer http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, daily.ErrValidation):
		utils.JSONError(writer, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, daily.ErrUnavailable):
		writer.Header().Set("Retry-After", "5")
		utils.JSONError(writer, http.StatusServiceUnavailable, "daily_unavailable", "Daily questions are being generated, try again shortly")
	default:
		handler.logger.Error(fallback, zap.Error(err))
		utils.JSONError(writer, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}
