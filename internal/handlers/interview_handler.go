package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

type InterviewService interface {
	Start(ctx context.Context, userID string, req models.StartInterviewRequest) (*models.InterviewSession, error)
	Get(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)
	Abandon(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)
	FollowUp(ctx context.Context, userID, sessionID string) (*models.QuestionRecord, error)
}

type InterviewHandler struct {
	service InterviewService
	logger  *zap.Logger
}

func NewInterviewHandler(service InterviewService, logger *zap.Logger) *InterviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewHandler{service: service, logger: logger}
}

// StartHandler creates a session from a validated StartInterviewRequest.
func (handler *InterviewHandler) StartHandler(writer http.ResponseWriter, request *http.Request) {
	req := middleware.GetValidatedRequest[*models.StartInterviewRequest](request)

	session, err := handler.service.Start(request.Context(), middleware.UserID(request), *req)
	if err != nil {
		handler.writeError(writer, err, "Failed to start interview")
		return
	}

	var current *models.QuestionRecord
	if len(session.Responses) > 0 {
		current = &session.Responses[len(session.Responses)-1].Question
	}
	utils.JSON(writer, http.StatusCreated, models.StartInterviewResponse{
		Session:         session,
		CurrentQuestion: current,
	})
}

func (handler *InterviewHandler) GetHandler(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.service.Get(request.Context(), middleware.UserID(request), chi.URLParam(request, "id"))
	if err != nil {
		handler.writeError(writer, err, "Failed to fetch interview")
		return
	}
	utils.JSON(writer, http.StatusOK, session)
}

func (handler *InterviewHandler) AbandonHandler(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.service.Abandon(request.Context(), middleware.UserID(request), chi.URLParam(request, "id"))
	if err != nil {
		handler.writeError(writer, err, "Failed to abandon interview")
		return
	}
	utils.JSON(writer, http.StatusOK, session)
}

// FollowUpHandler responds 204 when the model has no follow-up to offer.
func (handler *InterviewHandler) FollowUpHandler(writer http.ResponseWriter, request *http.Request) {
	question, err := handler.service.FollowUp(request.Context(), middleware.UserID(request), chi.URLParam(request, "id"))
	if err != nil {
		handler.writeError(writer, err, "Failed to generate follow-up")
		return
	}
	if question == nil {
		writer.WriteHeader(http.StatusNoContent)
		return
	}
	utils.JSON(writer, http.StatusOK, question)
}

func (handler *InterviewHandler) writeError(writer http.ResponseWriter, err error, fallback string) {
	var errResp *models.ErrorResponse
	switch {
	case errors.As(err, &errResp):
		utils.JSON(writer, http.StatusBadRequest, *errResp)
	case errors.Is(err, interview.ErrValidation):
		utils.JSONError(writer, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, interview.ErrNotFound):
		utils.JSONError(writer, http.StatusNotFound, "session_not_found", "Session not found")
	case errors.Is(err, interview.ErrInvalidState):
		utils.JSONError(writer, http.StatusConflict, "invalid_state", err.Error())
	default:
		handler.logger.Error(fallback, zap.Error(err))
		utils.JSONError(writer, http.StatusInternalServerError, "internal_error", fallback)
	}
}
