package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"peerprep/interview/internal/daily"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
)

type fakeInterviews struct {
	startFn    func(context.Context, string, models.StartInterviewRequest) (*models.InterviewSession, error)
	getFn      func(context.Context, string, string) (*models.InterviewSession, error)
	abandonFn  func(context.Context, string, string) (*models.InterviewSession, error)
	followUpFn func(context.Context, string, string) (*models.QuestionRecord, error)
}

func (f *fakeInterviews) Start(ctx context.Context, userID string, req models.StartInterviewRequest) (*models.InterviewSession, error) {
	return f.startFn(ctx, userID, req)
}

func (f *fakeInterviews) Get(ctx context.Context, userID, id string) (*models.InterviewSession, error) {
	return f.getFn(ctx, userID, id)
}

func (f *fakeInterviews) Abandon(ctx context.Context, userID, id string) (*models.InterviewSession, error) {
	return f.abandonFn(ctx, userID, id)
}

func (f *fakeInterviews) FollowUp(ctx context.Context, userID, id string) (*models.QuestionRecord, error) {
	return f.followUpFn(ctx, userID, id)
}

type fakeDaily struct {
	questionsFn   func(context.Context, string) (*daily.UserQuestions, error)
	submitFn      func(context.Context, string, string, int, string) (*models.DailyAnswerResponse, error)
	leaderboardFn func(context.Context, string, int) ([]models.LeaderboardEntry, error)
	statsFn       func(context.Context, string) (*daily.Stats, error)
}

func (f *fakeDaily) QuestionsForUser(ctx context.Context, userID string) (*daily.UserQuestions, error) {
	return f.questionsFn(ctx, userID)
}

func (f *fakeDaily) SubmitAnswer(ctx context.Context, userID, category string, index int, choice string) (*models.DailyAnswerResponse, error) {
	return f.submitFn(ctx, userID, category, index, choice)
}

func (f *fakeDaily) Leaderboard(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
	return f.leaderboardFn(ctx, date, limit)
}

func (f *fakeDaily) UserStats(ctx context.Context, userID string) (*daily.Stats, error) {
	return f.statsFn(ctx, userID)
}

// asUser marks the request as authenticated and attaches chi url params.
func asUser(req *http.Request, userID string, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithUserID(ctx, userID))
}

func serveValidated[T middleware.Validator](h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.ValidateRequest[T]()(h).ServeHTTP(rec, req)
	return rec
}
