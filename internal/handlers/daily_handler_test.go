package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"peerprep/interview/internal/daily"
	"peerprep/interview/internal/models"
)

func TestDailyQuestionsHandler(t *testing.T) {
	svc := &fakeDaily{
		questionsFn: func(_ context.Context, userID string) (*daily.UserQuestions, error) {
			if userID != "u1" {
				t.Fatalf("unexpected user %s", userID)
			}
			return &daily.UserQuestions{Date: "2026-05-10", Streak: 4, StreakActive: true}, nil
		},
	}
	handler := NewDailyHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.QuestionsHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body daily.UserQuestions
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Date != "2026-05-10" || body.Streak != 4 || !body.StreakActive {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDailyQuestionsHandler_Unavailable(t *testing.T) {
	svc := &fakeDaily{
		questionsFn: func(context.Context, string) (*daily.UserQuestions, error) {
			return nil, fmt.Errorf("%w: still generating", daily.ErrUnavailable)
		},
	}
	handler := NewDailyHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.QuestionsHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestDailyAnswerHandler(t *testing.T) {
	type call struct {
		user, category, choice string
		index int
	}
	var got call
	svc := &fakeDaily{
		submitFn: func(_ context.Context, userID, category string, index int, choice string) (*models.DailyAnswerResponse, error) {
			got = call{userID, category, choice, index}
			if category == "poetry" {
				return nil, fmt.Errorf("%w: invalid category %q", daily.ErrValidation, category)
			}
			return &models.DailyAnswerResponse{IsCorrect: true, CorrectAnswer: "B", AnsweredCount: 1}, nil
		},
	}
	handler := NewDailyHandler(svc, nil)

	body := `{"category":"aptitude","questionIndex":0,"selectedAnswer":"B"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), "u1", nil)
	rec := serveValidated[*models.DailyAnswerRequest](handler.AnswerHandler, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got != (call{"u1", "aptitude", "B", 0}) {
		t.Fatalf("unexpected call %+v", got)
	}
	var resp models.DailyAnswerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsCorrect || resp.CorrectAnswer != "B" {
		t.Fatalf("unexpected response %+v", resp)
	}

	body = `{"category":"poetry","questionIndex":1,"selectedAnswer":"A"}`
	req = asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), "u1", nil)
	rec = serveValidated[*models.DailyAnswerRequest](handler.AnswerHandler, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category, got %d", rec.Code)
	}

	body = `{"category":"aptitude","selectedAnswer":"A"}`
	req = asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), "u1", nil)
	rec = serveValidated[*models.DailyAnswerRequest](handler.AnswerHandler, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing index, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "missing_question_index" {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestDailyLeaderboardHandler(t *testing.T) {
	var gotDate string
	var gotLimit int
	svc := &fakeDaily{
		leaderboardFn: func(_ context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
			gotDate, gotLimit = date, limit
			return []models.LeaderboardEntry{{Rank: 1, UserID: "u2", TotalScore: 15, MaxScore: 15, Percentage: 100}}, nil
		},
	}
	handler := NewDailyHandler(svc, nil)

	cases := []struct {
		query  string
		status int
		date   string
		limit  int
	}{
		{"", http.StatusOK, "", daily.DefaultLeaderboardLimit},
		{"?limit=3&date=2026-05-09", http.StatusOK, "2026-05-09", 3},
		{"?limit=0", http.StatusBadRequest, "", 0},
		{"?limit=101", http.StatusBadRequest, "", 0},
		{"?limit=abc", http.StatusBadRequest, "", 0},
		{"?date=yesterday", http.StatusBadRequest, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			gotDate, gotLimit = "", 0
			rec := httptest.NewRecorder()
			handler.LeaderboardHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil), "u1", nil))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if gotDate != tc.date || gotLimit != tc.limit {
				t.Fatalf("expected date=%q limit=%d, got date=%q limit=%d", tc.date, tc.limit, gotDate, gotLimit)
			}
		})
	}
}

func TestDailyStatsHandler(t *testing.T) {
	svc := &fakeDaily{
		statsFn: func(context.Context, string) (*daily.Stats, error) { return nil, errors.New("boom") },
	}
	handler := NewDailyHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.StatsHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	svc.statsFn = func(context.Context, string) (*daily.Stats, error) {
		return &daily.Stats{TotalDaysCompleted: 3, AverageScore: 80}, nil
	}
	rec = httptest.NewRecorder()
	handler.StatsHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", nil))
	var stats daily.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || stats.TotalDaysCompleted != 3 || stats.AverageScore != 80 {
		t.Fatalf("unexpected stats %d %+v", rec.Code, stats)
	}
}
