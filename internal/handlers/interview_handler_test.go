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

	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/models"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestStartHandler_Created(t *testing.T) {
	var gotUser string
	var gotReq models.StartInterviewRequest
	svc := &fakeInterviews{
		startFn: func(_ context.Context, userID string, req models.StartInterviewRequest) (*models.InterviewSession, error) {
			gotUser, gotReq = userID, req
			return &models.InterviewSession{
				SessionID: "s1",
				Status:    models.StatusInProgress,
				Responses: []models.ResponseRecord{{Question: models.QuestionRecord{Text: "Why Go?"}}},
			}, nil
		},
	}
	handler := NewInterviewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interviews",
		bytes.NewBufferString(`{"interviewType":"behavioral","totalQuestions":3}`))
	rec := serveValidated[*models.StartInterviewRequest](handler.StartHandler, asUser(req, "u1", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != "u1" || gotReq.InterviewType != models.TypeBehavioral || gotReq.TotalQuestions != 3 {
		t.Fatalf("unexpected call user=%s req=%+v", gotUser, gotReq)
	}
	var body models.StartInterviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Session.SessionID != "s1" || body.CurrentQuestion == nil || body.CurrentQuestion.Text != "Why Go?" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestStartHandler_InvalidRequest(t *testing.T) {
	handler := NewInterviewHandler(&fakeInterviews{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interviews", bytes.NewBufferString(`{"interviewType":"poker"}`))
	rec := serveValidated[*models.StartInterviewRequest](handler.StartHandler, asUser(req, "u1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "invalid_interview_type" {
		t.Fatalf("unexpected code %s", body.Code)
	}
}

func TestInterviewHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("%w: s1", interview.ErrNotFound), http.StatusNotFound, "session_not_found"},
		{"invalid state", fmt.Errorf("%w: completed", interview.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{"validation", fmt.Errorf("%w: bad", interview.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"store", errors.New("mongo down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeInterviews{
				getFn: func(context.Context, string, string) (*models.InterviewSession, error) { return nil, tc.err },
			}
			handler := NewInterviewHandler(svc, nil)

			req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/interviews/s1", nil), "u1", map[string]string{"id": "s1"})
			rec := httptest.NewRecorder()
			handler.GetHandler(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if body := decodeError(t, rec); body.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, body.Code)
			}
		})
	}
}

func TestGetAndAbandonHandlers(t *testing.T) {
	svc := &fakeInterviews{
		getFn: func(_ context.Context, userID, id string) (*models.InterviewSession, error) {
			return &models.InterviewSession{SessionID: id, UserID: userID, Status: models.StatusPaused}, nil
		},
		abandonFn: func(_ context.Context, userID, id string) (*models.InterviewSession, error) {
			return &models.InterviewSession{SessionID: id, UserID: userID, Status: models.StatusAbandoned}, nil
		},
	}
	handler := NewInterviewHandler(svc, nil)
	params := map[string]string{"id": "s9"}

	rec := httptest.NewRecorder()
	handler.GetHandler(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", params))
	var session models.InterviewSession
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || session.SessionID != "s9" || session.UserID != "u1" {
		t.Fatalf("unexpected get response %d %+v", rec.Code, session)
	}

	rec = httptest.NewRecorder()
	handler.AbandonHandler(rec, asUser(httptest.NewRequest(http.MethodPost, "/", nil), "u1", params))
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || session.Status != models.StatusAbandoned {
		t.Fatalf("unexpected abandon response %d %+v", rec.Code, session)
	}
}

func TestFollowUpHandler(t *testing.T) {
	var question *models.QuestionRecord
	svc := &fakeInterviews{
		followUpFn: func(context.Context, string, string) (*models.QuestionRecord, error) { return question, nil },
	}
	handler := NewInterviewHandler(svc, nil)
	newReq := func() *http.Request {
		return asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", map[string]string{"id": "s1"})
	}

	rec := httptest.NewRecorder()
	handler.FollowUpHandler(rec, newReq())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without a follow-up, got %d", rec.Code)
	}

	question = &models.QuestionRecord{Text: "Can you go deeper?", Type: models.QuestionFollowUp}
	rec = httptest.NewRecorder()
	handler.FollowUpHandler(rec, newReq())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.QuestionRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != models.QuestionFollowUp {
		t.Fatalf("unexpected question %+v", got)
	}
}
