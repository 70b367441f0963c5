package interview

import (
	"context"
	"errors"
	"sync"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

type memRepo struct {
	mu       sync.Mutex
	sessions map[string]models.InterviewSession
	saves    int
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]models.InterviewSession)}
}

func (r *memRepo) Create(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.SessionID]; ok {
		return repositories.ErrDuplicate
	}
	r.sessions[s.SessionID] = clone(s)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := clone(&s)
	return &c, nil
}

func (r *memRepo) Save(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.sessions[s.SessionID] = clone(s)
	return nil
}

func (r *memRepo) stored(id string) models.InterviewSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// clone copies the response slice so callers cannot mutate stored state in place.
func clone(s *models.InterviewSession) models.InterviewSession {
	c := *s
	c.Responses = append([]models.ResponseRecord(nil), s.Responses...)
	c.DifficultyHistory = append([]models.DifficultyChange(nil), s.DifficultyHistory...)
	return c
}

type fakeAI struct {
	mu          sync.Mutex
	evaluations []models.EvaluationRecord
	questions   int
	voices      []*models.VoiceAnalysis
	summaries   int
	cleared     []string
	followUp    *models.QuestionRecord
	// gate blocks EvaluateAnswer until closed, when set
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAI) GenerateQuestion(_ context.Context, _ string, ic models.InterviewContext, _ []models.ResponseRecord) models.QuestionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions++
	return models.QuestionRecord{
		Text:           "Question " + string(rune('A'+f.questions-1)),
		Type:           "riddle",
		Difficulty:     models.DifficultyEasy,
		ExpectedTopics: []string{"topic"},
		TimeAllowed:    models.DefaultTimeAllowed,
	}
}

func (f *fakeAI) EvaluateAnswer(_ context.Context, _ string, _ models.QuestionRecord, _ string, voice *models.VoiceAnalysis) models.EvaluationRecord {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voices = append(f.voices, voice)
	if len(f.evaluations) == 0 {
		return evaluation(70)
	}
	e := f.evaluations[0]
	f.evaluations = f.evaluations[1:]
	return e
}

func (f *fakeAI) GenerateFollowUp(context.Context, string, models.QuestionRecord, string, models.EvaluationRecord) (*models.QuestionRecord, bool) {
	if f.followUp == nil {
		return nil, false
	}
	return f.followUp, true
}

func (f *fakeAI) GenerateSummary(context.Context, string, models.SummaryInput) models.SummaryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return models.SummaryRecord{OverallAssessment: "solid", PerformanceLevel: "good", ReadinessScore: 65}
}

func (f *fakeAI) ClearSession(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
}

func evaluation(overall int) models.EvaluationRecord {
	d := models.DimensionScore{Score: overall, Feedback: "ok", Present: true}
	return models.EvaluationRecord{
		Correctness:   d,
		Reasoning:     d,
		Communication: d,
		Structure:     d,
		Confidence:    d,
		Overall:       &overall,
		Strengths:     []string{"clear"},
		Weaknesses:    []string{"depth"},
		Suggestions:   []string{"practice"},
		TopicsCovered: []string{"topic"},
	}
}

type fakeTranscriber struct {
	voice *models.VoiceAnalysis
	err   error
	calls int
}

func (f *fakeTranscriber) TranscribeAndAnalyze(context.Context, []byte) (*models.VoiceAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.voice, nil
}

type emitted struct {
	event   string
	payload any
}

type recordingConn struct {
	mu     sync.Mutex
	id     string
	userID string
	events []emitted
}

func newConn(id, userID string) *recordingConn {
	return &recordingConn{id: id, userID: userID}
}

func (c *recordingConn) ID() string     { return c.id }
func (c *recordingConn) UserID() string { return c.userID }

func (c *recordingConn) Emit(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{event: event, payload: payload})
}

func (c *recordingConn) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.event
	}
	return out
}

func (c *recordingConn) last(event string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].event == event {
			return c.events[i].payload, true
		}
	}
	return nil, false
}

func (c *recordingConn) lastError() string {
	p, ok := c.last(models.EventError)
	if !ok {
		return ""
	}
	return p.(models.ErrorPayload).Message
}

func (c *recordingConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

var errStore = errors.New("store unavailable")
