package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerprep/interview/internal/models"
)

// scriptedServer plays the server side of the protocol for a two question interview.
type scriptedServer struct {
	submits  atomic.Int32
	release  chan struct{}
	mu       sync.Mutex
	received []models.Frame
}

func newScriptedServer(t *testing.T) (*scriptedServer, string) {
	s := &scriptedServer{release: make(chan struct{}, 8)}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.serve(conn)
	}))
	t.Cleanup(srv.Close)
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *scriptedServer) serve(conn *websocket.Conn) {
	emit := func(event string, data any) {
		_ = conn.WriteJSON(models.Frame{Event: event, Data: data})
	}
	for {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, models.Frame{Event: frame.Event, Data: frame.Data})
		s.mu.Unlock()

		var ref models.SubmitAnswerPayload
		_ = json.Unmarshal(frame.Data, &ref)

		switch frame.Event {
		case models.CmdJoinInterview:
			if ref.SessionID == "missing" {
				emit(models.EventError, models.ErrorPayload{Message: "Session not found"})
				continue
			}
			emit(models.EventInterviewJoined, models.InterviewJoinedPayload{
				SessionID:       ref.SessionID,
				Status:          models.StatusInProgress,
				InterviewType:   models.TypeTechnical,
				Difficulty:      models.DifficultyMedium,
				CurrentQuestion: &models.QuestionRecord{Text: "Q1"},
				Progress:        models.Progress{Current: 1, Total: 2},
			})
		case models.CmdSubmitAnswer:
			n := s.submits.Add(1)
			emit(models.EventAnswerProcessing, models.AnswerProcessingPayload{Status: models.ProcessingEvaluating})
			<-s.release
			emit(models.EventAnswerEvaluated, models.AnswerEvaluatedPayload{Scores: models.ScoreRecord{Overall: 90}})
			if n == 1 {
				emit(models.EventDifficultyAdjusted, models.DifficultyAdjustedPayload{NewDifficulty: models.DifficultyHard})
				emit(models.EventNextQuestion, models.NextQuestionPayload{
					Index:      1, Question: "Q2", Type: models.QuestionTechnical,
					Difficulty: models.DifficultyHard, Progress: models.Progress{Current: 2, Total: 2},
				})
				continue
			}
			emit(models.EventInterviewComplete, models.InterviewCompletePayload{
				SessionID:     ref.SessionID,
				OverallScores: models.ScoreRecord{Overall: 65},
			})
		case models.CmdAudioStream:
			emit(models.EventAudioReceived, models.AudioReceivedPayload{ChunksReceived: 1})
		case models.CmdAudioComplete:
			emit(models.EventTranscriptionComplete, models.TranscriptionCompletePayload{Transcription: "spoken answer", Confidence: 0.9})
		case models.CmdPauseInterview:
			emit(models.EventInterviewPaused, models.SessionRef{SessionID: ref.SessionID})
		case models.CmdResumeInterview:
			emit(models.EventInterviewResumed, models.InterviewResumedPayload{
				SessionID:       ref.SessionID,
				CurrentQuestion: &models.QuestionRecord{Text: "Q1"},
				Progress:        models.Progress{Current: 1, Total: 2},
			})
		}
	}
}

func (s *scriptedServer) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.received))
	for _, f := range s.received {
		out = append(out, f.Event)
	}
	return out
}

func dialStore(t *testing.T, url string) *Store {
	t.Helper()
	store, err := Dial(context.Background(), url, "good-token", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func waitFor(t *testing.T, store *Store, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		st := store.State()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached, last state %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func join(t *testing.T, store *Store) {
	t.Helper()
	require.NoError(t, store.JoinInterview("s1"))
	waitFor(t, store, func(st State) bool { return st.SessionID == "s1" })
}

func TestDialRequiresToken(t *testing.T) {
	_, url := newScriptedServer(t)

	_, err := Dial(context.Background(), url, "bad-token", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCommandsRequireSession(t *testing.T) {
	_, url := newScriptedServer(t)
	store := dialStore(t, url)

	assert.ErrorIs(t, store.SubmitAnswer("x"), ErrNoSession)
	assert.ErrorIs(t, store.Pause(), ErrNoSession)
	assert.ErrorIs(t, store.SendAudioChunk([]byte("a")), ErrNoSession)
	assert.ErrorIs(t, store.LeaveInterview(), ErrNoSession)
}

func TestJoinAndRunInterview(t *testing.T) {
	srv, url := newScriptedServer(t)
	store := dialStore(t, url)

	join(t, store)
	st := store.State()
	assert.True(t, st.Connected)
	assert.True(t, st.IsActive)
	assert.Equal(t, 0, st.QuestionIndex)
	assert.Equal(t, 2, st.TotalQuestions)
	require.NotNil(t, st.CurrentQuestion)
	assert.Equal(t, "Q1", st.CurrentQuestion.Text)

	require.NoError(t, store.SubmitAnswer("first"))
	srv.release <- struct{}{}
	st = waitFor(t, store, func(st State) bool { return st.QuestionIndex == 1 && !st.IsProcessing })
	assert.Equal(t, models.DifficultyHard, st.Difficulty)
	assert.Equal(t, "Q2", st.CurrentQuestion.Text)
	require.NotNil(t, st.LastEvaluation)
	assert.Equal(t, 90, st.LastEvaluation.Scores.Overall)

	require.NoError(t, store.SubmitAnswer("second"))
	srv.release <- struct{}{}
	st = waitFor(t, store, func(st State) bool { return st.Completed })
	assert.False(t, st.IsActive)
	assert.Equal(t, models.StatusCompleted, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, 65, st.Result.OverallScores.Overall)
}

func TestSubmitAnswerIsExactlyOnce(t *testing.T) {
	srv, url := newScriptedServer(t)
	store := dialStore(t, url)
	join(t, store)

	// a countdown expiry racing manual submits
	var sent atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.SubmitAnswer("answer")
			if err == nil {
				sent.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrSubmitPending)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), sent.Load())

	waitFor(t, store, func(State) bool { return srv.submits.Load() == 1 })
	// still pending between evaluation and the next question
	assert.ErrorIs(t, store.SubmitAnswer("again"), ErrSubmitPending)

	srv.release <- struct{}{}
	waitFor(t, store, func(st State) bool { return st.QuestionIndex == 1 && !st.IsProcessing })
	assert.Equal(t, int32(1), srv.submits.Load())
}

func TestErrorEventClearsProcessing(t *testing.T) {
	_, url := newScriptedServer(t)
	store := dialStore(t, url)

	require.NoError(t, store.JoinInterview("missing"))
	st := waitFor(t, store, func(st State) bool { return st.LastError != "" })
	assert.Equal(t, "Session not found", st.LastError)
	assert.Empty(t, st.SessionID)
}

func TestPauseResumeAndAudio(t *testing.T) {
	srv, url := newScriptedServer(t)
	store := dialStore(t, url)
	join(t, store)

	require.NoError(t, store.Pause())
	waitFor(t, store, func(st State) bool { return st.IsPaused })
	require.NoError(t, store.Resume())
	st := waitFor(t, store, func(st State) bool { return !st.IsPaused })
	assert.Equal(t, models.StatusInProgress, st.Status)

	require.NoError(t, store.SendAudioChunk([]byte{1, 2, 3}))
	waitFor(t, store, func(st State) bool { return st.AudioChunks == 1 })
	require.NoError(t, store.CompleteAudio())
	st = waitFor(t, store, func(st State) bool { return st.VoiceAnalysis != nil })
	assert.Equal(t, "spoken answer", st.CurrentAnswer)
	assert.Zero(t, st.AudioChunks)

	require.NoError(t, store.LeaveInterview())
	assert.Empty(t, store.State().SessionID)
	assert.True(t, store.State().Connected)

	waitFor(t, store, func(State) bool { return len(srv.events()) == 6 })
	assert.Equal(t, []string{
		models.CmdJoinInterview, models.CmdPauseInterview, models.CmdResumeInterview,
		models.CmdAudioStream, models.CmdAudioComplete, models.CmdLeaveInterview,
	}, srv.events())
}

func TestSubscribeAndClose(t *testing.T) {
	_, url := newScriptedServer(t)
	store, err := Dial(context.Background(), url, "good-token", nil)
	require.NoError(t, err)

	updates, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.JoinInterview("s1"))
	timeout := time.After(3 * time.Second)
	for joined := false; !joined; {
		select {
		case st := <-updates:
			joined = st.SessionID == "s1"
		case <-timeout:
			t.Fatal("no joined snapshot delivered")
		}
	}

	require.NoError(t, store.Close())
	select {
	case <-store.Done():
	default:
		t.Fatal("expected read loop to have exited")
	}
	assert.False(t, store.State().Connected)

	for range updates {
	}
	assert.True(t, errors.Is(store.SubmitAnswer("late"), ErrNotConnected))

	closed, _ := store.Subscribe()
	_, ok := <-closed
	assert.False(t, ok)
}
