package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/models"
)

const testSecret = "ws-secret"

type stubCommands struct {
	mu           sync.Mutex
	calls        []string
	answers      []string
	disconnected chan string
	submitDelay  time.Duration
}

func newStubCommands() *stubCommands {
	return &stubCommands{disconnected: make(chan string, 1)}
}

func (s *stubCommands) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubCommands) Join(_ context.Context, c interview.Conn, id string) error {
	s.record("join:" + id)
	if id == "missing" {
		c.Emit(models.EventError, models.ErrorPayload{Message: "Session not found"})
		return interview.ErrNotFound
	}
	c.Emit(models.EventInterviewJoined, models.InterviewJoinedPayload{SessionID: id, Status: models.StatusInProgress})
	return nil
}

func (s *stubCommands) AudioChunk(_ context.Context, c interview.Conn, id, chunk string) error {
	s.record("audio:" + id)
	c.Emit(models.EventAudioReceived, models.AudioReceivedPayload{ChunksReceived: 1})
	return nil
}

func (s *stubCommands) AudioComplete(_ context.Context, _ interview.Conn, id string) error {
	s.record("audio-complete:" + id)
	return nil
}

func (s *stubCommands) SubmitAnswer(_ context.Context, c interview.Conn, id, answer string) error {
	s.record("submit:" + id)
	time.Sleep(s.submitDelay)
	s.mu.Lock()
	s.answers = append(s.answers, answer)
	s.mu.Unlock()
	c.Emit(models.EventAnswerProcessing, models.AnswerProcessingPayload{Status: models.ProcessingEvaluating})
	return nil
}

func (s *stubCommands) Pause(_ context.Context, _ interview.Conn, id string) error {
	s.record("pause:" + id)
	return nil
}

func (s *stubCommands) Resume(_ context.Context, _ interview.Conn, id string) error {
	s.record("resume:" + id)
	return nil
}

func (s *stubCommands) Leave(_ context.Context, _ interview.Conn, id string) error {
	s.record("leave:" + id)
	return nil
}

func (s *stubCommands) Disconnect(c interview.Conn) {
	s.disconnected <- c.UserID()
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func setupServer(t *testing.T) (*httptest.Server, *stubCommands, *Hub) {
	t.Helper()
	commands := newStubCommands()
	hub := NewHub()
	handler := NewHandler(commands, hub, testSecret, nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv, commands, hub
}

func dial(t *testing.T, srv *httptest.Server, header http.Header, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

type serverFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f serverFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeWSRejectsUnauthenticated(t *testing.T) {
	srv, _, hub := setupServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, hub.Count())
}

func TestServeWSDispatchesCommands(t *testing.T) {
	srv, commands, hub := setupServer(t)
	header := http.Header{"Authorization": []string{"Bearer " + signedToken(t, "user-7")}}
	conn := dial(t, srv, header, "")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": models.CmdJoinInterview,
		"data":  map[string]string{"sessionId": "s1"},
	}))
	f := readFrame(t, conn)
	assert.Equal(t, models.EventInterviewJoined, f.Event)
	var joined models.InterviewJoinedPayload
	require.NoError(t, json.Unmarshal(f.Data, &joined))
	assert.Equal(t, "s1", joined.SessionID)
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": models.CmdSubmitAnswer,
		"data":  map[string]string{"sessionId": "s1", "answer": ""},
	}))
	assert.Equal(t, models.EventAnswerProcessing, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "dance"}))
	f = readFrame(t, conn)
	assert.Equal(t, models.EventError, f.Event)
	assert.Contains(t, string(f.Data), "Unknown event")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f = readFrame(t, conn)
	assert.Equal(t, models.EventError, f.Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": models.CmdPauseInterview, "data": "oops"}))
	f = readFrame(t, conn)
	assert.Equal(t, models.EventError, f.Event)
	assert.Contains(t, string(f.Data), "Invalid payload")

	commands.mu.Lock()
	assert.Equal(t, []string{"join:s1", "submit:s1"}, commands.calls)
	assert.Equal(t, []string{""}, commands.answers, "empty answers are forwarded unchanged")
	commands.mu.Unlock()

	require.NoError(t, conn.Close())
	select {
	case user := <-commands.disconnected:
		assert.Equal(t, "user-7", user)
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect to reach the command service")
	}
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWSAcceptsQueryToken(t *testing.T) {
	srv, _, _ := setupServer(t)
	conn := dial(t, srv, nil, "?token="+signedToken(t, "user-8"))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": models.CmdJoinInterview,
		"data":  map[string]string{"sessionId": "missing"},
	}))
	f := readFrame(t, conn)
	assert.Equal(t, models.EventError, f.Event)
	assert.Contains(t, string(f.Data), "Session not found")
}

func TestClientSendHook(t *testing.T) {
	c := NewClient(nil, "u1")
	var got []models.Frame
	c.SetSendHook(func(f models.Frame) { got = append(got, f) })

	c.Emit(models.EventInterviewPaused, models.SessionRef{SessionID: "s1"})
	require.Len(t, got, 1)
	assert.Equal(t, models.EventInterviewPaused, got[0].Event)
	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, c.ID(), NewClient(nil, "u1").ID())
}

func TestHubCloseAll(t *testing.T) {
	srv, commands, hub := setupServer(t)
	conn := dial(t, srv, nil, "?token="+signedToken(t, "user-9"))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.CloseAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	select {
	case <-commands.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect after close")
	}
}

func TestSlowDispatchKeepsConnectionReadable(t *testing.T) {
	commands := newStubCommands()
	commands.submitDelay = 400 * time.Millisecond
	handler := NewHandler(commands, NewHub(), testSecret, nil, nil)
	handler.pongWait = 200 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, nil, "?token="+signedToken(t, "user-3"))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": models.CmdSubmitAnswer,
		"data":  map[string]string{"sessionId": "s1", "answer": "slow"},
	}))
	assert.Equal(t, models.EventAnswerProcessing, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": models.CmdJoinInterview,
		"data":  map[string]string{"sessionId": "s1"},
	}))
	assert.Equal(t, models.EventInterviewJoined, readFrame(t, conn).Event)
}
