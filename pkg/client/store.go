// Package client is a Go mirror of the interview socket protocol: it issues
// commands and folds pushed events into a State that callers can observe.
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"peerprep/interview/internal/models"
)

const writeWait = 10 * time.Second

var (
	ErrNotConnected = errors.New("not connected")
	ErrNoSession    = errors.New("no interview joined")
	// ErrSubmitPending is returned when an answer for the current question is
	// still being processed; nothing is sent.
	ErrSubmitPending = errors.New("answer already submitted")
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Store owns one websocket connection and the state derived from it.
type Store struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex

	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}

	done chan struct{}
}

// Dial connects to the interview socket and starts applying server events.
func Dial(ctx context.Context, url, token string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial interview socket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial interview socket: %w", err)
	}

	s := &Store{
		conn:   conn,
		logger: logger,
		state:  State{Connected: true},
		subs:   make(map[chan State]struct{}),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe delivers a snapshot after every change. Slow subscribers only see
// the latest snapshot. The channel closes when the connection ends or cancel is called.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	if s.subs == nil {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

// Done is closed once the read loop exits.
func (s *Store) Done() <-chan struct{} { return s.done }

func (s *Store) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.writeMu.Unlock()
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Store) JoinInterview(sessionID string) error {
	return s.send(models.CmdJoinInterview, models.SessionRef{SessionID: sessionID})
}

// LeaveInterview detaches from the session and clears local session state.
func (s *Store) LeaveInterview() error {
	id, err := s.sessionID()
	if err != nil {
		return err
	}
	err = s.send(models.CmdLeaveInterview, models.SessionRef{SessionID: id})
	s.update(func(st *State) { st.resetSession() })
	return err
}

// SubmitAnswer sends the answer for the current question at most once. Calls
// made while a previous submission is unresolved return ErrSubmitPending, so a
// countdown expiry racing a manual submit sends a single frame.
func (s *Store) SubmitAnswer(answer string) error {
	s.mu.Lock()
	switch {
	case !s.state.Connected:
		s.mu.Unlock()
		return ErrNotConnected
	case s.state.SessionID == "":
		s.mu.Unlock()
		return ErrNoSession
	case s.state.IsProcessing:
		s.mu.Unlock()
		return ErrSubmitPending
	}
	id := s.state.SessionID
	s.state.IsProcessing = true
	s.state.LastError = ""
	s.mu.Unlock()

	if err := s.send(models.CmdSubmitAnswer, models.SubmitAnswerPayload{SessionID: id, Answer: answer}); err != nil {
		s.update(func(st *State) { st.IsProcessing = false })
		return err
	}
	s.notify()
	return nil
}

// SendAudioChunk streams one piece of the recorded answer.
func (s *Store) SendAudioChunk(chunk []byte) error {
	id, err := s.sessionID()
	if err != nil {
		return err
	}
	return s.send(models.CmdAudioStream, models.AudioChunkPayload{
		SessionID:  id,
		AudioChunk: base64.StdEncoding.EncodeToString(chunk),
	})
}

// CompleteAudio asks the server to transcribe the streamed recording.
func (s *Store) CompleteAudio() error {
	return s.sessionCommand(models.CmdAudioComplete)
}

func (s *Store) Pause() error  { return s.sessionCommand(models.CmdPauseInterview) }
func (s *Store) Resume() error { return s.sessionCommand(models.CmdResumeInterview) }

func (s *Store) sessionCommand(event string) error {
	id, err := s.sessionID()
	if err != nil {
		return err
	}
	return s.send(event, models.SessionRef{SessionID: id})
}

func (s *Store) sessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Connected {
		return "", ErrNotConnected
	}
	if s.state.SessionID == "" {
		return "", ErrNoSession
	}
	return s.state.SessionID, nil
}

func (s *Store) send(event string, payload any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(models.Frame{Event: event, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

func (s *Store) readLoop() {
	defer func() {
		s.mu.Lock()
		s.state.Connected = false
		s.state.IsProcessing = false
		snapshot := s.state.clone()
		subs := s.subs
		s.subs = nil
		s.mu.Unlock()

		for ch := range subs {
			publish(ch, snapshot)
			close(ch)
		}
		close(s.done)
	}()

	for {
		var frame inboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Interview socket closed", zap.Error(err))
			}
			return
		}
		if err := s.apply(frame); err != nil {
			s.logger.Warn("Dropped malformed event", zap.String("event", frame.Event), zap.Error(err))
		}
	}
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	for ch := range s.subs {
		publish(ch, snapshot)
	}
}

// publish replaces any unread snapshot with the latest one.
func publish(ch chan State, snapshot State) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}
