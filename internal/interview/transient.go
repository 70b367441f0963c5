package interview

import (
	"sync"
	"time"

	"peerprep/interview/internal/models"
)

// sessionState is the in-memory, never persisted part of a session: buffered audio, the pending
// voice analysis, the submit guard and the connections attached to the session.
type sessionState struct {
	cmdMu    sync.Mutex
	mu       sync.Mutex
	chunks   [][]byte
	size     int
	voice    *models.VoiceAnalysis
	inFlight bool
	conns    map[string]Conn
	lastSeen time.Time
}

func (st *sessionState) attach(conn Conn, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.conns[conn.ID()] = conn
	st.lastSeen = now
}

// detach removes the connection and reports how many remain.
func (st *sessionState) detach(connID string, now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.conns, connID)
	st.lastSeen = now
	return len(st.conns)
}

func (st *sessionState) holds(connID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.conns[connID]
	return ok
}

func (st *sessionState) attached() []Conn {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Conn, 0, len(st.conns))
	for _, c := range st.conns {
		out = append(out, c)
	}
	return out
}

// appendChunk buffers a decoded chunk, refusing it when the buffer would exceed limit.
func (st *sessionState) appendChunk(chunk []byte, limit int) (int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if limit > 0 && st.size+len(chunk) > limit {
		return len(st.chunks), false
	}
	st.chunks = append(st.chunks, chunk)
	st.size += len(chunk)
	return len(st.chunks), true
}

func (st *sessionState) audio() []byte {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]byte, 0, st.size)
	for _, c := range st.chunks {
		out = append(out, c...)
	}
	return out
}

func (st *sessionState) clearAudio() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.chunks, st.size = nil, 0
}

func (st *sessionState) setVoice(v *models.VoiceAnalysis) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.voice = v
}

func (st *sessionState) pendingVoice() *models.VoiceAnalysis {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.voice
}

// clearPending drops both the audio buffer and the pending analysis.
func (st *sessionState) clearPending() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.chunks, st.size, st.voice = nil, 0, nil
}

// begin sets the submit guard, returning false if a submission is already running.
func (st *sessionState) begin() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.inFlight {
		return false
	}
	st.inFlight = true
	return true
}

func (st *sessionState) end(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.inFlight = false
	st.lastSeen = now
}

// removable reports whether no connection or submission still needs the state.
func (st *sessionState) removable() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.conns) == 0 && !st.inFlight
}

func (st *sessionState) idle(cutoff time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.conns) == 0 && !st.inFlight && st.lastSeen.Before(cutoff)
}

type transientStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

func newTransientStore() *transientStore {
	return &transientStore{sessions: make(map[string]*sessionState)}
}

func (t *transientStore) get(sessionID string, now time.Time) *sessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.sessions[sessionID]
	if !ok {
		st = &sessionState{conns: make(map[string]Conn), lastSeen: now}
		t.sessions[sessionID] = st
	}
	return st
}

func (t *transientStore) lookup(sessionID string) (*sessionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.sessions[sessionID]
	return st, ok
}

func (t *transientStore) remove(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// joinedBy lists the sessions the connection is attached to.
func (t *transientStore) joinedBy(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for id, st := range t.sessions {
		st.mu.Lock()
		_, ok := st.conns[connID]
		st.mu.Unlock()
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// sweep removes detached states idle since before cutoff.
func (t *transientStore) sweep(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, st := range t.sessions {
		if st.idle(cutoff) {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}

func (t *transientStore) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
