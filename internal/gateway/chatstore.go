package gateway

import (
	"context"
	"sync"
	"time"

	"peerprep/interview/internal/llm"
)

// ChatStore keeps per-session conversation history for the model.
type ChatStore interface {
	// Get returns the history and whether the session exists.
	Get(ctx context.Context, sessionID string) ([]llm.Message, bool, error)
	// Append adds turns, creating the session if needed, and refreshes its idle deadline.
	Append(ctx context.Context, sessionID string, msgs ...llm.Message) error
	Delete(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
	// Sweep drops sessions idle longer than the TTL and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// MemoryChatStore holds histories in process memory with an idle TTL.
type MemoryChatStore struct {
	sessions map[string]*chatEntry
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
}

type chatEntry struct {
	messages   []llm.Message
	lastActive time.Time
}

func NewMemoryChatStore(ttl time.Duration) *MemoryChatStore {
	return &MemoryChatStore{
		sessions: make(map[string]*chatEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryChatStore) Get(_ context.Context, sessionID string) ([]llm.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.sessions[sessionID]
	if !exists || s.expired(entry) {
		return nil, false, nil
	}
	out := make([]llm.Message, len(entry.messages))
	copy(out, entry.messages)
	return out, true, nil
}

func (s *MemoryChatStore) Append(_ context.Context, sessionID string, msgs ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[sessionID]
	if !exists || s.expired(entry) {
		entry = &chatEntry{}
		s.sessions[sessionID] = entry
	}
	entry.messages = append(entry.messages, msgs...)
	entry.lastActive = s.now()
	return nil
}

func (s *MemoryChatStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryChatStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*chatEntry)
	return nil
}

func (s *MemoryChatStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Size returns the number of tracked sessions, expired or not.
func (s *MemoryChatStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func (s *MemoryChatStore) expired(entry *chatEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.lastActive) > s.ttl
}
