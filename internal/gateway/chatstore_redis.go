package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"peerprep/interview/internal/llm"
)

const chatKeyPrefix = "interview:chat:"

// RedisChatStore keeps each history as a redis list so several instances can share it.
// Idle eviction is delegated to key expiry.
type RedisChatStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisChatStore(rdb *redis.Client, ttl time.Duration) *RedisChatStore {
	return &RedisChatStore{rdb: rdb, ttl: ttl}
}

func chatKey(sessionID string) string {
	return chatKeyPrefix + sessionID
}

func (s *RedisChatStore) Get(ctx context.Context, sessionID string) ([]llm.Message, bool, error) {
	raw, err := s.rdb.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("load chat history: %w", err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	msgs := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, false, fmt.Errorf("decode chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, true, nil
}

func (s *RedisChatStore) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode chat message: %w", err)
		}
		values = append(values, raw)
	}

	key := chatKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	return nil
}

func (s *RedisChatStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, chatKey(sessionID)).Err()
}

func (s *RedisChatStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, chatKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Sweep is a no-op because redis expires idle keys itself.
func (s *RedisChatStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
