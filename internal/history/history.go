// Package history keeps per-session conversation turns in Redis with a
// sliding inactivity TTL.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Turn is one completed (question, answer) exchange.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

type Store struct {
	client   *redisv9.Client
	ttl      time.Duration
	maxTurns int
}

// NewStore builds a conversation store. The TTL is refreshed on every append,
// so a session expires only after ttl of inactivity. maxTurns bounds how many
// turns are retained per session.
func NewStore(client *redisv9.Client, ttl time.Duration, maxTurns int) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Store{client: client, ttl: ttl, maxTurns: maxTurns}
}

// Append pushes the turn onto the session's log and refreshes its TTL. The
// turn is written as a single list entry, so a failed append never leaves a
// partial turn behind.
func (s *Store) Append(ctx context.Context, sessionID string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn failed: %w", err)
	}

	key := s.historyKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn failed: %w", err)
	}
	return nil
}

// Recent returns at most limit turns, oldest first. A brand-new session
// yields an empty slice, not an error.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, s.historyKey(sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history failed: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, entry := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn failed: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops the session's history.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear history failed: %w", err)
	}
	return nil
}

func (s *Store) historyKey(sessionID string) string {
	return "chat:history:" + sessionID
}
