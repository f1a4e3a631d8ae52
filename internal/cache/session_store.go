package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrSessionConflict = errors.New("quiz session was modified concurrently")
)

const maxUpdateRetries = 5

// StoredSession is what lives under quiz:session:{id}.
type StoredSession struct {
	ID       string        `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Email    string        `json:"email"`
	UserName string        `json:"user_name"`
	Snapshot quiz.Snapshot `json:"snapshot"`
}

type SessionStore interface {
	Create(ctx context.Context, session *StoredSession) error
	Get(ctx context.Context, id string) (*StoredSession, error)
	// Update applies fn to the current value and stores the result. fn may run
	// more than once when the session changes underneath it.
	Update(ctx context.Context, id string, fn func(*StoredSession) error) (*StoredSession, error)
	Delete(ctx context.Context, id string) error
}

func SessionKey(id string) string {
	return "quiz:session:" + id
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl, logger: logger}
}

func (s *redisSessionStore) Create(ctx context.Context, session *StoredSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, SessionKey(session.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store quiz session: %w", err)
	}
	if !ok {
		return fmt.Errorf("quiz session %s already exists: %w", session.ID, ErrSessionConflict)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*StoredSession, error) {
	payload, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz session: %w", err)
	}
	return decodeSession(payload)
}

func (s *redisSessionStore) Update(ctx context.Context, id string, fn func(*StoredSession) error) (*StoredSession, error) {
	key := SessionKey(id)
	var updated *StoredSession

	txf := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read quiz session: %w", err)
		}

		session, err := decodeSession(payload)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}

		next, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal quiz session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		s.logger.Debug("Quiz session changed during update, retrying", "session_id", id, "attempt", attempt+1)
	}
	return nil, ErrSessionConflict
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, SessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete quiz session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func decodeSession(payload []byte) (*StoredSession, error) {
	var session StoredSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode quiz session: %w", err)
	}
	return &session, nil
}

// MemorySessionStore keeps sessions in process memory. It round-trips values
// through JSON like the Redis store so callers never share state with it.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (m *MemorySessionStore) Create(ctx context.Context, session *StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; ok {
		return fmt.Errorf("quiz session %s already exists: %w", session.ID, ErrSessionConflict)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz session: %w", err)
	}
	m.sessions[session.ID] = payload
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return decodeSession(payload)
}

func (m *MemorySessionStore) Update(ctx context.Context, id string, fn func(*StoredSession) error) (*StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, err := decodeSession(payload)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	next, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quiz session: %w", err)
	}
	m.sessions[id] = next
	return session, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
