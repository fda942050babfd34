package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/interview-screener/internal/interview"
)

const (
	sessionKeyPrefix  = "interview:session:"
	defaultSessionTTL = 2 * time.Hour
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps in-flight interview sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (interview.Session, error)
	Save(ctx context.Context, s interview.Session) error
	Delete(ctx context.Context, id string) error
}

// keyValue is the subset of the redis client used by the stores.
type keyValue interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client keyValue
	ttl    time.Duration
}

// NewRedisSessionStore stores sessions as JSON documents that expire after
// ttl of inactivity.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return newRedisSessionStore(client, ttl)
}

func newRedisSessionStore(client keyValue, ttl time.Duration) *redisSessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) key(id string) string {
	return sessionKeyPrefix + id
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (interview.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return interview.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return interview.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var session interview.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return interview.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session interview.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

type memoryEntry struct {
	session   interview.Session
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. It is used when no
// Redis address is configured.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (interview.Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.expiresAt) {
		return interview.Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s interview.Session) error {
	answers := make([]interview.AnswerEvaluation, len(s.Answers))
	copy(answers, s.Answers)
	s.Answers = answers

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = memoryEntry{session: s, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
