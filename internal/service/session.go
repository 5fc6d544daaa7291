package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/dandihub/dandinotes/internal/domain"
)

// SessionTTL is the extended session lifetime granted on login.
const SessionTTL = 24 * time.Hour

const sessionKeyPrefix = "session:"

// SessionStore manages authenticated sessions keyed by opaque tokens.
type SessionStore interface {
	Create(ctx context.Context, principal domain.Principal) (string, error)
	Get(ctx context.Context, token string) (*domain.Principal, error)
	Destroy(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in redis with a 24 hour TTL.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Create(ctx context.Context, principal domain.Principal) (string, error) {
	token := uuid.New().String()
	raw, err := json.Marshal(principal)
	if err != nil {
		return "", errors.Wrap(err, "encoding session")
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+token, raw, SessionTTL).Err(); err != nil {
		return "", errors.Wrap(err, "storing session")
	}
	return token, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*domain.Principal, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	var principal domain.Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return &principal, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	return errors.Wrap(s.rdb.Del(ctx, sessionKeyPrefix+token).Err(), "destroying session")
}

// MemorySessionStore is a process-local store used when no redis address
// is configured, and in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	principal domain.Principal
	expires   time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]memorySession{},
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, principal domain.Principal) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{principal: principal, expires: s.now().Add(SessionTTL)}
	return token, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || s.now().After(session.expires) {
		delete(s.sessions, token)
		return nil, nil
	}
	principal := session.principal
	return &principal, nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
