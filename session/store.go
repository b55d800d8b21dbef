package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level failure from Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionNotFound is returned when a token is absent or already expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidTTL is returned when a session is created with a non-positive TTL.
var ErrInvalidTTL = errors.New("session ttl must be positive")

const (
	fieldLoginTime = "login_time"
	fieldAccount   = "account"
)

// Store is a Redis-backed session store keyed by opaque token.
//
//	Performance: one MULTI/EXEC on create, one round-trip on resolve and destroy.
type Store struct {
	redis    redis.UniversalClient
	prefix   string
	now      func() time.Time
	newToken func() (string, error)
}

// Option customizes a [Store].
type Option func(*Store)

// WithClock overrides the clock used to stamp login_time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator overrides token minting. Intended for tests that need
// to force a key collision.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Store) {
		if gen != nil {
			s.newToken = gen
		}
	}
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(client redis.UniversalClient, prefix string, opts ...Option) *Store {
	s := &Store{
		redis:    client,
		prefix:   prefix,
		now:      time.Now,
		newToken: NewToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) key(token string) string {
	if s.prefix == "" {
		return token
	}
	return s.prefix + ":" + token
}

// Create mints a token, stores {login_time, account} under it with the given
// TTL, and returns the token. Stale fields at a colliding key are dropped.
func (s *Store) Create(ctx context.Context, account string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	token, err := s.newToken()
	if err != nil {
		return "", err
	}

	key := s.key(token)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldLoginTime, s.now().Unix(), fieldAccount, account)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return token, nil
}

// Resolve returns the session stored under token.
func (s *Store) Resolve(ctx context.Context, token string) (Record, error) {
	if token == "" {
		return Record{}, ErrSessionNotFound
	}

	fields, err := s.redis.HGetAll(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	account := fields[fieldAccount]
	if account == "" {
		return Record{}, ErrSessionNotFound
	}

	rec := Record{
		Token:   token,
		Account: account,
	}
	if raw, ok := fields[fieldLoginTime]; ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.LoginTime = time.Unix(unix, 0)
		}
	}

	return rec, nil
}

// Destroy deletes the session. Absent tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of a session.
func (s *Store) TTL(ctx context.Context, token string) (time.Duration, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}

	ttl, err := s.redis.PTTL(ctx, s.key(token)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// Negative values mean the key is missing or carries no expiry.
	if ttl < 0 {
		return 0, ErrSessionNotFound
	}
	return ttl, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
