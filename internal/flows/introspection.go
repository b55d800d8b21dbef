package flows

import (
	"context"
	"time"
)

type IntrospectionSessionStore interface {
	Ping(ctx context.Context) (time.Duration, error)
}

type IntrospectionRateLimiter interface {
	GetLoginAttempts(ctx context.Context, account string) (int, error)
}

type IntrospectionDeps struct {
	SessionStore      IntrospectionSessionStore
	RateLimiter       IntrospectionRateLimiter
	TransportError    func(error) error
	EngineNotReadyErr error
}

// RunHealth pings the session store.
func RunHealth(ctx context.Context, deps IntrospectionDeps) (bool, time.Duration) {
	if deps.SessionStore == nil {
		return false, 0
	}
	latency, err := deps.SessionStore.Ping(ctx)
	return err == nil, latency
}

// RunGetLoginAttempts returns the failed sign-in counter of account. Empty
// accounts report zero.
func RunGetLoginAttempts(ctx context.Context, account string, deps IntrospectionDeps) (int, error) {
	if deps.RateLimiter == nil {
		return 0, deps.EngineNotReadyErr
	}
	if account == "" {
		return 0, nil
	}

	n, err := deps.RateLimiter.GetLoginAttempts(ctx, account)
	if err != nil {
		if deps.TransportError != nil {
			return 0, storeOrRaw(err, deps.TransportError)
		}
		return 0, err
	}
	return n, nil
}
