package blogauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/blogauth/internal/flows"
)

// Health reports whether the session store answers a ping and how long it
// took. It never returns an error; an unreachable store reports
// RedisAvailable false.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.sessions == nil {
		return HealthStatus{}
	}

	ok, latency := internalflows.RunHealth(ctx, e.introspectionDeps())
	return HealthStatus{
		RedisAvailable: ok,
		RedisLatency:   latency,
	}
}

// GetLoginAttempts returns the failed sign-in counter of account inside the
// current cooldown window. Unknown accounts report zero.
func (e *Engine) GetLoginAttempts(ctx context.Context, account string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	return internalflows.RunGetLoginAttempts(ctx, account, e.introspectionDeps())
}

func (e *Engine) introspectionDeps() internalflows.IntrospectionDeps {
	deps := internalflows.IntrospectionDeps{
		SessionStore:      timedPinger{e: e},
		TransportError:    transportError,
		EngineNotReadyErr: ErrEngineNotReady,
	}
	if e.rateLimiter != nil {
		deps.RateLimiter = timedAttempts{e: e}
	}
	return deps
}

type timedPinger struct {
	e *Engine
}

func (p timedPinger) Ping(ctx context.Context) (time.Duration, error) {
	return withStore(p.e, ctx, p.e.sessions.Ping)
}

type timedAttempts struct {
	e *Engine
}

func (a timedAttempts) GetLoginAttempts(ctx context.Context, account string) (int, error) {
	return withStore(a.e, ctx, func(ctx context.Context) (int, error) {
		return a.e.rateLimiter.GetLoginAttempts(ctx, account)
	})
}
