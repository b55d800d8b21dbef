package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/blogauth/session"
)

// SessionStore is the subset of the session store used by the session flows.
type SessionStore interface {
	Resolve(ctx context.Context, token string) (session.Record, error)
	Destroy(ctx context.Context, token string) error
	TTL(ctx context.Context, token string) (time.Duration, error)
}

type SessionErrors struct {
	EngineNotReady  error
	SessionNotFound error
}

// SessionDeps captures session flow dependencies.
type SessionDeps struct {
	SessionStore SessionStore

	// TransportError maps store transport failures and deadlines to their
	// public error. It returns nil for every other error.
	TransportError func(error) error

	MetricInc    func(int)
	EmitAudit    func(context.Context, string, bool, string, error, func() map[string]string)
	LogoutMetric int
	LogoutEvent  string
	Errors       SessionErrors
}

// SessionInfo is the flow-local view of a live session.
type SessionInfo struct {
	Account   string
	LoginTime time.Time
	ExpiresIn time.Duration
}

// RunResolveSession returns the account name bound to token.
func RunResolveSession(ctx context.Context, token string, deps SessionDeps) (string, error) {
	normalizeSessionDeps(&deps)

	if deps.SessionStore == nil {
		return "", deps.Errors.EngineNotReady
	}

	rec, err := deps.SessionStore.Resolve(ctx, token)
	if err != nil {
		return "", sessionError(err, deps)
	}
	return rec.Account, nil
}

// RunGetSessionInfo returns the account, login time, and remaining lifetime
// of the session bound to token.
func RunGetSessionInfo(ctx context.Context, token string, deps SessionDeps) (*SessionInfo, error) {
	normalizeSessionDeps(&deps)

	if deps.SessionStore == nil {
		return nil, deps.Errors.EngineNotReady
	}

	rec, err := deps.SessionStore.Resolve(ctx, token)
	if err != nil {
		return nil, sessionError(err, deps)
	}
	ttl, err := deps.SessionStore.TTL(ctx, token)
	if err != nil {
		return nil, sessionError(err, deps)
	}

	return &SessionInfo{
		Account:   rec.Account,
		LoginTime: rec.LoginTime,
		ExpiresIn: ttl,
	}, nil
}

// RunSignOut destroys the session bound to token. Unknown tokens succeed.
func RunSignOut(ctx context.Context, token string, deps SessionDeps) error {
	normalizeSessionDeps(&deps)

	if deps.SessionStore == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.SessionStore.Destroy(ctx, token); err != nil {
		return sessionError(err, deps)
	}

	deps.MetricInc(deps.LogoutMetric)
	deps.EmitAudit(ctx, deps.LogoutEvent, true, "", nil, nil)
	return nil
}

func sessionError(err error, deps SessionDeps) error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return deps.Errors.SessionNotFound
	}
	return storeOrRaw(err, deps.TransportError)
}

func normalizeSessionDeps(deps *SessionDeps) {
	if deps.TransportError == nil {
		deps.TransportError = func(error) error { return nil }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
}
