package blogauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/blogauth/internal/flows"
	"github.com/MrEthical07/blogauth/session"
)

// ResolveSession returns the account name bound to token, or
// ErrSessionNotFound when the token is unknown or expired.
func (e *Engine) ResolveSession(ctx context.Context, token string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	return internalflows.RunResolveSession(ctx, token, e.sessionFlowDeps())
}

// GetSessionInfo returns the account, login time, and remaining lifetime of
// the session bound to token.
func (e *Engine) GetSessionInfo(ctx context.Context, token string) (*SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	info, err := internalflows.RunGetSessionInfo(ctx, token, e.sessionFlowDeps())
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		Account:   info.Account,
		LoginTime: info.LoginTime,
		ExpiresIn: info.ExpiresIn,
	}, nil
}

// SignOut destroys the session bound to token. Signing out an unknown or
// already expired token succeeds.
func (e *Engine) SignOut(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return internalflows.RunSignOut(ctx, token, e.sessionFlowDeps())
}

func (e *Engine) sessionFlowDeps() internalflows.SessionDeps {
	return internalflows.SessionDeps{
		SessionStore:   timedSessions{e: e},
		TransportError: transportError,
		MetricInc:      e.metricIncInt,
		EmitAudit:      e.emitAudit,
		LogoutMetric:   int(MetricLogout),
		LogoutEvent:    auditEventLogout,
		Errors: internalflows.SessionErrors{
			EngineNotReady:  ErrEngineNotReady,
			SessionNotFound: ErrSessionNotFound,
		},
	}
}

// timedSessions bounds every session store call by Store.OperationTimeout.
type timedSessions struct {
	e *Engine
}

func (s timedSessions) Resolve(ctx context.Context, token string) (session.Record, error) {
	return withStore(s.e, ctx, func(ctx context.Context) (session.Record, error) {
		return s.e.sessions.Resolve(ctx, token)
	})
}

func (s timedSessions) Destroy(ctx context.Context, token string) error {
	return withStoreErr(s.e, ctx, func(ctx context.Context) error {
		return s.e.sessions.Destroy(ctx, token)
	})
}

func (s timedSessions) TTL(ctx context.Context, token string) (time.Duration, error) {
	return withStore(s.e, ctx, func(ctx context.Context) (time.Duration, error) {
		return s.e.sessions.TTL(ctx, token)
	})
}
