package blogauth

import (
	"context"
	"errors"
	"time"

	internalflows "github.com/MrEthical07/blogauth/internal/flows"
	"github.com/MrEthical07/blogauth/internal/rate"
	"github.com/MrEthical07/blogauth/records"
)

// VerifyLogin checks account and password against the stored salted hash and
// on success mints a session, returning its token.
//
// An unknown, disabled, or empty account fails with ErrAccountNotFound; a
// wrong password fails with ErrInvalidCredentials. Repeated failures inside
// the cooldown window fail with ErrLoginRateLimited.
//
//	Performance: one Argon2id verification, one record lookup, and a handful
//	of Redis round-trips.
func (e *Engine) VerifyLogin(ctx context.Context, account, password string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	token, err := internalflows.RunVerifyLogin(ctx, account, password, e.loginFlowDeps())

	if !start.IsZero() {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}
	return token, err
}

// VerifyLoginPrehashed signs in a legacy client that submits the stored
// encoded hash instead of the password.
//
// Deprecated: it only works while Security.EnableLegacyPrehashedLogin is set
// and returns ErrLegacyLoginDisabled otherwise. Use [Engine.VerifyLogin].
func (e *Engine) VerifyLoginPrehashed(ctx context.Context, account, encodedHash string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	return internalflows.RunVerifyLoginPrehashed(ctx, account, encodedHash, e.loginFlowDeps())
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	return internalflows.LoginDeps{
		UpgradeOnLogin:         e.config.Password.UpgradeOnLogin,
		LegacyPrehashedEnabled: e.config.Security.EnableLegacyPrehashedLogin,
		ClientIPFromContext:    clientIPFromContext,
		CheckThrottle: func(ctx context.Context, account, ip string) error {
			return withStoreErr(e, ctx, func(ctx context.Context) error {
				return e.rateLimiter.CheckLogin(ctx, account, ip)
			})
		},
		RecordFailure: func(ctx context.Context, account, ip string) error {
			return withStoreErr(e, ctx, func(ctx context.Context) error {
				return e.rateLimiter.IncrementLogin(ctx, account, ip)
			})
		},
		ResetThrottle: func(ctx context.Context, account, ip string) error {
			return withStoreErr(e, ctx, func(ctx context.Context) error {
				return e.rateLimiter.ResetLogin(ctx, account, ip)
			})
		},
		IsRateLimitErr: func(err error) bool {
			return errors.Is(err, rate.ErrRateLimited)
		},
		FindActive: func(ctx context.Context, account string) (records.Account, error) {
			return withStore(e, ctx, func(ctx context.Context) (records.Account, error) {
				return e.records.FindAccount(ctx, records.ByAccount(account).WithStatus(records.StatusActive))
			})
		},
		VerifyPassword: e.passwords.Verify,
		NeedsUpgrade:   e.passwords.NeedsUpgrade,
		UpgradePassword: func(ctx context.Context, acc records.Account, password string) error {
			return e.upgradePassword(ctx, acc, password)
		},
		CreateSession: func(ctx context.Context, account string) (string, error) {
			return withStore(e, ctx, func(ctx context.Context) (string, error) {
				return e.sessions.Create(ctx, account, e.config.Session.TTL)
			})
		},
		TransportError: transportError,
		Warn:           e.warn,
		MetricInc:      e.metricIncInt,
		EmitAudit:      e.emitAudit,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:       ErrEngineNotReady,
			AccountNotFound:      ErrAccountNotFound,
			InvalidCredentials:   ErrInvalidCredentials,
			RateLimited:          ErrLoginRateLimited,
			LegacyLoginDisabled:  ErrLegacyLoginDisabled,
			SessionCreationError: ErrSessionCreationFailed,
		},
	}
}

// upgradePassword re-encodes password under the current parameters with a
// fresh salt.
func (e *Engine) upgradePassword(ctx context.Context, acc records.Account, password string) error {
	salt, err := e.passwords.NewSalt()
	if err != nil {
		return err
	}
	hash, err := e.passwords.Encode(password, salt)
	if err != nil {
		return err
	}

	err = withStoreErr(e, ctx, func(ctx context.Context) error {
		_, err := e.records.UpdateAccount(ctx, records.ByID(acc.ID), records.AccountPatch{
			PasswordHash: &hash,
			Salt:         &salt,
		})
		return err
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricPasswordUpgraded)
	return nil
}
