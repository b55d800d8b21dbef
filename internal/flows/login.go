package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/blogauth/records"
)

// LoginMetrics carries metric IDs needed by the login flows.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	SessionCreated   int
}

// LoginEvents carries audit event names emitted by the login flows.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries the public errors returned by the login flows.
type LoginErrors struct {
	EngineNotReady       error
	AccountNotFound      error
	InvalidCredentials   error
	RateLimited          error
	LegacyLoginDisabled  error
	SessionCreationError error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	UpgradeOnLogin         bool
	LegacyPrehashedEnabled bool

	ClientIPFromContext func(context.Context) string

	CheckThrottle   func(context.Context, string, string) error
	RecordFailure   func(context.Context, string, string) error
	ResetThrottle   func(context.Context, string, string) error
	IsRateLimitErr  func(error) bool
	FindActive      func(context.Context, string) (records.Account, error)
	VerifyPassword  func(string, string, string) (bool, error)
	NeedsUpgrade    func(string) (bool, error)
	UpgradePassword func(context.Context, records.Account, string) error
	CreateSession   func(context.Context, string) (string, error)

	// TransportError maps store transport failures and deadlines to their
	// public error. It returns nil for every other error.
	TransportError func(error) error
	Warn           func(string, ...any)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunVerifyLogin checks account/password against the stored salted hash and
// mints a session on success.
func RunVerifyLogin(ctx context.Context, account, password string, deps LoginDeps) (string, error) {
	normalizeLoginDeps(&deps)

	if deps.FindActive == nil || deps.VerifyPassword == nil || deps.CreateSession == nil {
		return "", deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	if err := admitLogin(ctx, account, ip, deps); err != nil {
		return "", err
	}

	acc, err := findLoginAccount(ctx, account, ip, deps)
	if err != nil {
		return "", err
	}

	ok, err := deps.VerifyPassword(password, acc.Salt, acc.PasswordHash)
	if err != nil || !ok {
		reason := "password_mismatch"
		if err != nil {
			reason = "hash_unverifiable"
		}
		return "", rejectLogin(ctx, account, acc.ID, ip, reason, deps)
	}

	if deps.UpgradeOnLogin && deps.NeedsUpgrade != nil && deps.UpgradePassword != nil {
		if needsUpgrade, err := deps.NeedsUpgrade(acc.PasswordHash); err == nil && needsUpgrade {
			// Rehash is best-effort and must not block a successful login.
			if err := deps.UpgradePassword(ctx, acc, password); err != nil {
				deps.Warn("blogauth: password hash upgrade failed", "account_id", acc.ID, "error", err)
			}
		}
	}
	password = ""

	return finishLogin(ctx, acc, ip, deps)
}

// RunVerifyLoginPrehashed compares a caller-supplied encoded hash with the
// stored one. It exists for legacy clients and is refused unless explicitly
// enabled.
func RunVerifyLoginPrehashed(ctx context.Context, account, encoded string, deps LoginDeps) (string, error) {
	normalizeLoginDeps(&deps)

	if !deps.LegacyPrehashedEnabled {
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.LegacyLoginDisabled, func() map[string]string {
			return map[string]string{
				"account": account,
				"reason":  "legacy_disabled",
			}
		})
		return "", deps.Errors.LegacyLoginDisabled
	}
	if deps.FindActive == nil || deps.CreateSession == nil {
		return "", deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	if err := admitLogin(ctx, account, ip, deps); err != nil {
		return "", err
	}

	acc, err := findLoginAccount(ctx, account, ip, deps)
	if err != nil {
		return "", err
	}

	if encoded == "" || subtle.ConstantTimeCompare([]byte(encoded), []byte(acc.PasswordHash)) != 1 {
		return "", rejectLogin(ctx, account, acc.ID, ip, "prehashed_mismatch", deps)
	}

	return finishLogin(ctx, acc, ip, deps)
}

func admitLogin(ctx context.Context, account, ip string, deps LoginDeps) error {
	err := deps.CheckThrottle(ctx, account, ip)
	if err == nil {
		return nil
	}
	if deps.IsRateLimitErr(err) {
		deps.MetricInc(deps.Metrics.LoginRateLimited)
		deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", deps.Errors.RateLimited, func() map[string]string {
			return map[string]string{
				"account": account,
			}
		})
		return deps.Errors.RateLimited
	}
	return storeOrRaw(err, deps.TransportError)
}

func findLoginAccount(ctx context.Context, account, ip string, deps LoginDeps) (records.Account, error) {
	if account == "" {
		return records.Account{}, rejectWith(ctx, account, "", ip, "empty_account", deps.Errors.AccountNotFound, deps)
	}

	acc, err := deps.FindActive(ctx, account)
	if err == nil {
		return acc, nil
	}
	if errors.Is(err, records.ErrNotFound) {
		return records.Account{}, rejectWith(ctx, account, "", ip, "account_not_found", deps.Errors.AccountNotFound, deps)
	}
	return records.Account{}, storeOrRaw(err, deps.TransportError)
}

func rejectLogin(ctx context.Context, account, accountID, ip, reason string, deps LoginDeps) error {
	return rejectWith(ctx, account, accountID, ip, reason, deps.Errors.InvalidCredentials, deps)
}

func rejectWith(ctx context.Context, account, accountID, ip, reason string, public error, deps LoginDeps) error {
	if err := deps.RecordFailure(ctx, account, ip); err != nil {
		if deps.IsRateLimitErr(err) {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, accountID, deps.Errors.RateLimited, func() map[string]string {
				return map[string]string{
					"account": account,
				}
			})
			return deps.Errors.RateLimited
		}
		deps.Warn("blogauth: login throttle increment failed", "error", err)
	}

	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, accountID, public, func() map[string]string {
		return map[string]string{
			"account": account,
			"reason":  reason,
		}
	})
	return public
}

func finishLogin(ctx context.Context, acc records.Account, ip string, deps LoginDeps) (string, error) {
	token, err := deps.CreateSession(ctx, acc.Account)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		mapped := storeOrRaw(err, deps.TransportError)
		if mapped == err && deps.Errors.SessionCreationError != nil {
			mapped = errors.Join(deps.Errors.SessionCreationError, err)
		}
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, acc.ID, mapped, func() map[string]string {
			return map[string]string{
				"account": acc.Account,
				"reason":  "session_creation",
			}
		})
		return "", mapped
	}

	if err := deps.ResetThrottle(ctx, acc.Account, ip); err != nil {
		deps.Warn("blogauth: login throttle reset failed", "account_id", acc.ID, "error", err)
	}

	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, acc.ID, nil, func() map[string]string {
		return map[string]string{
			"account": acc.Account,
		}
	})
	return token, nil
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.CheckThrottle == nil {
		deps.CheckThrottle = func(context.Context, string, string) error { return nil }
	}
	if deps.RecordFailure == nil {
		deps.RecordFailure = func(context.Context, string, string) error { return nil }
	}
	if deps.ResetThrottle == nil {
		deps.ResetThrottle = func(context.Context, string, string) error { return nil }
	}
	if deps.IsRateLimitErr == nil {
		deps.IsRateLimitErr = func(error) bool { return false }
	}
	if deps.TransportError == nil {
		deps.TransportError = func(error) error { return nil }
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
}
