package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/blogauth/records"
)

type RegisterRequest struct {
	Account   string
	Password  string
	Nickname  string
	GithubURL *string
}

type RegisterResult struct {
	AccountID string
	Account   string
	SectionID string
}

type RegisterMetrics struct {
	RegisterSuccess     int
	RegisterDuplicate   int
	RegisterRateLimited int
	RegisterFailure     int
}

type RegisterEvents struct {
	RegisterSuccess     string
	RegisterFailure     string
	RegisterDuplicate   string
	RegisterRateLimited string
	SectionReconciled   string
}

type RegisterErrors struct {
	EngineNotReady        error
	InvalidRequest        error
	PasswordPolicy        error
	RateLimited           error
	AccountExists         error
	AccountNotFound       error
	InternalInconsistency error
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	MinPasswordLength int

	ClientIPFromContext func(context.Context) string

	EnforceLimiter  func(context.Context, string, string) error
	MapLimiterError func(error) error

	FindAccount        func(context.Context, records.AccountFilter) (records.Account, error)
	CreateAccount      func(context.Context, records.NewAccount, records.SectionFactory) (records.Account, records.Section, error)
	FindSectionByOwner func(context.Context, string) (records.Section, error)
	InsertSection      func(context.Context, records.NewSection) (records.Section, error)
	DefaultSection     records.SectionFactory

	NewSalt      func() (string, error)
	HashPassword func(string, string) (string, error)
	IsPolicyErr  func(error) bool

	// TransportError maps store transport failures and deadlines to their
	// public error. It returns nil for every other error.
	TransportError func(error) error

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister validates req, checks the account name is free, and persists
// the account together with its default section.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	normalizeRegisterDeps(&deps)

	if deps.FindAccount == nil || deps.CreateAccount == nil || deps.NewSalt == nil || deps.HashPassword == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if strings.TrimSpace(req.Account) == "" {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.InvalidRequest, func() map[string]string {
			return map[string]string{
				"reason": "empty_account",
			}
		})
		return nil, deps.Errors.InvalidRequest
	}
	if strings.TrimSpace(req.Nickname) == "" {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.InvalidRequest, func() map[string]string {
			return map[string]string{
				"account": req.Account,
				"reason":  "empty_nickname",
			}
		})
		return nil, deps.Errors.InvalidRequest
	}
	if req.Password == "" || len(req.Password) < deps.MinPasswordLength {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.PasswordPolicy, func() map[string]string {
			return map[string]string{
				"account": req.Account,
				"reason":  "password_too_short",
			}
		})
		return nil, deps.Errors.PasswordPolicy
	}

	if err := deps.EnforceLimiter(ctx, req.Account, deps.ClientIPFromContext(ctx)); err != nil {
		mapped := deps.MapLimiterError(err)
		if errors.Is(mapped, deps.Errors.RateLimited) {
			deps.MetricInc(deps.Metrics.RegisterRateLimited)
			deps.EmitAudit(ctx, deps.Events.RegisterRateLimited, false, "", mapped, func() map[string]string {
				return map[string]string{
					"account": req.Account,
				}
			})
		}
		return nil, mapped
	}

	_, err := deps.FindAccount(ctx, records.ByAccount(req.Account))
	switch {
	case err == nil:
		deps.MetricInc(deps.Metrics.RegisterDuplicate)
		deps.EmitAudit(ctx, deps.Events.RegisterDuplicate, false, "", deps.Errors.AccountExists, func() map[string]string {
			return map[string]string{
				"account": req.Account,
			}
		})
		return nil, deps.Errors.AccountExists
	case errors.Is(err, records.ErrNotFound):
	default:
		return nil, registerStoreFailure(ctx, req, err, deps)
	}

	salt, err := deps.NewSalt()
	if err != nil {
		return nil, registerInternalFailure(ctx, req, "salt_generation", err, deps)
	}
	hash, err := deps.HashPassword(req.Password, salt)
	if err != nil {
		if deps.IsPolicyErr(err) {
			deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.PasswordPolicy, func() map[string]string {
				return map[string]string{
					"account": req.Account,
					"reason":  "hash_policy",
				}
			})
			return nil, deps.Errors.PasswordPolicy
		}
		return nil, registerInternalFailure(ctx, req, "hash_generation", err, deps)
	}
	req.Password = ""

	acc, sec, err := deps.CreateAccount(ctx, records.NewAccount{
		Account:      req.Account,
		PasswordHash: hash,
		Salt:         salt,
		Nickname:     req.Nickname,
		GithubURL:    req.GithubURL,
		Status:       records.StatusActive,
	}, deps.DefaultSection)
	if err != nil {
		if errors.Is(err, records.ErrDuplicate) {
			deps.MetricInc(deps.Metrics.RegisterDuplicate)
			deps.EmitAudit(ctx, deps.Events.RegisterDuplicate, false, "", deps.Errors.AccountExists, func() map[string]string {
				return map[string]string{
					"account": req.Account,
					"reason":  "insert_race",
				}
			})
			return nil, deps.Errors.AccountExists
		}
		if mapped := deps.TransportError(err); mapped != nil {
			return nil, registerStoreFailure(ctx, req, err, deps)
		}
		return nil, registerInternalFailure(ctx, req, "insert_failed", err, deps)
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, acc.ID, nil, func() map[string]string {
		return map[string]string{
			"account": acc.Account,
		}
	})

	return &RegisterResult{
		AccountID: acc.ID,
		Account:   acc.Account,
		SectionID: sec.ID,
	}, nil
}

// RunEnsureDefaultSection creates the default section of accountID when it is
// missing. Repeated calls leave exactly one section.
func RunEnsureDefaultSection(ctx context.Context, accountID string, deps RegisterDeps) (records.Section, error) {
	normalizeRegisterDeps(&deps)

	if deps.FindAccount == nil || deps.FindSectionByOwner == nil || deps.InsertSection == nil {
		return records.Section{}, deps.Errors.EngineNotReady
	}
	if accountID == "" {
		return records.Section{}, deps.Errors.InvalidRequest
	}

	acc, err := deps.FindAccount(ctx, records.ByID(accountID))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return records.Section{}, deps.Errors.AccountNotFound
		}
		return records.Section{}, storeOrRaw(err, deps.TransportError)
	}

	sec, err := deps.FindSectionByOwner(ctx, acc.ID)
	if err == nil {
		return sec, nil
	}
	if !errors.Is(err, records.ErrNotFound) {
		return records.Section{}, storeOrRaw(err, deps.TransportError)
	}

	sec, err = deps.InsertSection(ctx, deps.DefaultSection(acc))
	if errors.Is(err, records.ErrDuplicate) {
		// Lost a race with a concurrent reconciliation.
		sec, err = deps.FindSectionByOwner(ctx, acc.ID)
	}
	if err != nil {
		return records.Section{}, storeOrRaw(err, deps.TransportError)
	}

	deps.EmitAudit(ctx, deps.Events.SectionReconciled, true, acc.ID, nil, func() map[string]string {
		return map[string]string{
			"section_id": sec.ID,
		}
	})
	return sec, nil
}

func registerStoreFailure(ctx context.Context, req RegisterRequest, err error, deps RegisterDeps) error {
	mapped := storeOrRaw(err, deps.TransportError)
	deps.MetricInc(deps.Metrics.RegisterFailure)
	deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", mapped, func() map[string]string {
		return map[string]string{
			"account": req.Account,
			"reason":  "store_failure",
		}
	})
	return mapped
}

func registerInternalFailure(ctx context.Context, req RegisterRequest, reason string, err error, deps RegisterDeps) error {
	mapped := errors.Join(deps.Errors.InternalInconsistency, err)
	deps.MetricInc(deps.Metrics.RegisterFailure)
	deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", mapped, func() map[string]string {
		return map[string]string{
			"account": req.Account,
			"reason":  reason,
		}
	})
	return mapped
}

func storeOrRaw(err error, transport func(error) error) error {
	if mapped := transport(err); mapped != nil {
		return mapped
	}
	return err
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.EnforceLimiter == nil {
		deps.EnforceLimiter = func(context.Context, string, string) error { return nil }
	}
	if deps.MapLimiterError == nil {
		deps.MapLimiterError = func(err error) error { return err }
	}
	if deps.IsPolicyErr == nil {
		deps.IsPolicyErr = func(error) bool { return false }
	}
	if deps.TransportError == nil {
		deps.TransportError = func(error) error { return nil }
	}
	if deps.DefaultSection == nil {
		deps.DefaultSection = func(acc records.Account) records.NewSection {
			return records.NewSection{Title: acc.Nickname, Type: records.DefaultSectionType, OwnerID: acc.ID}
		}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
}
