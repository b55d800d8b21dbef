package blogauth

import (
	"context"
	"errors"

	internalflows "github.com/MrEthical07/blogauth/internal/flows"
	"github.com/MrEthical07/blogauth/internal/limiters"
	"github.com/MrEthical07/blogauth/records"
)

// Register creates an account with a fresh salt and salted hash, plus its
// default blog section titled after the nickname.
//
// Failure modes: ErrInvalidRequest, ErrPasswordPolicy,
// ErrRegistrationRateLimited, ErrAccountExists, ErrStoreUnavailable,
// ErrTimeout, and ErrInternalInconsistency for an insert that fails after
// the existence check. Registration does not sign the caller in.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res, err := internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Account:   req.Account,
		Password:  req.Password,
		Nickname:  req.Nickname,
		GithubURL: req.GithubURL,
	}, e.registerFlowDeps())
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		AccountID: res.AccountID,
		Account:   res.Account,
		Message:   RegisterMessage,
	}, nil
}

// EnsureDefaultSection creates the default section of accountID if it is
// missing and returns it. Calling it repeatedly leaves exactly one section.
func (e *Engine) EnsureDefaultSection(ctx context.Context, accountID string) (Section, error) {
	if !e.ready() {
		return Section{}, ErrEngineNotReady
	}

	sec, err := internalflows.RunEnsureDefaultSection(ctx, accountID, e.registerFlowDeps())
	if err != nil {
		return Section{}, err
	}
	return toSection(sec), nil
}

// DefaultSection returns the section owned by accountID.
func (e *Engine) DefaultSection(ctx context.Context, accountID string) (Section, error) {
	if !e.ready() {
		return Section{}, ErrEngineNotReady
	}
	if accountID == "" {
		return Section{}, ErrInvalidRequest
	}

	sec, err := withStore(e, ctx, func(ctx context.Context) (records.Section, error) {
		return e.records.FindSectionByOwner(ctx, accountID)
	})
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return Section{}, ErrAccountNotFound
		}
		if mapped := transportError(err); mapped != nil {
			return Section{}, mapped
		}
		return Section{}, err
	}
	return toSection(sec), nil
}

func (e *Engine) registerFlowDeps() internalflows.RegisterDeps {
	return internalflows.RegisterDeps{
		MinPasswordLength:   e.config.Password.MinLength,
		ClientIPFromContext: clientIPFromContext,
		EnforceLimiter: func(ctx context.Context, account, ip string) error {
			if e.registrationLimiter == nil {
				return nil
			}
			return withStoreErr(e, ctx, func(ctx context.Context) error {
				return e.registrationLimiter.Enforce(ctx, account, ip)
			})
		},
		MapLimiterError: mapRegistrationLimiterError,
		FindAccount: func(ctx context.Context, filter records.AccountFilter) (records.Account, error) {
			return withStore(e, ctx, func(ctx context.Context) (records.Account, error) {
				return e.records.FindAccount(ctx, filter)
			})
		},
		CreateAccount: func(ctx context.Context, in records.NewAccount, section records.SectionFactory) (records.Account, records.Section, error) {
			type created struct {
				acc records.Account
				sec records.Section
			}
			out, err := withStore(e, ctx, func(ctx context.Context) (created, error) {
				acc, sec, err := e.records.CreateAccountWithSection(ctx, in, section)
				return created{acc: acc, sec: sec}, err
			})
			return out.acc, out.sec, err
		},
		FindSectionByOwner: func(ctx context.Context, ownerID string) (records.Section, error) {
			return withStore(e, ctx, func(ctx context.Context) (records.Section, error) {
				return e.records.FindSectionByOwner(ctx, ownerID)
			})
		},
		InsertSection: func(ctx context.Context, in records.NewSection) (records.Section, error) {
			return withStore(e, ctx, func(ctx context.Context) (records.Section, error) {
				return e.records.InsertSection(ctx, in)
			})
		},
		DefaultSection: defaultSection,
		NewSalt:        e.passwords.NewSalt,
		HashPassword:   e.passwords.Encode,
		IsPolicyErr:    isPasswordPolicyErr,
		TransportError: transportError,
		MetricInc:      e.metricIncInt,
		EmitAudit:      e.emitAudit,
		Metrics: internalflows.RegisterMetrics{
			RegisterSuccess:     int(MetricRegisterSuccess),
			RegisterDuplicate:   int(MetricRegisterDuplicate),
			RegisterRateLimited: int(MetricRegisterRateLimited),
			RegisterFailure:     int(MetricRegisterFailure),
		},
		Events: internalflows.RegisterEvents{
			RegisterSuccess:     auditEventRegisterSuccess,
			RegisterFailure:     auditEventRegisterFailure,
			RegisterDuplicate:   auditEventRegisterDuplicate,
			RegisterRateLimited: auditEventRegisterRateLimited,
			SectionReconciled:   auditEventSectionReconciled,
		},
		Errors: internalflows.RegisterErrors{
			EngineNotReady:        ErrEngineNotReady,
			InvalidRequest:        ErrInvalidRequest,
			PasswordPolicy:        ErrPasswordPolicy,
			RateLimited:           ErrRegistrationRateLimited,
			AccountExists:         ErrAccountExists,
			AccountNotFound:       ErrAccountNotFound,
			InternalInconsistency: ErrInternalInconsistency,
		},
	}
}

func mapRegistrationLimiterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiters.ErrRegistrationRateLimited):
		return ErrRegistrationRateLimited
	}
	if mapped := transportError(err); mapped != nil {
		return mapped
	}
	return err
}
