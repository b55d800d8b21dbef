package blogauth

import (
	"context"
	"errors"

	internalflows "github.com/MrEthical07/blogauth/internal/flows"
	"github.com/MrEthical07/blogauth/records"
)

// ResolveCurrentAccount returns the account bound to token.
func (e *Engine) ResolveCurrentAccount(ctx context.Context, token string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	acc, err := internalflows.RunResolveCurrentAccount(ctx, token, e.accountFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return toAccount(acc), nil
}

// UpdateProfile applies edit to the account bound to token and returns the
// updated account. Only non-nil fields change; an empty edit or an empty
// nickname fails with ErrInvalidRequest.
func (e *Engine) UpdateProfile(ctx context.Context, token string, edit ProfileEdit) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	acc, err := internalflows.RunUpdateProfile(ctx, token, internalflows.ProfileEdit{
		Nickname:  edit.Nickname,
		GithubURL: edit.GithubURL,
	}, e.accountFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return toAccount(acc), nil
}

// UpdateNickname replaces the nickname of accountID.
func (e *Engine) UpdateNickname(ctx context.Context, accountID, nickname string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	acc, err := internalflows.RunUpdateNickname(ctx, accountID, nickname, e.accountFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return toAccount(acc), nil
}

// ChangePassword stores a fresh salt and the hash of newPassword for
// accountID in one update. Existing sessions stay valid.
func (e *Engine) ChangePassword(ctx context.Context, accountID, newPassword string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	acc, err := internalflows.RunChangePassword(ctx, accountID, newPassword, e.accountFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return toAccount(acc), nil
}

// GetAccountByName returns the account named account regardless of status.
func (e *Engine) GetAccountByName(ctx context.Context, account string) (Account, error) {
	if account == "" {
		return Account{}, ErrAccountNotFound
	}
	return e.getAccount(ctx, records.ByAccount(account))
}

// GetAccountByID returns the account identified by id regardless of status.
func (e *Engine) GetAccountByID(ctx context.Context, id string) (Account, error) {
	if id == "" {
		return Account{}, ErrAccountNotFound
	}
	return e.getAccount(ctx, records.ByID(id))
}

func (e *Engine) getAccount(ctx context.Context, filter records.AccountFilter) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	acc, err := e.findAccount(ctx, filter)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return Account{}, ErrAccountNotFound
		}
		if mapped := transportError(err); mapped != nil {
			return Account{}, mapped
		}
		return Account{}, err
	}
	return toAccount(acc), nil
}

func (e *Engine) findAccount(ctx context.Context, filter records.AccountFilter) (records.Account, error) {
	return withStore(e, ctx, func(ctx context.Context) (records.Account, error) {
		return e.records.FindAccount(ctx, filter)
	})
}

func (e *Engine) accountFlowDeps() internalflows.AccountDeps {
	sessions := e.sessionFlowDeps()

	return internalflows.AccountDeps{
		MinPasswordLength: e.config.Password.MinLength,
		ResolveSession: func(ctx context.Context, token string) (string, error) {
			return internalflows.RunResolveSession(ctx, token, sessions)
		},
		FindAccount: e.findAccount,
		UpdateAccount: func(ctx context.Context, filter records.AccountFilter, patch records.AccountPatch) (records.Account, error) {
			return withStore(e, ctx, func(ctx context.Context) (records.Account, error) {
				return e.records.UpdateAccount(ctx, filter, patch)
			})
		},
		NewSalt:        e.passwords.NewSalt,
		HashPassword:   e.passwords.Encode,
		IsPolicyErr:    isPasswordPolicyErr,
		TransportError: transportError,
		MetricInc:      e.metricIncInt,
		EmitAudit:      e.emitAudit,
		Metrics: internalflows.AccountMetrics{
			ProfileUpdated:        int(MetricProfileUpdated),
			PasswordChangeSuccess: int(MetricPasswordChangeSuccess),
			PasswordChangeFailure: int(MetricPasswordChangeFailure),
		},
		Events: internalflows.AccountEvents{
			ProfileUpdated:        auditEventProfileUpdated,
			NicknameUpdated:       auditEventNicknameUpdated,
			PasswordChangeSuccess: auditEventPasswordChangeSuccess,
			PasswordChangeFailure: auditEventPasswordChangeFailure,
		},
		Errors: internalflows.AccountErrors{
			EngineNotReady:        ErrEngineNotReady,
			InvalidRequest:        ErrInvalidRequest,
			PasswordPolicy:        ErrPasswordPolicy,
			AccountNotFound:       ErrAccountNotFound,
			SessionNotFound:       ErrSessionNotFound,
			InternalInconsistency: ErrInternalInconsistency,
		},
	}
}
