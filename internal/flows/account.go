package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/blogauth/records"
)

// ProfileEdit is the flow-local partial profile update.
type ProfileEdit struct {
	Nickname  *string
	GithubURL *string
}

type AccountMetrics struct {
	ProfileUpdated        int
	PasswordChangeSuccess int
	PasswordChangeFailure int
}

type AccountEvents struct {
	ProfileUpdated        string
	NicknameUpdated       string
	PasswordChangeSuccess string
	PasswordChangeFailure string
}

type AccountErrors struct {
	EngineNotReady        error
	InvalidRequest        error
	PasswordPolicy        error
	AccountNotFound       error
	SessionNotFound       error
	InternalInconsistency error
}

// AccountDeps captures dependencies of the session-bound account flows.
type AccountDeps struct {
	MinPasswordLength int

	ResolveSession func(context.Context, string) (string, error)
	FindAccount    func(context.Context, records.AccountFilter) (records.Account, error)
	UpdateAccount  func(context.Context, records.AccountFilter, records.AccountPatch) (records.Account, error)
	NewSalt        func() (string, error)
	HashPassword   func(string, string) (string, error)
	IsPolicyErr    func(error) bool

	// TransportError maps store transport failures and deadlines to their
	// public error. It returns nil for every other error.
	TransportError func(error) error

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics AccountMetrics
	Events  AccountEvents
	Errors  AccountErrors
}

// RunResolveCurrentAccount returns the account bound to token.
func RunResolveCurrentAccount(ctx context.Context, token string, deps AccountDeps) (records.Account, error) {
	normalizeAccountDeps(&deps)

	if deps.ResolveSession == nil || deps.FindAccount == nil {
		return records.Account{}, deps.Errors.EngineNotReady
	}

	name, err := deps.ResolveSession(ctx, token)
	if err != nil {
		return records.Account{}, err
	}

	acc, err := deps.FindAccount(ctx, records.ByAccount(name))
	if err != nil {
		return records.Account{}, accountLookupError(err, deps)
	}
	return acc, nil
}

// RunUpdateProfile applies edit to the account bound to token. Only the
// fields present in edit change.
func RunUpdateProfile(ctx context.Context, token string, edit ProfileEdit, deps AccountDeps) (records.Account, error) {
	normalizeAccountDeps(&deps)

	if deps.ResolveSession == nil || deps.UpdateAccount == nil {
		return records.Account{}, deps.Errors.EngineNotReady
	}
	if edit.Nickname == nil && edit.GithubURL == nil {
		return records.Account{}, deps.Errors.InvalidRequest
	}
	if edit.Nickname != nil && strings.TrimSpace(*edit.Nickname) == "" {
		return records.Account{}, deps.Errors.InvalidRequest
	}

	name, err := deps.ResolveSession(ctx, token)
	if err != nil {
		return records.Account{}, err
	}

	acc, err := deps.UpdateAccount(ctx, records.ByAccount(name), records.AccountPatch{
		Nickname:  edit.Nickname,
		GithubURL: edit.GithubURL,
	})
	if err != nil {
		return records.Account{}, accountLookupError(err, deps)
	}

	deps.MetricInc(deps.Metrics.ProfileUpdated)
	deps.EmitAudit(ctx, deps.Events.ProfileUpdated, true, acc.ID, nil, func() map[string]string {
		return map[string]string{
			"nickname_changed": boolString(edit.Nickname != nil),
			"github_changed":   boolString(edit.GithubURL != nil),
		}
	})
	return acc, nil
}

// RunUpdateNickname replaces the nickname of the account identified by accountID.
func RunUpdateNickname(ctx context.Context, accountID, nickname string, deps AccountDeps) (records.Account, error) {
	normalizeAccountDeps(&deps)

	if deps.UpdateAccount == nil {
		return records.Account{}, deps.Errors.EngineNotReady
	}
	if accountID == "" || strings.TrimSpace(nickname) == "" {
		return records.Account{}, deps.Errors.InvalidRequest
	}

	acc, err := deps.UpdateAccount(ctx, records.ByID(accountID), records.AccountPatch{Nickname: &nickname})
	if err != nil {
		return records.Account{}, accountLookupError(err, deps)
	}

	deps.MetricInc(deps.Metrics.ProfileUpdated)
	deps.EmitAudit(ctx, deps.Events.NicknameUpdated, true, acc.ID, nil, nil)
	return acc, nil
}

// RunChangePassword re-salts and re-hashes newPassword and stores both
// values in a single update.
func RunChangePassword(ctx context.Context, accountID, newPassword string, deps AccountDeps) (records.Account, error) {
	normalizeAccountDeps(&deps)

	if deps.UpdateAccount == nil || deps.NewSalt == nil || deps.HashPassword == nil {
		return records.Account{}, deps.Errors.EngineNotReady
	}
	if accountID == "" {
		return records.Account{}, deps.Errors.InvalidRequest
	}
	if newPassword == "" || len(newPassword) < deps.MinPasswordLength {
		return records.Account{}, passwordChangeFailure(ctx, accountID, "password_too_short", deps.Errors.PasswordPolicy, deps)
	}

	salt, err := deps.NewSalt()
	if err != nil {
		return records.Account{}, passwordChangeFailure(ctx, accountID, "salt_generation", errors.Join(deps.Errors.InternalInconsistency, err), deps)
	}
	hash, err := deps.HashPassword(newPassword, salt)
	if err != nil {
		if deps.IsPolicyErr(err) {
			return records.Account{}, passwordChangeFailure(ctx, accountID, "hash_policy", deps.Errors.PasswordPolicy, deps)
		}
		return records.Account{}, passwordChangeFailure(ctx, accountID, "hash_generation", errors.Join(deps.Errors.InternalInconsistency, err), deps)
	}
	newPassword = ""

	acc, err := deps.UpdateAccount(ctx, records.ByID(accountID), records.AccountPatch{
		PasswordHash: &hash,
		Salt:         &salt,
	})
	if err != nil {
		return records.Account{}, passwordChangeFailure(ctx, accountID, "store_update", accountLookupError(err, deps), deps)
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChangeSuccess, true, acc.ID, nil, nil)
	return acc, nil
}

func passwordChangeFailure(ctx context.Context, accountID, reason string, err error, deps AccountDeps) error {
	deps.MetricInc(deps.Metrics.PasswordChangeFailure)
	deps.EmitAudit(ctx, deps.Events.PasswordChangeFailure, false, accountID, err, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return err
}

func accountLookupError(err error, deps AccountDeps) error {
	if errors.Is(err, records.ErrNotFound) {
		return deps.Errors.AccountNotFound
	}
	return storeOrRaw(err, deps.TransportError)
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func normalizeAccountDeps(deps *AccountDeps) {
	if deps.IsPolicyErr == nil {
		deps.IsPolicyErr = func(error) bool { return false }
	}
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
