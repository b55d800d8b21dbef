package blogauth

import "errors"

var (
	// ErrAccountExists is returned by Register when the account name is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no active account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned when a password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned for unknown, expired, or destroyed session tokens.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable is joined with the underlying cause when the session
	// store or the record store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTimeout is joined with the underlying cause when a store call exceeds
	// Store.OperationTimeout or the caller's deadline.
	ErrTimeout = errors.New("store operation timed out")
	// ErrInternalInconsistency is returned when a write fails after its
	// preconditions were checked, e.g. the account insert after the
	// existence check.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidRequest is returned for empty or malformed request fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPasswordPolicy is returned when a password violates length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrLoginRateLimited is returned once the sign-in attempt budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRegistrationRateLimited is returned once the sign-up attempt budget is exhausted.
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	// ErrLegacyLoginDisabled is returned by VerifyLoginPrehashed unless
	// Security.EnableLegacyPrehashedLogin is set.
	ErrLegacyLoginDisabled = errors.New("pre-hashed login disabled")
	// ErrSessionCreationFailed is joined with the cause when a verified login
	// cannot mint a session for a non-transport reason.
	ErrSessionCreationFailed = errors.New("session creation failed")
)
