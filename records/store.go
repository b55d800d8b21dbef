package records

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no row matches a filter.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidFilter is returned for empty filters or inconsistent patches.
	ErrInvalidFilter = errors.New("invalid record filter")
	// ErrUnavailable wraps transport-level failures of the backing store.
	ErrUnavailable = errors.New("record store unavailable")
)

// SectionFactory derives the default section of a freshly inserted account.
type SectionFactory func(Account) NewSection

// Store is the Record Store collaborator consumed by the engine. Implementations
// must be safe for concurrent use and must enforce account-name uniqueness
// atomically on insert.
type Store interface {
	FindAccount(ctx context.Context, filter AccountFilter) (Account, error)
	InsertAccount(ctx context.Context, in NewAccount) (Account, error)
	UpdateAccount(ctx context.Context, filter AccountFilter, patch AccountPatch) (Account, error)
	InsertSection(ctx context.Context, in NewSection) (Section, error)
	FindSectionByOwner(ctx context.Context, ownerID string) (Section, error)

	// CreateAccountWithSection inserts the account and its default section as
	// one unit: either both rows exist afterwards or neither does.
	CreateAccountWithSection(ctx context.Context, in NewAccount, section SectionFactory) (Account, Section, error)
}

func validatePatch(patch AccountPatch) error {
	if patch.Empty() {
		return ErrInvalidFilter
	}
	if (patch.PasswordHash == nil) != (patch.Salt == nil) {
		return ErrInvalidFilter
	}
	return nil
}
