package records

import "time"

// AccountStatus is the persisted lifecycle flag of an account.
type AccountStatus int16

const (
	// StatusActive accounts may sign in.
	StatusActive AccountStatus = 0
	// StatusDisabled accounts are rejected at sign-in.
	StatusDisabled AccountStatus = 1
)

// DefaultSectionType tags the blog section provisioned at registration.
const DefaultSectionType int16 = 1

// Account is a persisted account row including credential material.
type Account struct {
	ID           string
	Account      string
	PasswordHash string
	Salt         string
	Nickname     string
	GithubURL    *string
	Status       AccountStatus
	CreatedAt    time.Time
}

// NewAccount is the insert shape for an account. The store assigns ID and CreatedAt.
type NewAccount struct {
	Account      string
	PasswordHash string
	Salt         string
	Nickname     string
	GithubURL    *string
	Status       AccountStatus
}

// AccountFilter is a conjunction of equality predicates. Nil fields are ignored;
// at least one field must be set.
type AccountFilter struct {
	ID      *string
	Account *string
	Status  *AccountStatus
}

// ByID filters on the account identifier.
func ByID(id string) AccountFilter {
	return AccountFilter{ID: &id}
}

// ByAccount filters on the unique account name.
func ByAccount(account string) AccountFilter {
	return AccountFilter{Account: &account}
}

// WithStatus narrows f to accounts carrying status.
func (f AccountFilter) WithStatus(status AccountStatus) AccountFilter {
	f.Status = &status
	return f
}

// Empty reports whether the filter names no account. Status only narrows a
// keyed lookup, so a Status-only filter is empty.
func (f AccountFilter) Empty() bool {
	return f.ID == nil && f.Account == nil
}

// AccountPatch is a partial update. Nil fields are left untouched.
// PasswordHash and Salt must be set together.
type AccountPatch struct {
	Nickname     *string
	GithubURL    *string
	Status       *AccountStatus
	PasswordHash *string
	Salt         *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Nickname == nil && p.GithubURL == nil && p.Status == nil && p.PasswordHash == nil && p.Salt == nil
}

// Section is an owned resource provisioned alongside an account.
type Section struct {
	ID          string
	Title       string
	Description string
	Type        int16
	OwnerID     string
	CreatedAt   time.Time
}

// NewSection is the insert shape for a section.
type NewSection struct {
	Title       string
	Description string
	Type        int16
	OwnerID     string
}
