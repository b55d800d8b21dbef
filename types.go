package blogauth

import (
	"time"

	"github.com/MrEthical07/blogauth/records"
)

// RegisterMessage is the confirmation text returned by a successful Register.
const RegisterMessage = "register success."

// AccountStatus is the lifecycle flag of an account.
type AccountStatus uint8

const (
	// AccountActive accounts may sign in.
	AccountActive AccountStatus = iota
	// AccountDisabled accounts are rejected at sign-in as unknown.
	AccountDisabled
)

// String returns the lowercase name of s.
func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Account is the public view of an account. It never carries the password
// hash or the salt.
type Account struct {
	ID        string
	Account   string
	Nickname  string
	GithubURL *string
	Status    AccountStatus
	CreatedAt time.Time
}

// RegisterRequest is the input of [Engine.Register].
type RegisterRequest struct {
	Account   string
	Password  string
	Nickname  string
	GithubURL *string
}

// RegisterResult is the output of [Engine.Register]. Registration never
// signs the caller in.
type RegisterResult struct {
	AccountID string
	Account   string
	Message   string
}

// ProfileEdit is a partial profile update. Nil fields are left untouched.
type ProfileEdit struct {
	Nickname  *string
	GithubURL *string
}

// Section is the public view of the blog section provisioned at registration.
type Section struct {
	ID          string
	Title       string
	Description string
	Type        int16
	OwnerID     string
	CreatedAt   time.Time
}

// SessionInfo describes a live session.
type SessionInfo struct {
	Account   string
	LoginTime time.Time
	ExpiresIn time.Duration
}

// HealthStatus is a point-in-time availability report for the session store.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

func toAccount(acc records.Account) Account {
	out := Account{
		ID:        acc.ID,
		Account:   acc.Account,
		Nickname:  acc.Nickname,
		Status:    fromRecordStatus(acc.Status),
		CreatedAt: acc.CreatedAt,
	}
	if acc.GithubURL != nil {
		v := *acc.GithubURL
		out.GithubURL = &v
	}
	return out
}

func toSection(sec records.Section) Section {
	return Section{
		ID:          sec.ID,
		Title:       sec.Title,
		Description: sec.Description,
		Type:        sec.Type,
		OwnerID:     sec.OwnerID,
		CreatedAt:   sec.CreatedAt,
	}
}

func fromRecordStatus(s records.AccountStatus) AccountStatus {
	if s == records.StatusActive {
		return AccountActive
	}
	return AccountDisabled
}

// defaultSection is the blog section every new account owns.
func defaultSection(acc records.Account) records.NewSection {
	return records.NewSection{
		Title:       acc.Nickname,
		Description: acc.Nickname + "'s blog",
		Type:        records.DefaultSectionType,
		OwnerID:     acc.ID,
	}
}
