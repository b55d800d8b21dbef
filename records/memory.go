package records

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process [Store]. The zero value is not usable; call
// [NewMemoryStore].
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]Account
	byAccount map[string]string
	sections  map[string]Section
	byOwner   map[string]string
	now       func() time.Time
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  map[string]Account{},
		byAccount: map[string]string{},
		sections:  map[string]Section{},
		byOwner:   map[string]string{},
		now:       time.Now,
	}
}

// FindAccount returns the first account matching filter.
func (s *MemoryStore) FindAccount(ctx context.Context, filter AccountFilter) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	if filter.Empty() {
		return Account{}, ErrInvalidFilter
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.lookupLocked(filter)
	if !ok {
		return Account{}, ErrNotFound
	}
	return cloneAccount(acc), nil
}

// InsertAccount stores a new account and assigns its identifier.
func (s *MemoryStore) InsertAccount(ctx context.Context, in NewAccount) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertAccountLocked(in)
}

// UpdateAccount applies patch to the account matching filter.
func (s *MemoryStore) UpdateAccount(ctx context.Context, filter AccountFilter, patch AccountPatch) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	if filter.Empty() {
		return Account{}, ErrInvalidFilter
	}
	if err := validatePatch(patch); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.lookupLocked(filter)
	if !ok {
		return Account{}, ErrNotFound
	}

	if patch.Nickname != nil {
		acc.Nickname = *patch.Nickname
	}
	if patch.GithubURL != nil {
		v := *patch.GithubURL
		acc.GithubURL = &v
	}
	if patch.Status != nil {
		acc.Status = *patch.Status
	}
	if patch.PasswordHash != nil {
		acc.PasswordHash = *patch.PasswordHash
		acc.Salt = *patch.Salt
	}

	s.accounts[acc.ID] = acc
	return cloneAccount(acc), nil
}

// InsertSection stores a section. One section per owner.
func (s *MemoryStore) InsertSection(ctx context.Context, in NewSection) (Section, error) {
	if err := ctx.Err(); err != nil {
		return Section{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[in.OwnerID]; !ok {
		return Section{}, ErrNotFound
	}
	return s.insertSectionLocked(in)
}

// FindSectionByOwner returns the section owned by ownerID.
func (s *MemoryStore) FindSectionByOwner(ctx context.Context, ownerID string) (Section, error) {
	if err := ctx.Err(); err != nil {
		return Section{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return Section{}, ErrNotFound
	}
	return s.sections[id], nil
}

// CreateAccountWithSection inserts both rows under one lock.
func (s *MemoryStore) CreateAccountWithSection(ctx context.Context, in NewAccount, section SectionFactory) (Account, Section, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, Section{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.insertAccountLocked(in)
	if err != nil {
		return Account{}, Section{}, err
	}

	sec, err := s.insertSectionLocked(section(acc))
	if err != nil {
		delete(s.accounts, acc.ID)
		delete(s.byAccount, acc.Account)
		return Account{}, Section{}, err
	}

	return acc, sec, nil
}

func (s *MemoryStore) insertAccountLocked(in NewAccount) (Account, error) {
	if _, exists := s.byAccount[in.Account]; exists {
		return Account{}, ErrDuplicate
	}

	acc := Account{
		ID:           uuid.NewString(),
		Account:      in.Account,
		PasswordHash: in.PasswordHash,
		Salt:         in.Salt,
		Nickname:     in.Nickname,
		Status:       in.Status,
		CreatedAt:    s.now().UTC(),
	}
	if in.GithubURL != nil {
		v := *in.GithubURL
		acc.GithubURL = &v
	}

	s.accounts[acc.ID] = acc
	s.byAccount[acc.Account] = acc.ID
	return cloneAccount(acc), nil
}

func (s *MemoryStore) insertSectionLocked(in NewSection) (Section, error) {
	if _, exists := s.byOwner[in.OwnerID]; exists {
		return Section{}, ErrDuplicate
	}

	sec := Section{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		OwnerID:     in.OwnerID,
		CreatedAt:   s.now().UTC(),
	}
	s.sections[sec.ID] = sec
	s.byOwner[sec.OwnerID] = sec.ID
	return sec, nil
}

func (s *MemoryStore) lookupLocked(filter AccountFilter) (Account, bool) {
	var (
		acc Account
		ok  bool
	)

	if filter.ID != nil {
		acc, ok = s.accounts[*filter.ID]
	} else {
		var id string
		id, ok = s.byAccount[*filter.Account]
		if ok {
			acc, ok = s.accounts[id]
		}
	}
	if !ok {
		return Account{}, false
	}

	if filter.Account != nil && acc.Account != *filter.Account {
		return Account{}, false
	}
	if filter.Status != nil && acc.Status != *filter.Status {
		return Account{}, false
	}
	return acc, true
}

func cloneAccount(acc Account) Account {
	if acc.GithubURL != nil {
		v := *acc.GithubURL
		acc.GithubURL = &v
	}
	return acc
}
