package records

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newAccountInput(name string) NewAccount {
	return NewAccount{
		Account:      name,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		Salt:         "c2FsdHNhbHRzYWx0c2FsdA",
		Nickname:     "Nick " + name,
		Status:       StatusActive,
	}
}

func blogSection(acc Account) NewSection {
	return NewSection{
		Title:       acc.Nickname,
		Description: acc.Nickname + "'s blog",
		Type:        DefaultSectionType,
		OwnerID:     acc.ID,
	}
}

func TestMemoryInsertAndFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.InsertAccount(ctx, newAccountInput("alice"))
	if err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created)
	}

	byName, err := store.FindAccount(ctx, ByAccount("alice"))
	if err != nil {
		t.Fatalf("FindAccount by name: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, byName.ID)
	}

	byID, err := store.FindAccount(ctx, ByID(created.ID))
	if err != nil {
		t.Fatalf("FindAccount by id: %v", err)
	}
	if byID.Account != "alice" {
		t.Fatalf("expected alice, got %s", byID.Account)
	}

	if _, err := store.FindAccount(ctx, ByAccount("alice").WithStatus(StatusDisabled)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected status filter to exclude active account, got %v", err)
	}
	if _, err := store.FindAccount(ctx, ByAccount("bob")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindAccount(ctx, AccountFilter{}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for empty filter, got %v", err)
	}
}

func TestMemoryRejectsStatusOnlyFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.InsertAccount(ctx, newAccountInput("alice")); err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}

	statusOnly := AccountFilter{}.WithStatus(StatusActive)
	if _, err := store.FindAccount(ctx, statusOnly); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter from FindAccount, got %v", err)
	}
	nick := "Mallory"
	if _, err := store.UpdateAccount(ctx, statusOnly, AccountPatch{Nickname: &nick}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter from UpdateAccount, got %v", err)
	}

	acc, err := store.FindAccount(ctx, ByAccount("alice"))
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if acc.Nickname == nick {
		t.Fatal("status-only update must not touch any account")
	}
}

func TestMemoryInsertDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.InsertAccount(ctx, newAccountInput("alice")); err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	if _, err := store.InsertAccount(ctx, newAccountInput("alice")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryConcurrentInsertSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.InsertAccount(ctx, newAccountInput("race")); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one successful insert, got %d", success)
	}
}

func TestMemoryUpdateAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.InsertAccount(ctx, newAccountInput("alice"))
	if err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}

	nick := "Alice"
	github := "https://github.com/alice"
	updated, err := store.UpdateAccount(ctx, ByAccount("alice"), AccountPatch{Nickname: &nick, GithubURL: &github})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Nickname != "Alice" || updated.GithubURL == nil || *updated.GithubURL != github {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.PasswordHash != created.PasswordHash {
		t.Fatal("expected untouched password hash")
	}

	hash := "new-hash"
	if _, err := store.UpdateAccount(ctx, ByID(created.ID), AccountPatch{PasswordHash: &hash}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected hash without salt to be rejected, got %v", err)
	}
	if _, err := store.UpdateAccount(ctx, ByID(created.ID), AccountPatch{}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected empty patch to be rejected, got %v", err)
	}
	if _, err := store.UpdateAccount(ctx, ByID("missing"), AccountPatch{Nickname: &nick}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryReturnedAccountIsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	github := "https://github.com/alice"
	in := newAccountInput("alice")
	in.GithubURL = &github
	created, err := store.InsertAccount(ctx, in)
	if err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}

	*created.GithubURL = "tampered"
	found, err := store.FindAccount(ctx, ByID(created.ID))
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if *found.GithubURL != github {
		t.Fatalf("expected stored value to be isolated, got %s", *found.GithubURL)
	}
}

func TestMemoryCreateAccountWithSection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	acc, sec, err := store.CreateAccountWithSection(ctx, newAccountInput("alice"), blogSection)
	if err != nil {
		t.Fatalf("CreateAccountWithSection: %v", err)
	}
	if sec.OwnerID != acc.ID || sec.Type != DefaultSectionType {
		t.Fatalf("unexpected section: %+v", sec)
	}
	if sec.Description != "Nick alice's blog" {
		t.Fatalf("unexpected description %q", sec.Description)
	}

	found, err := store.FindSectionByOwner(ctx, acc.ID)
	if err != nil {
		t.Fatalf("FindSectionByOwner: %v", err)
	}
	if found.ID != sec.ID {
		t.Fatalf("expected section %s, got %s", sec.ID, found.ID)
	}

	if _, _, err := store.CreateAccountWithSection(ctx, newAccountInput("alice"), blogSection); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryCreateAccountWithSectionRollsBack(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.InsertAccount(ctx, newAccountInput("owner"))
	if err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	if _, err := store.InsertSection(ctx, blogSection(first)); err != nil {
		t.Fatalf("InsertSection: %v", err)
	}

	// Point the new account's section at an owner that already has one.
	conflicting := func(Account) NewSection { return blogSection(first) }
	if _, _, err := store.CreateAccountWithSection(ctx, newAccountInput("bob"), conflicting); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := store.FindAccount(ctx, ByAccount("bob")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected account insert to be rolled back, got %v", err)
	}
}

func TestMemoryInsertSectionRequiresOwner(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.InsertSection(context.Background(), NewSection{Title: "t", OwnerID: "nobody"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.FindAccount(ctx, ByAccount("alice")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := store.InsertAccount(ctx, newAccountInput("alice")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
