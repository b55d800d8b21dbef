//go:build integration
// +build integration

package records

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("BLOGAUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLOGAUTH_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	store, err := NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	return store
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func TestPostgresAccountLifecycle(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	name := uniqueName("alice")

	acc, sec, err := store.CreateAccountWithSection(ctx, newAccountInput(name), blogSection)
	if err != nil {
		t.Fatalf("CreateAccountWithSection: %v", err)
	}
	if sec.OwnerID != acc.ID {
		t.Fatalf("expected section owned by %s, got %s", acc.ID, sec.OwnerID)
	}

	found, err := store.FindAccount(ctx, ByAccount(name).WithStatus(StatusActive))
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if found.ID != acc.ID {
		t.Fatalf("expected %s, got %s", acc.ID, found.ID)
	}

	if _, err := store.InsertAccount(ctx, newAccountInput(name)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	nick := "Renamed"
	updated, err := store.UpdateAccount(ctx, ByID(acc.ID), AccountPatch{Nickname: &nick})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Nickname != nick {
		t.Fatalf("expected nickname %s, got %s", nick, updated.Nickname)
	}

	if _, err := store.FindSectionByOwner(ctx, acc.ID); err != nil {
		t.Fatalf("FindSectionByOwner: %v", err)
	}
	if _, err := store.UpdateAccount(ctx, ByID(uuid.NewString()), AccountPatch{Nickname: &nick}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresCreateAccountWithSectionIsAtomic(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	name := uniqueName("orphan")

	badOwner := func(Account) NewSection {
		return NewSection{Title: "x", Description: "x", Type: DefaultSectionType, OwnerID: uuid.NewString()}
	}
	if _, _, err := store.CreateAccountWithSection(ctx, newAccountInput(name), badOwner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected foreign key failure as ErrNotFound, got %v", err)
	}
	if _, err := store.FindAccount(ctx, ByAccount(name)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected account rolled back, got %v", err)
	}
}
