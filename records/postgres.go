package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements [Store] over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Every value reaches the server as a bind parameter; column names come
// from fixed tables inside this file.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id::text, account, password, salt, nickname, github, status, created_at`

const sectionColumns = `id::text, title, description, stype, owner_id::text, created_at`

// NewPostgresStore wraps pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("records: nil pool")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// FindAccount returns the account matching filter.
func (s *PostgresStore) FindAccount(ctx context.Context, filter AccountFilter) (Account, error) {
	where, args, err := accountWhere(filter, 1)
	if err != nil {
		return Account{}, err
	}

	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`, args...)
	acc, err := scanAccount(row)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return acc, nil
}

// InsertAccount inserts a new account. Name collisions surface as [ErrDuplicate].
func (s *PostgresStore) InsertAccount(ctx context.Context, in NewAccount) (Account, error) {
	acc, err := insertAccount(ctx, s.pool, in, s.now().UTC())
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return acc, nil
}

// UpdateAccount applies patch to the row matching filter and returns it.
func (s *PostgresStore) UpdateAccount(ctx context.Context, filter AccountFilter, patch AccountPatch) (Account, error) {
	if err := validatePatch(patch); err != nil {
		return Account{}, err
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Nickname != nil {
		add("nickname", *patch.Nickname)
	}
	if patch.GithubURL != nil {
		add("github", *patch.GithubURL)
	}
	if patch.Status != nil {
		add("status", int16(*patch.Status))
	}
	if patch.PasswordHash != nil {
		add("password", *patch.PasswordHash)
		add("salt", *patch.Salt)
	}

	where, whereArgs, err := accountWhere(filter, len(args)+1)
	if err != nil {
		return Account{}, err
	}
	args = append(args, whereArgs...)

	row := s.pool.QueryRow(ctx,
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE `+where+` RETURNING `+accountColumns,
		args...,
	)
	acc, err := scanAccount(row)
	if err != nil {
		return Account{}, mapPgError(err)
	}
	return acc, nil
}

// InsertSection inserts a section. A second section for the same owner is [ErrDuplicate].
func (s *PostgresStore) InsertSection(ctx context.Context, in NewSection) (Section, error) {
	sec, err := insertSection(ctx, s.pool, in, s.now().UTC())
	if err != nil {
		return Section{}, mapPgError(err)
	}
	return sec, nil
}

// FindSectionByOwner returns the section owned by ownerID.
func (s *PostgresStore) FindSectionByOwner(ctx context.Context, ownerID string) (Section, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return Section{}, ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+sectionColumns+` FROM sections WHERE owner_id = $1`, ownerID)
	sec, err := scanSection(row)
	if err != nil {
		return Section{}, mapPgError(err)
	}
	return sec, nil
}

// CreateAccountWithSection inserts both rows inside one transaction.
func (s *PostgresStore) CreateAccountWithSection(ctx context.Context, in NewAccount, section SectionFactory) (Account, Section, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return Account{}, Section{}, mapPgError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := s.now().UTC()

	acc, err := insertAccount(ctx, tx, in, now)
	if err != nil {
		return Account{}, Section{}, mapPgError(err)
	}

	sec, err := insertSection(ctx, tx, section(acc), now)
	if err != nil {
		return Account{}, Section{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, Section{}, mapPgError(err)
	}
	return acc, sec, nil
}

func insertAccount(ctx context.Context, q querier, in NewAccount, now time.Time) (Account, error) {
	row := q.QueryRow(ctx,
		`INSERT INTO accounts (id, account, password, salt, nickname, github, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+accountColumns,
		uuid.NewString(),
		in.Account,
		in.PasswordHash,
		in.Salt,
		in.Nickname,
		in.GithubURL,
		int16(in.Status),
		now,
	)
	return scanAccount(row)
}

func insertSection(ctx context.Context, q querier, in NewSection, now time.Time) (Section, error) {
	row := q.QueryRow(ctx,
		`INSERT INTO sections (id, title, description, stype, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+sectionColumns,
		uuid.NewString(),
		in.Title,
		in.Description,
		in.Type,
		in.OwnerID,
		now,
	)
	return scanSection(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc    Account
		status int16
	)
	if err := row.Scan(
		&acc.ID,
		&acc.Account,
		&acc.PasswordHash,
		&acc.Salt,
		&acc.Nickname,
		&acc.GithubURL,
		&status,
		&acc.CreatedAt,
	); err != nil {
		return Account{}, err
	}
	acc.Status = AccountStatus(status)
	return acc, nil
}

func scanSection(row pgx.Row) (Section, error) {
	var sec Section
	if err := row.Scan(
		&sec.ID,
		&sec.Title,
		&sec.Description,
		&sec.Type,
		&sec.OwnerID,
		&sec.CreatedAt,
	); err != nil {
		return Section{}, err
	}
	return sec, nil
}

// accountWhere renders filter as a conjunction of "column = $n" predicates
// starting at placeholder index first.
func accountWhere(filter AccountFilter, first int) (string, []any, error) {
	if filter.Empty() {
		return "", nil, ErrInvalidFilter
	}

	preds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	add := func(column string, value any) {
		preds = append(preds, column+" = $"+strconv.Itoa(first+len(args)))
		args = append(args, value)
	}

	if filter.ID != nil {
		// Non-UUID identifiers can never match; avoid a cast error from the server.
		if _, err := uuid.Parse(*filter.ID); err != nil {
			return "", nil, ErrNotFound
		}
		add("id", *filter.ID)
	}
	if filter.Account != nil {
		add("account", *filter.Account)
	}
	if filter.Status != nil {
		add("status", int16(*filter.Status))
	}

	return strings.Join(preds, " AND "), args, nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidFilter) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
		if unavailableClass(pgErr.Code) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// unavailableClass reports SQLSTATE classes that describe the server or the
// connection rather than the statement: connection exceptions (08),
// transaction rollbacks such as serialization failures (40), insufficient
// resources (53), operator intervention (57) and system errors (58).
func unavailableClass(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "40", "53", "57", "58":
		return true
	}
	return false
}
