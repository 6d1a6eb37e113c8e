package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

type (
	// DB is the part of *pgxpool.Pool the repo uses. Each call borrows one
	// pooled connection and hands it back before returning.
	DB interface {
		Begin(ctx context.Context) (pgx.Tx, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	}

	// Repo reads and creates rows of the users table.
	Repo struct {
		db DB
	}
)

const selectColumns = `SELECT id, username, password_hash, name, email FROM users`

func NewRepo(db DB) *Repo {
	return &Repo{db: db}
}

func NewPgRepo(pool *pgxpool.Pool) *Repo {
	return NewRepo(pool)
}

// Create inserts one account in its own transaction. A taken username rolls
// the transaction back and reports DuplicateUsername; the returned error is
// non-nil only for InfraError.
func (r *Repo) Create(ctx context.Context, in CreateAccountIn) (CreateResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return CreateResult{Outcome: InfraError}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "begin").
			Wrap(err)
	}

	stmt := `
	INSERT INTO users (
		name, email, username, password_hash
	)
	VALUES (
		$1, $2, $3, $4
	)
	RETURNING id`

	acc := &Account{
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Name:         optional(in.Name),
		Email:        optional(in.Email),
	}

	err = tx.QueryRow(ctx, stmt, acc.Name, acc.Email, acc.Username, acc.PasswordHash).Scan(&acc.ID)
	if err != nil {
		// The rollback error is secondary; the insert error decides the outcome.
		_ = tx.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return CreateResult{Outcome: DuplicateUsername}, nil
		}
		return CreateResult{Outcome: InfraError}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert").
			With("username", in.Username).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateResult{Outcome: InfraError}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "commit").
			With("username", in.Username).
			Wrap(err)
	}

	return CreateResult{Outcome: Created, Account: acc}, nil
}

// FindByID returns nil, nil when no account has the id.
func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, err := r.findOne(ctx, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("id", id.String()).Wrap(err)
	}
	return acc, nil
}

// FindByUsername matches the username exactly, case included.
// It returns nil, nil when no account has the username.
func (r *Repo) FindByUsername(ctx context.Context, username string) (*Account, error) {
	acc, err := r.findOne(ctx, selectColumns+` WHERE username = $1`, username)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	return acc, nil
}

func (r *Repo) findOne(ctx context.Context, stmt string, arg any) (*Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, stmt, arg).Scan(
		&acc.ID,
		&acc.Username,
		&acc.PasswordHash,
		&acc.Name,
		&acc.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
