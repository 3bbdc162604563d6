package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBTX is the subset of database/sql used by PostgresStore.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps users in the users table created by RunMigrations.
// Identity uniqueness is the table's UNIQUE constraint.
type PostgresStore struct {
	db  DBTX
	now func() time.Time
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (r *PostgresStore) Create(ctx context.Context, in CreateInput) (*User, error) {
	in, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Identity:     in.Identity,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    r.now().UTC().Truncate(time.Microsecond),
	}

	query :=
		`INSERT INTO users (id, identity, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err = r.db.ExecContext(ctx, query, u.ID, u.Identity, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresStore) FindByIdentity(ctx context.Context, identity string) (*User, error) {
	query :=
		`SELECT id, identity, password_hash, role, created_at FROM users
		 WHERE identity = $1
		 `
	return r.findOne(ctx, query, NormalizeIdentity(identity))
}

func (r *PostgresStore) FindByID(ctx context.Context, id string) (*User, error) {
	// ids are uuids; anything else cannot match and must not reach the uuid column
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query :=
		`SELECT id, identity, password_hash, role, created_at FROM users
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

// UpdatePasswordHash replaces the stored hash of user id.
func (r *PostgresStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if passwordHash == "" {
		return ErrEmptyPasswordHash
	}

	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) findOne(ctx context.Context, query string, arg string) (*User, error) {
	u := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Identity, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}
