// Package postgres implements storage.Store backed by PostgreSQL.
//
// Email and API key uniqueness are enforced by unique indexes; the partial
// index on api_key allows any number of accounts without a key. Update runs
// inside a transaction with SELECT ... FOR UPDATE, which serializes
// concurrent mutations of the same account row.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jlowell/doorman/storage"
)

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store backed by the given pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromDSN creates a connection pool from a DSN string, ensures the
// schema exists, and returns a new Store.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const accountColumns = `id, email, password_hash, totp_secret, failed_attempts, COALESCE(api_key, ''), created_at`

func (s *Store) Create(account *storage.Account) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO accounts (id, email, password_hash, totp_secret, failed_attempts, api_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		account.ID, account.Email, account.PasswordHash, account.TOTPSecret,
		account.FailedAttempts, account.APIKey, account.CreatedAt)
	return mapConstraintError(err)
}

func (s *Store) GetByID(id string) (*storage.Account, error) {
	return s.getWhere(`id = $1`, id)
}

func (s *Store) GetByEmail(email string) (*storage.Account, error) {
	return s.getWhere(`email = $1`, email)
}

func (s *Store) GetByAPIKey(apiKey string) (*storage.Account, error) {
	if apiKey == "" {
		return nil, storage.ErrNotFound
	}
	return s.getWhere(`api_key = $1`, apiKey)
}

func (s *Store) getWhere(cond string, arg any) (*storage.Account, error) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT `+accountColumns+` FROM accounts WHERE `+cond, arg)
	return scanAccount(row)
}

func (s *Store) Update(id string, fn func(*storage.Account) error) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	account, err := scanAccount(row)
	if err != nil {
		return err
	}
	if err := fn(account); err != nil {
		return err
	}
	account.ID = id

	_, err = tx.Exec(ctx,
		`UPDATE accounts
		 SET email = $2, password_hash = $3, totp_secret = $4, failed_attempts = $5, api_key = NULLIF($6, '')
		 WHERE id = $1`,
		id, account.Email, account.PasswordHash, account.TOTPSecret,
		account.FailedAttempts, account.APIKey)
	if err != nil {
		return mapConstraintError(err)
	}
	return tx.Commit(ctx)
}

func (s *Store) Delete(id string) error {
	tag, err := s.pool.Exec(context.Background(),
		`DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*storage.Account, error) {
	var account storage.Account
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash,
		&account.TOTPSecret, &account.FailedAttempts, &account.APIKey, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// mapConstraintError translates unique-violation errors (SQLSTATE 23505)
// into the storage sentinel for the violated index.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "accounts_email_idx":
			return storage.ErrDuplicateEmail
		case "accounts_api_key_idx":
			return storage.ErrDuplicateAPIKey
		}
	}
	return err
}
