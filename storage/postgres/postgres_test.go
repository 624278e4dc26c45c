package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jlowell/doorman/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DOORMAN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOORMAN_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("could not connect to postgres: %v", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("could not ensure schema: %v", err)
	}

	pool.Exec(ctx, "DELETE FROM accounts") //nolint:errcheck
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM accounts") //nolint:errcheck
		pool.Close()
	})
	return NewStore(pool)
}

func TestPostgresStore(t *testing.T) {
	s := newTestStore(t)
	account := &storage.Account{
		ID:           "acct-1",
		Email:        "a@x.com",
		PasswordHash: "salt$hash",
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		if err := s.Create(account); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := s.GetByEmail("a@x.com")
		if err != nil {
			t.Fatalf("GetByEmail failed: %v", err)
		}
		if got.ID != "acct-1" {
			t.Errorf("expected id acct-1, got %q", got.ID)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := s.Create(&storage.Account{ID: "acct-2", Email: "a@x.com", CreatedAt: time.Now().UTC()})
		if !errors.Is(err, storage.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("UpdateAndAPIKey", func(t *testing.T) {
		err := s.Update("acct-1", func(a *storage.Account) error {
			a.APIKey = "key-1"
			a.FailedAttempts = 3
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := s.GetByAPIKey("key-1")
		if err != nil {
			t.Fatalf("GetByAPIKey failed: %v", err)
		}
		if got.FailedAttempts != 3 {
			t.Errorf("expected 3 failed attempts, got %d", got.FailedAttempts)
		}

		err = s.Create(&storage.Account{ID: "acct-3", Email: "c@x.com", APIKey: "key-1", CreatedAt: time.Now().UTC()})
		if !errors.Is(err, storage.ErrDuplicateAPIKey) {
			t.Errorf("expected ErrDuplicateAPIKey, got %v", err)
		}
	})

	t.Run("EmptyAPIKeysDoNotCollide", func(t *testing.T) {
		if err := s.Create(&storage.Account{ID: "acct-4", Email: "d@x.com", CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := s.Create(&storage.Account{ID: "acct-5", Email: "e@x.com", CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("second keyless Create failed: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete("acct-1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := s.GetByAPIKey("key-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Error("api key lookup should fail after delete")
		}
		if err := s.Delete("acct-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
