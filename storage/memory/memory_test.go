package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/jlowell/doorman/storage"
)

func TestMemoryStore(t *testing.T) {
	s := NewStore()
	account := &storage.Account{
		ID:           "acct-1",
		Email:        "a@x.com",
		PasswordHash: "salt$hash",
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		if err := s.Create(account); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := s.GetByID("acct-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Email != account.Email {
			t.Errorf("expected email %q, got %q", account.Email, got.Email)
		}

		got, err = s.GetByEmail("a@x.com")
		if err != nil {
			t.Fatalf("GetByEmail failed: %v", err)
		}
		if got.ID != "acct-1" {
			t.Errorf("expected id acct-1, got %q", got.ID)
		}

		// Test isolation (cloning)
		got.FailedAttempts = 99
		got2, _ := s.GetByID("acct-1")
		if got2.FailedAttempts == 99 {
			t.Error("store should return clones of accounts")
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := s.Create(&storage.Account{ID: "acct-2", Email: "a@x.com"})
		if !errors.Is(err, storage.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
		if _, err := s.GetByID("acct-2"); !errors.Is(err, storage.ErrNotFound) {
			t.Error("failed create should not leave a partial account")
		}
	})

	t.Run("APIKeyIndex", func(t *testing.T) {
		if _, err := s.GetByAPIKey(""); !errors.Is(err, storage.ErrNotFound) {
			t.Error("empty api key should never match")
		}

		err := s.Update("acct-1", func(a *storage.Account) error {
			a.APIKey = "key-1"
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := s.GetByAPIKey("key-1")
		if err != nil {
			t.Fatalf("GetByAPIKey failed: %v", err)
		}
		if got.ID != "acct-1" {
			t.Errorf("expected id acct-1, got %q", got.ID)
		}

		err = s.Create(&storage.Account{ID: "acct-3", Email: "b@x.com", APIKey: "key-1"})
		if !errors.Is(err, storage.ErrDuplicateAPIKey) {
			t.Errorf("expected ErrDuplicateAPIKey, got %v", err)
		}
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		const workers = 50
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Update("acct-1", func(a *storage.Account) error {
					a.FailedAttempts++
					return nil
				})
			}()
		}
		wg.Wait()

		got, err := s.GetByID("acct-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.FailedAttempts != workers {
			t.Errorf("lost update: expected %d failed attempts, got %d", workers, got.FailedAttempts)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		err := s.Update("missing", func(a *storage.Account) error { return nil })
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		if err := s.Delete("acct-1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := s.GetByID("acct-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Error("account should be gone")
		}
		if _, err := s.GetByEmail("a@x.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Error("email index entry should be gone")
		}
		if _, err := s.GetByAPIKey("key-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Error("api key index entry should be gone")
		}
	})
}
