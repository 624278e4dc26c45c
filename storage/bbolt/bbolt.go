// Package bbolt provides a BBolt-backed account store.
//
// Accounts are stored as JSON in an accounts bucket keyed by ID, with two
// index buckets mapping email and API key to the owning ID. All mutations
// run inside a single bbolt write transaction, which gives the per-account
// atomic read-modify-write that Update requires.
package bbolt

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jlowell/doorman/storage"
)

var (
	accountsBucket = []byte("accounts")
	emailBucket    = []byte("email_idx")
	apiKeyBucket   = []byte("apikey_idx")
)

// Store implements storage.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database, creating the
// required buckets if they do not exist.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{accountsBucket, emailBucket, apiKeyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db)
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(account *storage.Account) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		emails := tx.Bucket(emailBucket)
		keys := tx.Bucket(apiKeyBucket)

		if emails.Get([]byte(account.Email)) != nil {
			return storage.ErrDuplicateEmail
		}
		if account.APIKey != "" && keys.Get([]byte(account.APIKey)) != nil {
			return storage.ErrDuplicateAPIKey
		}

		if err := putAccount(tx, account); err != nil {
			return err
		}
		if err := emails.Put([]byte(account.Email), []byte(account.ID)); err != nil {
			return err
		}
		if account.APIKey != "" {
			return keys.Put([]byte(account.APIKey), []byte(account.ID))
		}
		return nil
	})
}

func (s *Store) GetByID(id string) (*storage.Account, error) {
	var account *storage.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		account, err = getAccount(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Store) GetByEmail(email string) (*storage.Account, error) {
	return s.getByIndex(emailBucket, email)
}

func (s *Store) GetByAPIKey(apiKey string) (*storage.Account, error) {
	if apiKey == "" {
		return nil, storage.ErrNotFound
	}
	return s.getByIndex(apiKeyBucket, apiKey)
}

func (s *Store) getByIndex(bucket []byte, key string) (*storage.Account, error) {
	var account *storage.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucket).Get([]byte(key))
		if id == nil {
			return storage.ErrNotFound
		}
		var err error
		account, err = getAccount(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Store) Update(id string, fn func(*storage.Account) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		current, err := getAccount(tx, id)
		if err != nil {
			return err
		}
		updated := current.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		updated.ID = current.ID

		emails := tx.Bucket(emailBucket)
		keys := tx.Bucket(apiKeyBucket)

		if updated.Email != current.Email {
			if owner := emails.Get([]byte(updated.Email)); owner != nil && string(owner) != id {
				return storage.ErrDuplicateEmail
			}
			if err := emails.Delete([]byte(current.Email)); err != nil {
				return err
			}
			if err := emails.Put([]byte(updated.Email), []byte(id)); err != nil {
				return err
			}
		}
		if updated.APIKey != current.APIKey {
			if updated.APIKey != "" {
				if owner := keys.Get([]byte(updated.APIKey)); owner != nil && string(owner) != id {
					return storage.ErrDuplicateAPIKey
				}
			}
			if current.APIKey != "" {
				if err := keys.Delete([]byte(current.APIKey)); err != nil {
					return err
				}
			}
			if updated.APIKey != "" {
				if err := keys.Put([]byte(updated.APIKey), []byte(id)); err != nil {
					return err
				}
			}
		}
		return putAccount(tx, updated)
	})
}

func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		account, err := getAccount(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(emailBucket).Delete([]byte(account.Email)); err != nil {
			return err
		}
		if account.APIKey != "" {
			if err := tx.Bucket(apiKeyBucket).Delete([]byte(account.APIKey)); err != nil {
				return err
			}
		}
		return tx.Bucket(accountsBucket).Delete([]byte(id))
	})
}

func getAccount(tx *bbolt.Tx, id string) (*storage.Account, error) {
	data := tx.Bucket(accountsBucket).Get([]byte(id))
	if data == nil {
		return nil, storage.ErrNotFound
	}
	var account storage.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decoding account %s: %w", id, err)
	}
	return &account, nil
}

func putAccount(tx *bbolt.Tx, account *storage.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return tx.Bucket(accountsBucket).Put([]byte(account.ID), data)
}
