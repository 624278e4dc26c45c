// Package memory provides a thread-safe in-memory implementation of storage.Store.
package memory

import (
	"sync"

	"github.com/jlowell/doorman/storage"
)

// Store is a thread-safe in-memory implementation of storage.Store.
// Suitable for testing, demos, and single-process use cases.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*storage.Account
	byEmail map[string]string
	byKey   map[string]string
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*storage.Account),
		byEmail: make(map[string]string),
		byKey:   make(map[string]string),
	}
}

func (s *Store) Create(account *storage.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[account.Email]; ok {
		return storage.ErrDuplicateEmail
	}
	if account.APIKey != "" {
		if _, ok := s.byKey[account.APIKey]; ok {
			return storage.ErrDuplicateAPIKey
		}
	}
	s.byID[account.ID] = account.Clone()
	s.byEmail[account.Email] = account.ID
	if account.APIKey != "" {
		s.byKey[account.APIKey] = account.ID
	}
	return nil
}

func (s *Store) GetByID(id string) (*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *Store) GetByEmail(email string) (*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) GetByAPIKey(apiKey string) (*storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if apiKey == "" {
		return nil, storage.ErrNotFound
	}
	id, ok := s.byKey[apiKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) Update(id string, fn func(*storage.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return err
	}
	updated.ID = current.ID

	if updated.Email != current.Email {
		if owner, ok := s.byEmail[updated.Email]; ok && owner != id {
			return storage.ErrDuplicateEmail
		}
	}
	if updated.APIKey != current.APIKey && updated.APIKey != "" {
		if owner, ok := s.byKey[updated.APIKey]; ok && owner != id {
			return storage.ErrDuplicateAPIKey
		}
	}

	if updated.Email != current.Email {
		delete(s.byEmail, current.Email)
		s.byEmail[updated.Email] = id
	}
	if updated.APIKey != current.APIKey {
		if current.APIKey != "" {
			delete(s.byKey, current.APIKey)
		}
		if updated.APIKey != "" {
			s.byKey[updated.APIKey] = id
		}
	}
	s.byID[id] = updated
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byEmail, account.Email)
	if account.APIKey != "" {
		delete(s.byKey, account.APIKey)
	}
	delete(s.byID, id)
	return nil
}
