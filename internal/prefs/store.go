// Package prefs persists per-user reading preferences in a local
// key-value store, separate from the relational catalog. Preferences
// are device-independent but low-value, so they live in their own
// database and never hold up catalog writes.
package prefs

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/pothpath/pothpath-server/internal/domain"
)

// Store wraps a Badger database holding preference blobs keyed by user.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open creates a preference store at the given path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Preference database opened", "path", path)
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing preference database")
	}
	return s.db.Close()
}

// Get retrieves a user's preferences. A user with no stored preferences
// gets a fresh default set, not an error.
func (s *Store) Get(userID string) (*domain.Preferences, error) {
	var p domain.Preferences
	err := s.get([]byte(domain.PreferencesKey(userID)), &p)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.NewPreferences(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save stores a user's preferences, replacing any previous value.
func (s *Store) Save(p *domain.Preferences) error {
	if p.UserID == "" {
		return fmt.Errorf("preferences missing user ID")
	}
	return s.set([]byte(domain.PreferencesKey(p.UserID)), p)
}

// Delete removes a user's preferences. Missing keys are not an error.
func (s *Store) Delete(userID string) error {
	return s.delete([]byte(domain.PreferencesKey(userID)))
}

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// delete removes a key from the database.
func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}
