package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"spec-scraper/pkg/log"
	"spec-scraper/pkg/models"
	"spec-scraper/pkg/utils"
)

const (
	cacheKeyPrefix = "cache:"   // Prefix for cached page keys in DB
	specKeyPrefix  = "spec:"    // Prefix for spec status keys in DB
	cacheDBDir     = "cache_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count for O(1) GetKeyCount
}

// NewBadgerStore initializes and returns a new BadgerStore. With refresh set,
// any existing state directory is removed first so every spec is refetched.
func NewBadgerStore(stateDir string, refresh bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{log: logger}

	dbPath := filepath.Join(stateDir, cacheDBDir)

	if refresh {
		logger.Warnf("Refresh flag is set. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			// Log and continue; Badger may still recover or recreate files
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing response cache database at: %s (Refresh: %v)", dbPath, refresh)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	badgerLogger := log.NewCacheDBLogger(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest cached response matters

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing keys: %v", err)
	} else {
		store.keyCount.Store(int64(count))
	}

	logger.Info("Response cache database initialized successfully.")
	return store, nil
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := 0; i < maxConflictRetries; i++ {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// GetCachedPage implements the CacheStore interface
func (s *BadgerStore) GetCachedPage(normalizedURL string, ttl time.Duration) (*models.CacheEntry, bool, error) {
	if s.db == nil {
		return nil, false, errors.New("cache DB not initialized")
	}
	if ttl <= 0 {
		return nil, false, nil // Cache reuse disabled
	}

	key := []byte(cacheKeyPrefix + normalizedURL)
	var entry models.CacheEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		return item.Value(func(val []byte) error {
			if errUnmarshal := json.Unmarshal(val, &entry); errUnmarshal != nil {
				s.log.WithField("key", string(key)).Warnf("Corrupt cache entry, treating as miss: %v", errUnmarshal)
				return nil
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading cache key '%s': %w", utils.ErrDatabase, string(key), err)
	}

	if !found {
		return nil, false, nil
	}
	if time.Since(entry.FetchedAt) > ttl {
		s.log.WithField("url", normalizedURL).Debug("Cache entry expired")
		return nil, false, nil
	}
	return &entry, true, nil
}

// PutCachedPage implements the CacheStore interface
func (s *BadgerStore) PutCachedPage(normalizedURL string, entry *models.CacheEntry) error {
	if s.db == nil {
		return errors.New("cache DB not initialized")
	}
	if entry == nil {
		return errors.New("nil cache entry")
	}

	key := []byte(cacheKeyPrefix + normalizedURL)
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshaling cache entry for '%s': %w", utils.ErrDatabase, normalizedURL, err)
	}

	added := false
	err = s.dbUpdate(func(txn *badger.Txn) error {
		if _, errGet := txn.Get(key); errors.Is(errGet, badger.ErrKeyNotFound) {
			added = true
		}
		return txn.Set(key, value)
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in PutCachedPage: %v", err)
		return fmt.Errorf("%w: writing cache key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if added {
		s.keyCount.Add(1)
	}
	return nil
}

// GetCachedContentHash implements the CacheStore interface
func (s *BadgerStore) GetCachedContentHash(normalizedURL string) (string, bool, error) {
	if s.db == nil {
		return "", false, errors.New("cache DB not initialized")
	}

	key := []byte(cacheKeyPrefix + normalizedURL)
	var hash string
	exists := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		return item.Value(func(val []byte) error {
			var entry models.CacheEntry
			if errUnmarshal := json.Unmarshal(val, &entry); errUnmarshal != nil {
				return nil // Corrupt entry, treat as absent
			}
			hash = entry.ContentHash
			exists = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: reading cache key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	return hash, exists, nil
}

// CheckSpecStatus implements the SpecStore interface
func (s *BadgerStore) CheckSpecStatus(shortname string) (models.SpecStatus, *models.SpecDBEntry, error) {
	if s.db == nil {
		return models.SpecStatusDBError, nil, errors.New("cache DB not initialized")
	}

	key := []byte(specKeyPrefix + shortname)
	var entry models.SpecDBEntry
	status := models.SpecStatusNotFound

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				status = models.SpecStatusPending
				return nil
			}
			if errUnmarshal := json.Unmarshal(val, &entry); errUnmarshal != nil {
				s.log.WithField("key", string(key)).Warnf("Corrupt spec entry: %v", errUnmarshal)
				status = models.SpecStatusPending
				return nil
			}
			status = models.SpecStatus(entry.Status)
			if !status.IsValid() {
				status = models.SpecStatusPending
			}
			return nil
		})
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB View error in CheckSpecStatus: %v", err)
		return models.SpecStatusDBError, nil, fmt.Errorf("%w: checking spec key '%s': %w", utils.ErrDatabase, string(key), err)
	}

	if status == models.SpecStatusNotFound || status == models.SpecStatusPending {
		return status, nil, nil
	}
	return status, &entry, nil
}

// UpdateSpecStatus implements the SpecStore interface
func (s *BadgerStore) UpdateSpecStatus(shortname string, entry *models.SpecDBEntry) error {
	if s.db == nil {
		return errors.New("cache DB not initialized")
	}
	if entry == nil {
		return errors.New("nil spec entry")
	}

	key := []byte(specKeyPrefix + shortname)
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshaling spec entry for '%s': %w", utils.ErrDatabase, shortname, err)
	}

	added := false
	err = s.dbUpdate(func(txn *badger.Txn) error {
		if _, errGet := txn.Get(key); errors.Is(errGet, badger.ErrKeyNotFound) {
			added = true
		}
		return txn.Set(key, value)
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdateSpecStatus: %v", err)
		return fmt.Errorf("%w: updating spec key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if added {
		s.keyCount.Add(1)
	}
	return nil
}

// GetKeyCount implements the StoreAdmin interface
func (s *BadgerStore) GetKeyCount() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's value log garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Info("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			s.log.Info("Running BadgerDB value log garbage collection...")
			var err error
			for {
				// Run GC while the log is at least 50% reclaimable
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}
			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Info("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Infof("Stopping BadgerDB garbage collection goroutine due to context cancellation: %v", ctx.Err())
			return
		}
	}
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	s.log.Info("Closing response cache database...")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: closing badger database: %w", utils.ErrDatabase, err)
	}
	return nil
}
