package storage

import (
	"context"
	"time"

	"spec-scraper/pkg/models"
)

// CacheStore handles cached HTTP responses keyed by normalized page URL
type CacheStore interface {
	// GetCachedPage retrieves a cached page if one exists and is younger than
	// ttl. A ttl <= 0 disables reuse: the result is always a miss.
	GetCachedPage(normalizedURL string, ttl time.Duration) (entry *models.CacheEntry, hit bool, err error)

	// PutCachedPage stores a fetched page body for reuse across runs
	PutCachedPage(normalizedURL string, entry *models.CacheEntry) error

	// GetCachedContentHash retrieves the content hash of a cached page without
	// loading the body. Returns the hash, whether the page is cached, and any error
	GetCachedContentHash(normalizedURL string) (hash string, exists bool, err error)
}

// SpecStore handles per-spec processing state
type SpecStore interface {
	// CheckSpecStatus retrieves the status and details of a spec by shortname
	// Returns status (SpecStatusSuccess, SpecStatusFailure, SpecStatusPending,
	// SpecStatusNotFound, SpecStatusDBError), the SpecDBEntry if found and
	// parsed, and any error
	CheckSpecStatus(shortname string) (status models.SpecStatus, entry *models.SpecDBEntry, err error)

	// UpdateSpecStatus updates the status and details for a spec
	UpdateSpecStatus(shortname string, entry *models.SpecDBEntry) error
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// GetKeyCount returns an approximate count of all keys in the store
	GetKeyCount() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// Store combines all store interfaces for components that need full access
type Store interface {
	CacheStore
	SpecStore
	StoreAdmin
}
