package models

import "time"

// SpecWorkItem represents one configured specification to be processed by a worker
type SpecWorkItem struct {
	Shortname string
	URL       string
	Pages     []string // Additional pages of a multipage spec, relative to URL
	UserAgent string   // Effective user agent (per-spec override or global default)
}

// CacheEntry stores a fetched page body in the database for reuse across runs
type CacheEntry struct {
	FetchedAt   time.Time `json:"fetched_at"`             // Timestamp of the fetch
	FinalURL    string    `json:"final_url"`              // URL after redirects
	ContentHash string    `json:"content_hash,omitempty"` // SHA256 hex of the body
	HTML        string    `json:"html"`                   // Raw response body
}

// SpecDBEntry stores the result of processing a spec in the database
type SpecDBEntry struct {
	Status      string    `json:"status"`                 // "success" or "failure"
	ErrorType   string    `json:"error_type,omitempty"`   // Error category (on failure)
	ProcessedAt time.Time `json:"processed_at,omitempty"` // Timestamp of successful processing
	LastAttempt time.Time `json:"last_attempt"`           // Timestamp of the last processing attempt
	Dialect     string    `json:"dialect,omitempty"`      // Detected authoring dialect
}

// CrawlMetadata holds the metadata for a single crawl run across all specs.
type CrawlMetadata struct {
	RunID          string       `json:"run_id"`
	CrawlStartTime time.Time    `json:"crawl_start_time"`
	CrawlEndTime   time.Time    `json:"crawl_end_time"`
	TotalSpecs     int          `json:"total_specs"`
	SpecsSucceeded int          `json:"specs_succeeded"`
	SpecsFailed    int          `json:"specs_failed"`
	Specs          []SpecRecord `json:"specs"`
}

// SpecRecord holds per-spec metadata within a crawl run.
type SpecRecord struct {
	Shortname    string    `json:"shortname"`
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	Dialect      string    `json:"dialect,omitempty"`
	Status       string    `json:"status"`
	ErrorType    string    `json:"error_type,omitempty"`
	FromCache    bool      `json:"from_cache,omitempty"`
	PageCount    int       `json:"page_count"`
	HeadingCount int       `json:"heading_count"`
	IDCount      int       `json:"id_count"`
	ContentHash  string    `json:"content_hash,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
	ReportFile   string    `json:"report_file,omitempty"` // Relative to the output dir
}
