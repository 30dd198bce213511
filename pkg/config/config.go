package config

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// SpecConfig describes one specification document to crawl and extract.
type SpecConfig struct {
	URL       string   `yaml:"url"`
	Shortname string   `yaml:"shortname,omitempty"` // Derived from the URL when empty
	Pages     []string `yaml:"pages,omitempty"`     // Additional pages of a multipage spec, relative to URL
	UserAgent string   `yaml:"user_agent,omitempty"`
}

// EffectiveShortname returns the configured shortname, falling back to the
// last path segment of the spec URL (the W3C/WHATWG convention for
// /TR/<shortname>/ style URLs).
func (s SpecConfig) EffectiveShortname() string {
	if s.Shortname != "" {
		return s.Shortname
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	segment := path.Base(strings.TrimSuffix(u.Path, "/"))
	if segment == "" || segment == "." || segment == "/" {
		return u.Hostname()
	}
	return segment
}

// AppConfig holds the global application configuration
type AppConfig struct {
	DefaultUserAgent        string           `yaml:"default_user_agent"`
	DefaultDelayPerHost     time.Duration    `yaml:"default_delay_per_host"`
	NumWorkers              int              `yaml:"num_workers"`
	MaxRequests             int              `yaml:"max_requests"`
	OutputDir               string           `yaml:"output_dir"`
	StateDir                string           `yaml:"state_dir"`
	CacheTTL                time.Duration    `yaml:"cache_ttl,omitempty"` // Reuse cached responses younger than this (0 = always refetch)
	MaxRetries              int              `yaml:"max_retries,omitempty"`
	InitialRetryDelay       time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay           time.Duration    `yaml:"max_retry_delay,omitempty"`
	SemaphoreAcquireTimeout time.Duration    `yaml:"semaphore_acquire_timeout,omitempty"`
	GlobalCrawlTimeout      time.Duration    `yaml:"global_crawl_timeout,omitempty"`
	PerSpecTimeout          time.Duration    `yaml:"per_spec_timeout,omitempty"` // Timeout for processing a single spec (0 = no timeout)
	HTTPClientSettings      HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Specs                   []SpecConfig     `yaml:"specs"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // Explicitly enable/disable HTTP/2 attempt (nil=default)
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// EffectiveUserAgent returns the per-spec user agent override, or the global
// default when the spec has none.
func EffectiveUserAgent(specCfg SpecConfig, appCfg AppConfig) string {
	if specCfg.UserAgent != "" {
		return specCfg.UserAgent
	}
	return appCfg.DefaultUserAgent
}
