package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/semaphore"

	"spec-scraper/pkg/config"
)

// RobotsHandler manages fetching, parsing, caching, and checking robots.txt
// data. Results (including failures, cached as nil) are cached per host for
// the lifetime of the crawl.
type RobotsHandler struct {
	fetcher         *Fetcher
	rateLimiter     *RateLimiter
	robotsCache     map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil)
	robotsCacheMu   sync.Mutex
	globalSemaphore *semaphore.Weighted
	cfg             *config.AppConfig
	log             *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(
	fetcher *Fetcher,
	rateLimiter *RateLimiter,
	globalSemaphore *semaphore.Weighted,
	cfg *config.AppConfig,
	log *logrus.Entry,
) *RobotsHandler {
	return &RobotsHandler{
		fetcher:         fetcher,
		rateLimiter:     rateLimiter,
		robotsCache:     make(map[string]*robotstxt.RobotsData),
		globalSemaphore: globalSemaphore,
		cfg:             cfg,
		log:             log,
	}
}

// cacheResult stores a (possibly nil) parse result for host.
func (rh *RobotsHandler) cacheResult(host string, data *robotstxt.RobotsData) {
	rh.robotsCacheMu.Lock()
	rh.robotsCache[host] = data
	rh.robotsCacheMu.Unlock()
}

// GetRobotsData retrieves robots.txt data for the targetURL's host, using the
// cache or fetching. Returns parsed data, or nil on any error/4xx/missing file.
func (rh *RobotsHandler) GetRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	if ctx == nil {
		ctx = context.Background()
	}

	host := targetURL.Hostname()
	hostLog := rh.log.WithField("host", host)

	rh.robotsCacheMu.Lock()
	robotsData, found := rh.robotsCache[host]
	rh.robotsCacheMu.Unlock()
	if found {
		return robotsData // Cached result, possibly nil
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		hostLog.Warnf("Invalid scheme '%s', defaulting to https for robots.txt", targetURL.Scheme)
		robotsURL.Scheme = "https"
	}
	robotsLog := hostLog.WithField("robots_url", robotsURL.String())
	robotsLog.Info("Fetching robots.txt...")

	ctxAcquire, cancelAcquire := context.WithTimeout(ctx, rh.cfg.SemaphoreAcquireTimeout)
	err := rh.globalSemaphore.Acquire(ctxAcquire, 1)
	cancelAcquire()
	if err != nil {
		robotsLog.Errorf("Error acquiring global semaphore: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}
	defer rh.globalSemaphore.Release(1)

	rh.rateLimiter.ApplyDelay(host, rh.cfg.DefaultDelayPerHost)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}
	req.Header.Set("User-Agent", rh.cfg.DefaultUserAgent)

	resp, fetchErr := rh.fetcher.FetchWithRetry(ctx, req)
	rh.rateLimiter.UpdateLastRequestTime(host)

	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		robotsLog.Errorf("Fetching robots.txt failed: %v", fetchErr)
		rh.cacheResult(host, nil)
		return nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		robotsLog.Errorf("Error reading body: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}

	data, err := robotstxt.FromBytes(bodyBytes)
	if err != nil {
		robotsLog.Errorf("Error parsing content: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}

	robotsLog.Info("Successfully fetched and parsed robots.txt")
	rh.cacheResult(host, data)
	return data
}

// TestAgent checks if the user agent may fetch targetURL. Returns true when
// allowed, and also when robots data could not be obtained at all.
func (rh *RobotsHandler) TestAgent(ctx context.Context, targetURL *url.URL, userAgent string) bool {
	robotsData := rh.GetRobotsData(ctx, targetURL)
	if robotsData == nil {
		return true
	}
	return robotsData.TestAgent(targetURL.RequestURI(), userAgent)
}
