package crawler

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"spec-scraper/pkg/config"
	"spec-scraper/pkg/detect"
	"spec-scraper/pkg/extract"
	"spec-scraper/pkg/fetch"
	"spec-scraper/pkg/models"
	"spec-scraper/pkg/outline"
	"spec-scraper/pkg/parse"
	"spec-scraper/pkg/report"
	"spec-scraper/pkg/storage"
	"spec-scraper/pkg/utils"
)

// Crawler processes the configured specs with a pool of workers and writes
// one report per spec plus a run-level crawl index.
type Crawler struct {
	log    *logrus.Entry
	appCfg *config.AppConfig

	// Core components
	store         storage.Store
	fetcher       *fetch.Fetcher
	robotsHandler *fetch.RobotsHandler
	rateLimiter   *fetch.RateLimiter
	detector      *detect.DialectDetector
	writer        *report.Writer

	// Concurrency control
	globalSemaphore *semaphore.Weighted
	crawlCtx        context.Context
	cancelCrawl     context.CancelFunc

	// Tracking and coordination
	workChan         chan models.SpecWorkItem
	wg               sync.WaitGroup
	processedCounter atomic.Int64
	succeeded        atomic.Int64
	failed           atomic.Int64

	recordsMu sync.Mutex
	records   []models.SpecRecord

	runID          string
	crawlStartTime time.Time
}

// NewCrawler creates and initializes a Crawler and its components.
func NewCrawler(
	appCfg *config.AppConfig,
	baseLogger *logrus.Logger,
	store storage.Store,
	fetcher *fetch.Fetcher,
	rateLimiter *fetch.RateLimiter,
	writer *report.Writer,
	crawlCtx context.Context,
	cancelCrawl context.CancelFunc,
) (*Crawler, error) {
	runID := uuid.NewString()
	logger := baseLogger.WithField("run_id", runID)

	globalSem := semaphore.NewWeighted(int64(appCfg.MaxRequests))

	c := &Crawler{
		log:             logger,
		appCfg:          appCfg,
		store:           store,
		fetcher:         fetcher,
		rateLimiter:     rateLimiter,
		detector:        detect.NewDialectDetector(baseLogger),
		writer:          writer,
		globalSemaphore: globalSem,
		crawlCtx:        crawlCtx,
		cancelCrawl:     cancelCrawl,
		workChan:        make(chan models.SpecWorkItem),
		runID:           runID,
	}
	c.robotsHandler = fetch.NewRobotsHandler(fetcher, rateLimiter, globalSem, appCfg, logger)
	return c, nil
}

// Progress contains progress information for a running crawl
type Progress struct {
	RunID           string
	SpecsProcessed  int64
	SpecsConfigured int
	IsRunning       bool
}

// GetProgress returns the current progress of the crawl
func (c *Crawler) GetProgress() Progress {
	return Progress{
		RunID:           c.runID,
		SpecsProcessed:  c.processedCounter.Load(),
		SpecsConfigured: len(c.appCfg.Specs),
		IsRunning:       c.crawlCtx.Err() == nil,
	}
}

// Run processes every configured spec and blocks until completion or
// cancellation. The crawl index is written even when individual specs fail.
func (c *Crawler) Run() error {
	defer c.cancelCrawl()
	c.crawlStartTime = time.Now()
	c.log.Infof("Crawl starting with %d worker(s) across %d spec(s)...", c.appCfg.NumWorkers, len(c.appCfg.Specs))

	// Validate spec entries up front; invalid ones are dropped with a warning
	var work []models.SpecWorkItem
	seen := make(map[string]bool, len(c.appCfg.Specs))
	for i := range c.appCfg.Specs {
		specCfg := c.appCfg.Specs[i]
		specLog := c.log.WithField("url", specCfg.URL)

		warnings, err := specCfg.Validate()
		for _, warning := range warnings {
			specLog.Warn(warning)
		}
		if err != nil {
			specLog.Errorf("Skipping invalid spec entry: %v", err)
			continue
		}

		shortname := specCfg.EffectiveShortname()
		if seen[shortname] {
			specLog.Warnf("Duplicate shortname '%s'. Skipping.", shortname)
			continue
		}
		seen[shortname] = true
		work = append(work, models.SpecWorkItem{
			Shortname: shortname,
			URL:       specCfg.URL,
			Pages:     specCfg.Pages,
			UserAgent: config.EffectiveUserAgent(specCfg, *c.appCfg),
		})
	}
	if len(work) == 0 {
		return fmt.Errorf("no valid specs to crawl")
	}

	for i := 1; i <= c.appCfg.NumWorkers; i++ {
		workerLog := c.log.WithField("worker_id", i)
		c.wg.Add(1)
		go c.worker(workerLog)
	}

	// Feed the workers; stop early if the crawl context dies
feed:
	for _, item := range work {
		select {
		case c.workChan <- item:
		case <-c.crawlCtx.Done():
			c.log.Warnf("Crawl context cancelled while queueing work: %v", c.crawlCtx.Err())
			break feed
		}
	}
	close(c.workChan)
	c.wg.Wait()

	meta := &models.CrawlMetadata{
		RunID:          c.runID,
		CrawlStartTime: c.crawlStartTime.UTC(),
		CrawlEndTime:   time.Now().UTC(),
		TotalSpecs:     len(work),
		SpecsSucceeded: int(c.succeeded.Load()),
		SpecsFailed:    int(c.failed.Load()),
		Specs:          c.snapshotRecords(),
	}
	if _, err := c.writer.WriteCrawlIndex(meta); err != nil {
		c.log.Errorf("Failed to write crawl index: %v", err)
	}

	c.log.WithFields(logrus.Fields{
		"duration":  time.Since(c.crawlStartTime).String(),
		"succeeded": meta.SpecsSucceeded,
		"failed":    meta.SpecsFailed,
	}).Info("Crawl finished")

	if err := c.crawlCtx.Err(); err != nil {
		return err
	}
	return nil
}

// snapshotRecords returns the collected per-spec records in the order the
// specs were configured.
func (c *Crawler) snapshotRecords() []models.SpecRecord {
	c.recordsMu.Lock()
	defer c.recordsMu.Unlock()
	out := make([]models.SpecRecord, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Crawler) appendRecord(rec models.SpecRecord) {
	c.recordsMu.Lock()
	c.records = append(c.records, rec)
	c.recordsMu.Unlock()
}

// worker consumes spec work items until the channel closes or the crawl
// context is cancelled.
func (c *Crawler) worker(workerLog *logrus.Entry) {
	defer c.wg.Done()
	workerLog.Info("Worker starting")
	defer workerLog.Info("Worker finished")

	for {
		select {
		case <-c.crawlCtx.Done():
			workerLog.Warnf("Worker shutting down due to context cancellation: %v", c.crawlCtx.Err())
			return
		case item, ok := <-c.workChan:
			if !ok {
				return
			}
			c.processSpecTask(item, workerLog)
		}
	}
}

// processSpecTask runs the full pipeline for one spec: robots policy, cached
// or live fetch, multipage merge, dialect detection, outline and heading
// attribution, structured extraction, and report output.
func (c *Crawler) processSpecTask(item models.SpecWorkItem, workerLog *logrus.Entry) {
	taskLog := workerLog.WithFields(logrus.Fields{"spec": item.Shortname, "url": item.URL})
	startTime := time.Now()

	taskCtx := c.crawlCtx
	if c.appCfg.PerSpecTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(c.crawlCtx, c.appCfg.PerSpecTimeout)
		defer cancel()
	}

	var taskErr error
	rec := models.SpecRecord{Shortname: item.Shortname, URL: item.URL}

	defer func() {
		panicked := false
		if r := recover(); r != nil {
			panicked = true
			taskErr = fmt.Errorf("panic: %v", r)
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"duration":    time.Since(startTime).String(),
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in processSpecTask")
		}

		now := time.Now().UTC()
		entry := &models.SpecDBEntry{LastAttempt: now, Dialect: rec.Dialect}
		logFields := logrus.Fields{"duration": time.Since(startTime).String()}

		if taskErr != nil {
			rec.Status = string(models.SpecStatusFailure)
			rec.ErrorType = utils.CategorizeError(taskErr)
			entry.Status = rec.Status
			entry.ErrorType = rec.ErrorType
			c.failed.Add(1)
			logFields["category"] = rec.ErrorType
			if !panicked {
				taskLog.WithFields(logFields).Warnf("Spec failed: %v", taskErr)
			}
		} else {
			rec.Status = string(models.SpecStatusSuccess)
			entry.Status = rec.Status
			entry.ProcessedAt = now
			c.succeeded.Add(1)
			taskLog.WithFields(logFields).Info("Spec processed")
		}
		rec.ProcessedAt = now

		if dbErr := c.store.UpdateSpecStatus(item.Shortname, entry); dbErr != nil {
			taskLog.Errorf("Failed to update spec status in DB: %v", dbErr)
		}
		c.appendRecord(rec)
		c.processedCounter.Add(1)
	}()

	parsedURL, err := url.ParseRequestURI(item.URL)
	if err != nil {
		taskErr = fmt.Errorf("%w: invalid spec URL '%s': %v", utils.ErrConfigValidation, item.URL, err)
		return
	}

	userAgent := item.UserAgent
	if userAgent == "" {
		userAgent = c.appCfg.DefaultUserAgent
	}
	if !c.robotsHandler.TestAgent(taskCtx, parsedURL, userAgent) {
		taskErr = fmt.Errorf("%w: '%s' disallowed for agent '%s'", utils.ErrRobotsDisallowed, item.URL, userAgent)
		return
	}

	// Landing page
	basePage, err := c.fetchPageCached(taskCtx, item.URL, userAgent, taskLog)
	if err != nil {
		taskErr = err
		return
	}
	rec.FinalURL = basePage.finalURL
	rec.FromCache = basePage.fromCache
	rec.ContentHash = basePage.contentHash
	rec.PageCount = 1

	baseDoc, err := parse.ParseHTML(strings.NewReader(basePage.html))
	if err != nil {
		taskErr = err
		return
	}

	// Extra pages of a multipage spec
	var extraPages []parse.FetchedPage
	for _, pageRef := range item.Pages {
		pageURL, err := parse.ResolvePage(basePage.finalURL, pageRef)
		if err != nil {
			taskErr = fmt.Errorf("%w: resolving page '%s': %v", utils.ErrConfigValidation, pageRef, err)
			return
		}
		page, err := c.fetchPageCached(taskCtx, pageURL, userAgent, taskLog)
		if err != nil {
			taskErr = err
			return
		}
		pageDoc, err := parse.ParseHTML(strings.NewReader(page.html))
		if err != nil {
			taskErr = err
			return
		}
		extraPages = append(extraPages, parse.FetchedPage{URL: page.finalURL, Doc: pageDoc})
		rec.PageCount++
	}

	doc, err := parse.MergePages(baseDoc, extraPages)
	if err != nil {
		taskErr = err
		return
	}

	baseURL := basePage.finalURL
	finalParsed, err := url.Parse(baseURL)
	if err != nil {
		finalParsed = parsedURL
	}

	detection := c.detector.Detect(doc, finalParsed)
	rec.Dialect = string(detection.Dialect)

	// Outline pass: section listing plus per-id heading attribution
	body := doc.Find("body").First()
	if len(body.Nodes) == 0 {
		taskErr = fmt.Errorf("%w: merged document has no body", utils.ErrNoBody)
		return
	}
	res := outline.BuildOutline(body.Nodes[0])
	headings := outline.DocumentHeadings(res, baseURL)

	idMap, err := outline.MapIDsToHeadings(doc, baseURL)
	if err != nil {
		taskErr = err
		return
	}
	rec.HeadingCount = len(headings)
	rec.IDCount = len(idMap)

	extractor := extract.NewExtractor(taskLog, idMap, baseURL)
	defs := extractor.Definitions(doc, detection.Boilerplate)
	idl := extractor.IDLBlocks(doc, detection.Boilerplate)
	refs := extractor.References(doc)

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = baseURL
	}

	filename, err := c.writer.WriteSpecReport(&report.SpecReport{
		Shortname:   item.Shortname,
		URL:         item.URL,
		FinalURL:    rec.FinalURL,
		Title:       title,
		Dialect:     rec.Dialect,
		RetrievedAt: time.Now().UTC(),
		ContentHash: rec.ContentHash,
		Headings:    headings,
		IDs:         idMap,
		Definitions: defs,
		IDL:         idl,
		References:  refs,
	})
	if err != nil {
		taskErr = err
		return
	}
	rec.ReportFile = filename
}

// cachedPage is the outcome of fetchPageCached.
type cachedPage struct {
	html        string
	finalURL    string
	contentHash string
	fromCache   bool
}

// fetchPageCached returns the page body from the response cache when a fresh
// enough entry exists, otherwise fetches it live (under the global request
// cap and per-host rate limit) and stores the result.
func (c *Crawler) fetchPageCached(ctx context.Context, pageURL, userAgent string, taskLog *logrus.Entry) (*cachedPage, error) {
	normalized, parsed, err := parse.ParseAndNormalize(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page URL '%s': %v", utils.ErrConfigValidation, pageURL, err)
	}

	if entry, hit, cacheErr := c.store.GetCachedPage(normalized, c.appCfg.CacheTTL); cacheErr != nil {
		taskLog.Warnf("Cache lookup failed, fetching live: %v", cacheErr)
	} else if hit {
		taskLog.WithField("page", pageURL).Debug("Cache hit")
		return &cachedPage{
			html:        entry.HTML,
			finalURL:    entry.FinalURL,
			contentHash: entry.ContentHash,
			fromCache:   true,
		}, nil
	}

	ctxAcquire, cancelAcquire := context.WithTimeout(ctx, c.appCfg.SemaphoreAcquireTimeout)
	err = c.globalSemaphore.Acquire(ctxAcquire, 1)
	cancelAcquire()
	if err != nil {
		return nil, fmt.Errorf("%w: global request slot for '%s': %v", utils.ErrSemaphoreTimeout, pageURL, err)
	}
	defer c.globalSemaphore.Release(1)

	host := parsed.Hostname()
	c.rateLimiter.ApplyDelay(host, c.appCfg.DefaultDelayPerHost)
	result, fetchErr := c.fetcher.FetchPage(ctx, pageURL, userAgent)
	c.rateLimiter.UpdateLastRequestTime(host)
	if fetchErr != nil {
		return nil, fetchErr
	}

	page := &cachedPage{
		html:        string(result.Body),
		finalURL:    result.FinalURL,
		contentHash: utils.CalculateStringSHA256(string(result.Body)),
	}
	entry := &models.CacheEntry{
		FetchedAt:   time.Now().UTC(),
		FinalURL:    page.finalURL,
		ContentHash: page.contentHash,
		HTML:        page.html,
	}
	if cacheErr := c.store.PutCachedPage(normalized, entry); cacheErr != nil {
		taskLog.Warnf("Failed to cache page '%s': %v", pageURL, cacheErr)
	}
	return page, nil
}
