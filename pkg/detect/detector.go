package detect

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Dialect represents a detected spec authoring dialect
type Dialect string

const (
	DialectUnknown  Dialect = "unknown"
	DialectBikeshed Dialect = "bikeshed"
	DialectReSpec   Dialect = "respec"
	DialectWattsi   Dialect = "wattsi"
)

// DetectionResult contains the result of dialect detection
type DetectionResult struct {
	Dialect     Dialect // Detected dialect (or unknown)
	Boilerplate string  // CSS selector for front/back matter to skip
	Fallback    bool    // True if no dialect was recognized
}

// DialectDetector detects the authoring dialect of a spec document
type DialectDetector struct {
	cache *DialectCache
	log   *logrus.Logger
}

// NewDialectDetector creates a new dialect detector with caching
func NewDialectDetector(log *logrus.Logger) *DialectDetector {
	return &DialectDetector{
		cache: NewDialectCache(),
		log:   log,
	}
}

// Detect determines the authoring dialect of the given document
// It first checks the per-spec cache, then tries signature matching, and
// falls back to a generic result when nothing matches. Results are cached
// per spec URL, never per host: w3.org/TR serves Bikeshed, ReSpec, and
// hand-authored specs side by side.
func (d *DialectDetector) Detect(doc *goquery.Document, specURL *url.URL) DetectionResult {
	key := specURL.String()

	// Check cache first
	if cached, ok := d.cache.Get(key); ok {
		d.log.Debugf("Using cached dialect for %s: %s", key, cached.Dialect)
		return cached
	}

	result := d.detectDialect(doc)
	if result.Dialect != DialectUnknown {
		d.log.Infof("Detected dialect %s for %s", result.Dialect, key)
		d.cache.Set(key, result)
		return result
	}

	// Hand-authored or unknown toolchain, extraction walks the whole body
	result = DetectionResult{
		Dialect:     DialectUnknown,
		Boilerplate: "",
		Fallback:    true,
	}
	d.log.Infof("No dialect detected for %s, extracting without boilerplate filter", key)
	d.cache.Set(key, result)
	return result
}

// detectDialect attempts to identify the authoring tool from HTML signatures
func (d *DialectDetector) detectDialect(doc *goquery.Document) DetectionResult {
	html, _ := doc.Html()

	for _, sig := range dialectSignatures {
		if sig.Matches(doc, html) {
			return DetectionResult{
				Dialect:     sig.Dialect,
				Boilerplate: sig.Boilerplate,
				Fallback:    false,
			}
		}
	}

	return DetectionResult{
		Dialect:     DialectUnknown,
		Boilerplate: "",
		Fallback:    true,
	}
}
