package detect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DialectSignature defines detection patterns for a spec authoring dialect
type DialectSignature struct {
	Dialect        Dialect
	Boilerplate    string   // CSS selector for front/back matter to skip during extraction
	MetaGenerators []string // Substrings matched against <meta name="generator"> content
	Attributes     []string // HTML attributes to look for (e.g., "data-fill-with")
	Classes        []string // CSS classes to look for
	Scripts        []string // Script src patterns to look for
	HTMLPatterns   []string // Substring patterns to look for in raw HTML
}

// Matches returns true if the document matches this dialect's signature
func (sig *DialectSignature) Matches(doc *goquery.Document, html string) bool {
	// Check the generator meta tag first, it is the strongest signal
	for _, gen := range sig.MetaGenerators {
		found := false
		doc.Find("meta[name='generator']").Each(func(i int, s *goquery.Selection) {
			if found {
				return
			}
			content, exists := s.Attr("content")
			if exists && strings.Contains(strings.ToLower(content), strings.ToLower(gen)) {
				found = true
			}
		})
		if found {
			return true
		}
	}

	// Check for attribute presence
	for _, attr := range sig.Attributes {
		if doc.Find("[" + attr + "]").Length() > 0 {
			return true
		}
	}

	// Check for class presence
	for _, class := range sig.Classes {
		if doc.Find("."+class).Length() > 0 {
			return true
		}
	}

	// Check for script patterns
	for _, pattern := range sig.Scripts {
		found := false
		doc.Find("script[src]").Each(func(i int, s *goquery.Selection) {
			if found {
				return
			}
			src, exists := s.Attr("src")
			if exists && strings.Contains(src, pattern) {
				found = true
			}
		})
		if found {
			return true
		}
	}

	// Check for HTML patterns
	htmlLower := strings.ToLower(html)
	for _, pattern := range sig.HTMLPatterns {
		if strings.Contains(htmlLower, strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

// dialectSignatures contains detection patterns for known spec authoring tools
// Order matters: more specific patterns should come first
var dialectSignatures = []DialectSignature{
	// Bikeshed (most W3C/CSSWG specs)
	{
		Dialect:     DialectBikeshed,
		Boilerplate: "div.head, nav#toc, div#toc",
		MetaGenerators: []string{
			"bikeshed",
		},
		Attributes: []string{
			"data-fill-with",
			"data-link-type",
		},
		Classes: []string{
			"heading.settled",
		},
		HTMLPatterns: []string{
			"style-autolinks",
			"speccolor",
		},
	},

	// ReSpec (many W3C WG drafts)
	{
		Dialect:     DialectReSpec,
		Boilerplate: "div.head, #toc, #respec-ui",
		Attributes: []string{
			"data-cite",
		},
		Classes: []string{
			"respec-ui",
		},
		Scripts: []string{
			"respec",
		},
		HTMLPatterns: []string{
			"respecconfig",
			"respec-worker",
		},
	},

	// Wattsi (the WHATWG HTML standard build tool)
	{
		Dialect:     DialectWattsi,
		Boilerplate: "div.head, nav, header",
		MetaGenerators: []string{
			"wattsi",
		},
		HTMLPatterns: []string{
			"wattsi",
			"html.spec.whatwg.org/multipage",
		},
	},
}

// GetDialectBoilerplate returns the boilerplate selector for a known dialect
func GetDialectBoilerplate(d Dialect) string {
	for _, sig := range dialectSignatures {
		if sig.Dialect == d {
			return sig.Boilerplate
		}
	}
	return ""
}
