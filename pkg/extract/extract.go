package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"spec-scraper/pkg/outline"
)

// Definition is one exported term definition (<dfn>) from a spec.
type Definition struct {
	ID      string          `json:"id"`
	Term    string          `json:"term"`
	Type    string          `json:"type,omitempty"` // data-dfn-type (Bikeshed)
	For     []string        `json:"for,omitempty"`  // data-dfn-for scoping
	Href    string          `json:"href"`
	Section outline.Heading `json:"section"`
}

// IDLBlock is one WebIDL block (<pre class="idl">) from a spec.
type IDLBlock struct {
	ID      string          `json:"id,omitempty"`
	Text    string          `json:"text"`
	Href    string          `json:"href,omitempty"`
	Section outline.Heading `json:"section"`
}

// Extractor pulls structured content out of a parsed spec document.
// The heading map attributes every extracted item to its spec section.
type Extractor struct {
	log      *logrus.Entry
	headings outline.HeadingMap
	baseURL  string
}

// NewExtractor creates an extractor for one spec document.
func NewExtractor(log *logrus.Entry, headings outline.HeadingMap, baseURL string) *Extractor {
	return &Extractor{
		log:      log,
		headings: headings,
		baseURL:  baseURL,
	}
}

// Definitions extracts all identified <dfn> elements, skipping any inside the
// boilerplate selector (front matter, ToC). Definitions without an id cannot
// be linked to and are skipped.
func (e *Extractor) Definitions(doc *goquery.Document, boilerplate string) []Definition {
	skip := boilerplateNodes(doc, boilerplate, "dfn")

	var defs []Definition
	doc.Find("dfn").Each(func(i int, s *goquery.Selection) {
		n := s.Nodes[0]
		if skip[n] {
			return
		}
		id := outline.ElementID(n)
		if id == "" {
			return
		}

		href := outline.AbsoluteURL(n, e.baseURL)
		def := Definition{
			ID:      id,
			Term:    strings.TrimSpace(s.Text()),
			Href:    href,
			Section: e.headings[href], // heading map keys are absolute URLs
		}
		if t, ok := s.Attr("data-dfn-type"); ok {
			def.Type = t
		}
		if f, ok := s.Attr("data-dfn-for"); ok {
			def.For = splitDfnFor(f)
		}
		defs = append(defs, def)
	})

	e.log.Debugf("Extracted %d definitions", len(defs))
	return defs
}

// IDLBlocks extracts all WebIDL blocks. Blocks are attributed to a section by
// their own id when present, otherwise by the nearest identified ancestor.
func (e *Extractor) IDLBlocks(doc *goquery.Document, boilerplate string) []IDLBlock {
	skip := boilerplateNodes(doc, boilerplate, "pre.idl")

	var blocks []IDLBlock
	doc.Find("pre.idl").Each(func(i int, s *goquery.Selection) {
		n := s.Nodes[0]
		if skip[n] {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		block := IDLBlock{Text: text}
		if id := outline.ElementID(n); id != "" {
			block.ID = id
			block.Href = outline.AbsoluteURL(n, e.baseURL)
			block.Section = e.headings[block.Href]
		} else if anchor := nearestIdentifiedAncestor(n); anchor != nil {
			block.Section = e.headings[outline.AbsoluteURL(anchor, e.baseURL)]
		}
		blocks = append(blocks, block)
	})

	e.log.Debugf("Extracted %d WebIDL blocks", len(blocks))
	return blocks
}

// boilerplateNodes collects the nodes matching inner within the boilerplate
// selector so extraction can skip them. Empty selector means nothing is
// skipped.
func boilerplateNodes(doc *goquery.Document, boilerplate, inner string) map[*html.Node]bool {
	skip := make(map[*html.Node]bool)
	if boilerplate == "" {
		return skip
	}
	doc.Find(boilerplate).Find(inner).Each(func(i int, s *goquery.Selection) {
		skip[s.Nodes[0]] = true
	})
	return skip
}

// nearestIdentifiedAncestor climbs to the closest ancestor carrying an id.
func nearestIdentifiedAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if outline.ElementID(p) != "" {
			return p
		}
	}
	return nil
}

// splitDfnFor splits a data-dfn-for attribute into its scoping terms.
func splitDfnFor(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
