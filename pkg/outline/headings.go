package outline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"spec-scraper/pkg/utils"
)

// Heading describes the heading a document element sits under.
type Heading struct {
	ID     string `json:"id"`
	Href   string `json:"href"`
	Title  string `json:"title"`
	Number string `json:"number,omitempty"`
}

// HeadingMap associates the absolute URL of every identifier-bearing element
// in a document with its nearest explicit heading. Built once per document
// pass and read-only afterwards.
type HeadingMap map[string]Heading

// sectionNumberRe recognizes the numbering prefixes spec generators emit:
// decimal ("1.2.3"), alphabetic appendix style ("A.", "A.3"), and spelled-out
// "Appendix C" conventions. Trailing punctuation stays outside the capture.
var sectionNumberRe = regexp.MustCompile(`^(?:Appendix\s+)?([0-9]+(?:\.[0-9]+)*|[A-Z](?:\.[0-9]+)*)\.?:?\s+(.+)$`)

// SplitSectionNumber splits a heading's text into its bare title and its
// section number, if the text starts with a recognized numbering prefix.
// "3.2.1 Parsing" yields ("Parsing", "3.2.1"); text without a prefix is
// returned unchanged with an empty number.
func SplitSectionNumber(text string) (title, number string) {
	if m := sectionNumberRe.FindStringSubmatch(text); m != nil {
		return m[2], m[1]
	}
	return text, ""
}

// MapIDsToHeadings builds the outline of doc's body and resolves, for every
// element that carries an identifier, the nearest explicit (non-implied)
// heading above it. Keys are page-qualified absolute URLs so merged multipage
// specs keep distinct anchors. Elements that cannot be attributed to any real
// heading (front matter before the first heading, hidden subtrees, heading
// elements themselves) fall back to a page-level entry rather than an error;
// the map always has exactly one entry per identifier-bearing element.
func MapIDsToHeadings(doc *goquery.Document, baseURL string) (HeadingMap, error) {
	body := doc.Find("body").First()
	if len(body.Nodes) == 0 {
		return nil, fmt.Errorf("%w: cannot build outline", utils.ErrNoBody)
	}
	res := BuildOutline(body.Nodes[0])

	docTitle := strings.TrimSpace(doc.Find("title").First().Text())
	if docTitle == "" {
		docTitle = baseURL
	}

	headings := make(HeadingMap)
	for _, n := range collectIdentified(doc) {
		key := AbsoluteURL(n, baseURL)
		if _, ok := headings[key]; ok {
			continue // first association wins, mirroring the builder's map
		}

		sec := res.NodeToSection[n]
		for sec != nil && sec.Heading == nil {
			sec = sec.parent // climb past implied headings to a real one
		}
		if sec == nil {
			headings[key] = Heading{Href: PageURL(n, baseURL), Title: docTitle}
			continue
		}
		headings[key] = headingInfo(sec, baseURL)
	}
	return headings, nil
}

// DocumentHeadings returns the headings of every explicitly headed section in
// the full outline (crossing nested sectioning roots), in document order.
// This is the section listing recorded in crawl reports.
func DocumentHeadings(res *Result, baseURL string) []Heading {
	var out []Heading
	for _, sec := range FlattenAll(res.Outline) {
		if sec.Heading == nil {
			continue
		}
		out = append(out, headingInfo(sec, baseURL))
	}
	return out
}

// headingInfo renders a section's heading. The identifier of the sectioning
// element owning the section is preferred over the heading element's own id:
// when both exist, the container is the anchor the spec author intended.
func headingInfo(sec *Section, baseURL string) Heading {
	carrier := sec.Heading
	if sec.Root != nil && ElementID(sec.Root) != "" {
		carrier = sec.Root
	}
	title, number := SplitSectionNumber(nodeText(sec.Heading))
	return Heading{
		ID:     ElementID(carrier),
		Href:   AbsoluteURL(carrier, baseURL),
		Title:  title,
		Number: number,
	}
}

// collectIdentified gathers every element in the document (head included) that
// carries an identifier, in document order.
func collectIdentified(doc *goquery.Document) []*html.Node {
	var nodes []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && ElementID(n) != "" {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, root := range doc.Nodes {
		visit(root)
	}
	return nodes
}

// nodeText returns the whitespace-normalized text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
