package parse

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"spec-scraper/pkg/outline"
	"spec-scraper/pkg/utils"
)

// FetchedPage pairs one page of a multipage spec with the URL it was fetched
// from (after redirects).
type FetchedPage struct {
	URL string
	Doc *goquery.Document
}

// ParseHTML parses an HTML document from r.
func ParseHTML(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML document: %v", utils.ErrParsing, err)
	}
	return doc, nil
}

// MergePages combines the pages of a multipage spec into the base document.
// Each extra page's body content is appended to the base body inside a <div>
// stamped with the page's URL, so that anchors from that page resolve against
// the page they came from rather than the landing URL. The base page itself is
// not stamped. The base document is modified in place.
func MergePages(base *goquery.Document, pages []FetchedPage) (*goquery.Document, error) {
	baseBody := base.Find("body").First()
	if baseBody.Length() == 0 {
		return nil, fmt.Errorf("%w: base document has no body", utils.ErrNoBody)
	}

	for _, page := range pages {
		pageBody := page.Doc.Find("body").First()
		if pageBody.Length() == 0 {
			return nil, fmt.Errorf("%w: page '%s' has no body", utils.ErrNoBody, page.URL)
		}

		container := &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: outline.PageAttr, Val: page.URL}},
		}

		// Detach the page body's children and reparent them under the container
		bodyNode := pageBody.Nodes[0]
		for child := bodyNode.FirstChild; child != nil; {
			next := child.NextSibling
			bodyNode.RemoveChild(child)
			container.AppendChild(child)
			child = next
		}

		baseBody.AppendNodes(container)
	}

	return base, nil
}
