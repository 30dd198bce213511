package outline

import (
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageAttr is the attribute stamped by the multipage merger on content grafted
// in from secondary pages. Anchors resolve against the nearest ancestor page
// annotation so fragments point at the page the element actually lives on.
const PageAttr = "data-spec-page"

// ElementID returns the identifier an element can be addressed by: its id
// attribute, or the legacy anchor name for <a name="..."> elements found in
// older hand-written specs. Empty string when the element has neither.
func ElementID(n *html.Node) string {
	if id := attrVal(n, "id"); id != "" {
		return id
	}
	if n.DataAtom == atom.A {
		return attrVal(n, "name")
	}
	return ""
}

// PageURL returns the URL of the page n belongs to: the nearest
// ancestor-or-self PageAttr annotation when the document was merged from a
// multipage spec, otherwise baseURL.
func PageURL(n *html.Node, baseURL string) string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if page := attrVal(cur, PageAttr); page != "" {
			if abs, err := resolveRef(baseURL, page); err == nil {
				return abs
			}
			return page
		}
	}
	return baseURL
}

// AbsoluteURL returns the page-qualified absolute URL for n: its page URL plus
// the element's own fragment identifier when it has one.
func AbsoluteURL(n *html.Node, baseURL string) string {
	page := PageURL(n, baseURL)
	id := ElementID(n)
	if id == "" {
		return page
	}
	u, err := url.Parse(page)
	if err != nil {
		return page + "#" + id
	}
	u.Fragment = id
	return u.String()
}

func resolveRef(baseURL, ref string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	target, err := base.Parse(ref)
	if err != nil {
		return "", err
	}
	return target.String(), nil
}
