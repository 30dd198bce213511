// Package outline implements the HTML document outline algorithm and the
// heading-attribution table built on top of it. The outline walk is the one
// stateful piece of the extraction pipeline; every extractor downstream
// consumes its output to annotate results with the heading they appear under.
package outline

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Section is one conceptual entry in a document outline. It is not a DOM node:
// implicit sibling sections (created when a heading follows an already-headed
// section) have no Root element at all.
type Section struct {
	// Heading is the heading element for this section. It stays nil while the
	// walk is in progress and the section is still headingless; once assigned
	// a real element it is never reassigned. Implied marks sections that were
	// closed without ever receiving a heading element.
	Heading *html.Node
	Implied bool

	// Root is the sectioning content or sectioning root element that produced
	// this Section, nil for implicitly created sibling sections.
	Root *html.Node

	// SubSections are child sections belonging to the same outline. SubRoots
	// are the top-level sections of logically separate outlines produced by
	// nested sectioning roots; they attach here but are never merged into
	// SubSections.
	SubSections []*Section
	SubRoots    []*Section

	// parent links a section to the section that contains it, across both
	// SubSections and SubRoots. Set once at attach time, bounding the ancestor
	// climbs in the builder and the heading mapper by outline depth.
	parent *Section
}

// Parent returns the section containing s (via SubSections or SubRoots),
// or nil for a top-level section of the outermost outline.
func (s *Section) Parent() *Section {
	return s.parent
}

// HasHeading reports whether the section's heading is settled, either as a
// real heading element or as the implied marker.
func (s *Section) HasHeading() bool {
	return s.Heading != nil || s.Implied
}

// implyHeading closes a headingless section with the implied marker. A real
// heading, once assigned, wins over the marker.
func (s *Section) implyHeading() {
	if s.Heading == nil {
		s.Implied = true
	}
}

// headingLevel returns the numeric heading level: 1 for the most significant
// rank (h1) through 6 (h6). An hgroup takes the most significant level among
// its descendant headings, defaulting to 1 when it contains none. Sections
// whose heading is implied also rank as level 1 so that later headings nest
// under them rather than climb past.
func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	case atom.Hgroup:
		best := 7
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				if lvl := headingLevel(c); lvl < best {
					best = lvl
				}
			}
		}
		if best == 7 {
			return 1
		}
		return best
	}
	return 1
}

// sectionLevel is headingLevel extended to sections: implied headings rank as
// most significant.
func sectionLevel(s *Section) int {
	if s.Heading == nil {
		return 1
	}
	return headingLevel(s.Heading)
}

// isSectioningContent reports whether n introduces a new entry in its
// ancestor's outline.
func isSectioningContent(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Article, atom.Aside, atom.Nav, atom.Section:
		return true
	}
	return false
}

// isSectioningRoot reports whether n starts a wholly separate nested outline.
// The walk root itself is always treated as a sectioning root regardless of
// its tag, so callers may hand in any container element.
func isSectioningRoot(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Blockquote, atom.Body, atom.Details, atom.Dialog, atom.Fieldset, atom.Figure, atom.Td:
		return true
	}
	return false
}

// isHeadingContent reports whether n is a rank-bearing heading element.
func isHeadingContent(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Hgroup:
		return true
	}
	return false
}

// isHidden reports whether n carries the hidden attribute; the walk skips the
// whole subtree of hidden elements.
func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
