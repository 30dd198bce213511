package outline

import (
	"golang.org/x/net/html"
)

// Result is the output of one outline computation: the top-level sections of
// the walk root's outline, plus a map from elements to the section that
// conceptually contains them. The map covers elements that carry an identifier
// (plus the sectioning elements themselves); heading elements and anything
// inside a hidden subtree are deliberately absent, so consumers must treat a
// missing entry as "attribute to the page" rather than an error.
type Result struct {
	Outline       []*Section
	NodeToSection map[*html.Node]*Section
}

// BuildOutline runs the outline algorithm over the subtree rooted at root
// (typically the document body) and returns the outline together with the
// node-to-section map. The walk is a deterministic, single-pass, pre/post
// order traversal with no side effects on the input tree; root is entered as
// a sectioning root when its tag is not sectioning content.
func BuildOutline(root *html.Node) *Result {
	w := &walker{nodeToSection: make(map[*html.Node]*Section)}

	if isSectioningContent(root) {
		w.enterSectioningContent(root)
	} else {
		w.enterSectioningRoot(root)
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	// Exiting the walk root: stack is empty by construction, so the only work
	// left is settling the heading of the still-open section.
	w.section.implyHeading()

	return &Result{Outline: w.target.outline, NodeToSection: w.nodeToSection}
}

// target tracks one outline under construction: the sectioning element that
// owns it, its top-level sections, and (for sectioning roots) the section
// that was current when the root was entered, which the finished outline
// re-attaches to on exit.
type target struct {
	node          *html.Node
	outline       []*Section
	parentSection *Section
}

// walker holds the traversal state for a single BuildOutline call: the current
// outline target, the stack of suspended targets, and the current section.
// Nothing here is shared between calls.
type walker struct {
	target        *target
	stack         []*target
	section       *Section
	nodeToSection map[*html.Node]*Section
}

// walk visits n and its subtree in document order. Only element nodes
// participate; text and comment nodes are skipped entirely.
func (w *walker) walk(n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	switch {
	case isHidden(n):
		// The subtree of a hidden element contributes nothing: no sections,
		// no headings, no node-to-section entries.
		return
	case isSectioningContent(n):
		w.enterSectioningContent(n)
	case isSectioningRoot(n):
		w.enterSectioningRoot(n)
	case isHeadingContent(n):
		// Headings are a single unit: their descendants are neither visited
		// as independent headings nor recorded in the node map.
		w.headingEntered(n)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	switch {
	case isSectioningContent(n):
		w.exitSectioningContent()
	case isSectioningRoot(n):
		w.exitSectioningRoot()
	}

	// Any element that carries an identifier is associated with the section
	// current at the time of its exit, first association wins.
	if id := ElementID(n); id != "" {
		if _, ok := w.nodeToSection[n]; !ok {
			w.nodeToSection[n] = w.section
		}
	}
}

// enterSectioningContent opens a fresh one-section outline for n. If the walk
// is already inside another outline, that outline's current section has its
// heading settled (implied if still missing) before descending.
func (w *walker) enterSectioningContent(n *html.Node) {
	if w.target != nil {
		w.section.implyHeading()
		w.stack = append(w.stack, w.target)
	}
	s := &Section{Root: n}
	w.target = &target{node: n, outline: []*Section{s}}
	w.section = s
	w.nodeToSection[n] = s
}

// enterSectioningRoot opens a fresh outline for n, remembering the section
// that was current at entry so the finished outline can be attached to it as
// a nested outline (SubRoots) rather than merged.
func (w *walker) enterSectioningRoot(n *html.Node) {
	var parentSection *Section
	if w.target != nil {
		parentSection = w.section
		w.stack = append(w.stack, w.target)
	}
	s := &Section{Root: n}
	w.target = &target{node: n, outline: []*Section{s}, parentSection: parentSection}
	w.section = s
	w.nodeToSection[n] = s
}

// exitSectioningContent closes n's outline and appends its top-level sections
// into the SubSections of the resumed outline's last section.
func (w *walker) exitSectioningContent() {
	w.section.implyHeading()
	finished := w.target.outline

	if len(w.stack) == 0 {
		// Walk root; BuildOutline handles final heading settlement.
		return
	}
	w.target = w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.section = w.target.outline[len(w.target.outline)-1]

	for _, s := range finished {
		s.parent = w.section
	}
	w.section.SubSections = append(w.section.SubSections, finished...)
}

// exitSectioningRoot closes n's outline and attaches it, via SubRoots, to the
// section that was current when the root was entered. The nested outline
// stays logically separate: it never merges into the outer SubSections.
func (w *walker) exitSectioningRoot() {
	w.section.implyHeading()
	finished := w.target.outline
	parentSection := w.target.parentSection

	if len(w.stack) == 0 {
		return
	}
	w.target = w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.section = parentSection

	for _, s := range finished {
		s.parent = parentSection
	}
	parentSection.SubRoots = append(parentSection.SubRoots, finished...)
}

// headingEntered applies the rank rules to the outline of the current target:
// claim the current headingless section, or start a sibling section at the
// outline's top level, or backtrack up the section ancestry until the new
// heading's rank fits and nest a child section there.
func (w *walker) headingEntered(n *html.Node) {
	last := w.target.outline[len(w.target.outline)-1]

	switch {
	case !w.section.HasHeading():
		w.section.Heading = n

	case last.Implied || headingLevel(n) <= sectionLevel(last):
		// Same or more significant than the outline's last top-level section:
		// open a sibling at the top level of this outline.
		s := &Section{Heading: n}
		w.target.outline = append(w.target.outline, s)
		w.section = s

	default:
		candidate := w.section
		for {
			if headingLevel(n) > sectionLevel(candidate) || candidate.parent == nil {
				// Nest under the first ancestor whose heading outranks the new
				// one. The parent==nil arm only fires for out-of-order heading
				// sequences in malformed documents; nesting under the
				// top-level section keeps the climb bounded by outline depth.
				s := &Section{Heading: n, parent: candidate}
				candidate.SubSections = append(candidate.SubSections, s)
				w.section = s
				return
			}
			candidate = candidate.parent
		}
	}
}
