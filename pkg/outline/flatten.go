package outline

// Flatten returns every section reachable from the given top-level sections of
// one outline in pre-order, following SubSections chains only. Nested outlines
// produced by sectioning roots are not crossed.
func Flatten(sections []*Section) []*Section {
	var flat []*Section
	for _, s := range sections {
		flat = append(flat, s)
		flat = append(flat, Flatten(s.SubSections)...)
	}
	return flat
}

// FlattenAll is Flatten extended across SubRoots: it additionally descends
// into the outlines of nested sectioning roots, yielding every section of the
// whole document in pre-order.
func FlattenAll(sections []*Section) []*Section {
	var flat []*Section
	for _, s := range sections {
		flat = append(flat, s)
		flat = append(flat, FlattenAll(s.SubSections)...)
		flat = append(flat, FlattenAll(s.SubRoots)...)
	}
	return flat
}
