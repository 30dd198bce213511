package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spec-scraper/pkg/outline"
)

const mergeBaseURL = "https://html.spec.whatwg.org/multipage/"

func TestMergePages(t *testing.T) {
	base, err := ParseHTML(strings.NewReader(`<html><head><title>HTML</title></head><body>
		<section id="intro"><h2>1 Introduction</h2><p id="scope">Scope.</p></section>
	</body></html>`))
	require.NoError(t, err)

	page2, err := ParseHTML(strings.NewReader(`<html><body>
		<section id="dom"><h2>2 The DOM</h2><p id="nodes">Nodes.</p></section>
	</body></html>`))
	require.NoError(t, err)

	merged, err := MergePages(base, []FetchedPage{
		{URL: mergeBaseURL + "dom.html", Doc: page2},
	})
	require.NoError(t, err)

	// Both pages' content is present in one document
	assert.Equal(t, 1, merged.Find("#intro").Length())
	assert.Equal(t, 1, merged.Find("#dom").Length())

	// Anchors from the extra page resolve against that page's URL
	nodes := merged.Find("#nodes").Nodes
	require.Len(t, nodes, 1)
	assert.Equal(t, mergeBaseURL+"dom.html#nodes", outline.AbsoluteURL(nodes[0], mergeBaseURL))

	// Base page anchors still resolve against the landing URL
	scope := merged.Find("#scope").Nodes
	require.Len(t, scope, 1)
	assert.Equal(t, mergeBaseURL+"#scope", outline.AbsoluteURL(scope[0], mergeBaseURL))
}

func TestMergePages_NoPages(t *testing.T) {
	base, err := ParseHTML(strings.NewReader(`<html><body><p id="a">x</p></body></html>`))
	require.NoError(t, err)

	merged, err := MergePages(base, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Find("#a").Length())
}

func TestMergePages_PageWithoutBody(t *testing.T) {
	base, err := ParseHTML(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)

	page, err := ParseHTML(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)
	page.Find("body").Remove()

	_, err = MergePages(base, []FetchedPage{{URL: "https://example.org/p2.html", Doc: page}})
	assert.Error(t, err)
}
