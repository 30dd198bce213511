package parse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase scheme and host", "HTTPS://WWW.W3.ORG/TR/Fetch/", "https://www.w3.org/TR/Fetch"},
		{"remove default https port", "https://www.w3.org:443/TR/fetch", "https://www.w3.org/TR/fetch"},
		{"remove default http port", "http://example.org:80/spec", "http://example.org/spec"},
		{"keep non-default port", "https://example.org:8443/spec", "https://example.org:8443/spec"},
		{"empty path becomes root", "https://url.spec.whatwg.org", "https://url.spec.whatwg.org/"},
		{"root path kept", "https://url.spec.whatwg.org/", "https://url.spec.whatwg.org/"},
		{"trailing slash removed", "https://www.w3.org/TR/css-grid-2/", "https://www.w3.org/TR/css-grid-2"},
		{"fragment removed", "https://html.spec.whatwg.org/multipage/dom.html#the-body-element", "https://html.spec.whatwg.org/multipage/dom.html"},
		{"query removed", "https://example.org/spec?draft=1", "https://example.org/spec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, NormalizeURL(u))
		})
	}
}

func TestNormalizeURL_NilInput(t *testing.T) {
	assert.Equal(t, "", NormalizeURL(nil))
}

func TestNormalizeURL_DoesNotMutateInput(t *testing.T) {
	u, err := url.Parse("https://www.w3.org/TR/fetch/#abort")
	require.NoError(t, err)
	_ = NormalizeURL(u)
	assert.Equal(t, "abort", u.Fragment)
	assert.Equal(t, "/TR/fetch/", u.Path)
}

func TestParseAndNormalize(t *testing.T) {
	normalized, parsed, err := ParseAndNormalize("https://www.w3.org/TR/fetch/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.w3.org/TR/fetch", normalized)
	assert.Equal(t, "/TR/fetch/", parsed.Path)

	// ParseRequestURI accepts absolute paths, so scheme-less input needs an
	// explicit rejection
	_, _, err = ParseAndNormalize("/relative/path")
	assert.Error(t, err, "scheme-less URLs should be rejected")

	_, _, err = ParseAndNormalize("//www.w3.org/TR/fetch/")
	assert.Error(t, err, "protocol-relative URLs should be rejected")
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		page     string
		expected string
	}{
		{"relative page", "https://html.spec.whatwg.org/multipage/", "dom.html", "https://html.spec.whatwg.org/multipage/dom.html"},
		{"absolute page passes through", "https://html.spec.whatwg.org/multipage/", "https://other.example/p.html", "https://other.example/p.html"},
		{"parent-relative page", "https://example.org/spec/index.html", "chapter2.html", "https://example.org/spec/chapter2.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePage(tt.base, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
