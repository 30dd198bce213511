package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL for use as a cache key and for comparison
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https), removes trailing slashes from paths (unless root "/"), ensures empty path becomes "/", and removes fragments and query strings
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	// Work on a copy
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// Remove default ports
	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil { // Host included a port
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host // Use hostname without default port
		}
	} // If no port or error, Host remains unchanged

	// Handle path normalization
	if normalized.Path == "" {
		normalized.Path = "/" // Ensure empty path becomes "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1] // Remove trailing slash
	}

	normalized.Fragment = "" // Remove fragment
	normalized.RawQuery = "" // Remove query string

	return normalized.String()
}

// ParseAndNormalize parses a URL string using the stricter url.ParseRequestURI, rejects scheme-less input (ParseRequestURI accepts absolute paths like "/foo"), and then normalizes it using NormalizeURL
// Returns the normalized string, the parsed URL object, and any parse error
func ParseAndNormalize(urlStr string) (string, *url.URL, error) {
	parsed, err := url.ParseRequestURI(urlStr) // Stricter parsing
	if err != nil {
		return "", nil, err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", nil, fmt.Errorf("URL '%s' is not absolute", urlStr)
	}
	normalizedStr := NormalizeURL(parsed)
	return normalizedStr, parsed, nil
}

// ResolvePage resolves a (possibly relative) page reference against the spec's
// base URL. Multipage specs list their extra pages relative to the landing URL.
func ResolvePage(baseURL, pageRef string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(pageRef)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
