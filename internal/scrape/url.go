package scrape

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize reduces a URL to its origin+path identity: scheme and host
// lowercased, default ports removed, query and fragment stripped, trailing
// slash stripped unless the path is "/". Two URLs differing only in query or
// fragment canonicalize to the same string. The function is idempotent.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	// Remove default ports
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	}
	if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}

	return scheme + "://" + host + path, nil
}

// Scope is the URL prefix that bounds which discovered links are eligible.
// It is derived once from the canonicalized seed URL.
type Scope string

// NewScope derives the crawl scope from a seed URL and returns it together
// with the canonical seed.
func NewScope(seedURL string) (Scope, string, error) {
	canonical, err := Canonicalize(seedURL)
	if err != nil {
		return "", "", fmt.Errorf("derive scope: %w", err)
	}
	return Scope(canonical), canonical, nil
}

// Contains reports whether the given canonical URL falls inside the scope.
func (s Scope) Contains(canonicalURL string) bool {
	return strings.HasPrefix(canonicalURL, string(s))
}

// Resolve makes a link absolute against a base page URL, then canonicalizes
// it. The base must already be absolute.
func Resolve(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	return Canonicalize(base.ResolveReference(ref).String())
}
