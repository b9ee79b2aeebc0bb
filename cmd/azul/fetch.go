package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "azul/1.0 (compatible; Go)"

// maxBody bounds a single download.
const maxBody = 32 << 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// fetch retrieves the content at an HTTP or HTTPS URL, returning the body
// and its content type.
func fetch(rawURL string) (body []byte, contentType string, err error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// httpFetcher loads the resources of a fetched page, resolving references
// against the page URL.
type httpFetcher struct {
	base string
}

func (f *httpFetcher) Fetch(ref string) ([]byte, error) {
	u := resolveURL(f.base, ref)
	if !isNetworkURL(u) {
		return nil, fmt.Errorf("fetch %s: not an http(s) reference", ref)
	}
	body, _, err := fetch(u)
	return body, err
}

// resolveURL resolves a possibly-relative reference against a base URL.
// Unparseable input is returned as-is.
func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func isNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
