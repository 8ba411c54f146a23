package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PrivacyScanner/internal/config"
)

func TestFetchTextStripsMarkup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "PrivacyScanner/1.0" {
			t.Errorf("unexpected user agent: %q", got)
		}
		_, _ = w.Write([]byte(`<html><head>
			<style>body { color: red; }</style>
			<script>alert("tracker");</script>
		</head><body>
			<h1>Jane Smith</h1>
			<p>Contact:   jane@example.com</p>
			<noscript>enable js</noscript>
		</body></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(config.ProfileConfig{UserAgent: "PrivacyScanner/1.0", Timeout: 5 * time.Second})
	text, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch text: %v", err)
	}

	if !strings.Contains(text, "Jane Smith") {
		t.Fatalf("expected heading text, got %q", text)
	}
	if !strings.Contains(text, "Contact: jane@example.com") {
		t.Fatalf("expected whitespace-normalized paragraph, got %q", text)
	}
	for _, banned := range []string{"alert", "color: red", "enable js"} {
		if strings.Contains(text, banned) {
			t.Fatalf("markup leaked into text: %q in %q", banned, text)
		}
	}
}

func TestFetchTextRejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewFetcher(config.ProfileConfig{})
	if _, err := fetcher.FetchText(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFetchTextRejectsNonHTTPSchemes(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(config.ProfileConfig{})
	for _, target := range []string{"ftp://example.com", "file:///etc/passwd", "not a url at all \x00"} {
		if _, err := fetcher.FetchText(context.Background(), target); err == nil {
			t.Fatalf("expected error for %q", target)
		}
	}
}
