// Package profile fetches the publicly visible text of a web profile so it
// can be analyzed with the same pipeline as pasted text.
package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/ports"
)

// Fetcher downloads a profile page and extracts its visible text.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.ProfileSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client from configuration.
func NewFetcher(cfg config.ProfileConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "PrivacyScanner/1.0"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchText downloads the page and returns its visible text with scripts,
// styles and markup stripped, whitespace-normalized line by line.
func (f *Fetcher) FetchText(ctx context.Context, profileURL string) (string, error) {
	parsed, err := url.Parse(profileURL)
	if err != nil {
		return "", fmt.Errorf("parse profile url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("profile url %q: only http(s) is supported", profileURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse profile page: %w", err)
	}

	return VisibleText(doc), nil
}

// VisibleText flattens a document into readable lines.
func VisibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, raw := range strings.Split(doc.Text(), "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
