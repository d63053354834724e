// Package fetch resolves URL-valued input fields to document text, so
// citations can be checked against the documents a row points at rather
// than the bare links.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/scholarlabs/scholar/internal/cache"
	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/worker"
)

// gdocPattern matches Google Doc URLs; the capture group is the document id.
var gdocPattern = regexp.MustCompile(`^https://docs\.google\.com/document/d/([^/?#]+)`)

// Fetcher fetches and converts documents referenced by input fields
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache // nil disables caching
	limiter    *worker.Limiter
	robots     *RobotsChecker // nil disables robots.txt checks
	ttl        time.Duration
	verbose    bool
}

// NewFetcher creates a fetcher. The cache may be nil.
func NewFetcher(cfg model.FetchConfig, c cache.Cache, cacheTTL time.Duration, verbose bool) *Fetcher {
	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		cache:     c,
		limiter:   worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		robots:    robots,
		ttl:       cacheTTL,
		verbose:   verbose,
	}
}

// Resolve replaces an input-field value that is a document URL with the
// document's text. Google Doc links are fetched through the doc's HTML
// export; other http(s) links fetch the page and strip markup. Any other
// value is returned unchanged.
func (f *Fetcher) Resolve(ctx context.Context, value string) (string, error) {
	trimmed := strings.TrimSpace(value)

	if m := gdocPattern.FindStringSubmatch(trimmed); m != nil {
		f.logf("Opening Google Doc %s", trimmed)
		return f.fetchDocument(ctx, googleDocExportURL(m[1]))
	}

	if isHTTPURL(trimmed) {
		f.logf("Fetching %s", trimmed)
		return f.fetchDocument(ctx, trimmed)
	}

	return value, nil
}

// googleDocExportURL builds the HTML export endpoint for a document id.
// The document must be readable by the link holder.
func googleDocExportURL(docID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/export?format=html", docID)
}

func isHTTPURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	parsed, err := url.Parse(s)
	return err == nil && parsed.Host != ""
}

// fetchDocument fetches a URL and converts the body to plain text
func (f *Fetcher) fetchDocument(ctx context.Context, rawURL string) (string, error) {
	if f.cache != nil {
		if data, found := f.cache.Get(cache.Key(rawURL)); found {
			return string(data), nil
		}
	}

	crawlDelay := time.Duration(0)
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return "", fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	body, contentType, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text := body
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		text = HTMLToText(body)
	}

	if f.cache != nil {
		if err := f.cache.Set(cache.Key(rawURL), []byte(text), f.ttl); err != nil {
			f.logf("Warning: could not cache %s: %v", rawURL, err)
		}
	}

	return text, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	return string(body), resp.Header.Get("Content-Type"), nil
}

func looksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func (f *Fetcher) logf(format string, args ...interface{}) {
	if f.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
