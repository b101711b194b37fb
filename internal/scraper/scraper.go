package scraper

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is used when no user agent option is given.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxBodyBytes = 16 << 20
)

// Page is the unparsed body of one HTTP response.
type Page struct {
	URL        string
	StatusCode int
	Body       string
	FetchedAt  time.Time
}

// Client fetches pages from the results site. It issues exactly one request
// per Fetch call and never retries.
type Client struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	log       *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport default in place.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.client
			hc.Timeout = d
			c.client = &hc
		}
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit spaces requests at most rps per second. Requests wait for
// their slot; they are never dropped or retried. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client using the transport defaults.
func New(opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// setBrowserHeaders presents the request as a standard desktop browser.
func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// Fetch issues a single GET for url and returns the decoded body.
// Transport errors, non-2xx statuses and undecodable bodies all return a
// *FetchError.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	start := time.Now()
	page, err := c.fetch(ctx, url)

	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
		var fe *FetchError
		if errors.As(err, &fe) && fe.NotFound() {
			outcome = "not_found"
		}
		c.log.Debug("fetch failed", logger.Fields{"url": url, "outcome": outcome})
	} else {
		c.log.Debug("fetched page", logger.Fields{"url": url, "bytes": len(page.Body)})
	}
	metrics.ObserveFetch(outcome, time.Since(start))

	return page, err
}

func (c *Client) fetch(ctx context.Context, url string) (*Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: fmt.Errorf("waiting for request slot: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	c.setBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	return &Page{
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// decodeBody undoes the content encodings advertised in Accept-Encoding.
func decodeBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer zr.Close()
		r = zr
	default:
		return "", fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
