// Package fetch downloads HTML pages with bounded retries and optional
// on-disk revalidation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/readables/internal/cache"
)

var (
	// ErrUnsupportedContentType is returned for responses that are not HTML.
	ErrUnsupportedContentType = errors.New("fetch: unsupported content type")
	// ErrDisallowed is returned when the robots policy forbids the URL.
	ErrDisallowed = errors.New("fetch: disallowed by robots.txt")
	// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("fetch: response body too large")
)

// Policy decides whether a URL may be fetched.
type Policy interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// Delayer is implemented by policies that ask for a minimum pause between
// requests to a host. Retries wait at least that long.
type Delayer interface {
	CrawlDelay(ctx context.Context, url string) time.Duration
}

// Page is a fetched HTML document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	// FromCache is set when the body was served from the cache after a 304.
	FromCache bool
}

// Client fetches pages. The zero value is usable.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the first attempt. Values below 1 mean 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt. Zero means no extra timeout.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirects. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps the body size. Zero means 10 MiB.
	MaxBodyBytes int64
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// Cache enables conditional revalidation when set.
	Cache *cache.Pages
	// Robots is consulted before the first attempt when set.
	Robots Policy

	gate     chan struct{}
	gateOnce sync.Once
}

// statusError carries the HTTP status of a failed attempt.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("fetch: unexpected status %d", e.code) }

// Get fetches rawURL, retrying 5xx responses and per-attempt timeouts with a
// linear backoff.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url: %w", err)
	}
	if !isHTTP(u) {
		return nil, fmt.Errorf("fetch: unsupported url scheme %q", u.Scheme)
	}
	target := u.String()

	if c.Robots != nil {
		ok, err := c.Robots.Allowed(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("fetch: robots: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, target)
		}
	}

	var meta *cache.PageMeta
	if c.Cache != nil {
		if m, err := c.Cache.Meta(ctx, target); err == nil {
			meta = m
		}
	}

	var minWait time.Duration
	if d, ok := c.Robots.(Delayer); ok {
		minWait = d.CrawlDelay(ctx, target)
	}

	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, err := c.attempt(ctx, target, meta)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !transient(err) || i == attempts-1 {
			break
		}
		wait := time.Duration(i+1) * 200 * time.Millisecond
		if wait < minWait {
			wait = minWait
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, target string, meta *cache.PageMeta) (*Page, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && meta != nil {
		body, err := c.Cache.Body(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("fetch: load cached body: %w", err)
		}
		return &Page{URL: target, ContentType: meta.ContentType, Body: body, FromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if !isHTMLContentType(ct) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, ct)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, limit, target)
	}
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, cache.PageMeta{
			URL:          target,
			ContentType:  ct,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, body)
	}
	return &Page{URL: target, ContentType: ct, Body: body}, nil
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{}
	if c.HTTPClient != nil {
		base = *c.HTTPClient
	}
	hops := c.RedirectMaxHops
	if hops <= 0 {
		hops = 5
	}
	base.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return errors.New("fetch: too many redirects")
		}
		if !isHTTP(req.URL) {
			return errors.New("fetch: redirect to unsupported scheme")
		}
		return nil
	}
	return &base
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.code >= 500
}

func isHTTP(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.gateOnce.Do(func() { c.gate = make(chan struct{}, c.MaxConcurrent) })
	c.gate <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.gate == nil {
		return
	}
	<-c.gate
}
