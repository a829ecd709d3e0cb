// Package robots decides whether a page may be fetched according to the
// site's robots.txt.
package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hyperifyio/readables/internal/cache"
)

// ErrUnavailable is returned when robots.txt could not be read because of a
// server error, an auth wall or a timeout. Callers treat the host as
// disallowed for now.
var ErrUnavailable = errors.New("robots: robots.txt temporarily unavailable")

// Manager fetches and remembers robots.txt per origin.
type Manager struct {
	HTTPClient *http.Client
	// Cache revalidates robots.txt bodies across runs when set.
	Cache     *cache.Pages
	UserAgent string
	// EntryExpiry bounds how long parsed rules are reused. Default: 30m.
	EntryExpiry time.Duration

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Allowed reports whether pageURL may be fetched.
func (m *Manager) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	rules, err := m.Rules(ctx, u)
	if err != nil {
		return false, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.Allowed(m.UserAgent, path), nil
}

// CrawlDelay returns the Crawl-delay that applies to the manager's user agent
// on the origin of pageURL, or zero when none is set or robots.txt cannot be
// read.
func (m *Manager) CrawlDelay(ctx context.Context, pageURL string) time.Duration {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	rules, err := m.Rules(ctx, u)
	if err != nil {
		return 0
	}
	return rules.CrawlDelay(m.UserAgent)
}

// Rules returns the robots.txt rules for the origin of u.
func (m *Manager) Rules(ctx context.Context, u *url.URL) (Rules, error) {
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	m.mu.Lock()
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if ent, ok := m.mem[robotsURL]; ok && m.now().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.rules, nil
	}
	m.mu.Unlock()

	rules, err := m.fetch(ctx, robotsURL)
	if err != nil {
		return Rules{}, err
	}
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[robotsURL] = memEntry{rules: rules, expiry: m.now().Add(exp)}
	m.mu.Unlock()
	return rules, nil
}

func (m *Manager) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	var meta *cache.PageMeta
	if m.Cache != nil {
		if got, err := m.Cache.Meta(ctx, robotsURL); err == nil {
			meta = got
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("robots: new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && meta != nil:
		body, err := m.Cache.Body(ctx, robotsURL)
		if err != nil {
			return Rules{}, fmt.Errorf("robots: load cached body: %w", err)
		}
		return Parse(string(body)), nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
		if err != nil {
			return Rules{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if m.Cache != nil {
			_ = m.Cache.Save(ctx, cache.PageMeta{
				URL:          robotsURL,
				ContentType:  resp.Header.Get("Content-Type"),
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}, data)
		}
		return Parse(string(data)), nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode >= 500:
		return Rules{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		// Any other 4xx means there is no robots.txt.
		return Rules{}, nil
	}
}
