package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/golf-news/internal/ratelimit"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

const (
	robotsCacheTTL     = 24 * time.Hour
	maxRobotsBodyBytes = 512 * 1024
)

// RobotsChecker caches robots.txt rules per host. Concurrent lookups for an
// uncached host share one download.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.Limiter

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// NewRobotsChecker creates a checker that fetches robots.txt with client.
// Each download takes a slot from limiter, which may be nil.
func NewRobotsChecker(client *http.Client, userAgent string, limiter *ratelimit.Limiter) *RobotsChecker {
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		limiter:   limiter,
		cache:     make(map[string]*robotsEntry),
	}
}

// IsAllowed reports whether the host's robots.txt lets our user agent fetch u.
// A missing, unreachable or unparsable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, u *url.URL) (bool, error) {
	host := strings.ToLower(u.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", u.String())
	}

	entry, ok := r.cached(host)
	if !ok {
		v, err, _ := r.group.Do(host, func() (interface{}, error) {
			// another flight may have filled the cache since the miss
			if e, ok := r.cached(host); ok {
				return e, nil
			}
			return r.fetch(ctx, u.Scheme, host)
		})
		if err != nil {
			return false, err
		}
		entry = v.(*robotsEntry)
	}

	// nil data means allow all
	if entry.data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return entry.data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsChecker) cached(host string) (*robotsEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok || time.Since(entry.fetchedAt) > robotsCacheTTL {
		return nil, false
	}
	return entry, true
}

func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) (*robotsEntry, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	entry := &robotsEntry{fetchedAt: time.Now()}

	body, status, err := r.download(ctx, scheme+"://"+host+"/robots.txt")
	if err == nil && status >= 200 && status < 300 {
		if data, parseErr := robotstxt.FromBytes(body); parseErr == nil {
			entry.data = data
		}
	}

	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()

	return entry, nil
}

func (r *RobotsChecker) download(ctx context.Context, robotsURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: fetching: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: reading body: %w", err)
	}
	return body, resp.StatusCode, nil
}
