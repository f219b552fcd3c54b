package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/ratelimit"
)

const (
	UserAgent           = "golf-news/1.0 (github.com/pfrederiksen/golf-news)"
	Timeout             = 30 * time.Second
	MaxAttempts         = 3
	MaxRetryTime        = 60 * time.Second
	InitialBackoff      = 500 * time.Millisecond
	MaxBackoff          = 10 * time.Second
	maxResponseBodySize = 10 * 1024 * 1024
)

var (
	// ErrTimeout marks a fetch whose final attempt timed out.
	ErrTimeout = errors.New("request timeout")
	// ErrDisallowed marks a URL refused by the host's robots.txt.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// Config controls timeouts and retries.
type Config struct {
	Timeout        time.Duration
	MaxAttempts    int
	MaxRetryTime   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
	RespectRobots  bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        Timeout,
		MaxAttempts:    MaxAttempts,
		MaxRetryTime:   MaxRetryTime,
		InitialBackoff: InitialBackoff,
		MaxBackoff:     MaxBackoff,
		UserAgent:      UserAgent,
	}
}

func (c *Config) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = Timeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = MaxAttempts
	}
	if c.MaxRetryTime <= 0 {
		c.MaxRetryTime = MaxRetryTime
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = MaxBackoff
	}
	if c.UserAgent == "" {
		c.UserAgent = UserAgent
	}
}

// Response is the outcome of a fetch that reached the server.
type Response struct {
	URL         string
	Body        string
	StatusCode  int
	ContentType string
	Attempts    int
}

// Error is returned when no attempt produced a response.
type Error struct {
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Attempts == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (after %d attempt(s))", e.Err, e.Attempts)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client fetches pages. It is safe for concurrent use; its configuration is
// fixed at construction.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.Limiter
	robots  *RobotsChecker
	log     *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLimiter makes every attempt take a slot from l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	cfg.setDefaults()

	c := &Client{
		cfg: cfg,
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	c.http.Timeout = cfg.Timeout
	c.http.CheckRedirect = checkRedirect

	if cfg.RespectRobots {
		c.robots = NewRobotsChecker(c.http, cfg.UserAgent, c.limiter)
	}

	return c
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Fetch downloads rawURL. Transport errors and timeouts are retried with
// exponential backoff up to MaxAttempts attempts and MaxRetryTime in total.
// Any HTTP response, whatever its status, ends the retry loop.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	if c.robots != nil {
		allowed, err := c.robots.IsAllowed(ctx, target)
		if err != nil {
			return nil, &Error{URL: rawURL, Err: err}
		}
		if !allowed {
			return nil, &Error{URL: rawURL, Err: ErrDisallowed}
		}
	}

	var (
		resp     *Response
		attempts int
	)
	operation := func() error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		r, err := c.do(ctx, target)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Debug("retrying fetch", logger.Fields{
			"url":       rawURL,
			"attempt":   attempts,
			"wait":      wait.String(),
			"in_window": c.limiter.InWindow(),
			"error":     err.Error(),
		})
	}

	if err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify); err != nil {
		return nil, &Error{URL: rawURL, Attempts: attempts, Err: classify(err)}
	}

	resp.Attempts = attempts
	return resp, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialBackoff
	eb.Multiplier = 2
	eb.MaxInterval = c.cfg.MaxBackoff
	eb.MaxElapsedTime = c.cfg.MaxRetryTime

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.cfg.MaxAttempts-1)), ctx)
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, target *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		Body:        string(body),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// classify wraps timeout failures with ErrTimeout.
func classify(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in url %q", rawURL)
	}
	return u, nil
}

func isHTTPScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

const maxRedirects = 5

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return errors.New("redirect to unsupported scheme")
	}
	return nil
}
