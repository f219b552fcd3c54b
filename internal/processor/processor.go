package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/extract"
	"github.com/pfrederiksen/golf-news/internal/fetcher"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/ratelimit"
)

const (
	DefaultConcurrency = 5
	DefaultMaxRequests = 10
	DefaultWindow      = time.Second
)

// Config controls a Processor.
type Config struct {
	Concurrency   int
	MaxRequests   int
	Window        time.Duration
	SummaryLength int
	Fetch         fetcher.Config
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Concurrency:   DefaultConcurrency,
		MaxRequests:   DefaultMaxRequests,
		Window:        DefaultWindow,
		SummaryLength: article.DefaultSummaryLength,
		Fetch:         fetcher.DefaultConfig(),
	}
}

// Fetcher downloads a single page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// ProgressFunc is called once per finished URL. Calls never overlap.
type ProgressFunc func(completed, total int, a *article.Article)

// Processor is safe for concurrent use.
type Processor struct {
	cfg       Config
	fetcher   Fetcher
	owned     io.Closer
	extractor extract.Extractor
	markdown  bool
	log       *logger.Logger
	metrics   *logger.Metrics

	inflight atomic.Int64

	mu    sync.Mutex
	stats article.Stats
}

// Option customizes a Processor.
type Option func(*Processor)

// WithFetcher replaces the HTTP fetcher. The processor does not close it.
func WithFetcher(f Fetcher) Option {
	return func(p *Processor) {
		p.fetcher = f
	}
}

// WithExtractor replaces the default selector extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(p *Processor) {
		p.extractor = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

// WithMetrics records counters and timings into m instead of the default tracker.
func WithMetrics(m *logger.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithMarkdown renders the content of successful articles as Markdown.
func WithMarkdown(enabled bool) Option {
	return func(p *Processor) {
		p.markdown = enabled
	}
}

// New creates a Processor. Unless WithFetcher is given it builds its own
// rate-limited fetcher and closes it in Close.
func New(cfg Config, opts ...Option) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.SummaryLength <= 0 {
		cfg.SummaryLength = article.DefaultSummaryLength
	}

	p := &Processor{
		cfg:     cfg,
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
		stats:   article.Summarize(nil),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.extractor == nil {
		p.extractor = extract.NewSelectorExtractor()
	}
	if p.fetcher == nil {
		client := fetcher.New(cfg.Fetch,
			fetcher.WithLimiter(ratelimit.New(cfg.MaxRequests, cfg.Window)),
			fetcher.WithLogger(p.log),
		)
		p.fetcher = client
		p.owned = client
	}

	return p
}

// Close releases the HTTP client if the processor created it.
func (p *Processor) Close() error {
	if p.owned == nil {
		return nil
	}
	return p.owned.Close()
}

// Stats returns statistics accumulated over every Process call.
func (p *Processor) Stats() article.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.ByStatus = make(map[article.Status]int, len(p.stats.ByStatus))
	for k, v := range p.stats.ByStatus {
		s.ByStatus[k] = v
	}
	return s
}

// Process handles every URL and returns one result per URL in input order.
// A cancelled ctx stops admission; URLs that never started are recorded as
// failed with the context error.
func (p *Processor) Process(ctx context.Context, urls []string, progress ProgressFunc) []*article.Article {
	results := make([]*article.Article, len(urls))
	if len(urls) == 0 {
		return results
	}

	p.log.Info("batch started", logger.Fields{
		"urls":        len(urls),
		"concurrency": p.cfg.Concurrency,
	})
	start := time.Now()

	var (
		wg         sync.WaitGroup
		progressMu sync.Mutex
		completed  int
	)
	finish := func(i int, a *article.Article) {
		results[i] = a
		p.record(a)

		progressMu.Lock()
		defer progressMu.Unlock()
		completed++
		if progress != nil {
			progress(completed, len(urls), a)
		}
	}

	sem := make(chan struct{}, p.cfg.Concurrency)
	next := 0
admit:
	for ; next < len(urls); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break admit
		}

		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			p.metrics.SetGauge("processor.inflight", float64(p.inflight.Add(1)))
			a := p.processOne(ctx, rawURL)
			p.metrics.SetGauge("processor.inflight", float64(p.inflight.Add(-1)))

			finish(i, a)
		}(next, urls[next])
	}
	wg.Wait()

	for i := next; i < len(urls); i++ {
		a := article.New(urls[i])
		a.Error = ctx.Err().Error()
		finish(i, a)
	}

	batch := article.Summarize(results)
	p.log.Info("batch finished", logger.Fields{
		"total":        batch.Total,
		"successful":   batch.Successful,
		"failed":       batch.Failed,
		"success_rate": batch.SuccessRate,
		"elapsed":      time.Since(start).String(),
	})

	return results
}

// processOne never panics; a panic in the pipeline becomes a failed record.
func (p *Processor) processOne(ctx context.Context, rawURL string) (a *article.Article) {
	a = article.New(rawURL)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.Status = article.StatusFailed
			a.Error = fmt.Sprintf("panic: %v", r)
			p.log.Error("recovered from panic", logger.Fields{"url": rawURL}, fmt.Errorf("%v", r))
		}
		a.ProcessingTime = time.Since(start)
	}()

	resp, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		var fe *fetcher.Error
		if errors.As(err, &fe) && fe.Attempts > 1 {
			a.RetryCount = fe.Attempts - 1
		}
		if errors.Is(err, fetcher.ErrTimeout) {
			a.Status = article.StatusTimeout
			a.Error = "request timeout"
		} else {
			a.Error = err.Error()
		}
		p.log.Warn("fetch failed", logger.Fields{"url": rawURL, "status": string(a.Status)})
		return a
	}
	if resp.Attempts > 1 {
		a.RetryCount = resp.Attempts - 1
	}

	if resp.StatusCode != http.StatusOK {
		a.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return a
	}

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = rawURL
	}
	res, err := p.extractor.Extract(resp.Body, pageURL)
	if err != nil {
		a.Error = fmt.Sprintf("extracting content: %v", err)
		return a
	}

	a.Title = res.Title
	a.Body = res.Body
	if !res.Complete() {
		a.Status = article.StatusInvalidContent
		a.Error = "missing title or body content"
		return a
	}

	md := res.Metadata
	md.WordCount = article.WordCount(a.Body)
	a.Metadata = &md
	a.Summary = article.SummaryText(a.Body, p.cfg.SummaryLength)

	if p.markdown {
		out, err := extract.ToMarkdown(res.ContentHTML, pageURL)
		if err != nil {
			p.log.Warn("markdown conversion failed", logger.Fields{"url": rawURL, "error": err.Error()})
		} else {
			a.Markdown = out
		}
	}

	a.Status = article.StatusSuccess
	return a
}

func (p *Processor) record(a *article.Article) {
	p.metrics.IncrCounter("articles." + string(a.Status))
	p.metrics.RecordTiming("article.process", a.ProcessingTime)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Merge(article.Summarize([]*article.Article{a}))
}
