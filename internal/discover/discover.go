// Package discover collects article links from listing pages such as a news
// index or a tournament hub.
package discover

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/pfrederiksen/golf-news/internal/fetcher"
	"github.com/pfrederiksen/golf-news/internal/logger"
)

// Config controls link discovery.
type Config struct {
	// Patterns are regular expressions an article URL must match. With no
	// patterns every same-site link counts as an article.
	Patterns []string
	// MaxDepth 1 reads only the seed pages; higher values follow
	// non-article links (pagination, section pages) that many levels deep.
	MaxDepth int
	// MaxLinks stops collecting once reached. Zero means no limit.
	MaxLinks      int
	AllowExternal bool
	Delay         time.Duration
	UserAgent     string
	RespectRobots bool
}

// Discoverer finds article links. A Discoverer may be reused; each Discover
// call uses a fresh collector.
type Discoverer struct {
	cfg      Config
	patterns []*regexp.Regexp
	log      *logger.Logger
}

// New compiles the configured patterns.
func New(cfg Config, log *logger.Logger) (*Discoverer, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetcher.UserAgent
	}
	if log == nil {
		log = logger.Default()
	}

	d := &Discoverer{cfg: cfg, log: log}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid link pattern %q: %w", p, err)
		}
		d.patterns = append(d.patterns, re)
	}
	return d, nil
}

// Discover visits every seed page and returns the article links found, in
// the order they were first seen. It fails only when no seed could be read.
func (d *Discoverer) Discover(ctx context.Context, seeds []string) ([]string, error) {
	if len(seeds) == 0 {
		return nil, nil
	}

	var (
		hosts   []string
		targets []string
	)
	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid seed url %q", s)
		}
		key := normalize(u)
		if seedSet[key] {
			continue
		}
		seedSet[key] = true
		hosts = append(hosts, u.Hostname())
		targets = append(targets, key)
	}

	c := d.newCollector(ctx, hosts)

	var (
		mu      sync.Mutex
		links   []string
		seen    = make(map[string]bool)
		errs    []error
		visited int
	)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}

		abs := e.Request.AbsoluteURL(e.Attr("href"))
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		link := normalize(u)
		if seedSet[link] {
			return
		}
		if !d.cfg.AllowExternal && !sameHost(u, hosts) {
			return
		}

		if !d.isArticle(link) {
			// Not an article; may lead to more (pagination, sections).
			_ = e.Request.Visit(link)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if seen[link] || (d.cfg.MaxLinks > 0 && len(links) >= d.cfg.MaxLinks) {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	c.OnScraped(func(r *colly.Response) {
		mu.Lock()
		visited++
		mu.Unlock()
		d.log.Debug("listing page scraped", logger.Fields{"url": r.Request.URL.String()})
	})

	c.OnError(func(r *colly.Response, err error) {
		d.log.Warn("listing page failed", logger.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
			"error":  err.Error(),
		})
	})

	for _, s := range targets {
		if err := c.Visit(s); err != nil {
			errs = append(errs, fmt.Errorf("visiting %s: %w", s, err))
		}
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return links, err
	}
	if visited == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	d.log.Info("discovery finished", logger.Fields{
		"seeds": len(seeds),
		"pages": visited,
		"links": len(links),
	})
	return links, nil
}

func (d *Discoverer) newCollector(ctx context.Context, hosts []string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.MaxDepth(d.cfg.MaxDepth),
		colly.UserAgent(d.cfg.UserAgent),
	}
	if !d.cfg.AllowExternal {
		opts = append(opts, colly.AllowedDomains(hosts...))
	}

	c := colly.NewCollector(opts...)
	c.IgnoreRobotsTxt = !d.cfg.RespectRobots

	if d.cfg.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: d.cfg.Delay, Parallelism: 1}); err != nil {
			d.log.Warn("setting crawl delay", logger.Fields{"error": err.Error()})
		}
	}
	return c
}

func (d *Discoverer) isArticle(link string) bool {
	if len(d.patterns) == 0 {
		return true
	}
	for _, re := range d.patterns {
		if re.MatchString(link) {
			return true
		}
	}
	return false
}

// normalize drops the fragment so anchors on one page count once.
func normalize(u *url.URL) string {
	v := *u
	v.Fragment = ""
	v.RawFragment = ""
	return strings.TrimSuffix(v.String(), "#")
}

func sameHost(u *url.URL, hosts []string) bool {
	for _, h := range hosts {
		if strings.EqualFold(u.Hostname(), h) {
			return true
		}
	}
	return false
}
