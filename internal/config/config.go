// Package config loads golf-news settings from defaults, an optional YAML
// file, GOLFNEWS_* environment variables (with .env support) and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/discover"
	"github.com/pfrederiksen/golf-news/internal/extract"
	"github.com/pfrederiksen/golf-news/internal/fetcher"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/processor"
	"github.com/pfrederiksen/golf-news/internal/report"
)

// EnvPrefix prefixes every environment variable, e.g. GOLFNEWS_CONCURRENCY.
const EnvPrefix = "GOLFNEWS"

// DefaultFileName is looked up in the working directory and
// ~/.config/golf-news when no config file is given.
const DefaultFileName = "golf-news"

// Configuration validation errors.
var (
	ErrInvalidConcurrency   = errors.New("concurrency must be at least 1")
	ErrInvalidMaxRequests   = errors.New("rate_limit.max_requests must be non-negative")
	ErrInvalidWindow        = errors.New("rate_limit.window must be positive when max_requests is set")
	ErrInvalidTimeout       = errors.New("fetch.timeout must be positive")
	ErrInvalidMaxAttempts   = errors.New("fetch.max_attempts must be at least 1")
	ErrInvalidBackoff       = errors.New("fetch.initial_backoff must be positive and not exceed fetch.max_backoff")
	ErrInvalidSummaryLength = errors.New("summary_length must be positive")
	ErrInvalidExtractor     = errors.New("extractor must be 'selector' or 'readability'")
	ErrInvalidFormat        = errors.New("output.format must be 'text' or 'json'")
	ErrInvalidSortOrder     = errors.New("output.sort must be one of: input, status, title, time")
	ErrMissingHistoryPath   = errors.New("history.path is required when history is enabled")
	ErrInvalidMaxDepth      = errors.New("discover.max_depth must be at least 1")
	ErrInvalidSchedule      = errors.New("watch.schedule must be a valid cron expression")
	ErrInvalidLogLevel      = errors.New("log.level must be one of: debug, info, warn, error")
)

// Config is the complete golf-news configuration.
type Config struct {
	Concurrency   int            `mapstructure:"concurrency"`
	SummaryLength int            `mapstructure:"summary_length"`
	Extractor     string         `mapstructure:"extractor"`
	RateLimit     RateLimit      `mapstructure:"rate_limit"`
	Fetch         FetchConfig    `mapstructure:"fetch"`
	Output        OutputConfig   `mapstructure:"output"`
	History       HistoryConfig  `mapstructure:"history"`
	Discover      DiscoverConfig `mapstructure:"discover"`
	Watch         WatchConfig    `mapstructure:"watch"`
	Log           LogConfig      `mapstructure:"log"`
}

// RateLimit bounds how many requests start within Window.
type RateLimit struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// FetchConfig controls single page downloads.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	MaxRetryTime   time.Duration `mapstructure:"max_retry_time"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	UserAgent      string        `mapstructure:"user_agent"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
}

// OutputConfig controls reports.
type OutputConfig struct {
	Format      string `mapstructure:"format"`
	File        string `mapstructure:"file"`
	MarkdownDir string `mapstructure:"markdown_dir"`
	Sort        string `mapstructure:"sort"`
	Verbose     bool   `mapstructure:"verbose"`
	Progress    bool   `mapstructure:"progress"`
}

// HistoryConfig controls the processed-URL database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DiscoverConfig controls link discovery.
type DiscoverConfig struct {
	Seeds    []string      `mapstructure:"seeds"`
	Patterns []string      `mapstructure:"patterns"`
	MaxDepth int           `mapstructure:"max_depth"`
	MaxLinks int           `mapstructure:"max_links"`
	Delay    time.Duration `mapstructure:"delay"`

	// AllowExternal keeps matching links that point to other sites.
	AllowExternal bool `mapstructure:"allow_external"`
}

// WatchConfig controls scheduled runs.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"concurrency":    "concurrency",
	"summary-length": "summary_length",
	"extractor":      "extractor",
	"max-requests":   "rate_limit.max_requests",
	"window":         "rate_limit.window",
	"timeout":        "fetch.timeout",
	"max-attempts":   "fetch.max_attempts",
	"user-agent":     "fetch.user_agent",
	"robots":         "fetch.respect_robots",
	"format":         "output.format",
	"output":         "output.file",
	"markdown-dir":   "output.markdown_dir",
	"sort":           "output.sort",
	"verbose":        "output.verbose",
	"progress":       "output.progress",
	"history":        "history.enabled",
	"history-db":     "history.path",
	"seed":           "discover.seeds",
	"pattern":        "discover.patterns",
	"depth":          "discover.max_depth",
	"max-links":      "discover.max_links",
	"delay":          "discover.delay",
	"allow-external": "discover.allow_external",
	"schedule":       "watch.schedule",
	"log-level":      "log.level",
}

// Options tells Load where to look.
type Options struct {
	// File is an explicit config file. It must exist when set.
	File string
	// Flags are bound on top of every other source. May be nil.
	Flags *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	fc := fetcher.DefaultConfig()

	v.SetDefault("concurrency", processor.DefaultConcurrency)
	v.SetDefault("summary_length", article.DefaultSummaryLength)
	v.SetDefault("extractor", "selector")

	v.SetDefault("rate_limit.max_requests", processor.DefaultMaxRequests)
	v.SetDefault("rate_limit.window", processor.DefaultWindow)

	v.SetDefault("fetch.timeout", fc.Timeout)
	v.SetDefault("fetch.max_attempts", fc.MaxAttempts)
	v.SetDefault("fetch.max_retry_time", fc.MaxRetryTime)
	v.SetDefault("fetch.initial_backoff", fc.InitialBackoff)
	v.SetDefault("fetch.max_backoff", fc.MaxBackoff)
	v.SetDefault("fetch.user_agent", fetcher.UserAgent)
	v.SetDefault("fetch.respect_robots", false)

	v.SetDefault("output.format", string(report.FormatText))
	v.SetDefault("output.file", "")
	v.SetDefault("output.markdown_dir", "")
	v.SetDefault("output.sort", string(report.SortByInput))
	v.SetDefault("output.verbose", false)
	v.SetDefault("output.progress", false)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "~/.golf-news/history.db")

	v.SetDefault("discover.seeds", []string{})
	v.SetDefault("discover.patterns", []string{})
	v.SetDefault("discover.max_depth", 1)
	v.SetDefault("discover.max_links", 0)
	v.SetDefault("discover.delay", time.Duration(0))
	v.SetDefault("discover.allow_external", false)

	v.SetDefault("watch.schedule", "0 * * * *")

	v.SetDefault("log.level", string(logger.LevelInfo))
}

// Load builds and validates the configuration.
func Load(opts Options) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts.File); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	for _, path := range []*string{&cfg.History.Path, &cfg.Output.File, &cfg.Output.MarkdownDir} {
		expanded, err := expandHome(*path)
		if err != nil {
			return nil, err
		}
		*path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName(DefaultFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "golf-news"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.SummaryLength < 1 {
		return ErrInvalidSummaryLength
	}
	if _, err := extract.ByName(c.Extractor); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidExtractor, c.Extractor)
	}

	if c.RateLimit.MaxRequests < 0 {
		return ErrInvalidMaxRequests
	}
	if c.RateLimit.MaxRequests > 0 && c.RateLimit.Window <= 0 {
		return ErrInvalidWindow
	}

	if c.Fetch.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.Fetch.InitialBackoff <= 0 || c.Fetch.InitialBackoff > c.Fetch.MaxBackoff {
		return ErrInvalidBackoff
	}

	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}
	if _, err := report.ParseSortOrder(c.Output.Sort); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSortOrder, c.Output.Sort)
	}

	if c.History.Enabled && c.History.Path == "" {
		return ErrMissingHistoryPath
	}

	if c.Discover.MaxDepth < 1 {
		return ErrInvalidMaxDepth
	}

	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	return nil
}

// FetcherConfig returns the fetcher settings.
func (c *Config) FetcherConfig() fetcher.Config {
	return fetcher.Config{
		Timeout:        c.Fetch.Timeout,
		MaxAttempts:    c.Fetch.MaxAttempts,
		MaxRetryTime:   c.Fetch.MaxRetryTime,
		InitialBackoff: c.Fetch.InitialBackoff,
		MaxBackoff:     c.Fetch.MaxBackoff,
		UserAgent:      c.Fetch.UserAgent,
		RespectRobots:  c.Fetch.RespectRobots,
	}
}

// ProcessorConfig returns the batch processor settings.
func (c *Config) ProcessorConfig() processor.Config {
	return processor.Config{
		Concurrency:   c.Concurrency,
		MaxRequests:   c.RateLimit.MaxRequests,
		Window:        c.RateLimit.Window,
		SummaryLength: c.SummaryLength,
		Fetch:         c.FetcherConfig(),
	}
}

// DiscovererConfig returns the link discovery settings.
func (c *Config) DiscovererConfig() discover.Config {
	return discover.Config{
		Patterns:      c.Discover.Patterns,
		MaxDepth:      c.Discover.MaxDepth,
		MaxLinks:      c.Discover.MaxLinks,
		Delay:         c.Discover.Delay,
		AllowExternal: c.Discover.AllowExternal,
		UserAgent:     c.Fetch.UserAgent,
		RespectRobots: c.Fetch.RespectRobots,
	}
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
