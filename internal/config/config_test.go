package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray golf-news.yaml
// or .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdirTemp(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, "selector", cfg.Extractor)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "0 * * * *", cfg.Watch.Schedule)
	assert.Equal(t, filepath.Join(dir, ".golf-news", "history.db"), cfg.History.Path)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
concurrency: 8
extractor: readability
rate_limit:
  max_requests: 4
  window: 2s
fetch:
  timeout: 10s
output:
  format: json
discover:
  patterns:
    - /news/\d{4}/
`), 0644))

	t.Setenv("GOLFNEWS_RATE_LIMIT_MAX_REQUESTS", "6")
	t.Setenv("GOLFNEWS_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 5, "")
	flags.String("format", "text", "")
	require.NoError(t, flags.Parse([]string{"--concurrency=12"}))

	cfg, err := Load(Options{File: path, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Concurrency, "flag beats file")
	assert.Equal(t, 6, cfg.RateLimit.MaxRequests, "env beats file")
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "json", cfg.Output.Format, "unchanged flag keeps file value")
	assert.Equal(t, "readability", cfg.Extractor)
	assert.Equal(t, []string{`/news/\d{4}/`}, cfg.Discover.Patterns)
	assert.Equal(t, "debug", cfg.Log.Level)

	pc := cfg.ProcessorConfig()
	assert.Equal(t, 12, pc.Concurrency)
	assert.Equal(t, 10*time.Second, pc.Fetch.Timeout)
	assert.Equal(t, []string{`/news/\d{4}/`}, cfg.DiscovererConfig().Patterns)
}

func TestLoad_ExpandsHomePaths(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golf-news.yaml"), []byte(`
output:
  file: ~/reports/run.json
  markdown_dir: ~/articles
history:
  path: ~/state/history.db
`), 0644))

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "reports", "run.json"), cfg.Output.File)
	assert.Equal(t, filepath.Join(dir, "articles"), cfg.Output.MarkdownDir)
	assert.Equal(t, filepath.Join(dir, "state", "history.db"), cfg.History.Path)
}

func TestLoad_FetchAndDiscoverFlags(t *testing.T) {
	chdirTemp(t)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-attempts", 3, "")
	flags.Bool("allow-external", false, "")
	require.NoError(t, flags.Parse([]string{"--max-attempts=1", "--allow-external"}))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.FetcherConfig().MaxAttempts)
	assert.True(t, cfg.DiscovererConfig().AllowExternal)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golf-news.yaml"), []byte("concurrency: 2\n"), 0644))

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_Errors(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(Options{File: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("concurrency: 0\n"), 0644))
	_, err = Load(Options{File: bad})
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	chdirTemp(t)
	cfg, err := Load(Options{})
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"negative max requests", func(c *Config) { c.RateLimit.MaxRequests = -1 }, ErrInvalidMaxRequests},
		{"missing window", func(c *Config) { c.RateLimit.Window = 0 }, ErrInvalidWindow},
		{"unlimited rate without window", func(c *Config) { c.RateLimit = RateLimit{} }, nil},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, ErrInvalidTimeout},
		{"zero attempts", func(c *Config) { c.Fetch.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"backoff above max", func(c *Config) { c.Fetch.InitialBackoff = time.Minute }, ErrInvalidBackoff},
		{"summary length", func(c *Config) { c.SummaryLength = 0 }, ErrInvalidSummaryLength},
		{"unknown extractor", func(c *Config) { c.Extractor = "magic" }, ErrInvalidExtractor},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidFormat},
		{"unknown sort", func(c *Config) { c.Output.Sort = "random" }, ErrInvalidSortOrder},
		{"history without path", func(c *Config) { c.History = HistoryConfig{Enabled: true} }, ErrMissingHistoryPath},
		{"zero depth", func(c *Config) { c.Discover.MaxDepth = 0 }, ErrInvalidMaxDepth},
		{"bad schedule", func(c *Config) { c.Watch.Schedule = "every tuesday" }, ErrInvalidSchedule},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}
