package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/config"
	"github.com/pfrederiksen/golf-news/internal/fetcher"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/processor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitFailures = 2
)

// ExitError carries a process exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

var (
	flagConfig   string
	flagLogLevel string
	flagVerbose  bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "golf-news",
		Short: "Fetch golf news articles and extract their title and text",
		Long: `A CLI tool that fetches golf news articles concurrently, extracts title,
body and metadata, and reports per-article outcomes with summary statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./golf-news.yaml)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose report and debug logging")

	cmd.AddCommand(
		newScrapeCmd(),
		newDiscoverCmd(),
		newWatchCmd(),
		newHistoryCmd(),
		newNotifyCmd(),
	)

	return cmd
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	_ = logger.Default().Sync()

	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "%v\n", exitErr.Err)
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitError
}

// loadConfig loads configuration with the command's flags bound on top and
// installs the configured logger as the default.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(config.Options{File: flagConfig, Flags: cmd.Flags()})
	if err != nil {
		return nil, nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Output.Verbose && level == logger.LevelInfo {
		level = logger.LevelDebug
	}

	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	log.Debug("configuration loaded", logger.Fields{
		"concurrency":  cfg.Concurrency,
		"max_requests": cfg.RateLimit.MaxRequests,
		"window":       cfg.RateLimit.Window.String(),
		"extractor":    cfg.Extractor,
	})

	return cfg, log, nil
}

// addFetchFlags registers the flags shared by every command that downloads
// articles. Their names match config.FlagKeys.
func addFetchFlags(fs *pflag.FlagSet) {
	fc := fetcher.DefaultConfig()
	fs.Int("concurrency", processor.DefaultConcurrency, "Maximum articles processed at once")
	fs.Int("max-requests", processor.DefaultMaxRequests, "Maximum requests per rate-limit window (0 disables)")
	fs.Duration("window", processor.DefaultWindow, "Rate-limit window")
	fs.Duration("timeout", fc.Timeout, "Per-request timeout")
	fs.Int("max-attempts", fc.MaxAttempts, "Maximum fetch attempts per URL, including the first")
	fs.String("user-agent", fetcher.UserAgent, "User-Agent header")
	fs.Bool("robots", false, "Respect robots.txt")
	fs.String("extractor", "selector", "Content extractor: selector or readability")
	fs.Int("summary-length", article.DefaultSummaryLength, "Maximum summary length in characters")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.String("format", "text", "Output format: text or json")
	fs.StringP("output", "o", "", "Also save the JSON report to this file")
	fs.String("markdown-dir", "", "Write successful articles as Markdown files into this directory")
	fs.String("sort", "input", "Sort report by: input, status, title or time")
	fs.Bool("progress", false, "Print a line per finished article to stderr")
}

func addHistoryFlags(fs *pflag.FlagSet) {
	fs.Bool("history", false, "Record results and skip URLs already processed")
	fs.String("history-db", "~/.golf-news/history.db", "History database path")
}

func progressWriter(cfg *config.Config, cmd *cobra.Command) io.Writer {
	if !cfg.Output.Progress {
		return nil
	}
	return cmd.ErrOrStderr()
}
