package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/pfrederiksen/golf-news/internal/config"
	"github.com/pfrederiksen/golf-news/internal/discover"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/processor"
	"github.com/pfrederiksen/golf-news/internal/urllist"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var flagRunNow bool

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [url...]",
		Short: "Scrape on a cron schedule, skipping articles already processed",
		Long: `Run scrape repeatedly on a cron schedule (default hourly). URLs come from
arguments, --file and, when --seed is given, from link discovery on every run.
History is always enabled so each run only processes new or failed URLs.`,
		RunE: runWatch,
	}

	cmd.Flags().StringSliceVarP(&flagFiles, "file", "f", nil, "Read URLs from file on every run (repeatable)")
	cmd.Flags().String("schedule", "0 * * * *", "Cron schedule (5 fields or @every/@hourly descriptors)")
	cmd.Flags().BoolVar(&flagRunNow, "run-now", false, "Run once immediately before waiting for the schedule")
	cmd.Flags().StringSlice("seed", nil, "Listing page to discover article links from (repeatable)")
	cmd.Flags().StringSlice("pattern", nil, "Regular expression article links must match (repeatable)")
	cmd.Flags().Int("depth", 1, "Listing page depth")
	addFetchFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	addHistoryFlags(cmd.Flags())

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.History.Enabled = true

	if len(args) == 0 && len(flagFiles) == 0 && len(cfg.Discover.Seeds) == 0 {
		return fmt.Errorf("nothing to watch (pass URLs, --file or --seed)")
	}

	p, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	w := &watcher{
		cfg:   cfg,
		p:     p,
		log:   log,
		cmd:   cmd,
		args:  args,
		files: flagFiles,
	}

	return w.run(cmd.Context(), flagRunNow)
}

// watcher runs one batch per cron tick.
type watcher struct {
	cfg   *config.Config
	p     *processor.Processor
	log   *logger.Logger
	cmd   *cobra.Command
	args  []string
	files []string

	// mu keeps output from overlapping runs apart.
	mu   sync.Mutex
	runs int
}

func (w *watcher) run(ctx context.Context, runNow bool) error {
	cl := cronLogger{log: w.log}
	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		cron.WithLogger(cl),
	)

	if _, err := c.AddFunc(w.cfg.Watch.Schedule, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", w.cfg.Watch.Schedule, err)
	}

	w.log.Info("watch started", logger.Fields{"schedule": w.cfg.Watch.Schedule})
	if runNow {
		w.tick(ctx)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	stats := w.p.Stats()
	w.log.Info("watch stopped", logger.Fields{
		"runs":         w.runs,
		"total":        stats.Total,
		"successful":   stats.Successful,
		"success_rate": stats.SuccessRate,
	})
	return nil
}

// tick collects the current URL set and processes what is new.
func (w *watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs++

	urls, err := w.collect(ctx)
	if err != nil {
		w.log.Error("collecting urls", nil, err)
		return
	}

	doc, err := runBatch(ctx, w.p, w.cfg, urls, batchOptions{
		out:      w.cmd.OutOrStdout(),
		progress: progressWriter(w.cfg, w.cmd),
		log:      w.log,
	})
	if err != nil {
		w.log.Error("watch run failed", logger.Fields{"run": w.runs}, err)
		return
	}
	if doc != nil {
		w.log.Info("watch run finished", logger.Fields{
			"run":        w.runs,
			"run_id":     doc.RunID,
			"processed":  doc.Summary.TotalProcessed,
			"successful": doc.Summary.Successful,
		})
	}
}

func (w *watcher) collect(ctx context.Context) ([]string, error) {
	urls, err := urllist.Collect(w.args, w.files)
	if err != nil {
		return nil, err
	}

	if len(w.cfg.Discover.Seeds) > 0 {
		d, err := discover.New(w.cfg.DiscovererConfig(), w.log)
		if err != nil {
			return nil, err
		}
		links, err := d.Discover(ctx, w.cfg.Discover.Seeds)
		if err != nil {
			return nil, err
		}
		urls = urllist.Dedupe(append(urls, links...))
	}

	return urls, nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(kv []interface{}) logger.Fields {
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
