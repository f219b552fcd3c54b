package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/config"
	"github.com/pfrederiksen/golf-news/internal/extract"
	"github.com/pfrederiksen/golf-news/internal/history"
	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/processor"
	"github.com/pfrederiksen/golf-news/internal/report"
)

// batchOptions controls one runBatch call.
type batchOptions struct {
	// force processes URLs even when history says they were done.
	force    bool
	out      io.Writer
	progress io.Writer
	log      *logger.Logger
}

func newProcessor(cfg *config.Config, log *logger.Logger) (*processor.Processor, error) {
	ext, err := extract.ByName(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	return processor.New(cfg.ProcessorConfig(),
		processor.WithExtractor(ext),
		processor.WithLogger(log),
		processor.WithMarkdown(cfg.Output.MarkdownDir != ""),
	), nil
}

// runBatch processes urls, writes the report and persists it where
// configured. It returns a nil document when nothing was left to process.
func runBatch(ctx context.Context, p *processor.Processor, cfg *config.Config, urls []string, opts batchOptions) (*report.Document, error) {
	log := opts.log

	var store *history.Store
	if cfg.History.Enabled {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		store = s

		if !opts.force {
			pending, err := store.FilterUnprocessed(ctx, urls)
			if err != nil {
				return nil, err
			}
			if skipped := len(urls) - len(pending); skipped > 0 {
				log.Info("skipping processed urls", logger.Fields{"skipped": skipped})
			}
			urls = pending
		}
	}

	if len(urls) == 0 {
		fmt.Fprintln(opts.out, "No URLs to process.")
		return nil, nil
	}

	var progress processor.ProgressFunc
	if opts.progress != nil {
		progress = report.Progress(opts.progress)
	}

	results := p.Process(ctx, urls, progress)
	doc := report.NewDocument(results, article.Summarize(results))

	order, err := report.ParseSortOrder(cfg.Output.Sort)
	if err != nil {
		return nil, err
	}
	report.SortRecords(doc.Articles, order)

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	if err := report.Write(opts.out, doc, format, cfg.Output.Verbose); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}

	if cfg.Output.File != "" {
		if err := report.Save(cfg.Output.File, doc); err != nil {
			return doc, err
		}
		log.Info("report saved", logger.Fields{"path": cfg.Output.File, "run_id": doc.RunID})
	}

	if cfg.Output.MarkdownDir != "" {
		paths, err := report.ExportMarkdown(cfg.Output.MarkdownDir, results)
		if err != nil {
			return doc, err
		}
		log.Info("markdown exported", logger.Fields{"dir": cfg.Output.MarkdownDir, "files": len(paths)})
	}

	if store != nil {
		// Record outcomes even if the run was interrupted.
		if err := store.Record(context.WithoutCancel(ctx), results); err != nil {
			return doc, err
		}
	}

	return doc, nil
}

// failureExit converts a report with failures into ExitFailures.
func failureExit(doc *report.Document) error {
	if doc == nil || doc.Summary.Failed == 0 {
		return nil
	}
	return &ExitError{
		Code: ExitFailures,
		Err:  fmt.Errorf("%d of %d articles failed", doc.Summary.Failed, doc.Summary.TotalProcessed),
	}
}
