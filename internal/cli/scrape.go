package cli

import (
	"fmt"

	"github.com/pfrederiksen/golf-news/internal/urllist"
	"github.com/spf13/cobra"
)

var (
	flagFiles []string
	flagForce bool
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Fetch articles and extract title, body and metadata",
		Long: `Fetch every URL given as an argument or listed in --file (one per line,
.yaml/.yml files with a urls: list, or - for stdin) and report the outcome.

Exit code is 0 when every article succeeded, 2 when some failed and 1 on error.`,
		RunE: runScrape,
	}

	cmd.Flags().StringSliceVarP(&flagFiles, "file", "f", nil, "Read URLs from file (repeatable, - for stdin)")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Process URLs even if history marks them done")
	addFetchFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	addHistoryFlags(cmd.Flags())

	return cmd
}

// runScrape is the main command logic
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	urls, err := urllist.Collect(args, flagFiles)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given (pass them as arguments or with --file)")
	}

	p, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	doc, err := runBatch(cmd.Context(), p, cfg, urls, batchOptions{
		force:    flagForce,
		out:      cmd.OutOrStdout(),
		progress: progressWriter(cfg, cmd),
		log:      log,
	})
	if err != nil {
		return err
	}

	return failureExit(doc)
}
