package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pfrederiksen/golf-news/internal/discover"
	"github.com/pfrederiksen/golf-news/internal/report"
	"github.com/pfrederiksen/golf-news/internal/urllist"
	"github.com/spf13/cobra"
)

var flagDiscoverScrape bool

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [listing-url...]",
		Short: "Collect article links from news listing pages",
		Long: `Visit listing pages (a news index, a tournament hub) and print the article
links found on them. Links are kept when they match any --pattern regular
expression; without patterns every same-site link is kept. With --scrape the
discovered articles are processed like the scrape command.`,
		RunE: runDiscover,
	}

	cmd.Flags().StringSlice("seed", nil, "Listing page URL (repeatable, in addition to arguments)")
	cmd.Flags().StringSlice("pattern", nil, "Regular expression article links must match (repeatable)")
	cmd.Flags().Int("depth", 1, "Listing page depth; 2 also follows pagination and section links")
	cmd.Flags().Int("max-links", 0, "Stop after this many links (0 means no limit)")
	cmd.Flags().Duration("delay", 0, "Delay between listing page requests")
	cmd.Flags().Bool("allow-external", false, "Keep matching links to other sites")
	cmd.Flags().BoolVar(&flagDiscoverScrape, "scrape", false, "Process the discovered articles")
	addFetchFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	addHistoryFlags(cmd.Flags())

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	seeds := urllist.Dedupe(append(append([]string(nil), args...), cfg.Discover.Seeds...))
	if len(seeds) == 0 {
		return fmt.Errorf("no listing pages given (pass them as arguments or with --seed)")
	}

	d, err := discover.New(cfg.DiscovererConfig(), log)
	if err != nil {
		return err
	}

	links, err := d.Discover(cmd.Context(), seeds)
	if err != nil {
		return fmt.Errorf("discovering links: %w", err)
	}

	if !flagDiscoverScrape {
		return writeLinks(cmd, cfg.Output.Format, links)
	}

	p, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	doc, err := runBatch(cmd.Context(), p, cfg, links, batchOptions{
		out:      cmd.OutOrStdout(),
		progress: progressWriter(cfg, cmd),
		log:      log,
	})
	if err != nil {
		return err
	}
	return failureExit(doc)
}

func writeLinks(cmd *cobra.Command, format string, links []string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f == report.FormatJSON {
		if links == nil {
			links = []string{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(links)
	}

	if len(links) == 0 {
		fmt.Fprintln(out, "No article links found.")
		return nil
	}
	for _, l := range links {
		fmt.Fprintln(out, l)
	}
	return nil
}
