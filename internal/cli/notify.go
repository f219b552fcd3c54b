package cli

import (
	"fmt"

	"github.com/pfrederiksen/golf-news/internal/logger"
	"github.com/pfrederiksen/golf-news/internal/notifier"
	"github.com/pfrederiksen/golf-news/internal/report"
	"github.com/spf13/cobra"
)

var flagDryRun bool

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <report.json>",
		Short: "Post successful articles from a saved report to Twitter",
		Long: `Read a JSON report saved with --output and post one tweet per successful
article. Twitter credentials come from TWITTER_API_KEY, TWITTER_API_SECRET,
TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET.

Posts are only printed unless --dry-run=false is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runNotify,
	}

	cmd.Flags().BoolVar(&flagDryRun, "dry-run", true, "Print posts instead of publishing them")

	return cmd
}

func runNotify(cmd *cobra.Command, args []string) error {
	_, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := report.Load(args[0])
	if err != nil {
		return err
	}

	articles := notifier.Postable(doc.Results())
	if len(articles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No successful articles to post.")
		return nil
	}

	var n notifier.Notifier
	if flagDryRun {
		n = notifier.NewDryRunNotifier(cmd.OutOrStdout())
	} else {
		tn, err := notifier.NewTwitterNotifier(log)
		if err != nil {
			return err
		}
		n = tn
	}

	if err := n.Notify(cmd.Context(), articles); err != nil {
		return fmt.Errorf("posting articles: %w", err)
	}

	log.Info("notifications sent", logger.Fields{
		"run_id":   doc.RunID,
		"articles": len(articles),
		"dry_run":  flagDryRun,
	})
	return nil
}
