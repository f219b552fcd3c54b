package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/history"
	"github.com/pfrederiksen/golf-news/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagHistoryStatus string
	flagHistoryLimit  int
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously processed articles",
		Long: `Show the latest outcome recorded for each URL in the history database,
most recent first.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().StringVar(&flagHistoryStatus, "status", "", "Only show entries with this status")
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "Maximum entries to show")
	cmd.Flags().String("format", "text", "Output format: text or json")
	cmd.Flags().String("history-db", "~/.golf-news/history.db", "History database path")

	return cmd
}

// historyRecord is the JSON form of a history entry.
type historyRecord struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	RetryCount     int     `json:"retry_count"`
	WordCount      int     `json:"word_count"`
	ProcessingTime float64 `json:"processing_time"`
	Runs           int     `json:"runs"`
	ProcessedAt    string  `json:"processed_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	filter := history.Filter{Limit: flagHistoryLimit}
	if flagHistoryStatus != "" {
		st := article.Status(flagHistoryStatus)
		if !st.Valid() {
			return fmt.Errorf("unknown status: %q", flagHistoryStatus)
		}
		filter.Status = st
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if format == report.FormatJSON {
		return writeHistoryJSON(cmd.OutOrStdout(), entries)
	}
	writeHistoryText(cmd.OutOrStdout(), entries)
	return nil
}

func writeHistoryJSON(w io.Writer, entries []history.Entry) error {
	records := make([]historyRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, historyRecord{
			ID:             e.ID,
			URL:            e.URL,
			Title:          e.Title,
			Status:         string(e.Status),
			Error:          e.Error,
			RetryCount:     e.RetryCount,
			WordCount:      e.WordCount,
			ProcessingTime: e.ProcessingTime.Seconds(),
			Runs:           e.Runs,
			ProcessedAt:    e.ProcessedAt.Format(time.RFC3339),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func writeHistoryText(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history entries.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Processed", "Status", "Title", "Runs", "URL"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ProcessedAt.Local().Format("2006-01-02 15:04"),
			e.Status,
			runewidth.Truncate(e.Title, 40, "..."),
			e.Runs,
			e.URL,
		})
	}
	t.Render()
}
