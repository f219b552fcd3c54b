package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/pfrederiksen/golf-news/internal/article"
)

// Format specifies the output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

const titleWidth = 50

// RecordMetadata is the reported subset of article.Metadata.
type RecordMetadata struct {
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	WordCount     int      `json:"word_count"`
	ImageCount    int      `json:"image_count"`
}

// Record is the report entry for one URL.
type Record struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Title          string          `json:"title,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Status         article.Status  `json:"status"`
	Error          string          `json:"error,omitempty"`
	ProcessingTime float64         `json:"processing_time"`
	RetryCount     int             `json:"retry_count"`
	Metadata       *RecordMetadata `json:"metadata,omitempty"`
}

// NewRecord converts an article into a report record.
func NewRecord(a *article.Article) Record {
	r := Record{
		ID:             a.ID(),
		URL:            a.URL,
		Title:          a.Title,
		Summary:        a.Summary,
		Status:         a.Status,
		Error:          a.Error,
		ProcessingTime: a.ProcessingTime.Seconds(),
		RetryCount:     a.RetryCount,
	}
	if md := a.Metadata; md != nil {
		r.Metadata = &RecordMetadata{
			Author:        md.Author,
			PublishedDate: md.PublishedDate,
			Tags:          md.Tags,
			WordCount:     md.WordCount,
			ImageCount:    len(md.Images),
		}
	}
	return r
}

// Article rebuilds the parts of an article a record keeps. Body, Markdown
// and image URLs are not part of a report.
func (r Record) Article() *article.Article {
	a := &article.Article{
		URL:            r.URL,
		Title:          r.Title,
		Summary:        r.Summary,
		Status:         r.Status,
		Error:          r.Error,
		ProcessingTime: time.Duration(r.ProcessingTime * float64(time.Second)),
		RetryCount:     r.RetryCount,
	}
	if md := r.Metadata; md != nil {
		a.Metadata = &article.Metadata{
			Author:        md.Author,
			PublishedDate: md.PublishedDate,
			Tags:          md.Tags,
			WordCount:     md.WordCount,
		}
	}
	return a
}

// Summary holds the batch totals. Times are in seconds.
type Summary struct {
	TotalProcessed    int            `json:"total_processed"`
	Successful        int            `json:"successful"`
	Failed            int            `json:"failed"`
	ByStatus          map[string]int `json:"by_status"`
	SuccessRate       float64        `json:"success_rate"`
	TotalTime         float64        `json:"total_time"`
	AvgProcessingTime float64        `json:"avg_processing_time"`
}

func newSummary(s article.Stats) Summary {
	sum := Summary{
		TotalProcessed:    s.Total,
		Successful:        s.Successful,
		Failed:            s.Failed,
		ByStatus:          make(map[string]int, len(s.ByStatus)),
		SuccessRate:       s.SuccessRate,
		TotalTime:         s.TotalTime.Seconds(),
		AvgProcessingTime: s.AverageTime.Seconds(),
	}
	for st, n := range s.ByStatus {
		sum.ByStatus[string(st)] = n
	}
	return sum
}

// Document is a complete batch report.
type Document struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
	Articles  []Record  `json:"articles"`
}

// NewDocument builds a report for results. Nil results are skipped.
func NewDocument(results []*article.Article, stats article.Stats) *Document {
	doc := &Document{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Summary:   newSummary(stats),
		Articles:  make([]Record, 0, len(results)),
	}
	for _, a := range results {
		if a == nil {
			continue
		}
		doc.Articles = append(doc.Articles, NewRecord(a))
	}
	return doc
}

// Results converts every record back into an article.
func (d *Document) Results() []*article.Article {
	out := make([]*article.Article, len(d.Articles))
	for i, r := range d.Articles {
		out[i] = r.Article()
	}
	return out
}

// Write writes doc in the specified format
func Write(w io.Writer, doc *Document, format Format, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatText:
		return writeText(w, doc, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func writeText(w io.Writer, doc *Document, verbose bool) error {
	if len(doc.Articles) == 0 {
		fmt.Fprintln(w, "No articles processed.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"#", "Status", "Title", "Time", "Retries"}
	if verbose {
		header = append(header, "URL", "Error")
	}
	t.AppendHeader(header)

	for i, r := range doc.Articles {
		title := r.Title
		if title == "" {
			title = "-"
		}
		row := table.Row{
			i + 1,
			string(r.Status),
			runewidth.Truncate(title, titleWidth, "..."),
			fmt.Sprintf("%.2fs", r.ProcessingTime),
			r.RetryCount,
		}
		if verbose {
			row = append(row, r.URL, r.Error)
		}
		t.AppendRow(row)
	}
	t.Render()

	s := doc.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d\n", s.TotalProcessed)
	fmt.Fprintf(w, "Successful: %d\n", s.Successful)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Success rate: %.1f%%\n", s.SuccessRate*100)
	fmt.Fprintf(w, "Average processing time: %.2fs\n", s.AvgProcessingTime)

	if verbose {
		for _, st := range article.Statuses {
			if n := s.ByStatus[string(st)]; n > 0 {
				fmt.Fprintf(w, "  %s: %d\n", st, n)
			}
		}
	}

	return nil
}
