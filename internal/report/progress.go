package report

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/golf-news/internal/article"
)

// Progress returns a callback that prints one line per finished article.
func Progress(w io.Writer) func(completed, total int, a *article.Article) {
	return func(completed, total int, a *article.Article) {
		line := fmt.Sprintf("[%d/%d] %-15s %s (%.2fs)", completed, total, a.Status, a.URL, a.ProcessingTime.Seconds())
		if a.Error != "" {
			line += ": " + a.Error
		}
		fmt.Fprintln(w, line)
	}
}
