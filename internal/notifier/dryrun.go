package notifier

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pfrederiksen/golf-news/internal/article"
)

// DryRunNotifier prints what would be posted without actually posting
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Notify prints the posts that would be made
func (n *DryRunNotifier) Notify(ctx context.Context, articles []*article.Article) error {
	articles = Postable(articles)
	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		post := formatPost(a)
		fmt.Fprintf(n.w, "--- Post %d/%d ---\n", i+1, len(articles))
		fmt.Fprintln(n.w, post)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(post))
	}
	return nil
}
