package notifier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/golf-news/internal/article"
)

// maxPostLength is the Twitter character limit
const maxPostLength = 280

const hashtags = "#Golf #GolfNews"

// Notifier defines the interface for posting article notifications
type Notifier interface {
	// Notify posts one notification per successful article
	Notify(ctx context.Context, articles []*article.Article) error
}

// Postable returns the articles worth announcing: successful ones with a title.
func Postable(articles []*article.Article) []*article.Article {
	var out []*article.Article
	for _, a := range articles {
		if a != nil && a.Succeeded() && a.Title != "" {
			out = append(out, a)
		}
	}
	return out
}

// formatPost formats an article as a post of at most maxPostLength characters.
// The summary is shortened first, then the title.
func formatPost(a *article.Article) string {
	footer := fmt.Sprintf("\n\n🔗 %s\n\n%s", a.URL, hashtags)
	title := "⛳ " + a.Title

	budget := maxPostLength - utf8.RuneCountInString(footer)
	if utf8.RuneCountInString(title) > budget {
		return truncate(title, budget) + footer
	}

	post := title
	if a.Summary != "" {
		room := budget - utf8.RuneCountInString(title) - 2
		if room > 20 {
			post += "\n\n" + truncate(a.Summary, room)
		}
	}
	return post + footer
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return strings.Repeat(".", max(n, 0))
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
