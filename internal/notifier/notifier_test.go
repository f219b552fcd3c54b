package notifier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/logger"
)

func TestFormatPost(t *testing.T) {
	tests := []struct {
		name     string
		article  *article.Article
		contains []string
		excludes []string
	}{
		{
			name: "complete article",
			article: &article.Article{
				URL:     "https://golf.example.com/news/masters",
				Title:   "Scheffler wins the Masters",
				Summary: "Scottie Scheffler closed with a 68 to win by four.",
				Status:  article.StatusSuccess,
			},
			contains: []string{
				"⛳ Scheffler wins the Masters",
				"closed with a 68",
				"https://golf.example.com/news/masters",
				"#Golf",
			},
		},
		{
			name: "article without summary",
			article: &article.Article{
				URL:    "https://golf.example.com/news/open",
				Title:  "Open Championship tee times",
				Status: article.StatusSuccess,
			},
			contains: []string{"Open Championship tee times", "#GolfNews"},
		},
		{
			name: "long summary gets truncated",
			article: &article.Article{
				URL:     "https://golf.example.com/news/ryder-cup",
				Title:   "Ryder Cup captain's picks",
				Summary: strings.Repeat("The captain explained every selection in great detail. ", 10),
				Status:  article.StatusSuccess,
			},
			contains: []string{"Ryder Cup captain's picks", "...", "https://golf.example.com/news/ryder-cup"},
		},
		{
			name: "very long title gets truncated",
			article: &article.Article{
				URL:     "https://golf.example.com/news/long",
				Title:   strings.Repeat("An extremely long headline about golf ", 10),
				Summary: "never shown",
				Status:  article.StatusSuccess,
			},
			contains: []string{"...", "#Golf"},
			excludes: []string{"never shown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatPost(tt.article)

			if n := utf8.RuneCountInString(got); n > maxPostLength {
				t.Errorf("formatPost() length = %d, want <= %d", n, maxPostLength)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatPost() missing %q in post:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("formatPost() unexpectedly contains %q", unwanted)
				}
			}
		})
	}
}

func TestPostable(t *testing.T) {
	articles := []*article.Article{
		{URL: "a", Title: "A", Status: article.StatusSuccess},
		{URL: "b", Title: "B", Status: article.StatusFailed},
		{URL: "c", Status: article.StatusSuccess},
		nil,
	}

	got := Postable(articles)
	if len(got) != 1 || got[0].URL != "a" {
		t.Errorf("Postable() = %v, want only article a", got)
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewDryRunNotifier(&buf)

	articles := []*article.Article{
		{URL: "https://golf.example.com/1", Title: "Test Article 1", Status: article.StatusSuccess},
		{URL: "https://golf.example.com/2", Title: "Test Article 2", Status: article.StatusSuccess},
		{URL: "https://golf.example.com/3", Status: article.StatusTimeout},
	}

	if err := notifier.Notify(context.Background(), articles); err != nil {
		t.Fatalf("DryRunNotifier.Notify() error = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"--- Post 1/2 ---", "--- Post 2/2 ---", "Test Article 2", "(Length: "} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "golf.example.com/3") {
		t.Error("dry run output includes a failed article")
	}
}

// recordingTransport answers every Twitter API call with a fixed tweet.
type recordingTransport struct {
	mu     sync.Mutex
	bodies []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	rt.mu.Lock()
	rt.bodies = append(rt.bodies, req.URL.Path+"?"+string(body))
	rt.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"id": 42, "id_str": "42", "text": "ok"}`)),
		Request:    req,
	}, nil
}

func TestTwitterNotifier_Notify(t *testing.T) {
	rt := &recordingTransport{}
	n := newTwitterNotifier(&http.Client{Transport: rt}, 0, logger.Nop())

	articles := []*article.Article{
		{URL: "https://golf.example.com/1", Title: "First", Status: article.StatusSuccess},
		{URL: "https://golf.example.com/2", Title: "Skipped", Status: article.StatusFailed},
		{URL: "https://golf.example.com/3", Title: "Third", Status: article.StatusSuccess},
	}

	if err := n.Notify(context.Background(), articles); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(rt.bodies) != 2 {
		t.Fatalf("posted %d tweets, want 2", len(rt.bodies))
	}
	if !strings.Contains(rt.bodies[0], "statuses/update.json") {
		t.Errorf("unexpected endpoint: %s", rt.bodies[0])
	}
	if !strings.Contains(rt.bodies[1], "Third") {
		t.Errorf("second tweet should be for Third: %s", rt.bodies[1])
	}
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "")
	t.Setenv("TWITTER_API_SECRET", "")
	t.Setenv("TWITTER_ACCESS_TOKEN", "")
	t.Setenv("TWITTER_ACCESS_SECRET", "")

	if _, err := NewTwitterNotifier(logger.Nop()); err == nil {
		t.Error("NewTwitterNotifier() error = nil, want missing credentials error")
	}
}
