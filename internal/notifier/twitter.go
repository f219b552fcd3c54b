package notifier

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/logger"
)

// DefaultPostInterval is the pause between consecutive posts.
const DefaultPostInterval = 2 * time.Second

// TwitterNotifier posts articles to Twitter
type TwitterNotifier struct {
	client   *twitter.Client
	interval time.Duration
	log      *logger.Logger
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier(log *logger.Logger) (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return newTwitterNotifier(httpClient, DefaultPostInterval, log), nil
}

func newTwitterNotifier(httpClient *http.Client, interval time.Duration, log *logger.Logger) *TwitterNotifier {
	if log == nil {
		log = logger.Default()
	}
	return &TwitterNotifier{
		client:   twitter.NewClient(httpClient),
		interval: interval,
		log:      log,
	}
}

// Notify posts one tweet per successful article
func (n *TwitterNotifier) Notify(ctx context.Context, articles []*article.Article) error {
	articles = Postable(articles)
	for i, a := range articles {
		tweet := formatPost(a)

		status, _, err := n.client.Statuses.Update(tweet, nil)
		if err != nil {
			return fmt.Errorf("failed to post tweet for article %s: %w", a.URL, err)
		}
		n.log.Info("posted article", logger.Fields{"url": a.URL, "tweet_id": status.IDStr})

		// Rate limiting: wait between tweets
		if i < len(articles)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
	}

	return nil
}
