package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pfrederiksen/golf-news/internal/article"
)

// ReadabilityExtractor uses the Readability algorithm instead of fixed
// selectors. Tags and publish dates still come from the page markup.
type ReadabilityExtractor struct{}

// Extract implements Extractor.
func (ReadabilityExtractor) Extract(rawHTML, pageURL string) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}

	parsed, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	res := &Result{
		Title:       strings.TrimSpace(parsed.Title),
		Body:        normalizeLines(parsed.TextContent),
		ContentHTML: strings.TrimSpace(parsed.Content),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err == nil {
		res.Metadata = extractMetadata(doc, baseURL(pageURL))
	}
	if byline := strings.TrimSpace(parsed.Byline); byline != "" && res.Metadata.Author == "" {
		res.Metadata.Author = byline
	}
	if parsed.Image != "" && len(res.Metadata.Images) == 0 {
		res.Metadata.Images = []string{parsed.Image}
	}
	res.Metadata.WordCount = article.WordCount(res.Body)

	return res, nil
}

// ByName returns the extractor registered under name ("selector" or "readability").
func ByName(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "selector":
		return NewSelectorExtractor(), nil
	case "readability":
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor: %q", name)
	}
}
