package extract

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/golf-news/internal/article"
)

// MinBodyLength is the number of characters a content container must exceed
// to be accepted as the article body.
const MinBodyLength = 100

// strippedElements are removed before any selector runs.
const strippedElements = "script, style, nav, header, footer"

// Result is what an Extractor found on a page. Empty strings mean not found.
type Result struct {
	Title       string
	Body        string
	ContentHTML string
	Metadata    article.Metadata
}

// Complete reports whether both title and body were found.
func (r *Result) Complete() bool {
	return r != nil && r.Title != "" && r.Body != ""
}

// Extractor turns raw HTML into a Result. Implementations must be
// deterministic and safe for concurrent use.
type Extractor interface {
	Extract(rawHTML, pageURL string) (*Result, error)
}

// rule pairs a selector with the function reading a value from its first match.
type rule struct {
	selector string
	value    func(*goquery.Selection) string
}

var titleRules = []rule{
	{`h1.article-title`, textValue},
	{`h1.entry-title`, textValue},
	{`h1[itemprop="headline"]`, textValue},
	{`h1`, textValue},
	{`meta[property="og:title"]`, attrValue("content")},
	{`meta[name="twitter:title"]`, attrValue("content")},
	{`title`, textValue},
}

var bodySelectors = []string{
	`article`,
	`div.article-content`,
	`div.entry-content`,
	`div.post-content`,
	`div[itemprop="articleBody"]`,
	`main`,
	`div.content`,
}

// SelectorExtractor extracts content with ordered CSS selector lists.
type SelectorExtractor struct {
	MinBodyLength int
}

// NewSelectorExtractor returns an extractor using MinBodyLength.
func NewSelectorExtractor() *SelectorExtractor {
	return &SelectorExtractor{MinBodyLength: MinBodyLength}
}

// Extract parses rawHTML and returns its best-effort title, body and metadata.
// pageURL is used only to resolve relative image URLs and may be empty.
func (e *SelectorExtractor) Extract(rawHTML, pageURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	// Headlines often live inside <header>, so the title is read before
	// page chrome is stripped.
	res := &Result{
		Title: firstValue(doc.Selection, titleRules),
	}

	doc.Find(strippedElements).Remove()

	res.Body, res.ContentHTML = e.body(doc)
	res.Metadata = extractMetadata(doc, baseURL(pageURL))
	res.Metadata.WordCount = article.WordCount(res.Body)

	return res, nil
}

// body tries each content container in order and falls back to the
// concatenated text of every paragraph.
func (e *SelectorExtractor) body(doc *goquery.Document) (string, string) {
	minLen := e.MinBodyLength
	if minLen <= 0 {
		minLen = MinBodyLength
	}

	for _, sel := range bodySelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := blockText(container)
		if utf8.RuneCountInString(text) > minLen {
			html, _ := goquery.OuterHtml(container)
			return text, html
		}
	}

	var (
		lines []string
		html  strings.Builder
	)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		lines = append(lines, text)
		if h, err := goquery.OuterHtml(p); err == nil {
			html.WriteString(h)
		}
	})
	return strings.Join(lines, "\n"), html.String()
}

// firstValue returns the first non-empty value produced by rules.
func firstValue(root *goquery.Selection, rules []rule) string {
	for _, r := range rules {
		match := root.Find(r.selector).First()
		if match.Length() == 0 {
			continue
		}
		if v := r.value(match); v != "" {
			return v
		}
	}
	return ""
}

func textValue(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func attrValue(name string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		return strings.TrimSpace(s.AttrOr(name, ""))
	}
}

func baseURL(pageURL string) *url.URL {
	if pageURL == "" {
		return nil
	}
	u, err := url.Parse(pageURL)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}
