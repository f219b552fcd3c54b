package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/golf-news/internal/article"
)

var authorRules = []rule{
	{`meta[name="author"]`, attrValue("content")},
	{`span.by-author`, textValue},
	{`span.author-name`, textValue},
	{`a[rel="author"]`, textValue},
}

var publishedRules = []rule{
	{`meta[property="article:published_time"]`, attrValue("content")},
	{`time[datetime]`, attrValue("datetime")},
	{`span.published-date`, textValue},
}

const (
	tagSelector   = `a[rel="tag"], meta[property="article:tag"]`
	imageSelector = `article img, div.article-content img`
)

// extractMetadata collects author, date, tags and images. WordCount is left
// to the caller.
func extractMetadata(doc *goquery.Document, base *url.URL) article.Metadata {
	md := article.Metadata{
		Author:        firstValue(doc.Selection, authorRules),
		PublishedDate: firstValue(doc.Selection, publishedRules),
	}

	seenTags := make(map[string]bool)
	doc.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
		var tag string
		if goquery.NodeName(s) == "meta" {
			tag = attrValue("content")(s)
		} else {
			tag = textValue(s)
		}
		if tag != "" && !seenTags[tag] {
			seenTags[tag] = true
			md.Tags = append(md.Tags, tag)
		}
	})

	seenImages := make(map[string]bool)
	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		src = resolve(base, src)
		if !seenImages[src] {
			seenImages[src] = true
			md.Images = append(md.Images, src)
		}
	})

	return md
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
