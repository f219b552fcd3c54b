package extract

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer   = bluemonday.UGCPolicy()
	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// ToMarkdown sanitizes contentHTML and converts it to Markdown. Relative
// links are resolved against pageURL when it is set.
func ToMarkdown(contentHTML, pageURL string) (string, error) {
	if strings.TrimSpace(contentHTML) == "" {
		return "", nil
	}

	clean := sanitizer.Sanitize(contentHTML)

	var (
		md  string
		err error
	)
	if pageURL != "" {
		md, err = mdConverter.ConvertString(clean, converter.WithDomain(pageURL))
	} else {
		md, err = mdConverter.ConvertString(clean)
	}
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
