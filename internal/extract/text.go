package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockText returns the text under sel with one line per non-empty text
// fragment, trimmed, in document order.
func blockText(sel *goquery.Selection) string {
	var lines []string
	for _, n := range sel.Nodes {
		collectLines(n, &lines)
	}
	return strings.Join(lines, "\n")
}

func collectLines(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		for _, line := range strings.Split(n.Data, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				*lines = append(*lines, line)
			}
		}
		return
	case html.CommentNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(c, lines)
	}
}

// normalizeLines trims every line of s and drops the empty ones.
func normalizeLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
