package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pfrederiksen/golf-news/internal/article"
	"gopkg.in/yaml.v3"
)

const maxSlugLength = 60

type frontMatter struct {
	Title     string   `yaml:"title"`
	URL       string   `yaml:"url"`
	Author    string   `yaml:"author,omitempty"`
	Published string   `yaml:"published,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	WordCount int      `yaml:"word_count"`
	Summary   string   `yaml:"summary,omitempty"`
}

// ExportMarkdown writes one Markdown file per successful article into dir
// and returns the written paths. Articles without rendered Markdown fall
// back to their plain body.
func ExportMarkdown(dir string, articles []*article.Article) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating markdown directory: %w", err)
	}

	var paths []string
	for _, a := range articles {
		if a == nil || !a.Succeeded() {
			continue
		}

		data, err := renderMarkdown(a)
		if err != nil {
			return paths, fmt.Errorf("rendering %s: %w", a.URL, err)
		}

		path := filepath.Join(dir, fileName(a))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("writing markdown: %w", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func renderMarkdown(a *article.Article) ([]byte, error) {
	fm := frontMatter{
		Title:   a.Title,
		URL:     a.URL,
		Summary: a.Summary,
	}
	if md := a.Metadata; md != nil {
		fm.Author = md.Author
		fm.Published = md.PublishedDate
		fm.Tags = md.Tags
		fm.WordCount = md.WordCount
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	content := a.Markdown
	if content == "" {
		content = a.Body
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", a.Title)
	buf.WriteString(strings.TrimSpace(content))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// fileName is the slugged title plus a short URL hash so that equal titles
// do not collide.
func fileName(a *article.Article) string {
	slug := slugify(a.Title)
	if slug == "" {
		slug = "article"
	}
	return fmt.Sprintf("%s-%s.md", slug, a.ID()[:8])
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLength {
		slug = strings.TrimRight(string(runes[:maxSlugLength]), "-")
	}
	return slug
}
