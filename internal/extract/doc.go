// Package extract pulls the title, body text and metadata out of an article page.
//
// SelectorExtractor walks fixed, ordered lists of CSS selectors with goquery and
// keeps the first usable match for each field. ReadabilityExtractor delegates
// to go-readability instead. ToMarkdown renders the chosen content container
// as Markdown.
package extract
