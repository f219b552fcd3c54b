// Package urllist reads the URLs to process from arguments, files and stdin.
package urllist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stdin is the file name that reads from standard input.
const Stdin = "-"

// File is the YAML layout of a URL list.
type File struct {
	URLs []string `yaml:"urls"`
}

// Load reads URLs from path. ".yaml" and ".yml" files are parsed as File;
// anything else is read as plain text with one URL per line.
func Load(path string) ([]string, error) {
	if path == Stdin {
		return ReadText(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening url list: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return ReadText(f)
	}
}

// ReadText reads one URL per line. Blank lines and lines starting with #
// are skipped.
func ReadText(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	return urls, nil
}

// ReadYAML reads the urls key of a YAML document.
func ReadYAML(r io.Reader) ([]string, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing url list: %w", err)
	}

	urls := make([]string, 0, len(f.URLs))
	for _, u := range f.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// Collect merges URLs from args and files, dropping exact duplicates while
// keeping the first occurrence.
func Collect(args []string, files []string) ([]string, error) {
	all := append([]string(nil), args...)
	for _, path := range files {
		urls, err := Load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, urls...)
	}
	return Dedupe(all), nil
}

// Dedupe removes repeated URLs, keeping input order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
