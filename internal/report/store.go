package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes doc to path as indented JSON, creating parent directories.
func Save(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// Load reads a report written by Save.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	if doc.Summary.ByStatus == nil {
		doc.Summary.ByStatus = make(map[string]int)
	}

	return &doc, nil
}
