package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/golf-news/internal/article"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByInput  SortOrder = "input"
	SortByStatus SortOrder = "status"
	SortByTitle  SortOrder = "title"
	SortByTime   SortOrder = "time"
)

// ParseSortOrder validates a sort order name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "", SortByInput:
		return SortByInput, nil
	case SortByStatus, SortByTitle, SortByTime:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %q (valid: input, status, title, time)", s)
	}
}

var statusRank = func() map[article.Status]int {
	m := make(map[article.Status]int, len(article.Statuses))
	for i, st := range article.Statuses {
		m[st] = i
	}
	return m
}()

// SortRecords reorders records in place. Input order is kept for ties.
func SortRecords(records []Record, order SortOrder) {
	switch order {
	case SortByStatus:
		sort.SliceStable(records, func(i, j int) bool {
			return statusRank[records[i].Status] < statusRank[records[j].Status]
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		})
	case SortByTime:
		// Slowest first
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ProcessingTime > records[j].ProcessingTime
		})
	}
}
