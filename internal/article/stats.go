package article

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSummaryLength is the maximum summary length used by the processor.
const DefaultSummaryLength = 300

// Stats aggregates a result list.
type Stats struct {
	Total       int            `json:"total_processed"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	ByStatus    map[Status]int `json:"by_status"`
	SuccessRate float64        `json:"success_rate"`
	TotalTime   time.Duration  `json:"total_time"`
	AverageTime time.Duration  `json:"avg_processing_time"`
}

// Summarize computes statistics over results. Every non-success status
// counts as failed. Nil entries are skipped.
func Summarize(results []*Article) Stats {
	s := Stats{ByStatus: make(map[Status]int)}
	for _, a := range results {
		if a == nil {
			continue
		}
		s.add(a)
	}
	s.finish()
	return s
}

// Merge folds other into s and recomputes the derived rates.
func (s *Stats) Merge(other Stats) {
	if s.ByStatus == nil {
		s.ByStatus = make(map[Status]int)
	}
	s.Total += other.Total
	s.Successful += other.Successful
	s.Failed += other.Failed
	s.TotalTime += other.TotalTime
	for st, n := range other.ByStatus {
		s.ByStatus[st] += n
	}
	s.finish()
}

func (s *Stats) add(a *Article) {
	s.Total++
	s.TotalTime += a.ProcessingTime
	s.ByStatus[a.Status]++
	if a.Succeeded() {
		s.Successful++
	} else {
		s.Failed++
	}
}

func (s *Stats) finish() {
	if s.Total == 0 {
		s.SuccessRate = 0
		s.AverageTime = 0
		return
	}
	s.SuccessRate = float64(s.Successful) / float64(s.Total)
	s.AverageTime = s.TotalTime / time.Duration(s.Total)
}

// SummaryText builds a short summary from the leading sentences of body.
// Sentences are added while the summary stays under maxLen characters.
func SummaryText(body string, maxLen int) string {
	if body == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultSummaryLength
	}

	var (
		b     strings.Builder
		runes int
	)
	for _, sentence := range strings.Split(body, ". ") {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		n := utf8.RuneCountInString(sentence)
		if runes+n >= maxLen {
			break
		}
		b.WriteString(sentence)
		if !strings.HasSuffix(sentence, ".") {
			b.WriteString(".")
			n++
		}
		b.WriteString(" ")
		runes += n + 1
	}
	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
