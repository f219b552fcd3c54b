package article

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"
)

// Status classifies the outcome of processing one URL.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusTimeout        Status = "timeout"
	StatusInvalidContent Status = "invalid_content"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{StatusSuccess, StatusFailed, StatusTimeout, StatusInvalidContent}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusTimeout, StatusInvalidContent:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown status values.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st := Status(raw)
	if !st.Valid() {
		return fmt.Errorf("unknown status: %q", raw)
	}
	*s = st
	return nil
}

// Metadata holds optional fields found alongside the article text.
type Metadata struct {
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	WordCount     int      `json:"word_count"`
	Images        []string `json:"images,omitempty"`
}

// Article is the result record for a single URL.
type Article struct {
	URL            string        `json:"url"`
	Title          string        `json:"title,omitempty"`
	Body           string        `json:"body,omitempty"`
	Summary        string        `json:"summary,omitempty"`
	Markdown       string        `json:"markdown,omitempty"`
	Metadata       *Metadata     `json:"metadata,omitempty"`
	Status         Status        `json:"status"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	RetryCount     int           `json:"retry_count"`
}

// New returns an Article for url in the failed state; callers overwrite
// Status once the outcome is known.
func New(url string) *Article {
	return &Article{
		URL:    url,
		Status: StatusFailed,
	}
}

// Succeeded reports whether the article was fully extracted.
func (a *Article) Succeeded() bool {
	return a.Status == StatusSuccess
}

// ID returns a deterministic identifier derived from the article URL.
func (a *Article) ID() string {
	return GenerateID(a.URL)
}

// GenerateID creates a deterministic SHA1 hex ID for a URL.
func GenerateID(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return fmt.Sprintf("%x", h.Sum(nil))
}
