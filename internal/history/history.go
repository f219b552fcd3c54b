package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pfrederiksen/golf-news/internal/article"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	retry_count   INTEGER NOT NULL DEFAULT 0,
	word_count    INTEGER NOT NULL DEFAULT 0,
	processing_ms INTEGER NOT NULL DEFAULT 0,
	runs          INTEGER NOT NULL DEFAULT 1,
	processed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
CREATE INDEX IF NOT EXISTS idx_articles_processed_at ON articles(processed_at);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Entry is the stored outcome of the latest run for a URL.
type Entry struct {
	ID             string
	URL            string
	Title          string
	Status         article.Status
	Error          string
	RetryCount     int
	WordCount      int
	ProcessingTime time.Duration
	Runs           int
	ProcessedAt    time.Time
}

type entryRow struct {
	ID           string `db:"id"`
	URL          string `db:"url"`
	Title        string `db:"title"`
	Status       string `db:"status"`
	Error        string `db:"error"`
	RetryCount   int    `db:"retry_count"`
	WordCount    int    `db:"word_count"`
	ProcessingMs int64  `db:"processing_ms"`
	Runs         int    `db:"runs"`
	ProcessedAt  int64  `db:"processed_at"`
}

func (r entryRow) entry() Entry {
	return Entry{
		ID:             r.ID,
		URL:            r.URL,
		Title:          r.Title,
		Status:         article.Status(r.Status),
		Error:          r.Error,
		RetryCount:     r.RetryCount,
		WordCount:      r.WordCount,
		ProcessingTime: time.Duration(r.ProcessingMs) * time.Millisecond,
		Runs:           r.Runs,
		ProcessedAt:    time.UnixMilli(r.ProcessedAt).UTC(),
	}
}

// Filter narrows List results.
type Filter struct {
	Status article.Status
	Limit  int
}

// Store is a SQLite-backed processing history.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of every article, replacing earlier outcomes
// for the same URL.
func (s *Store) Record(ctx context.Context, articles []*article.Article) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO articles (id, url, title, status, error, retry_count, word_count, processing_ms, runs, processed_at)
		VALUES (:id, :url, :title, :status, :error, :retry_count, :word_count, :processing_ms, 1, :processed_at)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			error = excluded.error,
			retry_count = excluded.retry_count,
			word_count = excluded.word_count,
			processing_ms = excluded.processing_ms,
			runs = articles.runs + 1,
			processed_at = excluded.processed_at
	`

	now := s.now().UnixMilli()
	for _, a := range articles {
		if a == nil {
			continue
		}
		row := entryRow{
			ID:           a.ID(),
			URL:          a.URL,
			Title:        a.Title,
			Status:       string(a.Status),
			Error:        a.Error,
			RetryCount:   a.RetryCount,
			ProcessingMs: a.ProcessingTime.Milliseconds(),
			ProcessedAt:  now,
		}
		if a.Metadata != nil {
			row.WordCount = a.Metadata.WordCount
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("recording %s: %w", a.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

// FilterUnprocessed returns the urls not yet extracted successfully, in
// their original order.
func (s *Store) FilterUnprocessed(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT url FROM articles WHERE status = ? AND url IN (?)`,
		string(article.StatusSuccess), urls,
	)
	if err != nil {
		return nil, fmt.Errorf("building history query: %w", err)
	}

	var done []string
	if err := s.db.SelectContext(ctx, &done, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	seen := make(map[string]bool, len(done))
	for _, u := range done {
		seen[u] = true
	}

	pending := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

// List returns the most recently processed entries first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	query := `
		SELECT id, url, title, status, error, retry_count, word_count, processing_ms, runs, processed_at
		FROM articles
		WHERE 1=1
	`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY processed_at DESC, url LIMIT ?"
	args = append(args, filter.Limit)

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return entries, nil
}
