package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/golf-news/internal/article"
	"github.com/pfrederiksen/golf-news/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleBody = `Scottie Scheffler closed with a four-under 68 on Sunday to win by three shots.
He birdied the 13th and 15th holes to pull clear of the chasing pack at Augusta National.`

func newNewsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<a href="/news/2024/masters-recap">Masters</a>
			<a href="/about">About</a>
		</body></html>`)
	})
	mux.HandleFunc("/news/2024/masters-recap", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>Masters recap</title></head><body>
			<h1>Scheffler wins the Masters</h1>
			<article><p>%s</p></article>
		</body></html>`, articleBody)
	})
	mux.HandleFunc("/news/2024/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// setupTest isolates the working directory and HOME so no config file, .env
// or history database from the developer machine is used.
func setupTest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestScrape_JSONReport(t *testing.T) {
	setupTest(t)
	server := newNewsServer(t)

	stdout, _, err := execute(context.Background(), "scrape",
		"--format", "json", "--max-attempts", "1", "--max-requests", "0",
		server.URL+"/news/2024/masters-recap",
	)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Articles, 1)

	rec := doc.Articles[0]
	assert.Equal(t, article.StatusSuccess, rec.Status)
	assert.Equal(t, "Scheffler wins the Masters", rec.Title)
	assert.NotEmpty(t, rec.Summary)
	assert.Equal(t, 1, doc.Summary.Successful)
	assert.NotEmpty(t, doc.RunID)
}

func TestScrape_FailuresExitCode(t *testing.T) {
	setupTest(t)
	server := newNewsServer(t)

	stdout, stderr, err := execute(context.Background(), "scrape",
		"--max-attempts", "1", "--max-requests", "0", "--progress", "--verbose",
		server.URL+"/news/2024/masters-recap",
		server.URL+"/news/2024/missing",
	)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitFailures, exitErr.Code)
	assert.Contains(t, exitErr.Error(), "1 of 2 articles failed")

	assert.Contains(t, stdout, "Success rate: 50.0%")
	assert.Contains(t, stdout, "HTTP 404")
	assert.Contains(t, stderr, "[2/2]")
}

func TestScrape_NoURLs(t *testing.T) {
	setupTest(t)

	_, _, err := execute(context.Background(), "scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URLs given")
}

func TestScrape_URLFileAndSavedReport(t *testing.T) {
	dir := setupTest(t)
	server := newNewsServer(t)

	list := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(list, []byte("# weekend\n"+server.URL+"/news/2024/masters-recap\n"), 0o644))
	out := filepath.Join(dir, "reports", "run.json")
	mdDir := filepath.Join(dir, "md")

	_, _, err := execute(context.Background(), "scrape",
		"--file", list, "--output", out, "--markdown-dir", mdDir, "--max-requests", "0",
	)
	require.NoError(t, err)

	doc, err := report.Load(out)
	require.NoError(t, err)
	assert.Len(t, doc.Articles, 1)

	files, err := filepath.Glob(filepath.Join(mdDir, "*.md"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestScrape_HistorySkipsProcessed(t *testing.T) {
	dir := setupTest(t)
	server := newNewsServer(t)
	db := filepath.Join(dir, "history.db")
	url := server.URL + "/news/2024/masters-recap"

	_, _, err := execute(context.Background(), "scrape", "--history", "--history-db", db, "--max-requests", "0", url)
	require.NoError(t, err)

	stdout, _, err := execute(context.Background(), "scrape", "--history", "--history-db", db, url)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No URLs to process.")

	stdout, _, err = execute(context.Background(), "scrape", "--history", "--history-db", db, "--force", "--max-requests", "0", url)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successful: 1")

	stdout, _, err = execute(context.Background(), "history", "--history-db", db, "--format", "json")
	require.NoError(t, err)

	var entries []historyRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, url, entries[0].URL)
	assert.Equal(t, 2, entries[0].Runs)
	assert.Equal(t, "success", entries[0].Status)
}

func TestHistory_TextAndStatusFilter(t *testing.T) {
	dir := setupTest(t)
	db := filepath.Join(dir, "history.db")

	stdout, _, err := execute(context.Background(), "history", "--history-db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No history entries.")

	_, _, err = execute(context.Background(), "history", "--history-db", db, "--status", "lost")
	assert.Error(t, err)
}

func TestDiscover_PrintsLinks(t *testing.T) {
	setupTest(t)
	server := newNewsServer(t)

	stdout, _, err := execute(context.Background(), "discover",
		"--pattern", `/news/\d{4}/`, server.URL+"/news",
	)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/news/2024/masters-recap\n", stdout)
}

func TestDiscover_Scrape(t *testing.T) {
	setupTest(t)
	server := newNewsServer(t)

	stdout, _, err := execute(context.Background(), "discover",
		"--pattern", `/news/\d{4}/`, "--scrape", "--format", "json", "--max-requests", "0",
		"--seed", server.URL+"/news",
	)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Articles, 1)
	assert.Equal(t, article.StatusSuccess, doc.Articles[0].Status)
}

func TestDiscover_NoSeeds(t *testing.T) {
	setupTest(t)

	_, _, err := execute(context.Background(), "discover")
	assert.Error(t, err)
}

func TestNotify_DryRun(t *testing.T) {
	dir := setupTest(t)
	server := newNewsServer(t)
	out := filepath.Join(dir, "run.json")

	_, _, err := execute(context.Background(), "scrape",
		"--output", out, "--max-attempts", "1", "--max-requests", "0",
		server.URL+"/news/2024/masters-recap",
		server.URL+"/news/2024/missing",
	)
	require.Error(t, err)

	stdout, _, err := execute(context.Background(), "notify", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scheffler wins the Masters")
	assert.Contains(t, stdout, server.URL+"/news/2024/masters-recap")
	assert.NotContains(t, stdout, "/news/2024/missing")
}

func TestNotify_MissingReport(t *testing.T) {
	setupTest(t)

	_, _, err := execute(context.Background(), "notify", "nope.json")
	assert.Error(t, err)
}

func TestWatch_RunNow(t *testing.T) {
	dir := setupTest(t)
	server := newNewsServer(t)
	db := filepath.Join(dir, "history.db")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stdout, stderr, err := execute(ctx, "watch",
		"--run-now", "--schedule", "@every 1h", "--history-db", db, "--max-requests", "0",
		server.URL+"/news/2024/masters-recap",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successful: 1")
	assert.Contains(t, stderr, "watch stopped")

	stdout, _, err = execute(context.Background(), "history", "--history-db", db)
	require.NoError(t, err)
	assert.True(t, strings.Contains(stdout, "success"))
}

func TestWatch_InvalidSchedule(t *testing.T) {
	setupTest(t)

	_, _, err := execute(context.Background(), "watch", "--schedule", "every tuesday", "https://golf.example.com/a")
	assert.Error(t, err)
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 3, "next", "soon", "dangling"})

	assert.Equal(t, 3, fields["entry"])
	assert.Equal(t, "soon", fields["next"])
	assert.Len(t, fields, 2)
}
