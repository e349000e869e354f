package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/karayev/newswire/app/database"
	"github.com/karayev/newswire/app/ingest"
	"github.com/karayev/newswire/app/summarize"
	"github.com/karayev/newswire/app/syncer"
)

type fakeRepo struct {
	articles []database.Article
	countErr error
}

func (r *fakeRepo) GetByURL(url string) (*database.Article, error) { return nil, nil }

func (r *fakeRepo) Upsert(article database.Article) (string, error) { return "", nil }

func (r *fakeRepo) GetRecent(limit int) ([]database.Article, error) {
	if limit > len(r.articles) {
		limit = len(r.articles)
	}
	return r.articles[:limit], nil
}

func (r *fakeRepo) Count() (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return len(r.articles), nil
}

type fakeSyncRunner struct {
	lastOpts syncer.Options
	report   *syncer.Report
	err      error
}

func (s *fakeSyncRunner) Run(ctx context.Context, opts syncer.Options) (*syncer.Report, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type fakeIngestor struct {
	lastInput ingest.Input
	result    ingest.Result
	err       error
}

func (i *fakeIngestor) Run(ctx context.Context, input ingest.Input) (ingest.Result, error) {
	i.lastInput = input
	return i.result, i.err
}

type fakeCounter int

func (c fakeCounter) Count() int { return int(c) }

func newTestServer(t *testing.T, repo *fakeRepo, runner *fakeSyncRunner,
	ingestor *fakeIngestor, cronSecret string) http.Handler {
	t.Helper()
	defaults := Defaults{Summarize: true, SaveContent: false, MinScore: 40, MaxItems: 10}
	handler := NewHandler(repo, runner, ingestor, fakeCounter(3), defaults, "test")
	return NewServer(handler, cronSecret)
}

func TestPostSyncRequiresAuth(t *testing.T) {
	runner := &fakeSyncRunner{report: &syncer.Report{}}
	server := newTestServer(t, &fakeRepo{}, runner, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/sync", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/sync", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong secret, got %d", w.Code)
	}
}

func TestPostSyncAcceptsBearerSecret(t *testing.T) {
	runner := &fakeSyncRunner{report: &syncer.Report{TotalSources: 2, SuccessfulSources: 2}}
	server := newTestServer(t, &fakeRepo{}, runner, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/sync?summarize=false&maxItems=3&source=hn&source=techcrunch", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if runner.lastOpts.EnableSummarization {
		t.Error("Expected summarize=false to disable summarization")
	}
	if runner.lastOpts.MaxItemsPerSource != 3 {
		t.Errorf("Expected maxItems 3, got %d", runner.lastOpts.MaxItemsPerSource)
	}
	if len(runner.lastOpts.SourceIDs) != 2 {
		t.Errorf("Expected 2 source filters, got %v", runner.lastOpts.SourceIDs)
	}
}

func TestPostSyncAcceptsCronUserAgent(t *testing.T) {
	runner := &fakeSyncRunner{report: &syncer.Report{}}
	server := newTestServer(t, &fakeRepo{}, runner, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/sync", nil)
	req.Header.Set("User-Agent", "vercel-cron/1.0")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for scheduled invocation, got %d", w.Code)
	}
}

func TestPostSyncUsesDefaults(t *testing.T) {
	runner := &fakeSyncRunner{report: &syncer.Report{}}
	server := newTestServer(t, &fakeRepo{}, runner, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/sync", nil)
	req.Header.Set("X-Cron-Key", "s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !runner.lastOpts.EnableSummarization {
		t.Error("Expected summarization enabled by default")
	}
	if runner.lastOpts.MaxItemsPerSource != 10 {
		t.Errorf("Expected default maxItems 10, got %d", runner.lastOpts.MaxItemsPerSource)
	}
	if runner.lastOpts.MinRelevanceScore != 40 {
		t.Errorf("Expected default minScore 40, got %d", runner.lastOpts.MinRelevanceScore)
	}
}

func TestPostSyncReportsPreflightFailure(t *testing.T) {
	runner := &fakeSyncRunner{err: errors.New("store connectivity check failed: no such table")}
	server := newTestServer(t, &fakeRepo{}, runner, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/sync", nil)
	req.Header.Set("X-Cron-Key", "s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 on aborted run, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["success"] != false {
		t.Errorf("Expected success=false, got %v", body["success"])
	}
}

func TestPostIngest(t *testing.T) {
	ingestor := &fakeIngestor{result: ingest.Result{ID: "abc", Upserted: true, Reason: "inserted"}}
	server := newTestServer(t, &fakeRepo{}, &fakeSyncRunner{}, ingestor, "s3cret")

	body := `{"url": "https://example.com/post", "source": "Manual", "save_content": true}`
	req := httptest.NewRequest("POST", "/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if ingestor.lastInput.URL != "https://example.com/post" {
		t.Errorf("Expected URL passed through, got %q", ingestor.lastInput.URL)
	}
	if !ingestor.lastInput.Summarize {
		t.Error("Expected summarization on by default for ad-hoc ingestion")
	}
	if !ingestor.lastInput.SaveContent {
		t.Error("Expected save_content to be honored")
	}

	var result ingest.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.ID != "abc" || result.Reason != "inserted" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestPostIngestRejectsMissingURL(t *testing.T) {
	server := newTestServer(t, &fakeRepo{}, &fakeSyncRunner{}, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("POST", "/ingest", strings.NewReader(`{"source": "Manual"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing url, got %d", w.Code)
	}
}

func TestPostIngestMissingAPIKey(t *testing.T) {
	ingestor := &fakeIngestor{err: summarize.ErrMissingAPIKey}
	server := newTestServer(t, &fakeRepo{}, &fakeSyncRunner{}, ingestor, "s3cret")

	req := httptest.NewRequest("POST", "/ingest", strings.NewReader(`{"url": "https://example.com/post"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 when summarization credentials are missing, got %d", w.Code)
	}
}

func TestTriggersDisabledWithoutSecret(t *testing.T) {
	server := newTestServer(t, &fakeRepo{}, &fakeSyncRunner{}, &fakeIngestor{}, "")

	req := httptest.NewRequest("POST", "/sync", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when triggers are disabled, got %d", w.Code)
	}
}

func TestGetArticles(t *testing.T) {
	published := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summary := "A short summary."
	repo := &fakeRepo{articles: []database.Article{
		{ID: "1", Title: "First", URL: "https://example.com/1", Source: "HN",
			PublishedAt: &published, Summary: &summary, Tags: []string{"ai"}, Status: "published"},
		{ID: "2", Title: "Second", URL: "https://example.com/2", Source: "HN", Status: "published"},
	}}
	server := newTestServer(t, repo, &fakeSyncRunner{}, &fakeIngestor{}, "s3cret")

	req := httptest.NewRequest("GET", "/articles", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Articles []articleView `json:"articles"`
		Total    int           `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Total != 2 {
		t.Fatalf("Expected 2 articles, got %d", body.Total)
	}
	if body.Articles[0].PublishedAt == nil || *body.Articles[0].PublishedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("Expected RFC3339 published_at, got %v", body.Articles[0].PublishedAt)
	}
	if body.Articles[1].Tags == nil || len(body.Articles[1].Tags) != 0 {
		t.Errorf("Expected empty tags array for article without tags, got %v", body.Articles[1].Tags)
	}
}

func TestGetHealth(t *testing.T) {
	repo := &fakeRepo{articles: []database.Article{{ID: "1"}}}
	server := newTestServer(t, repo, &fakeSyncRunner{}, &fakeIngestor{}, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["articles"] != float64(1) {
		t.Errorf("Expected article count 1, got %v", body["articles"])
	}
	if body["loaded_sources"] != float64(3) {
		t.Errorf("Expected 3 loaded sources, got %v", body["loaded_sources"])
	}
	if body["version"] != "test" {
		t.Errorf("Expected version test, got %v", body["version"])
	}
}
