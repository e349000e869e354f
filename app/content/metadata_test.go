package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestFetcher_PrefersOpenGraphTags(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><head>
		<title>Generic Title</title>
		<meta property="og:title" content="OG Title">
		<meta name="description" content="Generic description">
		<meta property="og:description" content="OG description">
		<meta property="og:image" content="https://example.com/cover.jpg">
		<meta property="article:published_time" content="2026-03-01T10:00:00Z">
	</head><body></body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Title == nil || *meta.Title != "OG Title" {
		t.Errorf("Expected og:title preferred, got %v", meta.Title)
	}
	if meta.Description == nil || *meta.Description != "OG description" {
		t.Errorf("Expected og:description preferred, got %v", meta.Description)
	}
	if meta.ImageURL == nil || *meta.ImageURL != "https://example.com/cover.jpg" {
		t.Errorf("Expected og:image extracted, got %v", meta.ImageURL)
	}
	if meta.PublishedAt == nil {
		t.Fatal("Expected published time extracted")
	}
	if meta.PublishedAt.Year() != 2026 || meta.PublishedAt.Month() != 3 {
		t.Errorf("Unexpected published time: %v", meta.PublishedAt)
	}
}

func TestFetcher_FallsBackToGenericTags(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><head>
		<title>  Plain Title  </title>
		<meta name="description" content="Plain description">
	</head><body></body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Title == nil || *meta.Title != "Plain Title" {
		t.Errorf("Expected <title> fallback, got %v", meta.Title)
	}
	if meta.Description == nil || *meta.Description != "Plain description" {
		t.Errorf("Expected meta description fallback, got %v", meta.Description)
	}
}

func TestFetcher_DecodesEntities(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><head>
		<title>Ben &amp; Jerry&#39;s AI play</title>
	</head><body></body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Title == nil || *meta.Title != "Ben & Jerry's AI play" {
		t.Errorf("Expected entities decoded, got %v", meta.Title)
	}
}

func TestFetcher_ExcerptPrefersArticleBlock(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><body>
		<main><p>Main text</p></main>
		<article><p>Article text</p></article>
	</body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.ContentHTML == nil {
		t.Fatal("Expected an excerpt")
	}
	if !strings.Contains(*meta.ContentHTML, "Article text") {
		t.Errorf("Expected article block preferred, got '%s'", *meta.ContentHTML)
	}
}

func TestFetcher_ExcerptFallsBackToParagraphs(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><body>
		<p>One</p><p>Two</p><p>Three</p><p>Four</p><p>Five</p><p>Six</p><p>Seven</p>
	</body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.ContentHTML == nil {
		t.Fatal("Expected an excerpt")
	}
	if strings.Count(*meta.ContentHTML, "<p>") != 5 {
		t.Errorf("Expected excerpt capped at 5 paragraphs, got '%s'", *meta.ContentHTML)
	}
	if strings.Contains(*meta.ContentHTML, "Six") {
		t.Errorf("Expected sixth paragraph excluded, got '%s'", *meta.ContentHTML)
	}
}

func TestFetcher_ExcerptAbsentWhenNoBlocks(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `<html><head><title>Just a head</title></head><body><div>no paragraphs</div></body></html>`)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.ContentHTML != nil {
		t.Errorf("Expected nil excerpt, got '%s'", *meta.ContentHTML)
	}
}

func TestFetcher_NonOKStatusDegradesToEmpty(t *testing.T) {
	server := serveHTML(t, http.StatusNotFound, "not found")
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Title != nil || meta.Description != nil || meta.ContentHTML != nil {
		t.Errorf("Expected empty metadata on non-2xx, got %+v", meta)
	}
}

func TestFetcher_NetworkErrorDegradesToEmpty(t *testing.T) {
	server := serveHTML(t, http.StatusOK, "")
	server.Close() // refuse connections

	fetcher := NewFetcher(nil, "test-agent")
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Title != nil {
		t.Errorf("Expected empty metadata on network error, got %+v", meta)
	}
}

func TestFetcher_SendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html><head><title>ok</title></head></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Newswire/1.0")
	fetcher.Fetch(context.Background(), server.URL)

	if gotAgent != "Newswire/1.0" {
		t.Errorf("Expected fixed user agent, got '%s'", gotAgent)
	}
}
