package content

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout  = 15 * time.Second
	maxBodyBytes  = 2 << 20 // 2 MiB of HTML is plenty for metadata
	maxExcerptLen = 20000
	excerptParas  = 5
)

// Fetcher retrieves a page and extracts its metadata. Failures of any kind
// degrade to an empty PageMeta; callers treat a missing title as a quality
// gate, not a crash.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch performs one GET against the URL, following redirects, and scans the
// markup for title, description, published time, lead image, and a body
// excerpt. Open Graph tags win over their generic HTML equivalents.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) PageMeta {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		slog.Warn("Metadata fetch skipped, invalid URL", "url", pageURL, "error", err)
		return PageMeta{}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("Metadata fetch failed", "url", pageURL, "error", err)
		return PageMeta{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("Metadata fetch returned non-2xx status", "url", pageURL, "status", resp.StatusCode)
		return PageMeta{}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("Metadata parse failed", "url", pageURL, "error", err)
		return PageMeta{}
	}

	return extractMeta(doc)
}

// extractMeta is the single place that knows how page markup maps to
// PageMeta fields.
func extractMeta(doc *goquery.Document) PageMeta {
	var meta PageMeta

	meta.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)

	meta.Description = firstNonEmpty(
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="description"]`),
	)

	meta.ImageURL = firstNonEmpty(metaContent(doc, `meta[property="og:image"]`))

	if published := parsePublishedTime(doc); published != nil {
		meta.PublishedAt = published
	}

	if excerpt := extractExcerpt(doc); excerpt != "" {
		meta.ContentHTML = &excerpt
	}

	return meta
}

func parsePublishedTime(doc *goquery.Document) *time.Time {
	candidates := []string{
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
		strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", "")),
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return &parsed
			}
		}
	}

	return nil
}

// extractExcerpt prefers the first <article> block, then the first <main>
// block, then up to the first five <p> blocks. Returns "" when the page has
// none of them.
func extractExcerpt(doc *goquery.Document) string {
	for _, selector := range []string{"article", "main"} {
		block := doc.Find(selector).First()
		if block.Length() == 0 {
			continue
		}
		if inner, err := block.Html(); err == nil {
			if trimmed := strings.TrimSpace(inner); trimmed != "" {
				return truncate(trimmed, maxExcerptLen)
			}
		}
	}

	var paragraphs []string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, "<p>"+text+"</p>")
		}
		return len(paragraphs) < excerptParas
	})

	if len(paragraphs) == 0 {
		return ""
	}

	return truncate(strings.Join(paragraphs, "\n"), maxExcerptLen)
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
