package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/karayev/newswire/app/content"
	"github.com/karayev/newswire/app/sources"
)

const fetchTimeout = 20 * time.Second

// Reader fetches one source's RSS/Atom feed and converts its entries into
// normalized content items. Feed-level failures degrade to an empty result;
// a malformed entry is skipped without aborting the rest of the feed.
type Reader struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewReader(client *http.Client, userAgent string) *Reader {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Reader{
		client:    client,
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

// Run fetches and parses the source's feed, applies the relevance filter,
// and returns at most maxItems content items. maxItems <= 0 falls back to
// the source's own cap.
func (r *Reader) Run(ctx context.Context, source sources.Source, maxItems int) []content.Item {
	if maxItems <= 0 {
		maxItems = source.ItemCap()
	}

	data, err := r.fetch(ctx, source.FeedURL)
	if err != nil {
		slog.Warn("Feed fetch failed", "source", source.ID, "url", source.FeedURL, "error", err)
		return nil
	}

	parsed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed", "source", source.ID, "error", err)
		return nil
	}

	items := make([]content.Item, 0, maxItems)
	skipped := 0
	for _, entry := range parsed.Items {
		if len(items) >= maxItems {
			break
		}

		item, ok := r.convertEntry(entry, source)
		if !ok {
			skipped++
			continue
		}

		items = append(items, item)
	}

	slog.Info("Feed processed",
		"source", source.ID,
		"total", len(parsed.Items),
		"accepted", len(items),
		"skipped", skipped)

	return items
}

// convertEntry turns one feed entry into a content item, reporting ok=false
// for entries that are malformed or fail the relevance filter.
func (r *Reader) convertEntry(entry *gofeed.Item, source sources.Source) (content.Item, bool) {
	if entry == nil || entry.Link == "" || entry.Title == "" {
		return content.Item{}, false
	}

	description := entry.Description
	if description == "" {
		description = entry.Content
	}

	if !content.IsRelevant(entry.Title, description) {
		return content.Item{}, false
	}

	// Categorize before formatting; the formatter strips the prefixes the
	// category keywords may live in.
	category := content.Categorize(entry.Title, description, source.DefaultCategory())

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	var tags []string
	for _, c := range entry.Categories {
		if c != "" {
			tags = append(tags, c)
		}
	}

	return content.Item{
		URL:         entry.Link,
		Title:       content.FormatTitle(entry.Title),
		Description: description,
		PublishedAt: publishedAt,
		SourceLabel: source.Name,
		Tags:        tags,
		Category:    category,
	}, true
}

func (r *Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	return data, nil
}
