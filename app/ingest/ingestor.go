package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karayev/newswire/app/content"
	"github.com/karayev/newswire/app/database"
	"github.com/karayev/newswire/app/summarize"
)

// Reasons reported by Run. Quality rejection is a business outcome, not a
// failure: it comes back with a nil error.
const (
	ReasonInserted        = "inserted"
	ReasonUpdated         = "updated"
	ReasonLowQualityTitle = "low_quality_title"
)

const minTitleLength = 5

// MetadataFetcher retrieves page metadata; failures degrade to an empty PageMeta.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) content.PageMeta
}

// Summarizer is the strict summarization contract.
type Summarizer interface {
	Run(ctx context.Context, req summarize.Request) (*summarize.Result, error)
}

// Input describes one ingestion attempt. Nil optional fields mean "not
// supplied"; supplied values win over freshly inferred and stored ones.
type Input struct {
	URL         string
	Title       *string
	Description *string
	Source      *string
	Tags        []string // nil means not supplied; empty slice clears tags
	ImageURL    *string
	PublishedAt *time.Time
	Summarize   bool
	SaveContent bool
}

// Result reports the outcome of one ingestion attempt.
type Result struct {
	ID       string `json:"id"`
	Upserted bool   `json:"upserted"`
	Reason   string `json:"reason"`
}

// Ingestor merges fetched data with any existing article for the same
// canonical URL and performs an idempotent upsert keyed on that URL.
type Ingestor struct {
	repo       database.ArticleRepository
	fetcher    MetadataFetcher
	summarizer Summarizer
}

func NewIngestor(repo database.ArticleRepository, fetcher MetadataFetcher, summarizer Summarizer) *Ingestor {
	return &Ingestor{
		repo:       repo,
		fetcher:    fetcher,
		summarizer: summarizer,
	}
}

// Run ingests one URL. Calling it twice with the same URL never creates a
// second row; the second call updates the first row in place.
//
// Errors are returned only for store failures and for the strict
// summarization contract's missing-credentials case; summarization backend
// failures degrade to a null summary.
func (g *Ingestor) Run(ctx context.Context, input Input) (Result, error) {
	url := content.NormalizeURL(input.URL)

	existing, err := g.repo.GetByURL(url)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up article: %w", err)
	}

	meta := g.fetcher.Fetch(ctx, url)

	// Quality gate: no usable title means no write, deliberately.
	title := resolveString(input.Title, meta.Title, "")
	if len(strings.TrimSpace(title)) < minTitleLength {
		slog.Info("Ingestion rejected", "url", url, "reason", ReasonLowQualityTitle)
		return Result{Upserted: false, Reason: ReasonLowQualityTitle}, nil
	}

	var inferred *summarize.Result
	if input.Summarize {
		inferred, err = g.summarize(ctx, input, url, title, meta)
		if err != nil {
			return Result{}, err
		}
	}

	article := g.merge(input, meta, inferred, existing, url, title)

	id, err := g.repo.Upsert(article)
	if err != nil {
		return Result{}, fmt.Errorf("failed to upsert article: %w", err)
	}

	reason := ReasonInserted
	if existing != nil {
		reason = ReasonUpdated
	}

	slog.Info("Article ingested", "url", url, "id", id, "reason", reason)

	return Result{ID: id, Upserted: true, Reason: reason}, nil
}

// summarize runs the strict contract. Missing credentials propagate as a
// configuration error before any write; every other failure is logged and
// yields a nil result so summarization can never block article creation.
func (g *Ingestor) summarize(ctx context.Context, input Input, url, title string, meta content.PageMeta) (*summarize.Result, error) {
	req := summarize.Request{
		URL:         url,
		Title:       title,
		Description: resolveString(input.Description, meta.Description, ""),
	}
	if meta.ContentHTML != nil {
		req.ContentHTML = *meta.ContentHTML
	}

	result, err := g.summarizer.Run(ctx, req)
	if errors.Is(err, summarize.ErrMissingAPIKey) {
		return nil, fmt.Errorf("summarization requested: %w", err)
	}
	if err != nil {
		slog.Warn("Summarization failed, continuing without summary", "url", url, "error", err)
		return nil, nil
	}

	return result, nil
}

// merge resolves each field by precedence: explicit caller-supplied value,
// then freshly inferred value, then existing stored value, then the field
// default.
func (g *Ingestor) merge(input Input, meta content.PageMeta, inferred *summarize.Result,
	existing *database.Article, url, title string) database.Article {

	article := database.Article{
		URL:    url,
		Title:  strings.TrimSpace(title),
		Status: database.StatusPublished,
	}
	if existing != nil {
		article.ID = existing.ID
	}

	// source
	var inferredSource *string
	if inferred != nil && inferred.SourceLabel != "" {
		inferredSource = &inferred.SourceLabel
	}
	var existingSource *string
	if existing != nil && existing.Source != "" {
		existingSource = &existing.Source
	}
	article.Source = resolveString(input.Source, inferredSource, valueOr(existingSource, ""))

	// tags
	var inferredTags []string
	if inferred != nil {
		inferredTags = inferred.Tags
	}
	switch {
	case input.Tags != nil:
		article.Tags = input.Tags
	case inferredTags != nil:
		article.Tags = inferredTags
	case existing != nil && existing.Tags != nil:
		article.Tags = existing.Tags
	default:
		article.Tags = []string{}
	}

	// summary
	if inferred != nil && inferred.Summary != "" {
		summary := inferred.Summary
		article.Summary = &summary
	} else if existing != nil {
		article.Summary = existing.Summary
	}

	// published_at
	if input.PublishedAt != nil {
		article.PublishedAt = input.PublishedAt
	} else if meta.PublishedAt != nil {
		article.PublishedAt = meta.PublishedAt
	} else if existing != nil {
		article.PublishedAt = existing.PublishedAt
	}

	// image_url
	if input.ImageURL != nil {
		article.ImageURL = input.ImageURL
	} else if meta.ImageURL != nil {
		article.ImageURL = meta.ImageURL
	} else if existing != nil {
		article.ImageURL = existing.ImageURL
	}

	// content_html is only overwritten when saving was requested and a
	// fresh excerpt was actually extracted
	if input.SaveContent && meta.ContentHTML != nil {
		article.ContentHTML = meta.ContentHTML
	} else if existing != nil {
		article.ContentHTML = existing.ContentHTML
	}

	return article
}

func resolveString(explicit, inferred *string, fallback string) string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		return strings.TrimSpace(*explicit)
	}
	if inferred != nil && strings.TrimSpace(*inferred) != "" {
		return strings.TrimSpace(*inferred)
	}
	return fallback
}

func valueOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}
