package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/karayev/newswire/app/content"
	"github.com/karayev/newswire/app/feed"
	"github.com/karayev/newswire/app/ingest"
	"github.com/karayev/newswire/app/sources"
)

// SourceRunner processes one source end to end: fetch, filter, ingest.
type SourceRunner interface {
	Run(ctx context.Context, source sources.Source, opts Options) (fetched, ingested int, err error)
}

var _ SourceRunner = (*FeedRunner)(nil)

// interItemDelay spaces out summarization-bound items within one source so
// successive upstream API calls are not issued back to back.
const interItemDelay = 100 * time.Millisecond

// FeedRunner is the RSS path: read the source's feed, then ingest each
// relevant item. A quality-rejected item is skipped; a store failure fails
// the source.
type FeedRunner struct {
	reader   *feed.Reader
	ingestor *ingest.Ingestor
}

func NewFeedRunner(reader *feed.Reader, ingestor *ingest.Ingestor) *FeedRunner {
	return &FeedRunner{
		reader:   reader,
		ingestor: ingestor,
	}
}

func (r *FeedRunner) Run(ctx context.Context, source sources.Source, opts Options) (int, int, error) {
	if source.FeedURL == "" {
		return 0, 0, fmt.Errorf("source %s has no feed URL", source.ID)
	}

	items := r.reader.Run(ctx, source, opts.MaxItemsPerSource)

	ingested := 0
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return len(items), ingested, err
		}

		if opts.EnableSummarization && i > 0 {
			time.Sleep(interItemDelay)
		}

		result, err := r.ingestor.Run(ctx, r.buildInput(item, opts))
		if err != nil {
			return len(items), ingested, fmt.Errorf("failed to ingest %s: %w", item.URL, err)
		}

		if result.Upserted {
			ingested++
		}
	}

	return len(items), ingested, nil
}

func (r *FeedRunner) buildInput(item content.Item, opts Options) ingest.Input {
	input := ingest.Input{
		URL:         item.URL,
		Title:       &item.Title,
		Source:      &item.SourceLabel,
		PublishedAt: &item.PublishedAt,
		Summarize:   opts.EnableSummarization,
		SaveContent: opts.SaveContent,
	}
	if item.Description != "" {
		input.Description = &item.Description
	}
	if len(item.Tags) > 0 {
		input.Tags = item.Tags
	}
	return input
}
