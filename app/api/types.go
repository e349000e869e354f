package api

import (
	"context"

	"github.com/karayev/newswire/app/database"
	"github.com/karayev/newswire/app/ingest"
	"github.com/karayev/newswire/app/syncer"
)

// SyncRunner triggers one orchestrator run.
type SyncRunner interface {
	Run(ctx context.Context, opts syncer.Options) (*syncer.Report, error)
}

// ArticleIngestor handles one ad-hoc URL ingestion.
type ArticleIngestor interface {
	Run(ctx context.Context, input ingest.Input) (ingest.Result, error)
}

// SourceCounter reports how many source configurations are loaded.
type SourceCounter interface {
	Count() int
}

// Defaults are the trigger-endpoint parameter defaults, sourced from
// configuration at wiring time.
type Defaults struct {
	Summarize   bool
	SaveContent bool
	MinScore    int
	MaxItems    int
}

type Handler struct {
	repo     database.ArticleRepository
	syncer   SyncRunner
	ingestor ArticleIngestor
	sources  SourceCounter
	defaults Defaults
	version  string
}

type ingestRequest struct {
	URL         string   `json:"url" binding:"required"`
	Source      *string  `json:"source"`
	Tags        []string `json:"tags"`
	ImageURL    *string  `json:"image_url"`
	Summarize   *bool    `json:"summarize"`
	SaveContent *bool    `json:"save_content"`
}

type articleView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	PublishedAt *string  `json:"published_at"`
	Summary     *string  `json:"summary"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	ImageURL    *string  `json:"image_url"`
}
