package database

import (
	"time"
)

type Article struct {
	ID          string // Database UUID
	Title       string
	URL         string // Normalized URL, unique per article
	Source      string
	PublishedAt *time.Time
	Summary     *string
	Tags        []string
	Status      string // draft or published
	ContentHTML *string
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)
