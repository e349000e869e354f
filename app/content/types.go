package content

import (
	"time"
)

type Category string

const (
	CategoryBreaking Category = "breaking"
	CategoryTrending Category = "trending"
	CategoryUpdate   Category = "update"
	CategoryInsight  Category = "insight"
)

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryBreaking, CategoryTrending, CategoryUpdate, CategoryInsight:
		return true
	}
	return false
}

// Item is the ephemeral representation of one fetched piece of content,
// produced by the feed reader or metadata fetcher and consumed by the
// ingestion pipeline. It is never persisted directly.
type Item struct {
	URL         string
	Title       string
	Description string
	PublishedAt time.Time
	SourceLabel string
	Tags        []string
	Category    Category
}

// PageMeta holds metadata extracted from a fetched HTML page.
// Every field is optional; a nil field means the page did not provide it.
type PageMeta struct {
	Title       *string
	Description *string
	PublishedAt *time.Time
	ImageURL    *string
	ContentHTML *string
}
