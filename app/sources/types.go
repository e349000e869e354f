package sources

import (
	"github.com/karayev/newswire/app/content"
)

// Source describes one configured content source. Loaded once per
// invocation from a YAML file and immutable at run time.
type Source struct {
	ID       string // Derived from filename (without .yml extension)
	Name     string `yaml:"name"`
	FeedURL  string `yaml:"feed_url"`
	APIURL   string `yaml:"api_url"`
	Category string `yaml:"category"`
	Priority int    `yaml:"priority"`
	IsActive *bool  `yaml:"is_active"` // nil means active
	MaxItems int    `yaml:"max_items"`
}

const DefaultMaxItems = 5

// Active reports whether the source participates in sync runs.
func (s Source) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// ItemCap returns the per-fetch item limit for the source.
func (s Source) ItemCap() int {
	if s.MaxItems > 0 {
		return s.MaxItems
	}
	return DefaultMaxItems
}

// DefaultCategory returns the configured category as a typed value,
// falling back to insight.
func (s Source) DefaultCategory() content.Category {
	if content.ValidCategory(s.Category) {
		return content.Category(s.Category)
	}
	return content.CategoryInsight
}
