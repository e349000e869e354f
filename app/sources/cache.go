package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/karayev/newswire/app/content"
)

// Cache loads and holds the source configurations for one invocation.
type Cache struct {
	sourcesDir string
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewCache(sourcesDir string) *Cache {
	return &Cache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Source),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceID := strings.TrimSuffix(fileName, ".yml")

		source, err := c.LoadSource(sourceID)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceID, "active", source.Active(), "priority", source.Priority)
	}

	return nil
}

func (c *Cache) LoadSource(sourceID string) (*Source, error) {
	configFile := filepath.Join(c.sourcesDir, sourceID+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	source.ID = sourceID

	if err := c.validateSource(&source); err != nil {
		return nil, fmt.Errorf("invalid source config %s: %w", configFile, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[source.ID] = &source

	return &source, nil
}

func (c *Cache) Get(sourceID string) (*Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	source, ok := c.cache[sourceID]
	if !ok {
		return nil, fmt.Errorf("source config with id '%s' not found", sourceID)
	}
	return source, nil
}

// GetActive returns the active sources ordered by descending priority,
// ties broken by id so every run iterates in the same order.
func (c *Cache) GetActive() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := make([]Source, 0, len(c.cache))
	for _, source := range c.cache {
		if source.Active() {
			active = append(active, *source)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority > active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	return active
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Cache) validateSource(source *Source) error {
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if source.FeedURL == "" && source.APIURL == "" {
		return fmt.Errorf("source requires a feed_url or api_url")
	}
	if source.Category != "" && !content.ValidCategory(source.Category) {
		return fmt.Errorf("unknown category '%s'", source.Category)
	}
	if source.MaxItems < 0 {
		return fmt.Errorf("max_items must not be negative")
	}
	return nil
}
