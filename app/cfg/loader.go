package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Store configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newswire.db" description:"Path to the sqlite database file"`

	// Application configuration
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	CronSecret string `long:"cron-secret" env:"CRON_SECRET" description:"Shared secret for the sync trigger and ingest endpoints"`

	// Summarization backend
	LLMAPIKey  string `long:"llm-api-key" env:"OPENAI_API_KEY" description:"API key for the summarization backend (optional, disables summarization when empty)"`
	LLMModel   string `long:"llm-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Default chat-completion model"`
	LLMBaseURL string `long:"llm-base-url" env:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" description:"Base URL of the chat-completion API"`

	// Sync defaults
	SummarizeDefault   bool   `long:"summarize" env:"SYNC_SUMMARIZE" description:"Enable summarization during sync runs by default"`
	SaveContentDefault bool   `long:"save-content" env:"SYNC_SAVE_CONTENT" description:"Persist extracted content excerpts by default"`
	SyncConcurrency    int    `long:"sync-concurrency" env:"SYNC_CONCURRENCY" default:"4" description:"Number of sources processed concurrently"`
	MaxItemsPerSource  int    `long:"max-items" env:"SYNC_MAX_ITEMS" default:"10" description:"Default item cap per source per run"`
	AlertWebhookURL    string `long:"alert-webhook" env:"ALERT_WEBHOOK_URL" description:"Webhook URL for critical sync alerts (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Newswire/1.0 (+https://github.com/karayev/newswire)" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SourcesDir:         raw.SourcesDir,
		Port:               raw.Port,
		CronSecret:         raw.CronSecret,
		LLMAPIKey:          raw.LLMAPIKey,
		LLMModel:           raw.LLMModel,
		LLMBaseURL:         raw.LLMBaseURL,
		SummarizeDefault:   raw.SummarizeDefault,
		SaveContentDefault: raw.SaveContentDefault,
		SyncConcurrency:    raw.SyncConcurrency,
		MaxItemsPerSource:  raw.MaxItemsPerSource,
		AlertWebhookURL:    raw.AlertWebhookURL,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
