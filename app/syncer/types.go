package syncer

import (
	"time"
)

// Options control one orchestrator run. Zero values fall back to the
// configured defaults where the run is wired up.
type Options struct {
	EnableSummarization bool
	SaveContent         bool
	MinRelevanceScore   int
	MaxItemsPerSource   int
	SourceIDs           []string // empty means all active sources
}

// Result is the outcome of processing one source.
type Result struct {
	SourceID      string        `json:"source_id"`
	SourceName    string        `json:"source_name"`
	Success       bool          `json:"success"`
	ItemsFetched  int           `json:"items_fetched"`
	ItemsIngested int           `json:"items_ingested"`
	Duration      time.Duration `json:"duration_ns"`
	Error         string        `json:"error,omitempty"`
}

// Report aggregates the results of one run. It is computed only after every
// source has finished, so totals are stable regardless of completion order.
type Report struct {
	TotalSources       int           `json:"total_sources"`
	SuccessfulSources  int           `json:"successful_sources"`
	TotalItemsFetched  int           `json:"total_items_fetched"`
	TotalItemsIngested int           `json:"total_items_ingested"`
	TotalDuration      time.Duration `json:"total_duration_ns"`
	AvgSourceDuration  time.Duration `json:"avg_source_duration_ns"`
	Timestamp          time.Time     `json:"timestamp"`
	Results            []Result      `json:"results"`
}

// FailureRate returns the fraction of sources that failed.
func (r *Report) FailureRate() float64 {
	if r.TotalSources == 0 {
		return 0
	}
	return float64(r.TotalSources-r.SuccessfulSources) / float64(r.TotalSources)
}
