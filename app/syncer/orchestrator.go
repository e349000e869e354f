package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/karayev/newswire/app/sources"
)

// criticalFailureRate is the fleet-wide threshold above which a run is
// considered unhealthy. The comparison is strictly greater: half the fleet
// failing does not alert, more than half does.
const criticalFailureRate = 0.5

const defaultConcurrency = 4

// ConnectivityChecker is the pre-flight store probe. Satisfied by the
// article repository's counting query.
type ConnectivityChecker interface {
	Count() (int, error)
}

// SourceProvider yields the active sources for a run. Satisfied by the
// source config cache.
type SourceProvider interface {
	GetActive() []sources.Source
}

// Orchestrator runs one sync pass over the configured sources: a pre-flight
// connectivity check, a bounded fan-out over the active sources, then a
// deterministic aggregate report with fleet-health alerting.
type Orchestrator struct {
	sources     SourceProvider
	runner      SourceRunner
	checker     ConnectivityChecker
	alerter     Alerter
	concurrency int
}

func NewOrchestrator(cache SourceProvider, runner SourceRunner, checker ConnectivityChecker,
	alerter Alerter, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Orchestrator{
		sources:     cache,
		runner:      runner,
		checker:     checker,
		alerter:     alerter,
		concurrency: concurrency,
	}
}

// Run executes one sync pass. A pre-flight failure aborts the whole run
// with no per-source results; after that point each source contributes a
// Result whether it succeeds or fails, and per-source failures never cancel
// sibling work.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	startTime := time.Now()

	if _, err := o.checker.Count(); err != nil {
		return nil, fmt.Errorf("store connectivity check failed: %w", err)
	}

	active := o.selectSources(opts)
	slog.Info("Sync run started", "sources", len(active), "concurrency", o.concurrency,
		"summarize", opts.EnableSummarization, "save_content", opts.SaveContent)

	results := o.runAll(ctx, active, opts)
	report := o.buildReport(results, time.Since(startTime))

	failed := report.TotalSources - report.SuccessfulSources
	if report.TotalSources > 0 && report.FailureRate() > criticalFailureRate {
		o.alerter.Record(ctx, Event{
			Severity: SeverityCritical,
			Message:  "Sync run unhealthy: source failure rate above threshold",
			Fields: map[string]any{
				"failure_rate":       report.FailureRate(),
				"failed_sources":     failed,
				"total_sources":      report.TotalSources,
				"successful_sources": report.SuccessfulSources,
			},
		})
	}

	slog.Info("Sync run completed",
		"total_sources", report.TotalSources,
		"successful_sources", report.SuccessfulSources,
		"items_fetched", report.TotalItemsFetched,
		"items_ingested", report.TotalItemsIngested,
		"duration", report.TotalDuration)

	return report, nil
}

func (o *Orchestrator) selectSources(opts Options) []sources.Source {
	active := o.sources.GetActive()
	if len(opts.SourceIDs) == 0 {
		return active
	}

	selected := make([]sources.Source, 0, len(opts.SourceIDs))
	for _, source := range active {
		if slices.Contains(opts.SourceIDs, source.ID) {
			selected = append(selected, source)
		}
	}
	return selected
}

// runAll fans the sources out over a bounded worker pool. Results land in a
// slice indexed by source position, so the report iterates them in the same
// order no matter which worker finished first.
func (o *Orchestrator) runAll(ctx context.Context, srcs []sources.Source, opts Options) []Result {
	results := make([]Result, len(srcs))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workerCount := o.concurrency
	if workerCount > len(srcs) {
		workerCount = len(srcs)
	}

	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.runOne(ctx, srcs[idx], opts)
			}
		}()
	}

	for idx := range srcs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

func (o *Orchestrator) runOne(ctx context.Context, source sources.Source, opts Options) Result {
	startTime := time.Now()

	fetched, ingested, err := o.runner.Run(ctx, source, opts)

	result := Result{
		SourceID:      source.ID,
		SourceName:    source.Name,
		Success:       err == nil,
		ItemsFetched:  fetched,
		ItemsIngested: ingested,
		Duration:      time.Since(startTime),
	}

	if err != nil {
		result.Error = err.Error()
		slog.Warn("Source sync failed", "source", source.ID, "duration", result.Duration, "error", err)
	} else {
		slog.Info("Source sync completed", "source", source.ID,
			"fetched", fetched, "ingested", ingested, "duration", result.Duration)
	}

	return result
}

func (o *Orchestrator) buildReport(results []Result, totalDuration time.Duration) *Report {
	report := &Report{
		TotalSources:  len(results),
		TotalDuration: totalDuration,
		Timestamp:     time.Now().UTC(),
		Results:       results,
	}

	var durationSum time.Duration
	for _, result := range results {
		if result.Success {
			report.SuccessfulSources++
		}
		report.TotalItemsFetched += result.ItemsFetched
		report.TotalItemsIngested += result.ItemsIngested
		durationSum += result.Duration
	}

	if len(results) > 0 {
		report.AvgSourceDuration = durationSum / time.Duration(len(results))
	}

	return report
}
