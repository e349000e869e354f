package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karayev/newswire/app/api"
	"github.com/karayev/newswire/app/cfg"
	"github.com/karayev/newswire/app/content"
	"github.com/karayev/newswire/app/database"
	"github.com/karayev/newswire/app/feed"
	"github.com/karayev/newswire/app/ingest"
	"github.com/karayev/newswire/app/sources"
	"github.com/karayev/newswire/app/summarize"
	"github.com/karayev/newswire/app/syncer"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Newswire", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	sourceCache := sources.NewCache(appCfg.SourcesDir)
	if err := sourceCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", sourceCache.Count(), "active", len(sourceCache.GetActive()))

	httpClient := &http.Client{Timeout: 30 * time.Second}

	articleRepo := database.NewArticleRepository(db)
	fetcher := content.NewFetcher(httpClient, appCfg.UserAgent)
	summarizer := summarize.NewClient(appCfg.LLMAPIKey, appCfg.LLMModel, appCfg.LLMBaseURL)
	ingestor := ingest.NewIngestor(articleRepo, fetcher, summarizer)
	reader := feed.NewReader(httpClient, appCfg.UserAgent)

	if summarizer.Enabled() {
		slog.Info("Summarization enabled", "model", appCfg.LLMModel)
	} else {
		slog.Info("Summarization disabled (OPENAI_API_KEY not set)")
	}

	runner := syncer.NewFeedRunner(reader, ingestor)
	alerter := syncer.NewDispatcher(appCfg.AlertWebhookURL)
	orchestrator := syncer.NewOrchestrator(sourceCache, runner, articleRepo, alerter, appCfg.SyncConcurrency)

	defaults := api.Defaults{
		Summarize:   appCfg.SummarizeDefault && summarizer.Enabled(),
		SaveContent: appCfg.SaveContentDefault,
		MinScore:    40,
		MaxItems:    appCfg.MaxItemsPerSource,
	}
	apiHandler := api.NewHandler(articleRepo, orchestrator, ingestor, sourceCache, defaults, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.CronSecret)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
