package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karayev/newswire/app/database"
	"github.com/karayev/newswire/app/ingest"
	"github.com/karayev/newswire/app/summarize"
	"github.com/karayev/newswire/app/syncer"
)

func NewHandler(repo database.ArticleRepository, syncRunner SyncRunner,
	ingestor ArticleIngestor, sourceCounter SourceCounter, defaults Defaults, version string) *Handler {
	return &Handler{
		repo:     repo,
		syncer:   syncRunner,
		ingestor: ingestor,
		sources:  sourceCounter,
		defaults: defaults,
		version:  version,
	}
}

// PostSync triggers one orchestrator run. It always answers with a
// well-formed JSON body; a pre-flight store failure is the one case that
// maps to a 5xx with no per-source results.
func (h *Handler) PostSync(c *gin.Context) {
	opts := syncer.Options{
		EnableSummarization: queryBool(c, "summarize", h.defaults.Summarize),
		SaveContent:         queryBool(c, "saveContent", h.defaults.SaveContent),
		MinRelevanceScore:   queryInt(c, "minScore", h.defaults.MinScore),
		MaxItemsPerSource:   queryInt(c, "maxItems", h.defaults.MaxItems),
		SourceIDs:           c.QueryArray("source"),
	}

	report, err := h.syncer.Run(c.Request.Context(), opts)
	if err != nil {
		slog.Error("Sync run aborted", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Sync run aborted: " + err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"report":    report,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// PostIngest is the single-URL ad-hoc entry point. A quality rejection is a
// normal response, not an error; missing summarization credentials surface
// as a configuration failure because the caller explicitly asked for a
// summary.
func (h *Handler) PostIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid request body: " + err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	input := ingest.Input{
		URL:         req.URL,
		Source:      req.Source,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		Summarize:   true,
		SaveContent: false,
	}
	if req.Summarize != nil {
		input.Summarize = *req.Summarize
	}
	if req.SaveContent != nil {
		input.SaveContent = *req.SaveContent
	}

	result, err := h.ingestor.Run(c.Request.Context(), input)
	if errors.Is(err, summarize.ErrMissingAPIKey) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":   false,
			"message":   "Summarization requested but no API key is configured",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err != nil {
		slog.Error("Ad-hoc ingestion failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Ingestion failed: " + err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetArticles returns the most recently published articles.
func (h *Handler) GetArticles(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	articles, err := h.repo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Database error",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	views := make([]articleView, 0, len(articles))
	for _, article := range articles {
		views = append(views, toArticleView(article))
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": views,
		"total":    len(views),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if count, err := h.repo.Count(); err == nil {
		health["articles"] = count
	} else {
		health["store_error"] = err.Error()
	}

	health["loaded_sources"] = h.sources.Count()

	c.JSON(http.StatusOK, health)
}

func toArticleView(article database.Article) articleView {
	view := articleView{
		ID:       article.ID,
		Title:    article.Title,
		URL:      article.URL,
		Source:   article.Source,
		Summary:  article.Summary,
		Tags:     article.Tags,
		Status:   article.Status,
		ImageURL: article.ImageURL,
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if article.PublishedAt != nil {
		formatted := article.PublishedAt.UTC().Format(time.RFC3339)
		view.PublishedAt = &formatted
	}
	return view
}

func queryBool(c *gin.Context, name string, fallback bool) bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
