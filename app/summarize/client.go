package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned by the strict contract when the client has no
// credentials. The best-effort contract degrades to a nil result instead.
var ErrMissingAPIKey = errors.New("summarization API key is not configured")

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 400
	maxInputChars      = 6000
	requestTimeout     = 30 * time.Second
)

const systemPrompt = `You are a news curation assistant. Given an article, respond ONLY with a JSON object of the form {"summary": "...", "tags": ["..."], "source": "..."}. The summary is 1-2 sentences in plain language. Tags are 2-5 short lowercase topic labels. Source is the publication name if you can infer it, otherwise omit it. Do not include any text outside the JSON object.`

// Request describes one summarization call.
type Request struct {
	URL         string
	Title       string
	Description string
	ContentHTML string
	Model       string // optional override of the client default
}

// Result is the parsed model output.
type Result struct {
	Summary     string
	Tags        []string
	SourceLabel string
}

// Client talks to an OpenAI-compatible chat-completion API. It offers two
// call contracts: Run errors when unconfigured, TryRun silently returns nil.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(apiKey, model, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		// successive completion calls are paced to stay inside upstream
		// rate limits when a run summarizes many items
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Run is the strict contract: it fails fast with ErrMissingAPIKey when no
// credentials are configured and errors on network or API failures, but it
// tolerates malformed model output by falling back to the raw response text.
func (c *Client) Run(ctx context.Context, req Request) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	raw, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	return parseModelOutput(raw), nil
}

// TryRun is the best-effort contract used by display paths: missing
// credentials and every failure mode degrade to a nil result.
func (c *Client) TryRun(ctx context.Context, req Request) *Result {
	if !c.Enabled() {
		slog.Debug("Summarization skipped, no API key configured", "url", req.URL)
		return nil
	}

	result, err := c.Run(ctx, req)
	if err != nil {
		slog.Warn("Best-effort summarization failed", "url", req.URL, "error", err)
		return nil
	}

	return result
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature:    defaultTemperature,
		MaxTokens:      defaultMaxTokens,
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildUserPrompt collapses the article into bounded plain text so one oversized
// page cannot blow up cost or latency.
func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("URL: " + req.URL + "\n")
	b.WriteString("Title: " + req.Title + "\n")
	if req.Description != "" {
		b.WriteString("Description: " + req.Description + "\n")
	}
	if req.ContentHTML != "" {
		b.WriteString("Content:\n" + CollapseHTML(req.ContentHTML) + "\n")
	}

	prompt := b.String()
	if len(prompt) > maxInputChars {
		prompt = prompt[:maxInputChars]
	}
	return prompt
}

var (
	scriptBlocks = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlocks  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTags     = regexp.MustCompile(`(?s)<[^>]+>`)
	spaces       = regexp.MustCompile(`\s+`)
)

// CollapseHTML strips script/style blocks and markup, leaving collapsed text.
func CollapseHTML(html string) string {
	text := scriptBlocks.ReplaceAllString(html, " ")
	text = styleBlocks.ReplaceAllString(text, " ")
	text = htmlTags.ReplaceAllString(text, " ")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

type modelOutput struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Source  string   `json:"source"`
}

var codeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// parseModelOutput decodes the constrained JSON shape; malformed output falls
// back to the raw text as the summary with no tags. The model never gets to
// fail an ingestion by replying badly.
func parseModelOutput(raw string) *Result {
	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil || strings.TrimSpace(out.Summary) == "" {
		return &Result{Summary: strings.TrimSpace(raw)}
	}

	return &Result{
		Summary:     strings.TrimSpace(out.Summary),
		Tags:        out.Tags,
		SourceLabel: strings.TrimSpace(out.Source),
	}
}
