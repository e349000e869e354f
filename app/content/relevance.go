package content

import (
	"regexp"
	"strings"
)

// Vocabulary used by the relevance test. Short tokens that would
// false-positive as substrings ("ai" in "rain") are matched as whole words.
var relevanceKeywords = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"generative",
	"openai",
	"chatgpt",
	"anthropic",
	"claude",
	"gemini",
	"midjourney",
	"stable diffusion",
	"large language model",
	"content creation",
	"content creator",
	"creator economy",
	"social media",
	"influencer",
	"tiktok",
	"youtube",
	"instagram",
	"podcast",
	"newsletter",
	"automation",
	"algorithm",
	"copilot",
	"prompt",
}

var relevanceWordKeywords = []string{
	"ai",
	"ml",
	"llm",
	"gpt",
	"agent",
	"model",
	"video",
	"creator",
}

var breakingKeywords = []string{"breaking", "announce", "launch", "release", "unveil", "introduce", "debut", "acquire"}
var trendingKeywords = []string{"trending", "viral", "popular", "surge", "skyrocket", "record", "milestone", "boom"}
var updateKeywords = []string{"update", "upgrade", "version", "improve", "roll out", "rollout", "patch", "expand"}

var wordSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// IsRelevant reports whether the title/description pair matches the
// AI / content-creation vocabulary. Pure and deterministic.
func IsRelevant(title, description string) bool {
	text := strings.ToLower(title + " " + description)

	for _, keyword := range relevanceKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	words := wordSplitter.Split(text, -1)
	for _, word := range words {
		for _, keyword := range relevanceWordKeywords {
			if word == keyword {
				return true
			}
		}
	}

	return false
}

// Categorize infers a category from the content, first match winning in
// priority order breaking > trending > update. Content that matches none
// keeps the fallback, or insight when no fallback is given.
func Categorize(title, description string, fallback Category) Category {
	text := strings.ToLower(title + " " + description)

	for _, keyword := range breakingKeywords {
		if strings.Contains(text, keyword) {
			return CategoryBreaking
		}
	}
	for _, keyword := range trendingKeywords {
		if strings.Contains(text, keyword) {
			return CategoryTrending
		}
	}
	for _, keyword := range updateKeywords {
		if strings.Contains(text, keyword) {
			return CategoryUpdate
		}
	}

	if fallback != "" {
		return fallback
	}
	return CategoryInsight
}

var (
	bracketPrefix = regexp.MustCompile(`^\[[^\]]*\]\s*`)
	sitePrefix    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 .&\-]{1,29}:\s+`)
	whitespace    = regexp.MustCompile(`\s+`)
)

const maxTitleLength = 120

// FormatTitle strips leading "[Category]" or "Site:" prefixes, collapses
// whitespace, and truncates to 120 characters with an ellipsis.
func FormatTitle(title string) string {
	title = bracketPrefix.ReplaceAllString(title, "")
	title = sitePrefix.ReplaceAllString(title, "")
	title = whitespace.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = strings.TrimSpace(string(runes[:maxTitleLength-3])) + "..."
	}

	return title
}
