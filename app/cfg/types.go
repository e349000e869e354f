package cfg

type Cfg struct {
	// Store configuration
	DBPath string

	// Application configuration
	SourcesDir string
	Port       string
	CronSecret string

	// Summarization backend
	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string

	// Sync defaults
	SummarizeDefault   bool
	SaveContentDefault bool
	SyncConcurrency    int
	MaxItemsPerSource  int
	AlertWebhookURL    string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
