// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SQLitePath is the path to the SQLite database file. Empty selects
	// the in-memory store.
	SQLitePath string `koanf:"sqlite_path"`

	// IdleThresholdMS is the inactivity gap, in milliseconds, after which
	// a synthetic idle event is recorded.
	IdleThresholdMS int `koanf:"idle_threshold_ms"`

	// RetryBackoffMS is the delay between failed delivery attempts.
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// ExcerptMaxLen caps query excerpts stored in derived event metadata.
	ExcerptMaxLen int `koanf:"excerpt_max_len"`

	// SnippetMaxCount caps the query snippets included in analysis context.
	SnippetMaxCount int `koanf:"snippet_max_count"`

	// SynthesisTimeoutMS bounds a single synthesis call.
	SynthesisTimeoutMS int `koanf:"synthesis_timeout_ms"`

	// QuestionTimeoutMS bounds the interview-question call made during
	// submit; expiry degrades to the canned question.
	QuestionTimeoutMS int `koanf:"question_timeout_ms"`

	// LLMBaseURL, LLMModel and LLMAPIKey configure the completion backend.
	// An empty key disables synthesis and the service falls back to
	// rule-based scoring.
	LLMBaseURL string `koanf:"llm_base_url"`
	LLMModel   string `koanf:"llm_model"`
	LLMAPIKey  string `koanf:"llm_api_key"`

	// LLMMaxTokens caps completion length.
	LLMMaxTokens int `koanf:"llm_max_tokens"`

	// DimensionWeights maps scoring dimensions to their weights in the
	// rule-based fallback.
	DimensionWeights map[string]float64 `koanf:"dimension_weights"`

	// HireCutpoints maps recommendation tiers to minimum overall scores.
	HireCutpoints map[string]float64 `koanf:"hire_cutpoints"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		IdleThresholdMS:    5_000,
		RetryBackoffMS:     500,
		ExcerptMaxLen:      120,
		SnippetMaxCount:    10,
		SynthesisTimeoutMS: 20_000,
		QuestionTimeoutMS:  10_000,
		LLMBaseURL:         "https://api.openai.com/v1",
		LLMModel:           "gpt-4o-mini",
		LLMMaxTokens:       1024,
	}
	return c
}
