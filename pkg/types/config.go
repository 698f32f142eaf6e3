package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "article-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding capability used by the
// deduplication step. Per prd008-article R5.1-R5.3.
type EmbeddingConfig struct {
	AIConfig `yaml:",inline"`

	// Enabled controls whether embeddings (and therefore semantic
	// deduplication) are used at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CacheDir is the directory for the embedding cache database
	// (e.g. "cache/"). Empty disables caching.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}

// ResearchConfig holds settings for the pre-generation research stage.
// Per prd009-research R1.2, R2.3.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// Perspectives is the number of research viewpoints to interview
	// (default 3).
	Perspectives int `json:"perspectives" yaml:"perspectives"`

	// QuestionsPerPerspective is how many questions each viewpoint asks
	// (default 3).
	QuestionsPerPerspective int `json:"questions_per_perspective" yaml:"questions_per_perspective"`
}

// OutputFormat selects the rendering output format.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputLaTeX    OutputFormat = "latex"
)

// GenerationConfig holds settings for the section generation stage.
// Per prd008-article R4.1-R4.6.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// ContextWindow is the number of most recent fully generated sections
	// exposed to the model when drafting the next one (default 3).
	ContextWindow int `json:"context_window" yaml:"context_window"`

	// DedupeThreshold is the cosine similarity at or above which new content
	// counts as a near-duplicate (default 0.85).
	DedupeThreshold float64 `json:"dedupe_threshold" yaml:"dedupe_threshold"`

	// MaxAttempts bounds regeneration attempts when content is flagged as a
	// near-duplicate (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// TokenTolerance is the fraction of the token budget within which no
	// expand/condense call is made (default 0.10).
	TokenTolerance float64 `json:"token_tolerance" yaml:"token_tolerance"`

	// OutputDir is the directory for rendered articles (e.g. "output/drafts/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects the output format: markdown or latex.
	Format OutputFormat `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Research   ResearchConfig   `json:"research" yaml:"research"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
}
