// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Config is the complete research-radar configuration.
type Config struct {
	Log           LogConfig           `json:"log" yaml:"log" mapstructure:"log"`
	HTTP          HTTPConfig          `json:"http" yaml:"http" mapstructure:"http"`
	Sources       SourcesConfig       `json:"sources" yaml:"sources" mapstructure:"sources"`
	QualityFilter QualityFilterConfig `json:"quality_filter" yaml:"quality_filter" mapstructure:"quality_filter"`
	Thresholds    ThresholdsConfig    `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
	Evaluator     EvaluatorConfig     `json:"evaluator" yaml:"evaluator" mapstructure:"evaluator"`
	Output        OutputConfig        `json:"output" yaml:"output" mapstructure:"output"`
	Monitor       MonitorConfig       `json:"monitor" yaml:"monitor" mapstructure:"monitor"`
	Batch         BatchConfig         `json:"batch" yaml:"batch" mapstructure:"batch"`

	// HeuristicsFile is an optional YAML file overriding keyword groups.
	HeuristicsFile string `json:"heuristics_file,omitempty" yaml:"heuristics_file,omitempty" mapstructure:"heuristics_file"`

	// Heuristics is resolved from the defaults and HeuristicsFile at load time.
	Heuristics HeuristicsConfig `json:"-" yaml:"-" mapstructure:"-"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-radar/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RateConfig is the per-source request policy: a minimum interval between
// requests and exponential backoff on HTTP 429.
type RateConfig struct {
	// Interval is the minimum spacing between outbound requests.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// MaxRetries bounds retries after a 429 response.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// InitialBackoff is the first 429 backoff; each retry doubles it.
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff" mapstructure:"initial_backoff"`
}

// SourcesConfig groups the scraper settings.
type SourcesConfig struct {
	Arxiv           ArxivConfig           `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar" mapstructure:"semantic_scholar"`
	OpenAlex        OpenAlexConfig        `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	DBLP            DBLPConfig            `json:"dblp" yaml:"dblp" mapstructure:"dblp"`
	PapersWithCode  PapersWithCodeConfig  `json:"papers_with_code" yaml:"papers_with_code" mapstructure:"papers_with_code"`
}

// SourceConfig holds settings every scraper shares.
type SourceConfig struct {
	Enabled bool       `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	BaseURL string     `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Rate    RateConfig `json:"rate" yaml:"rate" mapstructure:"rate"`
}

// ArxivConfig configures the arXiv Atom API scraper.
type ArxivConfig struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`

	// Categories are arXiv subject classes queried as cat:<category>.
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// MaxResults caps entries requested per category (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// SemanticScholarConfig configures the Semantic Scholar search scraper.
type SemanticScholarConfig struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is optional; it raises the rate limit.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Queries are the search strings issued for each year in the window.
	Queries []string `json:"queries" yaml:"queries" mapstructure:"queries"`

	// Limit caps results per query (default 50).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`
}

// OpenAlexConfig configures the OpenAlex works scraper.
type OpenAlexConfig struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`

	// Email joins the OpenAlex polite pool via the mailto parameter.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// Concepts restricts results to these concept IDs (OR-ed).
	Concepts []string `json:"concepts" yaml:"concepts" mapstructure:"concepts"`

	PerPage  int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// DBLPConfig configures the DBLP publication search scraper.
type DBLPConfig struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`

	// Venues are queried once per year in the window.
	Venues []string `json:"venues" yaml:"venues" mapstructure:"venues"`

	// MaxHits caps results per venue and year (default 100).
	MaxHits int `json:"max_hits" yaml:"max_hits" mapstructure:"max_hits"`
}

// PapersWithCodeConfig configures the Papers with Code scraper.
type PapersWithCodeConfig struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`

	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	PerPage  int    `json:"per_page" yaml:"per_page" mapstructure:"per_page"`
	MaxPages int    `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// IncludeDatasets looks up linked datasets for each paper.
	IncludeDatasets bool `json:"include_datasets" yaml:"include_datasets" mapstructure:"include_datasets"`
}

// CitationThresholds are the age-banded minimum citation counts.
type CitationThresholds struct {
	UnderOneYear   int `json:"under_1_year" yaml:"under_1_year" mapstructure:"under_1_year"`
	OneToTwoYears  int `json:"1_to_2_years" yaml:"1_to_2_years" mapstructure:"1_to_2_years"`
	TwoToFiveYears int `json:"2_to_5_years" yaml:"2_to_5_years" mapstructure:"2_to_5_years"`
	OverFiveYears  int `json:"over_5_years" yaml:"over_5_years" mapstructure:"over_5_years"`
}

// QualityFilterConfig configures citation-based paper filtering.
type QualityFilterConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MinCitationsAbsolute is the floor applied regardless of age (default 5).
	MinCitationsAbsolute int `json:"min_citations_absolute" yaml:"min_citations_absolute" mapstructure:"min_citations_absolute"`

	Thresholds CitationThresholds `json:"citation_thresholds" yaml:"citation_thresholds" mapstructure:"citation_thresholds"`

	// AllowUnknownCitations passes papers whose citation count is unknown.
	AllowUnknownCitations bool `json:"allow_unknown_citations" yaml:"allow_unknown_citations" mapstructure:"allow_unknown_citations"`

	// UncitedSources lists sources that never report citations; their
	// papers pass when the count is unknown (default ["arxiv"]).
	UncitedSources []string `json:"uncited_sources" yaml:"uncited_sources" mapstructure:"uncited_sources"`
}

// TierThresholds are the lower bounds of each tier label.
type TierThresholds struct {
	S float64 `json:"s" yaml:"s" mapstructure:"s"`
	A float64 `json:"a" yaml:"a" mapstructure:"a"`
	B float64 `json:"b" yaml:"b" mapstructure:"b"`
	C float64 `json:"c" yaml:"c" mapstructure:"c"`
}

// ThresholdsConfig holds scoring cut-offs.
type ThresholdsConfig struct {
	Tiers TierThresholds `json:"tiers" yaml:"tiers" mapstructure:"tiers"`

	// MinSignal is the highest raw signal a paper must reach to be
	// evaluated (default 5.0).
	MinSignal float64 `json:"min_signal" yaml:"min_signal" mapstructure:"min_signal"`

	// ValueScoreMinimum is the effective value score a finding needs to
	// be written (default 6.0).
	ValueScoreMinimum float64 `json:"value_score_minimum" yaml:"value_score_minimum" mapstructure:"value_score_minimum"`
}

// EvaluatorConfig configures the LLM evaluation stage.
type EvaluatorConfig struct {
	// Model is the Anthropic model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the Anthropic credential. Required for batch and monitor.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the Anthropic API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	MaxTokens int64 `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// AbstractLimit truncates the abstract embedded in prompts (default 1000).
	AbstractLimit int `json:"abstract_limit" yaml:"abstract_limit" mapstructure:"abstract_limit"`

	// Mode selects dual (blocker-aware) or single scoring (default dual).
	Mode ScoringMode `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// OutputConfig configures where findings are written.
type OutputConfig struct {
	FindingsDir string `json:"findings_dir" yaml:"findings_dir" mapstructure:"findings_dir"`
}

// MonitorConfig configures continuous monitoring.
type MonitorConfig struct {
	// PollInterval is used when Schedule is empty (default 1h).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`

	// Schedule is an optional cron expression that replaces PollInterval.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty" mapstructure:"schedule"`

	// InitialLookback sets the first checkpoint when none is stored (default 24h).
	InitialLookback time.Duration `json:"initial_lookback" yaml:"initial_lookback" mapstructure:"initial_lookback"`

	// StateDir holds the checkpoint database. Empty keeps state in memory.
	StateDir string `json:"state_dir,omitempty" yaml:"state_dir,omitempty" mapstructure:"state_dir"`

	// StatusAddr is the listen address of the status server. Empty disables it.
	StatusAddr string `json:"status_addr,omitempty" yaml:"status_addr,omitempty" mapstructure:"status_addr"`
}

// BatchConfig configures one-shot runs.
type BatchConfig struct {
	LookbackDays int `json:"lookback_days" yaml:"lookback_days" mapstructure:"lookback_days"`
}

// HeuristicsConfig holds the keyword groups the signal extractor matches.
// Keys are group names such as "scarcity" or "privacy".
type HeuristicsConfig struct {
	Keywords map[string][]string `json:"keywords" yaml:"keywords"`
}
