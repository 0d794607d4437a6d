// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the research-radar configuration from defaults,
// an optional YAML file, the environment, and the .secrets/ directory.
//
// Precedence, highest first: command-line flags bound by the caller,
// RESEARCH_RADAR_* and conventional credential variables, the config
// file, secrets files, compiled-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-radar/internal/secrets"
	"github.com/pdiddy/research-radar/internal/signals"
	"github.com/pdiddy/research-radar/pkg/types"
)

// EnvPrefix prefixes every environment override (RESEARCH_RADAR_LOG_LEVEL).
const EnvPrefix = "RESEARCH_RADAR"

// DefaultUserAgent identifies the scrapers to upstream APIs.
const DefaultUserAgent = "research-radar/0.1"

// credentialEnv binds configuration keys to the conventional variable names
// used outside this tool.
var credentialEnv = map[string]string{
	"evaluator.api_key":                "ANTHROPIC_API_KEY",
	"sources.semantic_scholar.api_key": "SEMANTIC_SCHOLAR_API_KEY",
	"sources.papers_with_code.api_key": "PAPERS_WITH_CODE_API_KEY",
	"sources.openalex.email":           "OPENALEX_EMAIL",
}

// ErrInvalid wraps every validation failure reported by Load.
var ErrInvalid = errors.New("invalid configuration")

// Defaults registers every configuration key with its default value. Keys
// must be known to viper for environment overrides to reach Unmarshal.
func Defaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", DefaultUserAgent)

	source := func(name string, enabled bool, interval time.Duration) {
		prefix := "sources." + name + "."
		v.SetDefault(prefix+"enabled", enabled)
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"rate.interval", interval)
		v.SetDefault(prefix+"rate.max_retries", 3)
		v.SetDefault(prefix+"rate.initial_backoff", 2*time.Second)
	}

	source("arxiv", true, 3*time.Second)
	v.SetDefault("sources.arxiv.categories", []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV"})
	v.SetDefault("sources.arxiv.max_results", 100)

	source("semantic_scholar", true, time.Second)
	v.SetDefault("sources.semantic_scholar.api_key", "")
	v.SetDefault("sources.semantic_scholar.queries", []string{})
	v.SetDefault("sources.semantic_scholar.limit", 50)

	source("openalex", true, 100*time.Millisecond)
	v.SetDefault("sources.openalex.email", "")
	v.SetDefault("sources.openalex.concepts", []string{})
	v.SetDefault("sources.openalex.per_page", 100)
	v.SetDefault("sources.openalex.max_pages", 10)

	source("dblp", true, time.Second)
	v.SetDefault("sources.dblp.venues", []string{"NeurIPS", "ICLR", "ICML"})
	v.SetDefault("sources.dblp.max_hits", 100)

	source("papers_with_code", false, time.Second)
	v.SetDefault("sources.papers_with_code.api_key", "")
	v.SetDefault("sources.papers_with_code.per_page", 50)
	v.SetDefault("sources.papers_with_code.max_pages", 10)
	v.SetDefault("sources.papers_with_code.include_datasets", false)

	v.SetDefault("quality_filter.enabled", true)
	v.SetDefault("quality_filter.min_citations_absolute", 5)
	v.SetDefault("quality_filter.citation_thresholds.under_1_year", 3)
	v.SetDefault("quality_filter.citation_thresholds.1_to_2_years", 10)
	v.SetDefault("quality_filter.citation_thresholds.2_to_5_years", 20)
	v.SetDefault("quality_filter.citation_thresholds.over_5_years", 30)
	v.SetDefault("quality_filter.allow_unknown_citations", false)
	v.SetDefault("quality_filter.uncited_sources", []string{"arxiv"})

	v.SetDefault("heuristics_file", "")

	v.SetDefault("thresholds.tiers.s", 9.0)
	v.SetDefault("thresholds.tiers.a", 7.5)
	v.SetDefault("thresholds.tiers.b", 6.0)
	v.SetDefault("thresholds.tiers.c", 4.0)
	v.SetDefault("thresholds.min_signal", 5.0)
	v.SetDefault("thresholds.value_score_minimum", 6.0)

	v.SetDefault("evaluator.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("evaluator.api_key", "")
	v.SetDefault("evaluator.base_url", "")
	v.SetDefault("evaluator.max_tokens", 2000)
	v.SetDefault("evaluator.abstract_limit", 1000)
	v.SetDefault("evaluator.mode", string(types.ScoringDual))

	v.SetDefault("output.findings_dir", "findings")

	v.SetDefault("monitor.poll_interval", time.Hour)
	v.SetDefault("monitor.schedule", "")
	v.SetDefault("monitor.initial_lookback", 24*time.Hour)
	v.SetDefault("monitor.state_dir", "")
	v.SetDefault("monitor.status_addr", "")

	v.SetDefault("batch.lookback_days", 90)
}

// BindEnv enables RESEARCH_RADAR_* overrides and the conventional
// credential variables. A RESEARCH_RADAR_* variable wins over its
// conventional counterpart.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := make([]string, 0, len(credentialEnv))
	for k := range credentialEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, credentialEnv[key]); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load decodes v into a Config, resolves the heuristics file, and
// validates the result.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	h, err := LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return cfg, err
	}
	cfg.Heuristics = h

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplySecrets fills credentials that are still empty from the secrets
// map returned by secrets.Load.
func ApplySecrets(cfg *types.Config, found map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = found[key]
		}
	}
	fill(&cfg.Evaluator.APIKey, secrets.AnthropicAPIKey)
	fill(&cfg.Sources.SemanticScholar.APIKey, secrets.SemanticScholarAPIKey)
	fill(&cfg.Sources.PapersWithCode.APIKey, secrets.PapersWithCodeAPIKey)
	fill(&cfg.Sources.OpenAlex.Email, secrets.OpenAlexEmail)
}

// Validate checks cross-field constraints that decoding cannot express.
func Validate(cfg types.Config) error {
	t := cfg.Thresholds.Tiers
	if !(t.S >= t.A && t.A >= t.B && t.B >= t.C) {
		return fmt.Errorf("%w: tier thresholds must satisfy s >= a >= b >= c (got %.1f, %.1f, %.1f, %.1f)",
			ErrInvalid, t.S, t.A, t.B, t.C)
	}
	switch cfg.Evaluator.Mode {
	case "", types.ScoringDual, types.ScoringSingle:
	default:
		return fmt.Errorf("%w: evaluator.mode %q (want dual or single)", ErrInvalid, cfg.Evaluator.Mode)
	}
	if cfg.Batch.LookbackDays < 0 {
		return fmt.Errorf("%w: batch.lookback_days must not be negative", ErrInvalid)
	}
	if cfg.Monitor.Schedule == "" && cfg.Monitor.PollInterval <= 0 {
		return fmt.Errorf("%w: monitor.poll_interval must be positive when no schedule is set", ErrInvalid)
	}
	return nil
}

// heuristicsFile is the on-disk layout of a heuristics override.
type heuristicsFile struct {
	Keywords map[string][]string `yaml:"keywords"`
}

// LoadHeuristics reads keyword overrides from path. An empty path yields
// no overrides. Each group in the file replaces the built-in group of the
// same name; groups not named keep their defaults.
func LoadHeuristics(path string) (types.HeuristicsConfig, error) {
	if path == "" {
		return types.HeuristicsConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.HeuristicsConfig{}, fmt.Errorf("reading heuristics file %s: %w", path, err)
	}

	var f heuristicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return types.HeuristicsConfig{}, fmt.Errorf("parsing heuristics file %s: %w", path, err)
	}

	known := signals.DefaultKeywords()
	for group := range f.Keywords {
		if _, ok := known[group]; !ok {
			return types.HeuristicsConfig{}, fmt.Errorf("%w: heuristics file %s: unknown keyword group %q",
				ErrInvalid, path, group)
		}
	}
	return types.HeuristicsConfig{Keywords: f.Keywords}, nil
}
