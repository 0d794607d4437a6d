// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"strings"
	"time"
)

// BlockerCategory classifies an obstacle to commercialization.
type BlockerCategory string

const (
	BlockerLegal     BlockerCategory = "LEGAL"
	BlockerTechnical BlockerCategory = "TECHNICAL"
	BlockerMarket    BlockerCategory = "MARKET"
	BlockerEconomic  BlockerCategory = "ECONOMIC"
)

// BlockerCategories lists the categories in detection order.
var BlockerCategories = []BlockerCategory{BlockerLegal, BlockerTechnical, BlockerMarket, BlockerEconomic}

// Severity grades a blocker.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// ParseBlockerCategory matches s case-insensitively against the known
// categories.
func ParseBlockerCategory(s string) (BlockerCategory, bool) {
	c := BlockerCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range BlockerCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// ParseSeverity matches s case-insensitively against the known severities.
func ParseSeverity(s string) (Severity, bool) {
	v := Severity(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Severities {
		if v == known {
			return v, true
		}
	}
	return "", false
}

// Blocker is a detected obstacle that caps the value score.
type Blocker struct {
	Category    BlockerCategory `json:"category" yaml:"category"`
	Severity    Severity        `json:"severity" yaml:"severity"`
	Description string          `json:"description" yaml:"description"`
}

// ScoreCap is the highest value score a finding with this blocker may keep.
func (b Blocker) ScoreCap() float64 {
	switch b.Severity {
	case SeverityHigh:
		return 6.0
	case SeverityMedium:
		return 7.5
	default:
		return 10.0
	}
}

// UncertaintySource is a detected weakness in the evaluation's evidence.
type UncertaintySource struct {
	// Indicator names the class that matched (e.g. "synthetic_data_only").
	Indicator   string  `json:"indicator" yaml:"indicator"`
	Description string  `json:"description" yaml:"description"`
	Penalty     float64 `json:"penalty" yaml:"penalty"`
}

// ScoringMode selects how value scores are formed and tiered.
type ScoringMode string

const (
	// ScoringDual blends technical and commercial scores, applies blocker
	// caps, and tiers the effective score on the blocker-aware ladder.
	ScoringDual ScoringMode = "dual"

	// ScoringSingle uses the model's single value score with no blockers
	// and tiers it on the five-tier ladder.
	ScoringSingle ScoringMode = "single"
)

// Assessment is the commercial evaluation of one paper. It is assembled once
// by the evaluator and never modified afterwards.
type Assessment struct {
	ID    string `json:"id" yaml:"id"`
	Paper Paper  `json:"paper" yaml:"paper"`

	// DataTypeName is a short label for the dataset opportunity.
	DataTypeName string `json:"data_type_name" yaml:"data_type_name"`

	// BusinessContext is the free-text business rationale.
	BusinessContext string `json:"business_context" yaml:"business_context"`

	ValueScore      float64 `json:"value_score" yaml:"value_score"`
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// Tier is assigned at assembly from the effective value score on the
	// ladder that belongs to Mode.
	Tier string      `json:"tier" yaml:"tier"`
	Mode ScoringMode `json:"mode" yaml:"mode"`

	SignalScores map[Category]float64 `json:"signal_scores" yaml:"signal_scores"`
	DetectedAt   time.Time            `json:"detected_at" yaml:"detected_at"`

	TargetCustomers string `json:"target_customers" yaml:"target_customers"`
	MarketGap       string `json:"market_gap" yaml:"market_gap"`
	Concerns        string `json:"concerns" yaml:"concerns"`

	DataEfficiency   float64 `json:"data_efficiency" yaml:"data_efficiency"`
	SourceQuality    float64 `json:"source_quality" yaml:"source_quality"`
	Generalizability float64 `json:"generalizability" yaml:"generalizability"`

	DatasetDescription     string `json:"dataset_description" yaml:"dataset_description"`
	CollectionMethod       string `json:"collection_method" yaml:"collection_method"`
	ReplicationFeasibility string `json:"replication_feasibility" yaml:"replication_feasibility"`

	TechnicalContributionScore float64 `json:"technical_contribution_score" yaml:"technical_contribution_score"`
	CommercialViabilityScore   float64 `json:"commercial_viability_score" yaml:"commercial_viability_score"`

	Blockers           []Blocker           `json:"blockers" yaml:"blockers"`
	UncertaintySources []UncertaintySource `json:"uncertainty_sources" yaml:"uncertainty_sources"`
}

// EffectiveValueScore is the value score after blocker caps: the minimum of
// ValueScore and every blocker's ScoreCap.
func (a *Assessment) EffectiveValueScore() float64 {
	return EffectiveValueScore(a.ValueScore, a.Blockers)
}

// EffectiveValueScore caps value by each blocker's ScoreCap.
func EffectiveValueScore(value float64, blockers []Blocker) float64 {
	effective := value
	for _, b := range blockers {
		effective = math.Min(effective, b.ScoreCap())
	}
	return effective
}
