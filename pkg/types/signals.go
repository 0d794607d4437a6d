// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category names one of the fixed heuristic signal categories.
type Category string

const (
	CategoryDemand            Category = "demand"
	CategoryScarcity          Category = "scarcity"
	CategoryNovelty           Category = "novelty"
	CategoryQuality           Category = "quality"
	CategoryDataEfficiency    Category = "data_efficiency"
	CategoryPerformance       Category = "performance"
	CategoryScale             Category = "scale"
	CategoryCommercial        Category = "commercial"
	CategoryTrend             Category = "trend"
	CategoryQualityIndicators Category = "quality_indicators"
	CategoryScalingPotential  Category = "scaling_potential"
)

// Categories lists every signal category in reporting order.
var Categories = []Category{
	CategoryDemand,
	CategoryScarcity,
	CategoryNovelty,
	CategoryQuality,
	CategoryDataEfficiency,
	CategoryPerformance,
	CategoryScale,
	CategoryCommercial,
	CategoryTrend,
	CategoryQualityIndicators,
	CategoryScalingPotential,
}

// Enhanced reports whether c is one of the two categories that carry
// sample phrases and are reported separately in evaluation prompts.
func (c Category) Enhanced() bool {
	return c == CategoryQualityIndicators || c == CategoryScalingPotential
}

// MaxSignalScore is the upper bound of every signal score.
const MaxSignalScore = 10.0

// SignalResult is the heuristic score for one category.
type SignalResult struct {
	// Score is always within [0, MaxSignalScore].
	Score float64 `json:"score" yaml:"score"`

	// Detected lists the marker tags that contributed to the score,
	// in the order they fired.
	Detected []string `json:"detected" yaml:"detected"`

	// SamplePhrases holds up to three context windows around matched
	// keywords. Only the enhanced categories fill it.
	SamplePhrases []string `json:"sample_phrases,omitempty" yaml:"sample_phrases,omitempty"`
}

// Signals maps every category to its result.
type Signals map[Category]SignalResult

// Max returns the highest score across all categories.
func (s Signals) Max() float64 {
	var best float64
	for _, r := range s {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}

// Scores flattens the signals into category → score.
func (s Signals) Scores() map[Category]float64 {
	out := make(map[Category]float64, len(s))
	for c, r := range s {
		out[c] = r.Score
	}
	return out
}
