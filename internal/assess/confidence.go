// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	baseConfidence             = 10.0
	missingDimensionsIndicator = "no_enhanced_dimensions"
	missingDimensionsPenalty   = 1.0
	missingDimensionsNote      = "No enhanced quality dimensions in evaluation"
)

// uncertaintyIndicator is one class of weak-evidence phrasing. A class
// deducts its penalty at most once per evaluation.
type uncertaintyIndicator struct {
	name     string
	penalty  float64
	patterns []*regexp.Regexp
}

func indicator(name string, penalty float64, patterns ...string) uncertaintyIndicator {
	return uncertaintyIndicator{name: name, penalty: penalty, patterns: compileFolded(patterns)}
}

// compileFolded compiles case-insensitive patterns, keeping their source
// order.
func compileFolded(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

var uncertaintyIndicators = []uncertaintyIndicator{
	indicator("missing_market_validation", 2.0,
		`no market validation`, `market unclear`, `demand unproven`, `market.*not.*validated`),
	indicator("vague_business_opportunity", 1.5,
		`high demand across industries`, `various use cases`, `potential applications`,
		`could be useful`, `might be valuable`, `possibly beneficial`),
	indicator("severe_concerns_understated", 2.5,
		`however.*significant`, `but.*critical`, `although.*major`, `despite.*serious`),
	indicator("synthetic_data_only", 1.5,
		`synthetic data`, `simulated results`, `benchmark only`, `artificial.*data`),
	indicator("no_customer_validation", 2.0,
		`no customer feedback`, `not tested with users`, `hypothetical customers`, `assumed.*customers?`),
	indicator("unclear_pricing", 1.0,
		`pricing uncertain`, `monetization unclear`, `revenue model undefined`, `pricing.*not.*clear`),
	indicator("limited_evidence", 1.5,
		`limited evidence`, `unclear evidence`, `evidence.*lacking`, `insufficient.*data`),
	indicator("unclear_target_customers", 1.5,
		`target.*unclear`, `customers?.*unspecified`, `audience.*undefined`),
	indicator("hypothetical_use_cases", 2.0,
		`potential.*use`, `could.*apply`, `might.*serve`, `theoretical.*application`),
	indicator("unproven_scalability", 1.0,
		`scalability unproven`, `not tested at scale`, `small pilot`, `scale.*unverified`),
}

// EvaluationFields is the subset of a parsed evaluation the confidence
// calculator reads.
type EvaluationFields struct {
	BusinessContext string
	Concerns        string
	MarketGap       string
	TargetCustomers string

	// HasEnhancedDimensions reports whether the evaluation scored any of
	// the secondary quality dimensions.
	HasEnhancedDimensions bool
}

// CalculateConfidence starts from 10 and deducts one penalty per matching
// uncertainty class. Sources are returned in deduction order.
func CalculateConfidence(f EvaluationFields) (float64, []types.UncertaintySource) {
	var sources []types.UncertaintySource
	penalty := 0.0

	if !f.HasEnhancedDimensions {
		sources = append(sources, types.UncertaintySource{
			Indicator:   missingDimensionsIndicator,
			Description: missingDimensionsNote,
			Penalty:     missingDimensionsPenalty,
		})
		penalty += missingDimensionsPenalty
	}

	text := strings.Join([]string{f.BusinessContext, f.Concerns, f.MarketGap, f.TargetCustomers}, " ")
	for _, ind := range uncertaintyIndicators {
		if !matchesAny(ind.patterns, text) {
			continue
		}
		sources = append(sources, types.UncertaintySource{
			Indicator:   ind.name,
			Description: describeMatch(text, ind.patterns),
			Penalty:     ind.penalty,
		})
		penalty += ind.penalty
	}

	return math.Max(0, math.Min(baseConfidence, baseConfidence-penalty)), sources
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// describeMatch returns the first '.'-separated sentence matched by any
// pattern, trying patterns in order. When every match spans sentences it
// falls back to the class's first pattern, cleaned.
func describeMatch(text string, patterns []*regexp.Regexp) string {
	sentences := strings.Split(text, ".")
	for _, re := range patterns {
		for _, sentence := range sentences {
			if re.MatchString(sentence) {
				return strings.TrimSpace(sentence)
			}
		}
	}
	return cleanPattern(patterns[0].String())
}

var patternNoise = strings.NewReplacer(
	"(?i)", "",
	`\s+`, " ",
	`\s`, " ",
	".*", " ",
	`\`, "",
	"?", "",
	"(", "",
	")", "",
)

// cleanPattern turns a regular expression into readable text.
func cleanPattern(p string) string {
	return strings.Join(strings.Fields(patternNoise.Replace(p)), " ")
}
