// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import "github.com/pdiddy/research-radar/pkg/types"

// DefaultTiers are the standard tier lower bounds.
var DefaultTiers = types.TierThresholds{S: 9.0, A: 7.5, B: 6.0, C: 4.0}

// Tier grades a score on the five-tier ladder S, A, B, C, D.
func Tier(score float64, t types.TierThresholds) string {
	switch {
	case score >= t.S:
		return "S"
	case score >= t.A:
		return "A"
	case score >= t.B:
		return "B"
	case score >= t.C:
		return "C"
	default:
		return "D"
	}
}

// BlockerAwareTier grades an effective value score on the three-tier ladder
// A, B, C used when blocker caps apply.
func BlockerAwareTier(effective float64, t types.TierThresholds) string {
	switch {
	case effective >= t.A:
		return "A"
	case effective >= t.B:
		return "B"
	default:
		return "C"
	}
}

// AssignTier picks the ladder that belongs to mode.
func AssignTier(mode types.ScoringMode, effective float64, t types.TierThresholds) string {
	if mode == types.ScoringSingle {
		return Tier(effective, t)
	}
	return BlockerAwareTier(effective, t)
}
