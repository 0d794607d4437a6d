// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality filters papers by citation count relative to their age.
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Rejection pairs a filtered-out paper with the reason it failed.
type Rejection struct {
	Paper  types.Paper
	Reason string
}

// Passes decides whether p meets the citation requirements in cfg as of
// now. Rules apply in order and the first match wins.
func Passes(p types.Paper, cfg types.QualityFilterConfig, now time.Time) (bool, string) {
	if !cfg.Enabled {
		return true, "Quality filtering disabled"
	}

	citations, known := p.Citations()
	if !known {
		if uncited(p.Source, cfg.UncitedSources) {
			return true, fmt.Sprintf("%s paper accepted (source does not report citations)", p.Source)
		}
		if cfg.AllowUnknownCitations {
			return true, "Unknown citation count allowed (allow_unknown_citations)"
		}
		return false, "Citation count unavailable"
	}

	if citations < cfg.MinCitationsAbsolute {
		return false, fmt.Sprintf("Below absolute minimum (%d < %d)", citations, cfg.MinCitationsAbsolute)
	}

	age := AgeYears(p.Published, now)
	required := RequiredCitations(age, cfg.Thresholds)
	if citations < required {
		return false, fmt.Sprintf("Below age-adjusted threshold (%d < %d for %.1fyr paper)", citations, required, age)
	}
	return true, fmt.Sprintf("Passes citation threshold (%d >= %d for %.1fyr paper)", citations, required, age)
}

// AgeYears is the whole days between published and now divided by 365.25.
func AgeYears(published, now time.Time) float64 {
	days := int(now.Sub(published).Hours() / 24)
	return float64(days) / 365.25
}

// RequiredCitations maps a paper age in years to its citation band.
func RequiredCitations(age float64, t types.CitationThresholds) int {
	switch {
	case age < 1:
		return t.UnderOneYear
	case age < 2:
		return t.OneToTwoYears
	case age < 5:
		return t.TwoToFiveYears
	default:
		return t.OverFiveYears
	}
}

func uncited(source string, sources []string) bool {
	for _, s := range sources {
		if strings.EqualFold(s, source) {
			return true
		}
	}
	return false
}

// FilterPapers partitions papers into those that pass and those rejected,
// preserving input order within each partition.
func FilterPapers(papers []types.Paper, cfg types.QualityFilterConfig, now time.Time) ([]types.Paper, []Rejection) {
	var passed []types.Paper
	var rejected []Rejection
	for _, p := range papers {
		ok, reason := Passes(p, cfg, now)
		if ok {
			passed = append(passed, p)
			continue
		}
		rejected = append(rejected, Rejection{Paper: p, Reason: reason})
	}
	return passed, rejected
}

// ReasonType is the part of a reason before its first parenthesis.
func ReasonType(reason string) string {
	if i := strings.Index(reason, "("); i >= 0 {
		reason = reason[:i]
	}
	return strings.TrimSpace(reason)
}

// ReasonCount is one row of a rejection histogram.
type ReasonCount struct {
	Reason string
	Count  int
}

// ReasonHistogram counts rejections by ReasonType, most frequent first and
// alphabetical among ties.
func ReasonHistogram(rejected []Rejection) []ReasonCount {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[ReasonType(r.Reason)]++
	}
	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
