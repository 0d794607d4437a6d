// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"regexp"

	"github.com/pdiddy/research-radar/pkg/types"
)

// blockerGroup is the pattern list for one category and severity.
type blockerGroup struct {
	category types.BlockerCategory
	severity types.Severity
	patterns []*regexp.Regexp
}

func blockers(c types.BlockerCategory, s types.Severity, patterns ...string) blockerGroup {
	return blockerGroup{category: c, severity: s, patterns: compileFolded(patterns)}
}

var blockerGroups = []blockerGroup{
	blockers(types.BlockerLegal, types.SeverityHigh,
		`protected attributes?`, `privacy violations?`, `gdpr`, `regulatory approval required`,
		`legal restrictions?`, `violates.*law`, `illegal`),
	blockers(types.BlockerLegal, types.SeverityMedium,
		`licensing concerns?`, `ip unclear`, `intellectual property`, `potential legal issues?`, `patent.*unclear`),
	blockers(types.BlockerLegal, types.SeverityLow,
		`terms of use`, `attribution required`, `open source license`),

	blockers(types.BlockerTechnical, types.SeverityHigh,
		`cannot reproduce`, `no validation data`, `synthetic data only`, `theoretical only`,
		`not reproducible`, `no real.*data`),
	blockers(types.BlockerTechnical, types.SeverityMedium,
		`limited validation`, `needs further testing`, `benchmark only`, `unclear methodology`, `validation.*needed`),
	blockers(types.BlockerTechnical, types.SeverityLow,
		`minor.*issues?`, `some limitations?`, `could be improved`),

	blockers(types.BlockerMarket, types.SeverityHigh,
		`no clear customers?`, `extremely niche`, `no distribution channel`, `market.*unclear`, `no.*buyers?`),
	blockers(types.BlockerMarket, types.SeverityMedium,
		`limited market`, `narrow use case`, `customer access unclear`, `small.*market`),
	blockers(types.BlockerMarket, types.SeverityLow,
		`niche application`, `specialized.*use`),

	blockers(types.BlockerEconomic, types.SeverityHigh,
		`cost prohibitive`, `no viable pricing`, `negative unit economics`, `too expensive`, `economically.*infeasible`),
	blockers(types.BlockerEconomic, types.SeverityMedium,
		`expensive to produce`, `pricing uncertain`, `margin concerns?`, `cost.*high`),
	blockers(types.BlockerEconomic, types.SeverityLow,
		`minor.*cost`, `some.*expense`),
}

// RawBlocker is a blocker as the model reports it, before validation.
type RawBlocker struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// BlockersFromStructured converts model-reported blockers, silently dropping
// entries whose category or severity is missing or unknown.
func BlockersFromStructured(raw []RawBlocker) []types.Blocker {
	var out []types.Blocker
	for _, r := range raw {
		c, ok := types.ParseBlockerCategory(r.Category)
		if !ok {
			continue
		}
		s, ok := types.ParseSeverity(r.Severity)
		if !ok {
			continue
		}
		out = append(out, types.Blocker{Category: c, Severity: s, Description: r.Description})
	}
	return out
}

// BlockersFromText scans free-text concerns and emits at most one blocker per
// category and severity, in category then severity order.
func BlockersFromText(concerns string) []types.Blocker {
	var out []types.Blocker
	for _, g := range blockerGroups {
		re := firstMatch(g.patterns, concerns)
		if re == nil {
			continue
		}
		out = append(out, types.Blocker{
			Category:    g.category,
			Severity:    g.severity,
			Description: describeMatch(concerns, re),
		})
	}
	return out
}
