// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package signals scores papers against keyword and pattern heuristics. Each
// of the fixed categories yields a score in [0, 10] with the marker tags that
// produced it. Extraction is a pure function of the paper's title, abstract,
// citation count, and venue.
package signals

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	phraseWindow     = 30
	phrasesPerScan   = 3
	phrasesPerSignal = 3
)

// keywordRule scores the number of distinct keywords of a group present in
// the text: min(cap, count × weight). Any hit adds tag.
type keywordRule struct {
	group  string
	weight float64
	cap    float64
	tag    string
}

// markerRule adds bonus once when any term appears. With perTerm set, the
// tag is suffixed with the first matching term.
type markerRule struct {
	terms   []string
	bonus   float64
	tag     string
	perTerm bool
}

// patternRule adds bonus once when any pattern matches.
type patternRule struct {
	patterns []*regexp.Regexp
	bonus    float64
	tag      string
}

type categoryRules struct {
	keywords []keywordRule
	markers  []markerRule
	patterns []patternRule

	// perKeyword scores each distinct keyword of the group individually
	// and collects sample phrases around it.
	perKeyword       string
	perKeywordWeight float64
	perKeywordTag    string
}

func mustCompileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

var rules = map[types.Category]categoryRules{
	types.CategoryDemand: {
		keywords: []keywordRule{
			{group: GroupScarcity, weight: 2.5, cap: 8, tag: "scarcity_complaint"},
			{group: GroupSynthetic, weight: 2.0, cap: 6, tag: "synthetic_workaround"},
		},
	},
	types.CategoryScarcity: {
		keywords: []keywordRule{
			{group: GroupCollectionCost, weight: 3.0, cap: 9, tag: "collection_cost"},
			{group: GroupPrivacy, weight: 3.5, cap: 9, tag: "privacy_restriction"},
		},
		patterns: []patternRule{{
			patterns: mustCompileAll(
				`only \d+[km]? samples`,
				`limited to \d+[km]? examples`,
				`small dataset`,
				`insufficient.*data`,
			),
			bonus: 3,
			tag:   "size_limitation",
		}},
	},
	types.CategoryNovelty: {
		keywords: []keywordRule{{group: GroupNovelty, weight: 2.0, cap: 7, tag: "novelty_markers"}},
		markers: []markerRule{
			{terms: []string{"multimodal", "multi-modal", "cross-modal"}, bonus: 4, tag: "multimodal"},
			{
				terms: []string{
					"climate", "pandemic", "drug discovery", "autonomous",
					"precision agriculture", "renewable energy", "carbon capture",
				},
				bonus:   3,
				tag:     "emerging",
				perTerm: true,
			},
		},
	},
	types.CategoryQuality: {
		keywords: []keywordRule{{group: GroupQuality, weight: 2.5, cap: 8, tag: "quality_emphasis"}},
		markers: []markerRule{
			{terms: []string{"expert", "specialist", "clinician", "radiologist"}, bonus: 4, tag: "expert_involvement"},
			{terms: []string{"annotation protocol", "quality control", "curation process", "selection criteria"}, bonus: 3, tag: "methodology_emphasis"},
			{terms: []string{"quality over quantity", "carefully curated", "strategic selection"}, bonus: 4, tag: "explicit_quality_focus"},
		},
	},
	types.CategoryDataEfficiency: {
		keywords: []keywordRule{{group: GroupDataEfficiency, weight: 3.0, cap: 9, tag: "efficiency_emphasis"}},
		patterns: []patternRule{{
			patterns: mustCompileAll(
				`(\d+)%\s*(improvement|better|gain)`,
				`only\s+\d+[km]?\s*(samples|examples)`,
				`outperform.*\d+[km]?\s*(samples|examples)`,
				`achieve.*with.*fewer`,
				`despite.*smaller`,
				`fraction of.*data`,
			),
			bonus: 5,
			tag:   "comparative_efficiency",
		}},
	},
	types.CategoryPerformance: {
		keywords: []keywordRule{{group: GroupPerformanceImpact, weight: 2.0, cap: 6, tag: "performance_claims"}},
		patterns: []patternRule{{
			patterns: mustCompileAll(
				`(\d+)%\s*improvement`,
				`(\d+)%\s*better`,
				`(\d+)%\s*gain`,
				`state-of-the-art`,
				`outperform.*baseline`,
			),
			bonus: 5,
			tag:   "quantified_impact",
		}},
	},
	types.CategoryScale: {
		keywords: []keywordRule{{group: GroupScale, weight: 3.0, cap: 9, tag: "scale_opportunity"}},
		markers: []markerRule{
			{terms: []string{"pre-train", "pretrain", "foundation model", "self-supervised"}, bonus: 5, tag: "pretraining_gap"},
		},
	},
	types.CategoryCommercial: {
		keywords: []keywordRule{{group: GroupIndustry, weight: 3.0, cap: 9, tag: "industry_mention"}},
		markers: []markerRule{
			{terms: []string{"fda", "hipaa", "gdpr", "regulatory", "compliance"}, bonus: 4, tag: "regulatory_need"},
		},
	},
	types.CategoryQualityIndicators: {
		perKeyword:       GroupQualityIndicators,
		perKeywordWeight: 2.5,
		perKeywordTag:    "quality_kw",
		patterns: []patternRule{
			{patterns: mustCompileAll(`(kappa|agreement|correlation).*\d+\.\d+`), bonus: 4, tag: "quantified_agreement"},
			{patterns: mustCompileAll(`multi-stage`, `two-stage`, `validation pipeline`), bonus: 3, tag: "multi_stage_validation"},
		},
	},
	types.CategoryScalingPotential: {
		perKeyword:       GroupScalingPotential,
		perKeywordWeight: 2.0,
		perKeywordTag:    "scaling_kw",
		markers: []markerRule{
			{terms: []string{"transfer", "fine-tune", "adapt to", "generalize"}, bonus: 4, tag: "transfer_learning"},
		},
		patterns: []patternRule{
			{patterns: mustCompileAll(`(across|multiple|various)\s+(domains|tasks|datasets)`), bonus: 5, tag: "cross_domain"},
		},
	},
}

var majorVenues = []string{"neurips", "icml", "iclr", "cvpr", "acl", "emnlp"}

// group is a keyword list with its compiled matcher.
type group struct {
	keywords []string
	matcher  *ahocorasick.Matcher
}

// present returns the distinct keywords found in text, in list order.
func (g group) present(text string) []string {
	if g.matcher == nil {
		return nil
	}
	hits := g.matcher.MatchThreadSafe([]byte(text))
	sort.Ints(hits)
	out := make([]string, 0, len(hits))
	for _, i := range hits {
		out = append(out, g.keywords[i])
	}
	return out
}

// Extractor computes heuristic signals. It is safe for concurrent use.
type Extractor struct {
	groups map[string]group
}

// NewExtractor builds an extractor from the configured keyword groups.
// Groups missing from cfg fall back to DefaultKeywords.
func NewExtractor(cfg types.HeuristicsConfig) *Extractor {
	keywords := DefaultKeywords()
	for name, list := range cfg.Keywords {
		keywords[name] = list
	}
	e := &Extractor{groups: make(map[string]group, len(keywords))}
	for name, list := range keywords {
		lowered := make([]string, 0, len(list))
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				lowered = append(lowered, kw)
			}
		}
		g := group{keywords: lowered}
		if len(lowered) > 0 {
			g.matcher = ahocorasick.NewStringMatcher(lowered)
		}
		e.groups[name] = g
	}
	return e
}

// Extract scores every category for p.
func (e *Extractor) Extract(p types.Paper) types.Signals {
	text := strings.ToLower(p.Title + " " + p.Abstract)
	out := make(types.Signals, len(types.Categories))
	for _, c := range types.Categories {
		if c == types.CategoryTrend {
			out[c] = trend(p)
			continue
		}
		out[c] = e.score(rules[c], text)
	}
	return out
}

func (e *Extractor) score(r categoryRules, text string) types.SignalResult {
	var score float64
	detected := []string{}
	var phrases []string

	for _, kr := range r.keywords {
		found := e.groups[kr.group].present(text)
		if len(found) == 0 {
			continue
		}
		score += math.Min(kr.cap, float64(len(found))*kr.weight)
		detected = append(detected, kr.tag)
	}

	if r.perKeyword != "" {
		for _, kw := range e.groups[r.perKeyword].present(text) {
			score += r.perKeywordWeight
			detected = append(detected, r.perKeywordTag+"_"+tagify(kw))
			phrases = append(phrases, samplePhrases(text, kw, phrasesPerScan)...)
		}
	}

	for _, m := range r.markers {
		if term, ok := firstTerm(text, m.terms); ok {
			score += m.bonus
			if m.perTerm {
				detected = append(detected, m.tag+"_"+tagify(term))
			} else {
				detected = append(detected, m.tag)
			}
		}
	}

	for _, pr := range r.patterns {
		for _, re := range pr.patterns {
			if re.MatchString(text) {
				score += pr.bonus
				detected = append(detected, pr.tag)
				break
			}
		}
	}

	if len(phrases) > phrasesPerSignal {
		phrases = phrases[:phrasesPerSignal]
	}
	return types.SignalResult{Score: clamp(score), Detected: detected, SamplePhrases: phrases}
}

func trend(p types.Paper) types.SignalResult {
	var score float64
	detected := []string{}
	if n, ok := p.Citations(); ok {
		switch {
		case n > 50:
			score += 6
			detected = append(detected, "high_citation")
		case n > 20:
			score += 4
			detected = append(detected, "moderate_citation")
		}
	}
	if _, ok := firstTerm(strings.ToLower(p.Venue), majorVenues); ok {
		score += 5
		detected = append(detected, "major_venue")
	}
	return types.SignalResult{Score: clamp(score), Detected: detected}
}

func firstTerm(text string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t, true
		}
	}
	return "", false
}

// samplePhrases returns up to limit windows of ±phraseWindow bytes around
// occurrences of kw, marked with "..." where the window was clipped.
func samplePhrases(text, kw string, limit int) []string {
	var out []string
	offset := 0
	for len(out) < limit {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			break
		}
		at := offset + i
		start := max(0, at-phraseWindow)
		end := min(len(text), at+len(kw)+phraseWindow)
		for start > 0 && !utf8.RuneStart(text[start]) {
			start++
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end--
		}
		phrase := strings.TrimSpace(text[start:end])
		if start > 0 {
			phrase = "..." + phrase
		}
		if end < len(text) {
			phrase += "..."
		}
		out = append(out, phrase)
		offset = at + len(kw)
	}
	return out
}

func tagify(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(types.MaxSignalScore, score))
}
