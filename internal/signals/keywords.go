// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package signals

// Keyword group names. Heuristics files override groups by these names.
const (
	GroupScarcity          = "scarcity"
	GroupSynthetic         = "synthetic"
	GroupCollectionCost    = "collection_cost"
	GroupPrivacy           = "privacy"
	GroupNovelty           = "novelty"
	GroupQuality           = "quality"
	GroupScale             = "scale"
	GroupIndustry          = "industry"
	GroupDataEfficiency    = "data_efficiency"
	GroupPerformanceImpact = "performance_impact"
	GroupQualityIndicators = "quality_indicators"
	GroupScalingPotential  = "scaling_potential"
)

// DefaultKeywords returns the built-in keyword groups. Entries are matched
// against lower-cased text, so they must be lower case.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		GroupScarcity: {
			"data scarcity", "scarce data", "limited data", "lack of data",
			"lack of labeled data", "few labeled", "low-resource", "data-scarce",
			"no public dataset", "not publicly available",
		},
		GroupSynthetic: {
			"synthetic data", "synthetic dataset", "data augmentation",
			"simulated data", "generated data", "simulation",
		},
		GroupCollectionCost: {
			"expensive to collect", "costly annotation", "annotation cost",
			"labor-intensive", "time-consuming", "manual annotation",
			"expensive annotation", "costly to obtain",
		},
		GroupPrivacy: {
			"privacy", "sensitive data", "confidential", "patient data",
			"personal data", "de-identified", "anonymized",
		},
		GroupNovelty: {
			"novel", "first", "new task", "new benchmark", "unexplored",
			"introduce a new", "pioneering",
		},
		GroupQuality: {
			"high-quality", "high quality", "curated", "expert-annotated",
			"gold standard", "manually verified", "clean labels",
			"annotated by experts",
		},
		GroupScale: {
			"large-scale", "web-scale", "billion", "million", "massive",
			"scaling law",
		},
		GroupIndustry: {
			"healthcare", "medical", "finance", "financial", "legal",
			"manufacturing", "retail", "automotive", "insurance",
			"agriculture", "e-commerce", "industrial",
		},
		GroupDataEfficiency: {
			"data-efficient", "data efficiency", "few-shot", "sample efficiency",
			"sample-efficient", "fewer examples", "less data", "small data",
			"zero-shot",
		},
		GroupPerformanceImpact: {
			"improves", "outperforms", "significant improvement", "boosts",
			"surpasses", "gains", "accuracy",
		},
		GroupQualityIndicators: {
			"carefully curated", "expert-annotated", "inter-annotator",
			"inter-rater", "quality control", "validated by", "human evaluation",
			"verified",
		},
		GroupScalingPotential: {
			"generalizes", "scalable", "transferable", "domain adaptation",
			"extensible", "broadly applicable", "cross-domain",
		},
	}
}
