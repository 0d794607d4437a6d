// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/research-radar/pkg/types"
)

// --- fake model ---

type fakeLLM struct {
	reply   string
	err     error
	panics  bool
	calls   int
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.panics {
		panic("model exploded")
	}
	return f.reply, f.err
}

var fixedNow = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

func newTestEvaluator(llm LLM, mode types.ScoringMode, logger *zap.Logger) *Evaluator {
	e := NewEvaluator(llm, types.EvaluatorConfig{Mode: mode}, DefaultTiers, logger)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestEvaluateEndToEnd(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + `{
		"data_type_name": "Clinical QA pairs",
		"business_context": "Hospitals need evaluation data.",
		"value_score": 9.0,
		"target_customers": "Hospital AI teams",
		"market_gap": "Few curated clinical QA sets",
		"concerns": "Results rely on synthetic data only. There is no customer feedback yet.",
		"blockers": [],
		"data_efficiency": 7,
		"source_quality": 6,
		"generalizability": 5
	}` + "\n```"}
	e := newTestEvaluator(llm, types.ScoringDual, nil)

	p := samplePaper()
	p.Abstract = "Results rely on synthetic data only and there is no customer feedback."
	signals := signalsWith(map[types.Category]float64{types.CategoryScarcity: 6})

	a := e.Evaluate(context.Background(), p, signals)
	require.NotNil(t, a)
	assert.Equal(t, 1, llm.calls)

	assert.InDelta(t, 9.0, a.ValueScore, 1e-9)
	require.Len(t, a.Blockers, 1)
	assert.Equal(t, types.BlockerTechnical, a.Blockers[0].Category)
	assert.Equal(t, types.SeverityHigh, a.Blockers[0].Severity)
	assert.InDelta(t, 6.0, a.EffectiveValueScore(), 1e-9)
	assert.InDelta(t, 6.5, a.ConfidenceScore, 1e-9)

	require.Len(t, a.UncertaintySources, 2)
	assert.InDelta(t, 1.5, a.UncertaintySources[0].Penalty, 1e-9)
	assert.InDelta(t, 2.0, a.UncertaintySources[1].Penalty, 1e-9)

	assert.Equal(t, "B", a.Tier)
	assert.Equal(t, types.ScoringDual, a.Mode)
	assert.Equal(t, "Clinical QA pairs", a.DataTypeName)
	assert.Equal(t, p, a.Paper)
	assert.Equal(t, fixedNow, a.DetectedAt)
	assert.InDelta(t, 6.0, a.SignalScores[types.CategoryScarcity], 1e-9)
	assert.True(t, strings.HasPrefix(a.ID, "rdla_20261019_123000_"), a.ID)
}

func TestEvaluateDualScores(t *testing.T) {
	llm := &fakeLLM{reply: `{
		"technical_contribution_score": 6,
		"commercial_viability_score": 9,
		"value_score": 1,
		"blockers": [{"category": "market", "severity": "medium", "description": "Narrow buyer base"}],
		"concerns": "Scraping is illegal.",
		"source_quality": 8
	}`}
	a := newTestEvaluator(llm, types.ScoringDual, nil).Evaluate(context.Background(), samplePaper(), types.Signals{})
	require.NotNil(t, a)

	assert.InDelta(t, 0.3*6+0.7*9, a.ValueScore, 1e-9)
	assert.InDelta(t, 6.0, a.TechnicalContributionScore, 1e-9)
	assert.InDelta(t, 9.0, a.CommercialViabilityScore, 1e-9)

	// Structured blockers win over concerns text.
	require.Len(t, a.Blockers, 1)
	assert.Equal(t, types.BlockerMarket, a.Blockers[0].Category)
	assert.InDelta(t, 7.5, a.EffectiveValueScore(), 1e-9)
	assert.Equal(t, "A", a.Tier)
	assert.InDelta(t, 10.0, a.ConfidenceScore, 1e-9)
}

func TestEvaluateSingleMode(t *testing.T) {
	llm := &fakeLLM{reply: `{"value_score": 9.2, "concerns": "Results rely on synthetic data only.", "generalizability": 4}`}
	a := newTestEvaluator(llm, types.ScoringSingle, nil).Evaluate(context.Background(), samplePaper(), types.Signals{})
	require.NotNil(t, a)

	assert.Empty(t, a.Blockers)
	assert.InDelta(t, 9.2, a.EffectiveValueScore(), 1e-9)
	assert.Equal(t, a.ValueScore, a.CommercialViabilityScore)
	assert.Equal(t, "S", a.Tier)
}

func TestEvaluateMissingFieldsDefault(t *testing.T) {
	llm := &fakeLLM{reply: `Sure! {"data_type_name": "Sparse"}`}
	a := newTestEvaluator(llm, types.ScoringDual, nil).Evaluate(context.Background(), samplePaper(), types.Signals{})
	require.NotNil(t, a)
	assert.Zero(t, a.ValueScore)
	assert.Equal(t, "C", a.Tier)
	assert.InDelta(t, 9.0, a.ConfidenceScore, 1e-9)
	require.Len(t, a.UncertaintySources, 1)
	assert.Equal(t, "no_enhanced_dimensions", a.UncertaintySources[0].Indicator)
}

func TestEvaluateFailuresReturnNil(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
		log  string
	}{
		{"transport error", &fakeLLM{err: errors.New("connection reset")}, "evaluation failed"},
		{"no json", &fakeLLM{reply: "I am unable to help with that."}, "evaluation failed"},
		{"malformed json", &fakeLLM{reply: `{"value_score": 9,}`}, "evaluation failed"},
		{"panic", &fakeLLM{panics: true}, "evaluation panicked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			e := newTestEvaluator(tt.llm, types.ScoringDual, zap.New(core))

			a := e.Evaluate(context.Background(), samplePaper(), types.Signals{})
			assert.Nil(t, a)
			assert.Equal(t, 1, tt.llm.calls, "no retries")
			require.Equal(t, 1, logs.FilterMessage(tt.log).Len())
			assert.Equal(t, "arxiv_2601.00001", logs.FilterMessage(tt.log).All()[0].ContextMap()["paper_id"])
		})
	}
}

func TestEvaluatePromptCarriesSignals(t *testing.T) {
	llm := &fakeLLM{reply: `{}`}
	signals := signalsWith(map[types.Category]float64{types.CategoryCommercial: 7})
	newTestEvaluator(llm, types.ScoringDual, nil).Evaluate(context.Background(), samplePaper(), signals)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "- Commercial: 7.0/10")
}

func TestAssessmentID(t *testing.T) {
	a := assessmentID(fixedNow)
	b := assessmentID(fixedNow)
	assert.True(t, strings.HasPrefix(a, "rdla_20261019_123000_"))
	assert.Len(t, a, len("rdla_20261019_123000_")+8)
	assert.NotEqual(t, a, b)
}

// signalsWith fills every category, using scores for the given ones.
func signalsWith(scores map[types.Category]float64) types.Signals {
	out := make(types.Signals, len(types.Categories))
	for _, c := range types.Categories {
		out[c] = types.SignalResult{Score: scores[c], Detected: []string{}}
	}
	return out
}
