// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assess turns a paper and its heuristic signals into an opportunity
// assessment. The evaluator asks a language model for a structured commercial
// judgement, then applies deterministic rules on top of it: blocker
// detection, confidence scoring, blocker caps, and tiering.
package assess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

// DefaultAbstractLimit bounds the abstract length embedded in prompts.
const DefaultAbstractLimit = 1000

// LLM sends one prompt and returns the model's text reply.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Evaluator assembles assessments. It holds no per-paper state and may be
// shared across goroutines when its LLM can.
type Evaluator struct {
	llm    LLM
	cfg    types.EvaluatorConfig
	tiers  types.TierThresholds
	logger *zap.Logger

	now   func() time.Time
	newID func(time.Time) string
}

// NewEvaluator returns an evaluator that calls llm once per paper.
func NewEvaluator(llm LLM, cfg types.EvaluatorConfig, tiers types.TierThresholds, logger *zap.Logger) *Evaluator {
	if cfg.Mode == "" {
		cfg.Mode = types.ScoringDual
	}
	if cfg.AbstractLimit <= 0 {
		cfg.AbstractLimit = DefaultAbstractLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		llm:    llm,
		cfg:    cfg,
		tiers:  tiers,
		logger: logger,
		now:    time.Now,
		newID:  assessmentID,
	}
}

// assessmentID is "rdla_" + UTC timestamp + a short random suffix.
func assessmentID(t time.Time) string {
	return fmt.Sprintf("rdla_%s_%s", t.UTC().Format("20060102_150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Evaluate returns the assessment for p, or nil when the model call fails,
// its reply holds no JSON object, or anything else goes wrong. Failures are
// logged, never returned or retried.
func (e *Evaluator) Evaluate(ctx context.Context, p types.Paper, signals types.Signals) (a *types.Assessment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("evaluation panicked", zap.String("paper_id", p.ID), zap.Any("panic", r))
			a = nil
		}
	}()

	out, err := e.evaluate(ctx, p, signals)
	if err != nil {
		e.logger.Warn("evaluation failed", zap.String("paper_id", p.ID), zap.Error(err))
		return nil
	}
	return out
}

func (e *Evaluator) evaluate(ctx context.Context, p types.Paper, signals types.Signals) (*types.Assessment, error) {
	prompt, err := renderPrompt(p, signals, e.cfg.AbstractLimit)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ev, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	return e.assemble(p, signals, ev), nil
}

// assemble builds the immutable assessment. Tier is fixed here from the
// effective value score.
func (e *Evaluator) assemble(p types.Paper, signals types.Signals, ev evaluation) *types.Assessment {
	value, technical, commercial := ev.scores()

	var blockers []types.Blocker
	if e.cfg.Mode != types.ScoringSingle {
		blockers = BlockersFromStructured(ev.Blockers)
		if len(blockers) == 0 && ev.Concerns != "" {
			blockers = BlockersFromText(string(ev.Concerns))
		}
	}

	confidence, uncertainty := CalculateConfidence(EvaluationFields{
		BusinessContext:       ev.rationale(),
		Concerns:              string(ev.Concerns),
		MarketGap:             string(ev.MarketGap),
		TargetCustomers:       string(ev.TargetCustomers),
		HasEnhancedDimensions: ev.hasEnhancedDimensions(),
	})

	now := e.now()
	effective := types.EffectiveValueScore(value, blockers)
	e.logger.Debug("assessment scored",
		zap.String("paper_id", p.ID),
		zap.Float64("value_score", value),
		zap.Float64("effective_value_score", effective),
		zap.Float64("confidence", confidence),
		zap.Int("blockers", len(blockers)),
	)

	return &types.Assessment{
		ID:                         e.newID(now),
		Paper:                      p,
		DataTypeName:               string(ev.DataTypeName),
		BusinessContext:            ev.rationale(),
		ValueScore:                 value,
		ConfidenceScore:            confidence,
		Tier:                       AssignTier(e.cfg.Mode, effective, e.tiers),
		Mode:                       e.cfg.Mode,
		SignalScores:               signals.Scores(),
		DetectedAt:                 now,
		TargetCustomers:            string(ev.TargetCustomers),
		MarketGap:                  string(ev.MarketGap),
		Concerns:                   string(ev.Concerns),
		DataEfficiency:             ev.DataEfficiency.value(),
		SourceQuality:              ev.SourceQuality.value(),
		Generalizability:           ev.Generalizability.value(),
		DatasetDescription:         string(ev.DatasetDescription),
		CollectionMethod:           string(ev.CollectionMethod),
		ReplicationFeasibility:     string(ev.ReplicationFeasibility),
		TechnicalContributionScore: technical,
		CommercialViabilityScore:   commercial,
		Blockers:                   blockers,
		UncertaintySources:         uncertainty,
	}
}
