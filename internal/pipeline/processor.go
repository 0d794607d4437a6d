// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives papers from the scrapers through quality
// filtering, signal extraction, evaluation, and finding output. Processor
// runs one pass; Monitor repeats passes on a schedule from a persisted
// checkpoint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/monitoring"
	"github.com/pdiddy/research-radar/internal/quality"
	"github.com/pdiddy/research-radar/internal/scrape"
	"github.com/pdiddy/research-radar/pkg/types"
)

// ErrNoSources is returned when a run has no enabled scraper.
var ErrNoSources = errors.New("no paper sources enabled")

// SignalExtractor scores a paper's heuristic signals.
type SignalExtractor interface {
	Extract(p types.Paper) types.Signals
}

// Evaluator produces an assessment or nil when evaluation fails.
type Evaluator interface {
	Evaluate(ctx context.Context, p types.Paper, signals types.Signals) *types.Assessment
}

// FindingWriter persists an assessment and returns the report path.
type FindingWriter interface {
	WriteFinding(a *types.Assessment) (string, error)
}

// SeenStore remembers papers that earlier monitor polls processed.
type SeenStore interface {
	Seen(ctx context.Context, ids []string) (map[string]bool, error)
	MarkSeen(ctx context.Context, papers []types.Paper) error
}

// Deps are the collaborators a Processor drives. Seen is optional; without
// it RunSince reprocesses papers dated on the checkpoint's day.
type Deps struct {
	Scrapers  []scrape.Scraper
	Extractor SignalExtractor
	Evaluator Evaluator
	Writer    FindingWriter
	Seen      SeenStore
	Metrics   *monitoring.Recorder
	Logger    *zap.Logger
}

// Processor runs the paper pipeline. Papers are processed one at a time,
// each to completion before the next.
type Processor struct {
	scrapers   []scrape.Scraper
	extractor  SignalExtractor
	evaluator  Evaluator
	writer     FindingWriter
	seen       SeenStore
	metrics    *monitoring.Recorder
	logger     *zap.Logger
	filter     types.QualityFilterConfig
	thresholds types.ThresholdsConfig
	now        func() time.Time
}

// NewProcessor wires a processor from deps and the filter and threshold
// settings in cfg.
func NewProcessor(deps Deps, cfg types.Config) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		scrapers:   deps.Scrapers,
		extractor:  deps.Extractor,
		evaluator:  deps.Evaluator,
		writer:     deps.Writer,
		seen:       deps.Seen,
		metrics:    deps.Metrics,
		logger:     logger,
		filter:     cfg.QualityFilter,
		thresholds: cfg.Thresholds,
		now:        time.Now,
	}
}

// RunBatch fetches papers published within lookbackDays from every source
// and processes them. Source failures reduce yield but never fail the run.
func (p *Processor) RunBatch(ctx context.Context, lookbackDays int) (Summary, error) {
	p.logger.Info("starting batch run", zap.Int("lookback_days", lookbackDays))
	return p.run(ctx, ModeBatch, func(ctx context.Context, s scrape.Scraper) ([]types.Paper, error) {
		return s.FetchRecent(ctx, lookbackDays)
	}, nil)
}

// RunSince fetches papers published since the checkpoint from every source
// and processes them. Timestamped papers must be after since; date-only and
// year-only papers must not be dated before since's day or year. Papers
// the seen store already holds are skipped, and processed papers are
// added to it when the pass completes.
func (p *Processor) RunSince(ctx context.Context, since time.Time) (Summary, error) {
	p.logger.Info("checking for new papers", zap.Time("since", since))
	return p.run(ctx, ModeMonitor, func(ctx context.Context, s scrape.Scraper) ([]types.Paper, error) {
		papers, err := s.FetchSince(ctx, since)
		return newSince(papers, since), err
	}, p.seen)
}

type fetchFunc func(ctx context.Context, s scrape.Scraper) ([]types.Paper, error)

func (p *Processor) run(ctx context.Context, mode string, fetch fetchFunc, seen SeenStore) (Summary, error) {
	sum := newSummary(mode, p.now())
	if len(p.scrapers) == 0 {
		return sum, ErrNoSources
	}

	papers := p.gather(ctx, &sum, fetch)
	if err := ctx.Err(); err != nil {
		sum.FinishedAt = p.now()
		return sum, err
	}

	if seen != nil {
		fresh, err := p.dropSeen(ctx, seen, papers, &sum)
		if err != nil {
			sum.FinishedAt = p.now()
			return sum, err
		}
		papers = fresh
	}

	err := p.process(ctx, papers, &sum)
	sum.FinishedAt = p.now()
	if err == nil && seen != nil {
		if merr := seen.MarkSeen(ctx, Deduplicate(papers)); merr != nil {
			p.logger.Warn("marking papers seen failed", zap.Error(merr))
		}
	}
	return sum, err
}

// dropSeen removes papers an earlier poll processed.
func (p *Processor) dropSeen(ctx context.Context, seen SeenStore, papers []types.Paper, sum *Summary) ([]types.Paper, error) {
	if len(papers) == 0 {
		return papers, nil
	}
	ids := make([]string, len(papers))
	for i, paper := range papers {
		ids[i] = paper.ID
	}
	known, err := seen.Seen(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("checking seen papers: %w", err)
	}

	fresh := papers[:0:0]
	for _, paper := range papers {
		if known[paper.ID] {
			sum.AlreadySeen++
			continue
		}
		fresh = append(fresh, paper)
	}
	if sum.AlreadySeen > 0 {
		p.logger.Info("skipped papers seen in earlier polls", zap.Int("count", sum.AlreadySeen))
	}
	return fresh, nil
}

// gather calls fetch on every scraper. A failing scraper contributes zero
// papers and is counted.
func (p *Processor) gather(ctx context.Context, sum *Summary, fetch fetchFunc) []types.Paper {
	var all []types.Paper
	for _, s := range p.scrapers {
		if ctx.Err() != nil {
			break
		}
		name := s.Name()
		papers, err := fetch(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Warn("source fetch failed", zap.String("source", name), zap.Error(err))
			sum.ScraperErrors[name] = err.Error()
			p.metrics.ScraperError(name)
		}
		if len(papers) > 0 {
			p.logger.Info("fetched papers", zap.String("source", name), zap.Int("count", len(papers)))
		}
		sum.Fetched += len(papers)
		sum.observePublished(papers)
		p.metrics.PapersFetched(name, len(papers))
		all = append(all, papers...)
	}
	return all
}

// Process runs already-fetched papers through the pipeline.
func (p *Processor) Process(ctx context.Context, papers []types.Paper) (Summary, error) {
	sum := newSummary(ModeBatch, p.now())
	sum.Fetched = len(papers)
	sum.observePublished(papers)
	err := p.process(ctx, papers, &sum)
	sum.FinishedAt = p.now()
	return sum, err
}

func (p *Processor) process(ctx context.Context, papers []types.Paper, sum *Summary) error {
	unique := Deduplicate(papers)
	sum.Unique = len(unique)

	passed, rejected := quality.FilterPapers(unique, p.filter, p.now())
	sum.Passed = len(passed)
	sum.Rejected = len(rejected)
	sum.RejectReasons = quality.ReasonHistogram(rejected)
	for _, r := range rejected {
		p.metrics.PaperRejected(quality.ReasonType(r.Reason))
		p.logger.Debug("paper rejected",
			zap.String("paper_id", r.Paper.ID),
			zap.String("reason", r.Reason),
		)
	}
	p.logger.Info("quality filter applied",
		zap.Int("unique", sum.Unique),
		zap.Int("passed", sum.Passed),
		zap.Int("rejected", sum.Rejected),
	)

	for i, paper := range passed {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.Debug("processing paper",
			zap.Int("index", i+1),
			zap.Int("total", len(passed)),
			zap.String("paper_id", paper.ID),
		)
		p.processOne(ctx, paper, sum)
	}
	return nil
}

func (p *Processor) processOne(ctx context.Context, paper types.Paper, sum *Summary) {
	signals := p.extractor.Extract(paper)
	if strongest := signals.Max(); strongest < p.thresholds.MinSignal {
		sum.WeakSignals++
		p.logger.Debug("skipping paper with weak signals",
			zap.String("paper_id", paper.ID),
			zap.Float64("max_signal", strongest),
		)
		return
	}

	a := p.evaluator.Evaluate(ctx, paper, signals)
	if a == nil {
		sum.EvaluationFailures++
		p.metrics.Evaluation(monitoring.OutcomeFailed)
		p.logger.Warn("evaluation failed", zap.String("paper_id", paper.ID))
		return
	}
	sum.Evaluated++
	p.metrics.Evaluation(monitoring.OutcomeAssessed)

	effective := a.EffectiveValueScore()
	if effective < p.thresholds.ValueScoreMinimum {
		sum.BelowThreshold++
		p.logger.Debug("below value threshold",
			zap.String("paper_id", paper.ID),
			zap.Float64("effective_value_score", effective),
			zap.Float64("minimum", p.thresholds.ValueScoreMinimum),
		)
		return
	}

	path, err := p.writer.WriteFinding(a)
	if err != nil {
		sum.WriteFailures++
		p.logger.Warn("writing finding failed",
			zap.String("paper_id", paper.ID),
			zap.String("assessment_id", a.ID),
			zap.Error(err),
		)
		return
	}
	sum.Findings[a.Tier]++
	sum.FindingPaths = append(sum.FindingPaths, path)
	p.metrics.Finding(a.Tier)
	p.logger.Info("finding written",
		zap.String("tier", a.Tier),
		zap.String("data_type", a.DataTypeName),
		zap.Float64("value_score", a.ValueScore),
		zap.Float64("effective_value_score", effective),
		zap.Float64("confidence", a.ConfidenceScore),
		zap.String("path", path),
	)
}

// Deduplicate keeps the first paper for each ID, preserving order.
func Deduplicate(papers []types.Paper) []types.Paper {
	seen := make(map[string]struct{}, len(papers))
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func newSince(papers []types.Paper, since time.Time) []types.Paper {
	out := papers[:0:0]
	for _, p := range papers {
		if publishedSince(p.Published, since) {
			out = append(out, p)
		}
	}
	return out
}

// publishedSince reports whether a paper published at t is new relative to
// since. Sources that only know the day stamp midnight UTC, and year-only
// records stamp January 1, so those compare at day or year granularity.
func publishedSince(t, since time.Time) bool {
	t, since = t.UTC(), since.UTC()
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t.After(since)
	}
	if t.YearDay() == 1 {
		return t.Year() >= since.Year()
	}
	return !t.Before(time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC))
}

