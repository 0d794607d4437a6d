// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/assess"
	"github.com/pdiddy/research-radar/internal/checkpoint"
	"github.com/pdiddy/research-radar/internal/monitoring"
	"github.com/pdiddy/research-radar/internal/output"
	"github.com/pdiddy/research-radar/internal/pipeline"
	"github.com/pdiddy/research-radar/internal/scrape"
	"github.com/pdiddy/research-radar/internal/signals"
	"github.com/pdiddy/research-radar/pkg/types"
)

// newProcessor wires the pipeline from configuration. It fails before any
// network activity when the Anthropic key is missing or no source is
// enabled. seen is nil for batch runs.
func newProcessor(c types.Config, seen pipeline.SeenStore, metrics *monitoring.Recorder, log *zap.Logger) (*pipeline.Processor, error) {
	llm, err := assess.NewClaudeClient(c.Evaluator, nil)
	if err != nil {
		if errors.Is(err, assess.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or write .secrets/anthropic-api-key", err)
		}
		return nil, err
	}

	scrapers := scrape.FromConfig(c.Sources, c.HTTP, log)
	if len(scrapers) == 0 {
		return nil, pipeline.ErrNoSources
	}
	names := make([]string, len(scrapers))
	for i, s := range scrapers {
		names[i] = s.Name()
	}
	log.Info("sources enabled", zap.Strings("sources", names))

	return pipeline.NewProcessor(pipeline.Deps{
		Scrapers:  scrapers,
		Extractor: signals.NewExtractor(c.Heuristics),
		Evaluator: assess.NewEvaluator(llm, c.Evaluator, c.Thresholds.Tiers, log),
		Writer:    output.NewWriter(c.Output.FindingsDir),
		Seen:      seen,
		Metrics:   metrics,
		Logger:    log,
	}, c), nil
}

// openStore opens the SQLite checkpoint store in dir, or an in-memory
// store when dir is empty.
func openStore(dir string) (checkpoint.Store, error) {
	if dir == "" {
		return checkpoint.NewMemory(), nil
	}
	store, err := checkpoint.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	return store, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
