// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/checkpoint"
	"github.com/pdiddy/research-radar/internal/monitoring"
	"github.com/pdiddy/research-radar/pkg/types"
)

// SinceRunner processes papers published after a checkpoint.
type SinceRunner interface {
	RunSince(ctx context.Context, since time.Time) (Summary, error)
}

// Status is the monitor snapshot served on /status.
type Status struct {
	Checkpoint time.Time `json:"checkpoint"`
	Polls      int       `json:"polls"`
	NextPoll   time.Time `json:"next_poll,omitempty"`
	LastPoll   *Summary  `json:"last_poll,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Monitor polls for new papers on a schedule. The checkpoint only moves
// forward, to the newest publication time seen in a successful poll, and
// is persisted after every advance. Seen papers dated before the
// checkpoint's year are pruned from the store as it advances.
type Monitor struct {
	runner          SinceRunner
	store           checkpoint.Store
	schedule        cron.Schedule
	initialLookback time.Duration
	metrics         *monitoring.Recorder
	logger          *zap.Logger
	out             io.Writer
	now             func() time.Time

	mu         sync.Mutex
	loaded     bool
	checkpoint time.Time
	polls      int
	nextPoll   time.Time
	last       *Summary
	lastErr    string
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithSummaryOutput renders each poll summary as a table on w.
func WithSummaryOutput(w io.Writer) MonitorOption {
	return func(m *Monitor) { m.out = w }
}

// WithMetrics publishes the checkpoint on rec.
func WithMetrics(rec *monitoring.Recorder) MonitorOption {
	return func(m *Monitor) { m.metrics = rec }
}

// WithSchedule replaces the schedule derived from configuration.
func WithSchedule(s cron.Schedule) MonitorOption {
	return func(m *Monitor) { m.schedule = s }
}

// NewMonitor builds a monitor. cfg.Schedule, a standard five-field cron
// expression or descriptor such as "@hourly", takes precedence over
// cfg.PollInterval.
func NewMonitor(runner SinceRunner, store checkpoint.Store, cfg types.MonitorConfig, logger *zap.Logger, opts ...MonitorOption) (*Monitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		runner:          runner,
		store:           store,
		initialLookback: cfg.InitialLookback,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.schedule == nil {
		s, err := parseSchedule(cfg)
		if err != nil {
			return nil, err
		}
		m.schedule = s
	}
	return m, nil
}

func parseSchedule(cfg types.MonitorConfig) (cron.Schedule, error) {
	if cfg.Schedule != "" {
		s, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parsing monitor schedule %q: %w", cfg.Schedule, err)
		}
		return s, nil
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("monitor poll interval must be positive, got %s", cfg.PollInterval)
	}
	return cron.Every(cfg.PollInterval), nil
}

// Run polls immediately and then on every schedule tick until ctx is
// cancelled. Cancellation is a clean stop and returns nil. A poll error is
// logged and the loop continues, except ErrNoSources, which is returned.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.load(ctx); err != nil {
		return err
	}
	m.logger.Info("starting monitor", zap.Time("checkpoint", m.Checkpoint()))

	for {
		if _, err := m.Poll(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
				m.logger.Info("monitor stopped")
				return nil
			case errors.Is(err, ErrNoSources):
				return err
			default:
				m.logger.Error("poll failed", zap.Error(err))
			}
		}

		next := m.schedule.Next(m.now())
		m.mu.Lock()
		m.nextPoll = next
		m.mu.Unlock()
		m.logger.Info("waiting for next poll", zap.Time("next_poll", next))

		timer := time.NewTimer(next.Sub(m.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("monitor stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Poll runs one fetch-and-process pass from the current checkpoint and
// advances the checkpoint when the pass succeeds.
func (m *Monitor) Poll(ctx context.Context) (Summary, error) {
	if err := m.load(ctx); err != nil {
		return Summary{}, err
	}
	since := m.Checkpoint()

	sum, err := m.runner.RunSince(ctx, since)
	m.mu.Lock()
	m.polls++
	m.last = &sum
	m.lastErr = ""
	if err != nil {
		m.lastErr = err.Error()
	}
	m.mu.Unlock()
	if err != nil {
		return sum, err
	}

	if m.out != nil {
		FormatSummary(m.out, sum)
	}
	if _, rerr := m.store.RecordRun(ctx, sum.Run()); rerr != nil {
		m.logger.Warn("recording run failed", zap.Error(rerr))
	}

	if !sum.LatestPublished.After(since) {
		m.logger.Info("no new papers", zap.Time("checkpoint", since))
		return sum, nil
	}
	if err := m.advance(ctx, sum.LatestPublished); err != nil {
		return sum, err
	}
	return sum, nil
}

// advance moves the checkpoint to t when t is later and persists it.
func (m *Monitor) advance(ctx context.Context, t time.Time) error {
	m.mu.Lock()
	if !t.After(m.checkpoint) {
		m.mu.Unlock()
		return nil
	}
	m.checkpoint = t
	m.mu.Unlock()

	m.metrics.Checkpoint(t)
	m.logger.Info("checkpoint advanced", zap.Time("checkpoint", t))
	if err := m.store.Save(ctx, checkpoint.MonitorCheckpoint, t); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	// Year-only records are the coarsest, so nothing older can pass again.
	floor := time.Date(t.UTC().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	if n, err := m.store.PruneSeen(ctx, floor); err != nil {
		m.logger.Warn("pruning seen papers failed", zap.Error(err))
	} else if n > 0 {
		m.logger.Debug("pruned seen papers", zap.Int64("count", n), zap.Time("before", floor))
	}
	return nil
}

// load resolves the starting checkpoint once: the stored value when there
// is one, otherwise now minus the initial lookback.
func (m *Monitor) load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}
	t, ok, err := m.store.Load(ctx, checkpoint.MonitorCheckpoint)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if !ok {
		t = m.now().Add(-m.initialLookback).UTC()
	}
	m.checkpoint = t
	m.loaded = true
	m.metrics.Checkpoint(t)
	return nil
}

// Checkpoint returns the current checkpoint.
func (m *Monitor) Checkpoint() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoint
}

// Status returns a snapshot of the monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Status{
		Checkpoint: m.checkpoint,
		Polls:      m.polls,
		NextPoll:   m.nextPoll,
		LastError:  m.lastErr,
	}
	if m.last != nil {
		last := *m.last
		s.LastPoll = &last
	}
	return s
}
