// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists monitor state between runs: the last-checked
// timestamp per checkpoint name, the IDs of papers monitor polls already
// processed, and a log of completed runs. SQLiteStore keeps it on disk;
// Memory keeps it in process.
package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/research-radar/pkg/types"
)

// MonitorCheckpoint is the checkpoint name used by the continuous monitor.
const MonitorCheckpoint = "monitor"

// Run records one batch run or monitor poll.
type Run struct {
	ID         int64     `json:"id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Passed     int       `json:"passed"`
	Rejected   int       `json:"rejected"`
	Evaluated  int       `json:"evaluated"`
	Findings   int       `json:"findings"`
}

// Store is the checkpoint persistence contract.
type Store interface {
	// Load returns the stored checkpoint and whether one exists.
	Load(ctx context.Context, name string) (time.Time, bool, error)
	// Save replaces the stored checkpoint.
	Save(ctx context.Context, name string, t time.Time) error
	// RecordRun appends a run and returns its ID.
	RecordRun(ctx context.Context, r Run) (int64, error)
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	// Seen reports which of ids were marked seen.
	Seen(ctx context.Context, ids []string) (map[string]bool, error)
	// MarkSeen records papers as processed. Marking a paper twice is a no-op.
	MarkSeen(ctx context.Context, papers []types.Paper) error
	// PruneSeen forgets papers published before t and returns how many.
	PruneSeen(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]time.Time
	seen        map[string]time.Time
	runs        []Run
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		checkpoints: make(map[string]time.Time),
		seen:        make(map[string]time.Time),
	}
}

func (m *Memory) Load(_ context.Context, name string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.checkpoints[name]
	return t, ok, nil
}

func (m *Memory) Save(_ context.Context, name string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[name] = t.UTC()
	return nil
}

func (m *Memory) RecordRun(_ context.Context, r Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, r)
	return r.ID, nil
}

func (m *Memory) RecentRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Seen(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.seen[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *Memory) MarkSeen(_ context.Context, papers []types.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range papers {
		if _, ok := m.seen[p.ID]; !ok {
			m.seen[p.ID] = p.Published.UTC()
		}
	}
	return nil
}

func (m *Memory) PruneSeen(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, published := range m.seen {
		if published.Before(before) {
			delete(m.seen, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }
