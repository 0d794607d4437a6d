// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/research-radar/internal/checkpoint"
	"github.com/pdiddy/research-radar/internal/quality"
	"github.com/pdiddy/research-radar/pkg/types"
)

// Run modes recorded in summaries and the run log.
const (
	ModeBatch   = "batch"
	ModeMonitor = "monitor"
)

// tierOrder lists tier labels best first.
var tierOrder = []string{"S", "A", "B", "C", "D"}

// Summary counts what happened to the papers of one run.
type Summary struct {
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Fetched       int                   `json:"fetched"`
	AlreadySeen   int                   `json:"already_seen,omitempty"`
	Unique        int                   `json:"unique"`
	Passed        int                   `json:"passed"`
	Rejected      int                   `json:"rejected"`
	RejectReasons []quality.ReasonCount `json:"reject_reasons,omitempty"`

	WeakSignals        int `json:"weak_signals"`
	Evaluated          int `json:"evaluated"`
	EvaluationFailures int `json:"evaluation_failures"`
	BelowThreshold     int `json:"below_threshold"`
	WriteFailures      int `json:"write_failures"`

	// Findings counts written findings by tier.
	Findings     map[string]int `json:"findings"`
	FindingPaths []string       `json:"finding_paths,omitempty"`

	// ScraperErrors maps a failed source to its error text.
	ScraperErrors map[string]string `json:"scraper_errors,omitempty"`

	// LatestPublished is the newest publication time among fetched papers.
	LatestPublished time.Time `json:"latest_published,omitempty"`
}

func newSummary(mode string, started time.Time) Summary {
	return Summary{
		Mode:          mode,
		StartedAt:     started,
		Findings:      make(map[string]int),
		ScraperErrors: make(map[string]string),
	}
}

func (s *Summary) observePublished(papers []types.Paper) {
	for _, p := range papers {
		if p.Published.After(s.LatestPublished) {
			s.LatestPublished = p.Published
		}
	}
}

// TotalFindings is the number of findings written across all tiers.
func (s Summary) TotalFindings() int {
	n := 0
	for _, c := range s.Findings {
		n += c
	}
	return n
}

// Run converts the summary into a run-log record.
func (s Summary) Run() checkpoint.Run {
	return checkpoint.Run{
		Mode:       s.Mode,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Fetched:    s.Fetched,
		Passed:     s.Passed,
		Rejected:   s.Rejected,
		Evaluated:  s.Evaluated,
		Findings:   s.TotalFindings(),
	}
}

// FormatSummary renders s as a table on w.
func FormatSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s run (%s)", s.Mode, s.FinishedAt.Sub(s.StartedAt).Round(time.Second)))
	t.AppendHeader(table.Row{"Stage", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	t.AppendRow(table.Row{"Fetched", s.Fetched})
	if s.AlreadySeen > 0 {
		t.AppendRow(table.Row{"Seen in earlier polls", s.AlreadySeen})
	}
	t.AppendRows([]table.Row{
		{"Unique", s.Unique},
		{"Passed quality filter", s.Passed},
		{"Rejected", s.Rejected},
	})
	for _, rc := range s.RejectReasons {
		t.AppendRow(table.Row{"  " + rc.Reason, rc.Count})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Weak signals", s.WeakSignals},
		{"Evaluated", s.Evaluated},
		{"Evaluation failures", s.EvaluationFailures},
		{"Below value threshold", s.BelowThreshold},
		{"Write failures", s.WriteFailures},
	})
	t.AppendSeparator()
	for _, tier := range findingTiers(s.Findings) {
		t.AppendRow(table.Row{"Tier " + tier + " findings", s.Findings[tier]})
	}
	if len(s.ScraperErrors) > 0 {
		names := make([]string, 0, len(s.ScraperErrors))
		for name := range s.ScraperErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		t.AppendSeparator()
		t.AppendRow(table.Row{"Failed sources", strings.Join(names, ", ")})
	}
	t.AppendFooter(table.Row{"Findings", s.TotalFindings()})
	t.Render()
}

// findingTiers returns the tiers present in findings, best first. Labels
// outside the known ladder sort last.
func findingTiers(findings map[string]int) []string {
	var out []string
	known := make(map[string]bool, len(tierOrder))
	for _, tier := range tierOrder {
		known[tier] = true
		if findings[tier] > 0 {
			out = append(out, tier)
		}
	}
	var extra []string
	for tier, n := range findings {
		if !known[tier] && n > 0 {
			extra = append(extra, tier)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
