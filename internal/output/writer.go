// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output persists findings: one Markdown report per assessment under
// a tier directory, plus an append-only JSON Lines index.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	// IndexFile is the JSON Lines index written beside the tier directories.
	IndexFile = "index.jsonl"

	maxLabelLen = 50
)

// IndexEntry is one line of the findings index.
type IndexEntry struct {
	ID                  string    `json:"id"`
	Tier                string    `json:"tier"`
	DataTypeName        string    `json:"data_type_name"`
	ValueScore          float64   `json:"value_score"`
	EffectiveValueScore float64   `json:"effective_value_score"`
	ConfidenceScore     float64   `json:"confidence_score"`
	PaperURL            string    `json:"paper_url"`
	PaperTitle          string    `json:"paper_title"`
	DetectedAt          time.Time `json:"detected_at"`
}

// Writer writes findings below a base directory. It is safe for concurrent
// use.
type Writer struct {
	dir string
	mu  sync.Mutex
}

// NewWriter returns a writer rooted at dir. Directories are created on the
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the findings directory.
func (w *Writer) Dir() string { return w.dir }

// WriteFinding renders the assessment to Markdown, stores it under
// tier_<tier>/, appends an index line, and returns the report path. An
// existing report with the same name is kept; the new file gets the
// assessment ID appended.
func (w *Writer) WriteFinding(a *types.Assessment) (string, error) {
	if a == nil {
		return "", fmt.Errorf("nil assessment")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	tierDir := filepath.Join(w.dir, "tier_"+strings.ToLower(a.Tier))
	if err := os.MkdirAll(tierDir, 0o755); err != nil {
		return "", fmt.Errorf("creating tier directory: %w", err)
	}

	content, err := renderFinding(a)
	if err != nil {
		return "", err
	}

	path, err := reportPath(tierDir, a)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing finding %s: %w", path, err)
	}

	if err := w.appendIndex(a); err != nil {
		return path, err
	}
	return path, nil
}

// reportPath picks <date>_<label>.md, or <date>_<label>_<id>.md when the
// plain name is taken.
func reportPath(tierDir string, a *types.Assessment) (string, error) {
	base := a.DetectedAt.UTC().Format("2006-01-02") + "_" + SanitizeLabel(a.DataTypeName)
	path := filepath.Join(tierDir, base+".md")
	_, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return path, nil
	case err != nil:
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return filepath.Join(tierDir, base+"_"+a.ID+".md"), nil
}

func (w *Writer) appendIndex(a *types.Assessment) error {
	line, err := json.Marshal(IndexEntry{
		ID:                  a.ID,
		Tier:                a.Tier,
		DataTypeName:        a.DataTypeName,
		ValueScore:          a.ValueScore,
		EffectiveValueScore: a.EffectiveValueScore(),
		ConfidenceScore:     a.ConfidenceScore,
		PaperURL:            a.Paper.URL,
		PaperTitle:          a.Paper.Title,
		DetectedAt:          a.DetectedAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling index entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(w.dir, IndexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending index: %w", err)
	}
	return nil
}

// SanitizeLabel lowercases name, turns spaces and hyphens into underscores,
// drops everything outside [a-z0-9_], and caps the result at 50 characters.
func SanitizeLabel(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
		if b.Len() == maxLabelLen {
			break
		}
	}
	if b.Len() == 0 {
		return "finding"
	}
	return b.String()
}

var findingTmpl = template.Must(template.New("finding").Parse(`# [Tier {{.Tier}}] {{.Name}}

**Paper**: [{{.Paper.Title}}]({{.Paper.URL}})
**Authors**: {{.Authors}}
**Published**: {{.Published}}
**Source**: {{.Paper.Source}}
{{- if .Paper.Venue}}
**Venue**: {{.Paper.Venue}}
{{- end}}
**Citations**: {{.Citations}}

---

## Business Opportunity

{{.BusinessContext}}

**Target Customers**: {{or .TargetCustomers "See business opportunity"}}
**Market Gap**: {{or .MarketGap "See business opportunity"}}

---

## Scoring

| Measure | Score |
|---|---|
| Value | {{printf "%.1f" .ValueScore}}/10 |
| Effective value | {{printf "%.1f" .Effective}}/10 |
| Confidence | {{printf "%.1f" .ConfidenceScore}}/10 |
{{- if eq .Mode "dual"}}
| Technical contribution | {{printf "%.1f" .TechnicalContributionScore}}/10 |
| Commercial viability | {{printf "%.1f" .CommercialViabilityScore}}/10 |
{{- end}}

**Quality dimensions**:
- Data efficiency: {{printf "%.1f" .DataEfficiency}}/10
- Source quality: {{printf "%.1f" .SourceQuality}}/10
- Generalizability: {{printf "%.1f" .Generalizability}}/10
{{- if or .DatasetDescription .CollectionMethod .ReplicationFeasibility}}

## Provenance
{{- if .DatasetDescription}}

**Dataset**: {{.DatasetDescription}}
{{- end}}
{{- if .CollectionMethod}}

**Collection method**: {{.CollectionMethod}}
{{- end}}
{{- if .ReplicationFeasibility}}

**Replication feasibility**: {{.ReplicationFeasibility}}
{{- end}}
{{- end}}
{{- if .Blockers}}

## Blockers

| Category | Severity | Score cap | Description |
|---|---|---|---|
{{- range .Blockers}}
| {{.Category}} | {{.Severity}} | {{printf "%.1f" .ScoreCap}} | {{.Description}} |
{{- end}}
{{- end}}
{{- if .UncertaintySources}}

## Uncertainty
{{range .UncertaintySources}}
- {{.Indicator}} (-{{printf "%.1f" .Penalty}}): {{.Description}}
{{- end}}
{{- end}}
{{- if .Concerns}}

## Concerns

{{.Concerns}}
{{- end}}

## Signals

| Signal | Score |
|---|---|
{{- range .Signals}}
| {{.Name}} | {{printf "%.1f" .Score}} |
{{- end}}

---

*Detected: {{.Detected}} UTC*
*Finding ID: {{.ID}}*
`))

type signalRow struct {
	Name  string
	Score float64
}

type findingView struct {
	*types.Assessment
	Name      string
	Authors   string
	Published string
	Citations string
	Effective float64
	Detected  string
	Signals   []signalRow
}

func renderFinding(a *types.Assessment) ([]byte, error) {
	v := findingView{
		Assessment: a,
		Name:       a.DataTypeName,
		Authors:    strings.Join(a.Paper.Authors, ", "),
		Published:  a.Paper.Published.UTC().Format("2006-01-02"),
		Citations:  "Unknown",
		Effective:  a.EffectiveValueScore(),
		Detected:   a.DetectedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if v.Name == "" {
		v.Name = a.Paper.Title
	}
	if v.Authors == "" {
		v.Authors = "Unknown"
	}
	if n, ok := a.Paper.Citations(); ok {
		v.Citations = fmt.Sprint(n)
	}
	for _, c := range types.Categories {
		if score, ok := a.SignalScores[c]; ok {
			v.Signals = append(v.Signals, signalRow{Name: string(c), Score: score})
		}
	}

	var buf bytes.Buffer
	if err := findingTmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("rendering finding: %w", err)
	}
	return buf.Bytes(), nil
}
