// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/research-radar/pkg/types"
)

const maxPromptAuthors = 5

// evaluationPromptTmpl asks the model for a strict-JSON commercial
// assessment of one paper.
var evaluationPromptTmpl = template.Must(template.New("evaluation").Parse(`You are analyzing research papers to identify market opportunities for creating NEW datasets.

PAPER INFORMATION:
Title: {{.Title}}
Authors: {{.Authors}}
Published: {{.Published}}
Source: {{.Source}}
{{- if .Venue}}
Venue: {{.Venue}}
{{- end}}
Citations: {{.Citations}}
URL: {{.URL}}

Abstract:
{{.Abstract}}

DETECTED SIGNALS:
{{- range .Signals}}
{{template "signal" .}}
{{- else}}
None detected
{{- end}}

ENHANCED QUALITY & SCALING SIGNALS:
{{- range .Enhanced}}
{{template "signal" .}}
{{- range .Phrases}}
  * "{{.}}"
{{- end}}
{{- else}}
None detected
{{- end}}

TASK:
Evaluate this paper on TWO INDEPENDENT dimensions.

1. TECHNICAL CONTRIBUTION (0-10):
   - How novel or significant is the research?
   - Is the methodology rigorous and reproducible?
   - Does it advance the state of the art?

2. COMMERCIAL VIABILITY (0-10):
   - Are there clear target customers with validated demand?
   - Can the data be collected legally and ethically?
   - Are pricing and distribution viable?
   - Is the competitive differentiation clear?

3. BLOCKERS:
   Identify anything that would prevent commercialization.

   Categories:
   - LEGAL: privacy, IP, regulatory (protected attributes, GDPR)
   - TECHNICAL: validation gaps, reproducibility (synthetic data only)
   - MARKET: customer access, distribution (extremely niche)
   - ECONOMIC: cost structure, pricing (cost prohibitive)

   Severity:
   - HIGH: fundamental barrier requiring major resolution
   - MEDIUM: significant concern requiring investigation
   - LOW: minor issue, easily addressed

4. ENHANCED QUALITY DIMENSIONS (0-10 each):
   - data_efficiency: how much the work shows that less, better data beats more data
   - source_quality: how trustworthy and well documented the data sources are
   - generalizability: how well the dataset idea transfers across domains and tasks

DATA PROVENANCE:
- Dataset description: what specific data was used ("10,000 chest X-rays from 3 hospitals").
- Collection method: how it was obtained ("manual annotation by radiologists", "web scraping", "sensor data").
- Replication feasibility, always with 2-3 sentences of reasoning:
  * HIGH: easily accessible at scale (public data, APIs, common sensors)
  * MEDIUM: needs partnerships or moderate effort (IRB approval, vendor relationships)
  * LOW: difficult or expensive to replicate (rare conditions, specialized equipment, privacy barriers)

GUIDELINES:
- The technical score is not the commercial score: research novelty is not market readiness.
- Generic language such as "high demand across industries" is a blocker.
- Missing validation must be reported as a blocker.
- Be pessimistic about commercial viability without evidence.

SCORING CRITERIA:
- Technical 8-10: major breakthrough, rigorous validation, reproducible
- Technical 6-7.9: solid contribution, reasonable validation
- Commercial 8-10: clear buyers, proven demand, viable economics
- Commercial 6-7.9: some customers identified, emerging demand

Respond with a single JSON object and nothing else:
{
  "technical_contribution_score": 0.0,
  "commercial_viability_score": 0.0,
  "blockers": [{"category": "legal|technical|market|economic", "severity": "high|medium|low", "description": "specific concern"}],
  "data_type_name": "concise name",
  "business_context": "3-4 sentences on commercial value with specific evidence",
  "market_gap": "concrete unmet need, not 'lack of datasets'",
  "target_customers": "named industries or roles, not generic 'researchers'",
  "concerns": "risks and limitations",
  "data_efficiency": 0.0,
  "source_quality": 0.0,
  "generalizability": 0.0,
  "dataset_description": "the specific dataset(s) used in this research",
  "collection_method": "how the researchers obtained the data",
  "replication_feasibility": "low|medium|high with 2-3 sentences of reasoning"
}
{{define "signal"}}- {{.Name}}: {{printf "%.1f" .Score}}/10 (detected: {{if .Detected}}{{.Detected}}{{else}}none{{end}}){{end}}`))

type promptSignal struct {
	Name     string
	Score    float64
	Detected string
	Phrases  []string
}

type promptData struct {
	Title     string
	Authors   string
	Published string
	Source    string
	Venue     string
	Citations string
	URL       string
	Abstract  string
	Signals   []promptSignal
	Enhanced  []promptSignal
}

// displayName renders a category as "Data Efficiency". Casers are stateful,
// so each call builds its own.
func displayName(c types.Category) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

// renderPrompt builds the evaluation prompt. Only categories scoring above
// zero are listed, in fixed category order.
func renderPrompt(p types.Paper, signals types.Signals, abstractLimit int) (string, error) {
	data := promptData{
		Title:     p.Title,
		Authors:   formatAuthors(p.Authors),
		Published: p.Published.Format("2006-01-02"),
		Source:    p.Source,
		Venue:     p.Venue,
		Citations: "Unknown",
		URL:       p.URL,
		Abstract:  truncate(p.Abstract, abstractLimit),
	}
	if n, ok := p.Citations(); ok {
		data.Citations = strconv.Itoa(n)
	}

	for _, c := range types.Categories {
		r, ok := signals[c]
		if !ok || r.Score <= 0 {
			continue
		}
		s := promptSignal{Name: displayName(c), Score: r.Score, Detected: strings.Join(r.Detected, ", ")}
		if c.Enhanced() {
			s.Phrases = r.SamplePhrases
			data.Enhanced = append(data.Enhanced, s)
			continue
		}
		data.Signals = append(data.Signals, s)
	}

	var buf bytes.Buffer
	if err := evaluationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatAuthors(authors []string) string {
	switch {
	case len(authors) == 0:
		return "Unknown"
	case len(authors) > maxPromptAuthors:
		return strings.Join(authors[:maxPromptAuthors], ", ") + " et al."
	default:
		return strings.Join(authors, ", ")
	}
}

// truncate cuts s to limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
