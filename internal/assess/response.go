// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when a model response holds no decodable JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// score decodes a number or numeric string. Anything else decodes as zero.
type score float64

func (s *score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = score(f)
			return nil
		}
	}
	*s = 0
	return nil
}

// freeText decodes a string, or a list of strings joined with "; ". Other
// values keep their JSON form.
type freeText string

func (t *freeText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = freeText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = freeText(strings.Join(list, "; "))
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = ""
		return nil
	}
	*t = freeText(b)
	return nil
}

// blockerList decodes a list of blocker objects, skipping malformed entries.
type blockerList []RawBlocker

func (l *blockerList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(blockerList, 0, len(items))
	for _, item := range items {
		var r struct {
			Category    freeText `json:"category"`
			Severity    freeText `json:"severity"`
			Description freeText `json:"description"`
		}
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		out = append(out, RawBlocker{
			Category:    string(r.Category),
			Severity:    string(r.Severity),
			Description: string(r.Description),
		})
	}
	*l = out
	return nil
}

// evaluation is the model's answer with every field optional.
type evaluation struct {
	DataTypeName        freeText `json:"data_type_name"`
	BusinessContext     freeText `json:"business_context"`
	BusinessOpportunity freeText `json:"business_opportunity"`

	ValueScore                 *score `json:"value_score"`
	TechnicalContributionScore *score `json:"technical_contribution_score"`
	CommercialViabilityScore   *score `json:"commercial_viability_score"`

	TargetCustomers freeText    `json:"target_customers"`
	MarketGap       freeText    `json:"market_gap"`
	Concerns        freeText    `json:"concerns"`
	Blockers        blockerList `json:"blockers"`

	DataEfficiency     *score          `json:"data_efficiency"`
	SourceQuality      *score          `json:"source_quality"`
	Generalizability   *score          `json:"generalizability"`
	EnhancedDimensions json.RawMessage `json:"enhanced_dimensions"`

	DatasetDescription     freeText `json:"dataset_description"`
	CollectionMethod       freeText `json:"collection_method"`
	ReplicationFeasibility freeText `json:"replication_feasibility"`
}

// parseResponse locates the JSON object in a model response, which may be
// wrapped in prose or code fences, and decodes it tolerantly.
func parseResponse(raw string) (evaluation, error) {
	candidate := raw
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidate = raw[start : end+1]
	}
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") {
		return evaluation{}, ErrNoJSON
	}

	var e evaluation
	if err := json.Unmarshal([]byte(candidate), &e); err != nil {
		return evaluation{}, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return e, nil
}

// dualScored reports whether the model supplied technical or commercial
// scores.
func (e evaluation) dualScored() bool {
	return e.TechnicalContributionScore != nil || e.CommercialViabilityScore != nil
}

// scores returns value, technical, and commercial scores. Dual scores blend
// 30% technical and 70% commercial; a single value score stands in for
// both when dual scores are absent.
func (e evaluation) scores() (value, technical, commercial float64) {
	if e.dualScored() {
		technical = e.TechnicalContributionScore.value()
		commercial = e.CommercialViabilityScore.value()
		return bound(0.3*technical + 0.7*commercial), technical, commercial
	}
	value = e.ValueScore.value()
	return value, value, value
}

// rationale prefers business_context over the older business_opportunity key.
func (e evaluation) rationale() string {
	if e.BusinessContext != "" {
		return string(e.BusinessContext)
	}
	return string(e.BusinessOpportunity)
}

// hasEnhancedDimensions reports whether any secondary quality dimension was
// scored.
func (e evaluation) hasEnhancedDimensions() bool {
	for _, s := range []*score{e.DataEfficiency, e.SourceQuality, e.Generalizability} {
		if s.value() > 0 {
			return true
		}
	}
	raw := bytes.TrimSpace(e.EnhancedDimensions)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("{}"))
}

func (s *score) value() float64 {
	if s == nil {
		return 0
	}
	return bound(float64(*s))
}

func bound(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}
