// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-radar pipeline:
// normalized papers, heuristic signals, opportunity assessments, and the
// typed configuration consumed by every stage.
package types

import "time"

// Paper is a normalized research-paper record produced by a scraper. Papers
// flow read-only through the pipeline; no stage modifies one after creation.
type Paper struct {
	// ID is globally unique across sources, namespaced with a source prefix
	// (e.g. "arxiv_2501.01234", "s2_abc123", "openalex_W123").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Abstract is the plain-text abstract. It may be empty for sources
	// that do not provide one (DBLP).
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the publication or submission timestamp.
	Published time.Time `json:"published" yaml:"published"`

	// Source names the scraper that produced the record (e.g. "arxiv").
	Source string `json:"source" yaml:"source"`

	// URL is the canonical landing page for the paper.
	URL string `json:"url" yaml:"url"`

	// CitationCount is nil when the source does not report citations.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Venue is the journal or conference name, when known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// FullText holds the paper body when a source supplies it.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// DatasetMentions lists dataset names associated with the paper.
	DatasetMentions []string `json:"dataset_mentions,omitempty" yaml:"dataset_mentions,omitempty"`
}

// Citations returns the citation count and whether it is known.
func (p Paper) Citations() (int, bool) {
	if p.CitationCount == nil {
		return 0, false
	}
	return *p.CitationCount, true
}

// IntPtr returns a pointer to n. Scrapers use it to fill CitationCount.
func IntPtr(n int) *int {
	return &n
}
