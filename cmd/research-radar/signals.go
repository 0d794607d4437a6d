// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-radar/internal/signals"
	"github.com/pdiddy/research-radar/pkg/types"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Score the heuristic signals of a single paper",
	Long: `Signals runs the keyword heuristics over a title and abstract and prints the
score of every signal category. It makes no network calls and needs no API
key, which makes it useful for tuning a heuristics file.`,
	RunE: runSignals,
}

func init() {
	signalsCmd.Flags().String("title", "", "paper title")
	signalsCmd.Flags().String("abstract", "", "paper abstract")
	signalsCmd.Flags().Int("citations", -1, "citation count (negative means unknown)")
	signalsCmd.Flags().String("venue", "", "publication venue")
	signalsCmd.Flags().String("published", "", "publication date (YYYY-MM-DD, default today)")
	signalsCmd.Flags().Bool("json", false, "output signals as JSON")

	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, _ []string) error {
	title, _ := cmd.Flags().GetString("title")
	abstract, _ := cmd.Flags().GetString("abstract")
	if strings.TrimSpace(title+abstract) == "" {
		return fmt.Errorf("provide --title, --abstract, or both")
	}
	citations, _ := cmd.Flags().GetInt("citations")
	venue, _ := cmd.Flags().GetString("venue")
	publishedFlag, _ := cmd.Flags().GetString("published")
	asJSON, _ := cmd.Flags().GetBool("json")

	published := time.Now().UTC()
	if publishedFlag != "" {
		t, err := time.Parse("2006-01-02", publishedFlag)
		if err != nil {
			return fmt.Errorf("parsing --published: %w", err)
		}
		published = t
	}

	p := types.Paper{
		ID:        "cli",
		Title:     title,
		Abstract:  abstract,
		Published: published,
		Source:    "cli",
		Venue:     venue,
	}
	if citations >= 0 {
		p.CitationCount = types.IntPtr(citations)
	}

	result := signals.NewExtractor(cfg.Heuristics).Extract(p)
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderSignals(cmd, result)
	return nil
}

func renderSignals(cmd *cobra.Command, s types.Signals) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Score", "Detected"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, WidthMax: 60},
	})
	for _, c := range types.Categories {
		r := s[c]
		t.AppendRow(table.Row{string(c), fmt.Sprintf("%.1f", r.Score), strings.Join(r.Detected, ", ")})
	}
	t.AppendFooter(table.Row{"Max", fmt.Sprintf("%.1f", s.Max()), ""})
	t.Render()
}
