// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze papers published in a recent window",
	Long: `Batch fetches papers published within the lookback window from every enabled
source, deduplicates them, applies the citation quality filter, scores
heuristic signals, and evaluates papers with strong signals. Findings whose
effective value score clears the threshold are written under the findings
directory, one subdirectory per tier, with an index.jsonl summary.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("lookback-days", 0, "days of papers to analyze (default 90)")
	batchCmd.Flags().String("findings-dir", "", "directory for findings (default findings)")
	batchCmd.Flags().String("state-dir", "", "record the run in the state database in this directory")
	bindFlag(batchCmd.Flags(), "lookback-days", "batch.lookback_days")
	bindFlag(batchCmd.Flags(), "findings-dir", "output.findings_dir")
	bindFlag(batchCmd.Flags(), "state-dir", "monitor.state_dir")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if cfg.Batch.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive, got %d", cfg.Batch.LookbackDays)
	}
	proc, err := newProcessor(cfg, nil, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sum, runErr := proc.RunBatch(ctx, cfg.Batch.LookbackDays)
	pipeline.FormatSummary(cmd.OutOrStdout(), sum)

	if cfg.Monitor.StateDir != "" {
		store, err := openStore(cfg.Monitor.StateDir)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.RecordRun(ctx, sum.Run()); err != nil {
			logger.Warn("recording run failed", zap.Error(err))
		}
	}

	if runErr != nil {
		if ctx.Err() != nil {
			logger.Info("batch interrupted")
			return nil
		}
		return runErr
	}
	logger.Info("batch complete",
		zap.Int("findings", sum.TotalFindings()),
		zap.String("findings_dir", cfg.Output.FindingsDir),
	)
	return nil
}
