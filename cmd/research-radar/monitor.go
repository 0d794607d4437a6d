// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-radar/internal/monitoring"
	"github.com/pdiddy/research-radar/internal/pipeline"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll sources for new papers on a schedule",
	Long: `Monitor polls every enabled source for papers published since the last
checkpoint, processes them like batch, and advances the checkpoint to the
newest publication time seen. With --state-dir the checkpoint and a run log
survive restarts in a SQLite database. With --status-addr a small HTTP
server exposes /healthz, /metrics, and /status.

The first poll runs immediately. SIGINT or SIGTERM stops the monitor.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Duration("poll-interval", 0, "time between polls (default 1h)")
	monitorCmd.Flags().String("schedule", "", `cron schedule replacing --poll-interval (e.g. "0 */6 * * *")`)
	monitorCmd.Flags().String("state-dir", "", "directory for the checkpoint database (default: in memory)")
	monitorCmd.Flags().String("status-addr", "", "listen address for the status server (e.g. :9090)")
	monitorCmd.Flags().String("findings-dir", "", "directory for findings (default findings)")
	bindFlag(monitorCmd.Flags(), "poll-interval", "monitor.poll_interval")
	bindFlag(monitorCmd.Flags(), "schedule", "monitor.schedule")
	bindFlag(monitorCmd.Flags(), "state-dir", "monitor.state_dir")
	bindFlag(monitorCmd.Flags(), "status-addr", "monitor.status_addr")
	bindFlag(monitorCmd.Flags(), "findings-dir", "output.findings_dir")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewRecorder(reg)

	store, err := openStore(cfg.Monitor.StateDir)
	if err != nil {
		return err
	}
	defer store.Close()
	proc, err := newProcessor(cfg, store, metrics, logger)
	if err != nil {
		return err
	}

	mon, err := pipeline.NewMonitor(proc, store, cfg.Monitor, logger,
		pipeline.WithMetrics(metrics),
		pipeline.WithSummaryOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if addr := cfg.Monitor.StatusAddr; addr != "" {
		srv := monitoring.NewServer(addr, reg, func() any { return mon.Status() }, logger)
		g.Go(func() error { return srv.Run(ctx) })
	}
	g.Go(func() error {
		err := mon.Run(ctx)
		// Stop the status server with the monitor.
		stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("monitor shut down", zap.Time("checkpoint", mon.Checkpoint()))
	return nil
}
