// Command shoal runs a fish population simulation headless.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/scenario"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	years := flag.Int("years", 0, "Years to simulate (0 = use config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Log yearly species stats via slog")
	logPerf := flag.Bool("log-perf", false, "Log yearly phase timings via slog")
	snapshot := flag.Bool("snapshot", false, "Save the final population to the output directory")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *years > 0 {
		cfg.Simulation.Years = *years
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	cfg.Telemetry.LogStats = cfg.Telemetry.LogStats || *logStats
	cfg.Telemetry.LogPerf = cfg.Telemetry.LogPerf || *logPerf
	cfg.Telemetry.Snapshot = cfg.Telemetry.Snapshot || *snapshot

	if err := run(cfg); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	s, err := scenario.Build(cfg, out)
	if err != nil {
		return err
	}
	m := s.Model

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	m.Schedule.SetTimer(perf)

	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	slog.Info("starting simulation",
		"seed", cfg.Simulation.Seed,
		"years", cfg.Simulation.Years,
		"output_dir", out.Dir(),
	)
	start := time.Now()
	for range cfg.Simulation.Years {
		if err := m.Run(sim.DaysPerYear); err != nil {
			return err
		}
		stats := perf.Stats()
		if cfg.Telemetry.LogPerf {
			stats.LogStats()
		}
		if err := out.WritePerf(stats, m.Day()); err != nil {
			return err
		}
	}
	slog.Info("simulation finished",
		"days", m.Day(),
		"elapsed", time.Since(start).String(),
	)
	s.Collector.LogSummary()

	if cfg.Telemetry.Snapshot {
		path, err := out.WriteSnapshot(telemetry.TakeSnapshot(m))
		if err != nil {
			return err
		}
		if path != "" {
			slog.Info("snapshot saved", "path", path)
		}
	}
	return nil
}
