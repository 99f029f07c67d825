package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/hcp/config"
	"github.com/pthm-cable/hcp/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, plot and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	steps := flag.Int("steps", -1, "Stop after N steps (0 = unlimited, -1 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	maxSteps := cfg.Run.Steps
	if *steps >= 0 {
		maxSteps = *steps
	}

	r, err := sim.NewRunner(cfg, sim.Options{
		Seed:        *seed,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
	})
	if err != nil {
		slog.Error("failed to build lattice", "error", err)
		os.Exit(1)
	}

	runErr := r.Run(maxSteps)
	if err := r.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		slog.Error("run failed", "error", runErr)
		os.Exit(1)
	}
	slog.Info("run complete", "steps", r.StepCount(), "occupied", r.Space().Occupied())
}
