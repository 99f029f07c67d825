package sim

import (
	"log/slog"

	"github.com/pthm-cable/hcp/telemetry"
)

// flushTelemetry flushes the stats window when it is due.
func (r *Runner) flushTelemetry() {
	if !r.collector.ShouldFlush(r.step) {
		return
	}
	r.flush()
}

// flush closes the current window and fans the stats out to the callback,
// the log and the output files.
func (r *Runner) flush() {
	stats, species := r.collector.Flush(r.step, r.space.Occupied(), r.walkerRates())
	perfStats := r.perfCollector.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	if r.logStats {
		slog.Info("window", "stats", stats)
		for _, sw := range species {
			slog.Info("occupancy", "species", sw)
		}
		perfStats.LogStats()
	}

	if r.outputManager != nil {
		if err := r.outputManager.WriteWindow(stats); err != nil {
			slog.Error("failed to write window stats", "error", err)
		}
		if err := r.outputManager.WriteSpecies(species); err != nil {
			slog.Error("failed to write species stats", "error", err)
		}
		if err := r.outputManager.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// Snapshot captures the lattice and every walker's tally.
func (r *Runner) Snapshot(reason string) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		RNGSeed: r.seed,
		Step:    r.step,
		Lattice: r.space.State(),
		Reason:  reason,
	}

	query := r.walkerFilter.Query()
	for query.Next() {
		walker, _, tally := query.Get()
		snap.Walkers = append(snap.Walkers, telemetry.WalkerState{
			ID:         walker.ID,
			Attempts:   tally.Attempts,
			Accepted:   tally.Accepted,
			Rejected:   tally.Rejected,
			BirthStep:  tally.BirthStep,
			LastMoveAt: tally.LastMoveAt,
		})
	}
	return snap
}

// saveSnapshot writes a snapshot to the snapshot dir and logs the result.
func (r *Runner) saveSnapshot(reason string) {
	path, err := telemetry.SaveSnapshot(r.Snapshot(reason), r.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "step", r.step)
}
