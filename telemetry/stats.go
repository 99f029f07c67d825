// Package telemetry provides move statistics, occupancy tracking, CSV output and snapshots.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated move statistics for a window of steps.
type WindowStats struct {
	WindowStartStep int32 `csv:"-"`
	WindowEndStep   int32 `csv:"window_end"`

	// Lattice state at window end
	Occupied int `csv:"occupied"`
	Walkers  int `csv:"walkers"`

	// Move outcomes during window
	MovesAttempted     int     `csv:"moves_attempted"`
	MovesAccepted      int     `csv:"moves_accepted"`
	RejectedSubstrate  int     `csv:"rejected_substrate"`
	RejectedOutOfRange int     `csv:"rejected_out_of_range"`
	RejectedNotFound   int     `csv:"rejected_not_found"`
	SelfMoves          int     `csv:"self_moves"`
	AcceptRate         float64 `csv:"accept_rate"`

	// Per-walker lifetime acceptance distribution (sampled at window end)
	WalkerAcceptMean float64 `csv:"walker_accept_mean"`
	WalkerAcceptStd  float64 `csv:"walker_accept_std"`
	WalkerAcceptP10  float64 `csv:"walker_accept_p10"`
	WalkerAcceptP50  float64 `csv:"walker_accept_p50"`
	WalkerAcceptP90  float64 `csv:"walker_accept_p90"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartStep)),
		slog.Int("window_end", int(s.WindowEndStep)),
		slog.Int("occupied", s.Occupied),
		slog.Int("walkers", s.Walkers),
		slog.Int("moves_attempted", s.MovesAttempted),
		slog.Int("moves_accepted", s.MovesAccepted),
		slog.Int("rejected_substrate", s.RejectedSubstrate),
		slog.Int("rejected_out_of_range", s.RejectedOutOfRange),
		slog.Int("rejected_not_found", s.RejectedNotFound),
		slog.Int("self_moves", s.SelfMoves),
		slog.Float64("accept_rate", s.AcceptRate),
		slog.Float64("walker_accept_mean", s.WalkerAcceptMean),
		slog.Float64("walker_accept_p50", s.WalkerAcceptP50),
	)
}

// SpeciesWindow holds one species' occupancy over a window.
type SpeciesWindow struct {
	WindowEndStep int32   `csv:"window_end"`
	Species       string  `csv:"species"`
	Count         int     `csv:"count"`    // At window end
	Fraction      float64 `csv:"fraction"` // Count / voxels
	MeanCount     float64 `csv:"mean_count"`
	StdCount      float64 `csv:"std_count"`
	MinCount      int     `csv:"min_count"`
	MaxCount      int     `csv:"max_count"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesWindow) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("species", s.Species),
		slog.Int("count", s.Count),
		slog.Float64("fraction", s.Fraction),
		slog.Float64("mean_count", s.MeanCount),
		slog.Float64("std_count", s.StdCount),
	)
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// ComputeRateStats calculates mean, standard deviation and percentiles of values.
func ComputeRateStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}
