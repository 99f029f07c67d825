package telemetry

import (
	"math"
	"testing"
)

func TestPercentileBounds(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"below range", []float64{1, 2, 3}, -0.5, 1.0},
		{"above range", []float64{1, 2, 3}, 1.5, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileMonotonic(t *testing.T) {
	sorted := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	prev := math.Inf(-1)
	for p := 0.0; p <= 1.0; p += 0.05 {
		got := Percentile(sorted, p)
		if got < prev {
			t.Fatalf("Percentile not monotonic at p=%v: %v < %v", p, got, prev)
		}
		if got < sorted[0] || got > sorted[len(sorted)-1] {
			t.Fatalf("Percentile(%v) = %v outside data range", p, got)
		}
		prev = got
	}
}

func TestComputeRateStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, std, p10, p50, p90 := ComputeRateStats(values)

	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-2) > 1e-9 {
		t.Errorf("std = %v, want 2", std)
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
	// Input must not be reordered.
	if values[len(values)-1] != 9 || values[0] != 2 {
		t.Error("ComputeRateStats modified its input")
	}
}

func TestComputeRateStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeRateStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}
