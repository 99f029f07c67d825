package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/hcp/lattice"
)

func TestCollectorClassifiesMoves(t *testing.T) {
	c := NewCollector(10, []string{"Vacant", "A"}, 4)

	c.RecordMove(0, 1, nil)
	c.RecordMove(2, 2, nil)
	c.RecordMove(0, 1, &lattice.InvalidLocationError{From: 0, To: 1})
	c.RecordMove(0, 9, &lattice.OutOfRangeError{Coordinate: 9})
	c.RecordMove(3, 1, &lattice.ParticleNotFoundError{Coordinate: 3})

	stats, _ := c.Flush(10, 4, nil)

	if stats.MovesAttempted != 5 || stats.MovesAccepted != 2 {
		t.Errorf("attempted/accepted = %d/%d, want 5/2", stats.MovesAttempted, stats.MovesAccepted)
	}
	if stats.SelfMoves != 1 {
		t.Errorf("SelfMoves = %d, want 1", stats.SelfMoves)
	}
	if stats.RejectedSubstrate != 1 || stats.RejectedOutOfRange != 1 || stats.RejectedNotFound != 1 {
		t.Errorf("rejections = %d/%d/%d, want 1/1/1",
			stats.RejectedSubstrate, stats.RejectedOutOfRange, stats.RejectedNotFound)
	}
	if math.Abs(stats.AcceptRate-0.4) > 1e-9 {
		t.Errorf("AcceptRate = %v, want 0.4", stats.AcceptRate)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(5, []string{"Vacant"}, 10)

	if c.ShouldFlush(4) {
		t.Error("ShouldFlush(4) with window 5")
	}
	if !c.ShouldFlush(5) {
		t.Error("ShouldFlush(5) with window 5 should be true")
	}

	c.RecordMove(0, 1, nil)
	c.Flush(5, 0, nil)

	stats, _ := c.Flush(7, 0, nil)
	if stats.MovesAttempted != 0 || stats.WindowStartStep != 5 || stats.WindowEndStep != 7 {
		t.Errorf("second window = %+v", stats)
	}
	if c.ShouldFlush(11) || !c.ShouldFlush(12) {
		t.Error("window start not advanced to last flush")
	}
}

func TestCollectorSpeciesWindow(t *testing.T) {
	c := NewCollector(3, []string{"Vacant", "A"}, 8)

	c.Sample([]int{6, 2})
	c.Sample([]int{4, 4})
	c.Sample([]int{5, 3})

	_, species := c.Flush(3, 8, []float64{0.5, 0.5})
	if len(species) != 2 {
		t.Fatalf("got %d species windows, want 2", len(species))
	}

	v := species[0]
	if v.Species != "Vacant" || v.Count != 5 || v.MinCount != 4 || v.MaxCount != 6 {
		t.Errorf("Vacant window = %+v", v)
	}
	if math.Abs(v.MeanCount-5) > 1e-9 {
		t.Errorf("Vacant mean = %v, want 5", v.MeanCount)
	}
	if math.Abs(v.Fraction-5.0/8.0) > 1e-9 {
		t.Errorf("Vacant fraction = %v, want 0.625", v.Fraction)
	}

	_, species = c.Flush(6, 8, nil)
	if species[1].MeanCount != 0 || species[1].Count != 3 {
		t.Errorf("empty window should keep last count and zero mean, got %+v", species[1])
	}
}

func TestCollectorWalkerRates(t *testing.T) {
	c := NewCollector(1, nil, 1)
	stats, _ := c.Flush(1, 0, []float64{0.2, 0.4, 0.6})
	if stats.Walkers != 3 {
		t.Errorf("Walkers = %d, want 3", stats.Walkers)
	}
	if math.Abs(stats.WalkerAcceptMean-0.4) > 1e-9 {
		t.Errorf("WalkerAcceptMean = %v, want 0.4", stats.WalkerAcceptMean)
	}
}
