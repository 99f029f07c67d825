package telemetry

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hcp/lattice"
)

// Collector accumulates move outcomes and occupancy samples within windows of
// steps and produces WindowStats.
type Collector struct {
	windowSteps     int32
	windowStartStep int32
	numVoxels       int

	// Move counters for current window
	attempted     int
	accepted      int
	rejSubstrate  int
	rejOutOfRange int
	rejNotFound   int
	selfMoves     int

	// Per-species occupancy samples for current window, indexed by SpeciesID
	species []string
	samples [][]float64
	last    []int
}

// NewCollector creates a new stats collector.
// windowSteps: steps per window
// species: species names in SpeciesID order
// numVoxels: lattice size, for occupancy fractions
func NewCollector(windowSteps int, species []string, numVoxels int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: int32(windowSteps),
		numVoxels:   numVoxels,
		species:     append([]string(nil), species...),
		samples:     make([][]float64, len(species)),
		last:        make([]int, len(species)),
	}
}

// RecordMove classifies the result of one MoveParticle call.
func (c *Collector) RecordMove(from, to lattice.Coordinate, err error) {
	c.attempted++
	switch {
	case err == nil && from == to:
		c.selfMoves++
		c.accepted++
	case err == nil:
		c.accepted++
	case errors.Is(err, lattice.ErrInvalidLocation):
		c.rejSubstrate++
	case errors.Is(err, lattice.ErrOutOfRange):
		c.rejOutOfRange++
	case errors.Is(err, lattice.ErrParticleNotFound):
		c.rejNotFound++
	}
}

// Sample records per-species occupant counts, indexed by SpeciesID.
func (c *Collector) Sample(counts []int) {
	for i := range c.samples {
		n := 0
		if i < len(counts) {
			n = counts[i]
		}
		c.samples[i] = append(c.samples[i], float64(n))
		c.last[i] = n
	}
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int32) bool {
	return step-c.windowStartStep >= c.windowSteps
}

// Pending reports whether steps have completed since the last flush.
func (c *Collector) Pending(step int32) bool {
	return step > c.windowStartStep
}

// Flush produces window statistics and resets counters for the next window.
// The caller provides the current step, the occupied voxel count and the
// lifetime acceptance rate of every walker.
func (c *Collector) Flush(step int32, occupied int, walkerRates []float64) (WindowStats, []SpeciesWindow) {
	var acceptRate float64
	if c.attempted > 0 {
		acceptRate = float64(c.accepted) / float64(c.attempted)
	}
	mean, std, p10, p50, p90 := ComputeRateStats(walkerRates)

	stats := WindowStats{
		WindowStartStep:    c.windowStartStep,
		WindowEndStep:      step,
		Occupied:           occupied,
		Walkers:            len(walkerRates),
		MovesAttempted:     c.attempted,
		MovesAccepted:      c.accepted,
		RejectedSubstrate:  c.rejSubstrate,
		RejectedOutOfRange: c.rejOutOfRange,
		RejectedNotFound:   c.rejNotFound,
		SelfMoves:          c.selfMoves,
		AcceptRate:         acceptRate,
		WalkerAcceptMean:   mean,
		WalkerAcceptStd:    std,
		WalkerAcceptP10:    p10,
		WalkerAcceptP50:    p50,
		WalkerAcceptP90:    p90,
	}

	species := make([]SpeciesWindow, len(c.species))
	for i, name := range c.species {
		sw := SpeciesWindow{
			WindowEndStep: step,
			Species:       name,
			Count:         c.last[i],
		}
		if c.numVoxels > 0 {
			sw.Fraction = float64(c.last[i]) / float64(c.numVoxels)
		}
		if s := c.samples[i]; len(s) > 0 {
			sw.MeanCount, sw.StdCount = stat.PopMeanStdDev(s, nil)
			sw.MinCount, sw.MaxCount = int(s[0]), int(s[0])
			for _, v := range s[1:] {
				sw.MinCount = min(sw.MinCount, int(v))
				sw.MaxCount = max(sw.MaxCount, int(v))
			}
		}
		species[i] = sw
		c.samples[i] = c.samples[i][:0]
	}

	c.windowStartStep = step
	c.attempted = 0
	c.accepted = 0
	c.rejSubstrate = 0
	c.rejOutOfRange = 0
	c.rejNotFound = 0
	c.selfMoves = 0

	return stats, species
}
