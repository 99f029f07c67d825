package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hcp/components"
	"github.com/pthm-cable/hcp/config"
	"github.com/pthm-cable/hcp/lattice"
	"github.com/pthm-cable/hcp/telemetry"
)

// Options configures a Runner.
type Options struct {
	Seed        int64 // 0 = time-based
	LogStats    bool
	OutputDir   string
	SnapshotDir string

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Runner owns a lattice and the walker entities that mirror its tracked
// particles.
type Runner struct {
	cfg   *config.Config
	space *lattice.Space
	rng   *rand.Rand
	seed  int64
	ids   *IDAllocator

	world        *ecs.World
	walkerMapper *ecs.Map3[components.Walker, components.Site, components.MoveTally]
	walkerFilter *ecs.Filter3[components.Walker, components.Site, components.MoveTally]
	siteMap      *ecs.Map[components.Site]

	// sites maps occupied voxels to the walker standing there.
	sites map[lattice.Coordinate]ecs.Entity

	step int32

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)
}

// NewRunner builds the lattice described by cfg, places the initial
// population and spawns one walker per tracked particle.
func NewRunner(cfg *config.Config, opts Options) (*Runner, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	space, err := NewSpace(cfg)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	r := &Runner{
		cfg:           cfg,
		space:         space,
		rng:           rand.New(rand.NewSource(seed)),
		seed:          seed,
		ids:           NewIDAllocator(),
		world:         world,
		walkerMapper:  ecs.NewMap3[components.Walker, components.Site, components.MoveTally](world),
		walkerFilter:  ecs.NewFilter3[components.Walker, components.Site, components.MoveTally](world),
		siteMap:       ecs.NewMap[components.Site](world),
		sites:         make(map[lattice.Coordinate]ecs.Entity),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
		statsCallback: opts.StatsCallback,
	}

	if err := Populate(cfg, space, r.rng, r.ids, r.spawnWalker); err != nil {
		return nil, err
	}

	names := make([]string, 0, space.NumSpecies())
	for _, info := range space.SpeciesList() {
		names = append(names, info.Species.Name())
	}
	r.collector = telemetry.NewCollector(cfg.Telemetry.WindowSteps, names, space.NumVoxels())

	r.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := r.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	slog.Info("lattice ready",
		"seed", seed,
		"voxels", space.NumVoxels(),
		"occupied", space.Occupied(),
		"species", space.NumSpecies(),
		"walkers", len(r.sites),
	)
	return r, nil
}

// spawnWalker creates the entity mirroring a newly placed tracked particle.
func (r *Runner) spawnWalker(id lattice.SpeciesID, pid lattice.ParticleID, c lattice.Coordinate) {
	e := r.walkerMapper.NewEntity(
		&components.Walker{ID: pid, Species: id},
		&components.Site{C: c},
		&components.MoveTally{BirthStep: r.step, LastMoveAt: -1},
	)
	r.sites[c] = e
}

// Space returns the lattice being driven.
func (r *Runner) Space() *lattice.Space { return r.space }

// StepCount returns the number of completed steps.
func (r *Runner) StepCount() int32 { return r.step }

// Seed returns the RNG seed in use.
func (r *Runner) Seed() int64 { return r.seed }

// Walkers returns the number of live walkers.
func (r *Runner) Walkers() int { return len(r.sites) }

// Step runs one step: every walker requests one move, occupancy is sampled,
// the lattice is validated on schedule, and the telemetry window is flushed
// when due.
func (r *Runner) Step() error {
	r.perfCollector.StartStep()

	r.perfCollector.StartPhase(telemetry.PhaseMoves)
	if err := r.moveWalkers(); err != nil {
		return r.fail("move", err)
	}

	r.perfCollector.StartPhase(telemetry.PhaseSample)
	r.collector.Sample(r.speciesCounts())

	r.step++

	if every := r.cfg.Run.ValidateEvery; every > 0 && int(r.step)%every == 0 {
		r.perfCollector.StartPhase(telemetry.PhaseValidate)
		if err := r.Validate(); err != nil {
			return r.fail("invariant", err)
		}
	}

	r.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	r.flushTelemetry()

	r.perfCollector.EndStep()
	return nil
}

// Run performs steps until n steps have completed in total, or forever when
// n is 0.
func (r *Runner) Run(n int) error {
	for n == 0 || int(r.step) < n {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

// moveWalkers issues one move request per walker.
func (r *Runner) moveWalkers() error {
	n := r.space.NumVoxels()

	query := r.walkerFilter.Query()
	for query.Next() {
		walker, site, tally := query.Get()
		from := site.C
		to := lattice.Coordinate(r.rng.Intn(n))

		err := r.space.MoveParticle(from, to)
		r.collector.RecordMove(from, to, err)
		tally.Attempts++

		switch {
		case err == nil:
			tally.Accepted++
			if from != to {
				tally.LastMoveAt = r.step
				r.relocate(query.Entity(), from, to)
			}
		case errors.Is(err, lattice.ErrInvalidLocation):
			tally.Rejected++
		default:
			// Walkers only stand on occupied in-range voxels, so anything
			// else means the mirror and the lattice disagree.
			query.Close()
			return fmt.Errorf("walker %v at %d: %w", walker.ID, from, err)
		}
	}
	return nil
}

// relocate updates the walker index after an accepted move from -> to. A
// tracked substrate walker displaced from to now stands on from.
func (r *Runner) relocate(mover ecs.Entity, from, to lattice.Coordinate) {
	displaced, ok := r.sites[to]
	r.sites[to] = mover
	r.siteMap.Get(mover).C = to
	if ok {
		r.sites[from] = displaced
		r.siteMap.Get(displaced).C = from
	} else {
		delete(r.sites, from)
	}
}

// speciesCounts returns occupant counts indexed by SpeciesID.
func (r *Runner) speciesCounts() []int {
	infos := r.space.SpeciesList()
	counts := make([]int, len(infos))
	for i, info := range infos {
		counts[i] = info.Count
	}
	return counts
}

// Validate checks the lattice invariant and that every walker's site agrees
// with the lattice's own record of its particle.
func (r *Runner) Validate() error {
	if err := r.space.Validate(); err != nil {
		return err
	}

	var mismatch error
	query := r.walkerFilter.Query()
	for query.Next() {
		walker, site, _ := query.Get()
		_, c, ok := r.space.FindParticle(walker.ID)
		if !ok || c != site.C {
			mismatch = fmt.Errorf("walker %v at %d, lattice has it at %d (found=%v)", walker.ID, site.C, c, ok)
			query.Close()
			break
		}
	}
	return mismatch
}

// fail logs err, saves a snapshot if a snapshot dir is configured, and
// returns err wrapped with the step number.
func (r *Runner) fail(reason string, err error) error {
	slog.Error("runner step failed", "step", r.step, "reason", reason, "error", err)
	if r.snapshotDir != "" {
		r.saveSnapshot(reason)
	}
	return fmt.Errorf("step %d: %w", r.step, err)
}

// walkerRates returns the lifetime acceptance rate of every walker.
func (r *Runner) walkerRates() []float64 {
	rates := make([]float64, 0, len(r.sites))
	query := r.walkerFilter.Query()
	for query.Next() {
		_, _, tally := query.Get()
		rates = append(rates, tally.AcceptRate())
	}
	return rates
}

// Close flushes the final partial window, writes the occupancy plot and
// closes output files.
func (r *Runner) Close() error {
	if r.collector.Pending(r.step) {
		r.flush()
	}
	if err := r.outputManager.WritePlot(); err != nil {
		slog.Error("failed to write plot", "error", err)
	}
	if r.snapshotDir != "" {
		r.saveSnapshot("")
	}
	return r.outputManager.Close()
}
