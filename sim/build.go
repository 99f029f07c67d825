// Package sim drives a lattice Space with randomized move requests. It is a
// soak harness: every tracked particle is mirrored by a walker entity that
// requests a move to a uniformly random voxel each step.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/hcp/config"
	"github.com/pthm-cable/hcp/lattice"
)

// IDAllocator mints particle IDs. Lot is the species ID, Serial counts up
// from 1 within the lot.
type IDAllocator struct {
	next map[lattice.SpeciesID]uint64
}

// NewIDAllocator creates an allocator with every lot starting at serial 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: make(map[lattice.SpeciesID]uint64)}
}

// Next returns a fresh ID for a particle of species id.
func (a *IDAllocator) Next(id lattice.SpeciesID) lattice.ParticleID {
	a.next[id]++
	return lattice.ParticleID{Lot: uint64(id), Serial: a.next[id]}
}

// NewSpace creates a lattice and registers the configured species in order.
func NewSpace(cfg *config.Config) (*lattice.Space, error) {
	space, err := lattice.NewSpace(cfg.Lattice.VoxelRadius, cfg.Lattice.Size())
	if err != nil {
		return nil, fmt.Errorf("creating lattice: %w", err)
	}

	for _, sc := range cfg.Species {
		mode, err := lattice.ParseMode(sc.Mode)
		if err != nil {
			return nil, fmt.Errorf("species %q: %w", sc.Name, err)
		}
		substrate := lattice.NoSpecies
		if sc.Substrate != "" {
			id, ok := space.Lookup(sc.Substrate)
			if !ok {
				return nil, fmt.Errorf("species %q: substrate %q: %w", sc.Name, sc.Substrate, lattice.ErrUnknownSpecies)
			}
			substrate = id
		}
		if _, err := space.AddSpecies(lattice.NewSpecies(sc.Name), mode, substrate); err != nil {
			return nil, fmt.Errorf("registering species: %w", err)
		}
	}
	return space, nil
}

// Populate places the configured population at random bare voxels, then
// fills the remaining bare voxels with every species marked fill. place is
// called for each placed particle of a tracked species.
func Populate(cfg *config.Config, space *lattice.Space, rng *rand.Rand, ids *IDAllocator,
	place func(lattice.SpeciesID, lattice.ParticleID, lattice.Coordinate)) error {
	order := rng.Perm(space.NumVoxels())
	cursor := 0

	for _, pc := range cfg.Population {
		id, ok := space.Lookup(pc.Species)
		if !ok {
			return fmt.Errorf("population %q: %w", pc.Species, lattice.ErrUnknownSpecies)
		}
		info, err := space.Info(id)
		if err != nil {
			return err
		}
		for n := 0; n < pc.Count; n++ {
			c, ok := nextBare(space, order, &cursor)
			if !ok {
				return fmt.Errorf("population %q: no bare voxel left after %d placements", pc.Species, n)
			}
			var pid lattice.ParticleID
			if info.Mode == lattice.ModeTrack {
				pid = ids.Next(id)
			}
			if err := space.PlaceParticle(id, pid, c); err != nil {
				return fmt.Errorf("placing %q: %w", pc.Species, err)
			}
			if info.Mode == lattice.ModeTrack && place != nil {
				place(id, pid, c)
			}
		}
	}

	for _, sc := range cfg.Species {
		if !sc.Fill {
			continue
		}
		id, _ := space.Lookup(sc.Name)
		if _, err := space.Fill(id); err != nil {
			return fmt.Errorf("filling with %q: %w", sc.Name, err)
		}
	}
	return nil
}

// nextBare advances cursor through order to the next unoccupied voxel.
func nextBare(space *lattice.Space, order []int, cursor *int) (lattice.Coordinate, bool) {
	for *cursor < len(order) {
		c := lattice.Coordinate(order[*cursor])
		*cursor++
		if id, err := space.SpeciesAt(c); err == nil && id == lattice.NoSpecies {
			return c, true
		}
	}
	return 0, false
}
