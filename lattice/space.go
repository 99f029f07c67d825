package lattice

import "fmt"

// Space is an HCP voxel lattice where each voxel holds at most one occupant.
// It is not safe for concurrent use; MoveParticle mutates two species
// entries and the voxel array in sequence.
type Space struct {
	voxelRadius float64
	size        Size
	voxels      []SpeciesID
	species     []*speciesEntry
	byName      map[string]SpeciesID
}

// SpeciesInfo describes one registered species.
type SpeciesInfo struct {
	ID        SpeciesID
	Species   Species
	Mode      Mode
	Substrate SpeciesID
	Count     int
}

// NewSpace creates a lattice with every voxel unoccupied and no species.
// voxelRadius is carried for geometry consumers and does not affect occupancy.
func NewSpace(voxelRadius float64, size Size) (*Space, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	voxels := make([]SpeciesID, size.Voxels())
	for i := range voxels {
		voxels[i] = NoSpecies
	}
	return &Space{
		voxelRadius: voxelRadius,
		size:        size,
		voxels:      voxels,
		byName:      make(map[string]SpeciesID),
	}, nil
}

// VoxelRadius returns the radius passed to NewSpace.
func (s *Space) VoxelRadius() float64 { return s.voxelRadius }

// Size returns the lattice extents.
func (s *Space) Size() Size { return s.size }

// NumVoxels returns the length of the voxel array.
func (s *Space) NumVoxels() int { return len(s.voxels) }

// NumSpecies returns the number of registered species.
func (s *Space) NumSpecies() int { return len(s.species) }

// AddSpecies registers a species. substrate must be NoSpecies or an already
// registered species; it names what a voxel must hold for particles of this
// species to move onto it.
func (s *Space) AddSpecies(sp Species, mode Mode, substrate SpeciesID) (SpeciesID, error) {
	if _, ok := s.byName[sp.name]; ok {
		return NoSpecies, fmt.Errorf("%q: %w", sp.name, ErrSpeciesExists)
	}
	if substrate != NoSpecies && !s.known(substrate) {
		return NoSpecies, fmt.Errorf("substrate %d for %q: %w", substrate, sp.name, ErrUnknownSpecies)
	}
	if mode != ModeTrack && mode != ModeCount {
		return NoSpecies, fmt.Errorf("%q: invalid mode %v", sp.name, mode)
	}
	id := SpeciesID(len(s.species))
	s.species = append(s.species, newSpeciesEntry(sp, mode, substrate))
	s.byName[sp.name] = id
	return id, nil
}

// Lookup returns the ID registered for name.
func (s *Space) Lookup(name string) (SpeciesID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Info describes the species registered under id.
func (s *Space) Info(id SpeciesID) (SpeciesInfo, error) {
	if !s.known(id) {
		return SpeciesInfo{}, fmt.Errorf("species %d: %w", id, ErrUnknownSpecies)
	}
	e := s.species[id]
	return SpeciesInfo{
		ID:        id,
		Species:   e.species,
		Mode:      e.occ.mode(),
		Substrate: e.substrate,
		Count:     e.count(),
	}, nil
}

// SpeciesList describes every registered species in ID order.
func (s *Space) SpeciesList() []SpeciesInfo {
	out := make([]SpeciesInfo, 0, len(s.species))
	for i := range s.species {
		info, _ := s.Info(SpeciesID(i))
		out = append(out, info)
	}
	return out
}

// Particles returns a copy of the placements of a tracked species, in
// insertion order. Count-mode species return nil.
func (s *Space) Particles(id SpeciesID) ([]Placement, error) {
	if !s.known(id) {
		return nil, fmt.Errorf("species %d: %w", id, ErrUnknownSpecies)
	}
	occ, ok := s.species[id].occ.(*tracked)
	if !ok {
		return nil, nil
	}
	return append([]Placement(nil), occ.placements...), nil
}

// SpeciesAt returns the species occupying c, or NoSpecies.
func (s *Space) SpeciesAt(c Coordinate) (SpeciesID, error) {
	if !s.size.Contains(c) {
		return NoSpecies, &OutOfRangeError{Coordinate: c}
	}
	return s.voxels[c], nil
}

// Occupied returns the number of voxels holding any species.
func (s *Space) Occupied() int {
	n := 0
	for _, v := range s.voxels {
		if v != NoSpecies {
			n++
		}
	}
	return n
}

// PlaceParticle puts a new occupant of species id on the bare voxel c.
// pid is recorded for tracked species and ignored for counted ones.
func (s *Space) PlaceParticle(id SpeciesID, pid ParticleID, c Coordinate) error {
	if !s.size.Contains(c) {
		return &OutOfRangeError{Coordinate: c}
	}
	if !s.known(id) {
		return fmt.Errorf("species %d: %w", id, ErrUnknownSpecies)
	}
	if s.voxels[c] != NoSpecies {
		return fmt.Errorf("coordinate %d: %w", c, ErrOccupied)
	}
	e := s.species[id]
	if e.occ.mode() == ModeTrack {
		if _, at, ok := s.FindParticle(pid); ok {
			return fmt.Errorf("particle %v at %d: %w", pid, at, ErrDuplicateParticle)
		}
	}
	e.add(pid, c)
	s.voxels[c] = id
	return nil
}

// Fill occupies every bare voxel with the count-mode species id and returns
// the number of voxels filled.
func (s *Space) Fill(id SpeciesID) (int, error) {
	if !s.known(id) {
		return 0, fmt.Errorf("species %d: %w", id, ErrUnknownSpecies)
	}
	e := s.species[id]
	if e.occ.mode() != ModeCount {
		return 0, fmt.Errorf("fill with %q: %w", e.species.name, ErrNotCounting)
	}
	n := 0
	for i, v := range s.voxels {
		if v != NoSpecies {
			continue
		}
		e.add(ParticleID{}, Coordinate(i))
		s.voxels[i] = id
		n++
	}
	return n, nil
}

// RemoveParticle clears voxel c and returns the species and particle ID that
// held it. The ID is zero for count-mode species.
func (s *Space) RemoveParticle(c Coordinate) (SpeciesID, ParticleID, error) {
	if !s.size.Contains(c) {
		return NoSpecies, ParticleID{}, &OutOfRangeError{Coordinate: c}
	}
	id := s.voxels[c]
	if id == NoSpecies {
		return NoSpecies, ParticleID{}, &ParticleNotFoundError{Coordinate: c}
	}
	pid := s.species[id].remove(c)
	s.voxels[c] = NoSpecies
	return id, pid, nil
}

// FindParticle scans tracked species for pid. Counted species carry no
// identity and are never searched.
func (s *Space) FindParticle(pid ParticleID) (Species, Coordinate, bool) {
	for _, e := range s.species {
		occ, ok := e.occ.(*tracked)
		if !ok {
			continue
		}
		if c, ok := occ.find(pid); ok {
			return e.species, c, true
		}
	}
	return Species{}, 0, false
}

// MoveParticle moves the occupant of from onto to. The occupant of to, which
// may be NoSpecies, must be the mover's substrate; a substrate occupant is
// displaced back into from. Moving a particle onto its own voxel is a no-op.
// On error nothing is modified.
func (s *Space) MoveParticle(from, to Coordinate) error {
	if !s.size.Contains(from) {
		return &OutOfRangeError{Coordinate: from}
	}
	if !s.size.Contains(to) {
		return &OutOfRangeError{Coordinate: to}
	}
	fromID := s.voxels[from]
	if fromID == NoSpecies {
		return &ParticleNotFoundError{Coordinate: from}
	}
	if from == to {
		return nil
	}
	toID := s.voxels[to]
	mover := s.species[fromID]
	if mover.substrate != toID {
		return &InvalidLocationError{From: from, To: to}
	}

	mover.moveTo(from, to)
	if toID != NoSpecies {
		s.species[toID].moveTo(to, from)
	}
	s.voxels[from], s.voxels[to] = s.voxels[to], s.voxels[from]
	return nil
}

// Validate checks that the voxel array and the species index agree and
// returns an error describing the first mismatch.
func (s *Space) Validate() error {
	tally := make([]int, len(s.species))
	for i, id := range s.voxels {
		if id == NoSpecies {
			continue
		}
		if !s.known(id) {
			return fmt.Errorf("voxel %d holds unregistered species %d", i, id)
		}
		tally[id]++
		e := s.species[id]
		if e.occ.mode() == ModeTrack && !e.has(Coordinate(i)) {
			return fmt.Errorf("voxel %d holds %q but no particle is tracked there", i, e.species.name)
		}
	}
	seen := make(map[ParticleID]SpeciesID)
	for i, e := range s.species {
		if got := e.count(); got != tally[i] {
			return fmt.Errorf("species %q indexes %d occupants, voxels hold %d", e.species.name, got, tally[i])
		}
		occ, ok := e.occ.(*tracked)
		if !ok {
			continue
		}
		for _, p := range occ.placements {
			if other, dup := seen[p.ID]; dup {
				return fmt.Errorf("particle %v tracked by both %q and %q", p.ID, s.species[other].species.name, e.species.name)
			}
			seen[p.ID] = SpeciesID(i)
		}
	}
	return nil
}

func (s *Space) known(id SpeciesID) bool {
	return id >= 0 && int(id) < len(s.species)
}
