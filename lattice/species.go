package lattice

import "fmt"

// occupancy is either *tracked or *counted.
type occupancy interface {
	mode() Mode
}

// tracked keeps one placement per live particle.
type tracked struct {
	placements []Placement
}

// counted keeps only the number of voxels held by the species.
type counted struct {
	n int
}

func (*tracked) mode() Mode { return ModeTrack }
func (*counted) mode() Mode { return ModeCount }

// speciesEntry is one row of the species table.
type speciesEntry struct {
	species   Species
	substrate SpeciesID
	occ       occupancy
}

func newSpeciesEntry(sp Species, mode Mode, substrate SpeciesID) *speciesEntry {
	e := &speciesEntry{species: sp, substrate: substrate}
	if mode == ModeCount {
		e.occ = &counted{}
	} else {
		e.occ = &tracked{}
	}
	return e
}

// add records an occupant at c. pid is ignored in count mode.
func (e *speciesEntry) add(pid ParticleID, c Coordinate) {
	switch occ := e.occ.(type) {
	case *tracked:
		occ.placements = append(occ.placements, Placement{ID: pid, Coordinate: c})
	case *counted:
		occ.n++
	}
}

// remove drops the occupant at c and returns its ID (zero in count mode).
func (e *speciesEntry) remove(c Coordinate) ParticleID {
	switch occ := e.occ.(type) {
	case *tracked:
		i := occ.indexOf(c)
		if i < 0 {
			panic(fmt.Sprintf("lattice: species %q has no particle at %d", e.species.name, c))
		}
		pid := occ.placements[i].ID
		occ.placements = append(occ.placements[:i], occ.placements[i+1:]...)
		return pid
	case *counted:
		if occ.n == 0 {
			panic(fmt.Sprintf("lattice: species %q count underflow", e.species.name))
		}
		occ.n--
	}
	return ParticleID{}
}

// moveTo rewrites the placement at from to point at to. Counts don't track
// position, so count mode is a no-op.
func (e *speciesEntry) moveTo(from, to Coordinate) {
	occ, ok := e.occ.(*tracked)
	if !ok {
		return
	}
	i := occ.indexOf(from)
	if i < 0 {
		panic(fmt.Sprintf("lattice: species %q has no particle at %d", e.species.name, from))
	}
	occ.placements[i].Coordinate = to
}

// has reports whether the tracked entry holds a placement at c. Count-mode
// entries always report false.
func (e *speciesEntry) has(c Coordinate) bool {
	occ, ok := e.occ.(*tracked)
	return ok && occ.indexOf(c) >= 0
}

func (e *speciesEntry) count() int {
	switch occ := e.occ.(type) {
	case *tracked:
		return len(occ.placements)
	case *counted:
		return occ.n
	}
	return 0
}

func (t *tracked) indexOf(c Coordinate) int {
	for i := range t.placements {
		if t.placements[i].Coordinate == c {
			return i
		}
	}
	return -1
}

func (t *tracked) find(pid ParticleID) (Coordinate, bool) {
	for _, p := range t.placements {
		if p.ID == pid {
			return p.Coordinate, true
		}
	}
	return 0, false
}
