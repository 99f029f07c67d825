package lattice

import "fmt"

// State is a detached copy of a Space, suitable for serialization.
type State struct {
	VoxelRadius float64        `json:"voxel_radius"`
	Size        Size           `json:"size"`
	Species     []SpeciesState `json:"species"`
	Voxels      []SpeciesID    `json:"voxels"`
}

// SpeciesState is the serialized form of one species entry. Placements is
// set for tracked species, Count for counted ones.
type SpeciesState struct {
	Name       string      `json:"name"`
	Mode       string      `json:"mode"`
	Substrate  SpeciesID   `json:"substrate"`
	Placements []Placement `json:"placements,omitempty"`
	Count      int         `json:"count,omitempty"`
}

// State copies the current voxel array and species index.
func (s *Space) State() State {
	st := State{
		VoxelRadius: s.voxelRadius,
		Size:        s.size,
		Species:     make([]SpeciesState, len(s.species)),
		Voxels:      append([]SpeciesID(nil), s.voxels...),
	}
	for i, e := range s.species {
		ss := SpeciesState{
			Name:      e.species.name,
			Mode:      e.occ.mode().String(),
			Substrate: e.substrate,
		}
		switch occ := e.occ.(type) {
		case *tracked:
			ss.Placements = append([]Placement(nil), occ.placements...)
		case *counted:
			ss.Count = occ.n
		}
		st.Species[i] = ss
	}
	return st
}

// FromState rebuilds a Space from st and validates it.
func FromState(st State) (*Space, error) {
	s, err := NewSpace(st.VoxelRadius, st.Size)
	if err != nil {
		return nil, err
	}
	if len(st.Voxels) != s.NumVoxels() {
		return nil, fmt.Errorf("state has %d voxels, size %dx%dx%d needs %d",
			len(st.Voxels), st.Size.Rows, st.Size.Cols, st.Size.Layers, s.NumVoxels())
	}
	for _, ss := range st.Species {
		mode, err := ParseMode(ss.Mode)
		if err != nil {
			return nil, fmt.Errorf("species %q: %w", ss.Name, err)
		}
		id, err := s.AddSpecies(NewSpecies(ss.Name), mode, ss.Substrate)
		if err != nil {
			return nil, err
		}
		switch occ := s.species[id].occ.(type) {
		case *tracked:
			occ.placements = append(occ.placements, ss.Placements...)
		case *counted:
			occ.n = ss.Count
		}
	}
	copy(s.voxels, st.Voxels)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent state: %w", err)
	}
	return s, nil
}
