// Package lattice provides the occupancy core of an HCP voxel lattice:
// a flat voxel array of species IDs kept consistent with a per-species index.
package lattice

import (
	"fmt"
	"math"
)

// Coordinate is a linear index into the flattened voxel array.
type Coordinate int

// ParticleID identifies an individual particle. IDs are minted by the caller.
type ParticleID struct {
	Lot    uint64 `json:"lot"`
	Serial uint64 `json:"serial"`
}

func (p ParticleID) String() string {
	return fmt.Sprintf("%d:%d", p.Lot, p.Serial)
}

// Species is a named category of occupant.
type Species struct {
	name string
}

// NewSpecies creates a species with the given name.
func NewSpecies(name string) Species {
	return Species{name: name}
}

// Name returns the species name.
func (s Species) Name() string { return s.name }

func (s Species) String() string { return s.name }

// SpeciesID is a dense index into the species table, assigned on registration.
type SpeciesID int

// NoSpecies marks a bare voxel, or a species whose substrate is a bare voxel.
const NoSpecies SpeciesID = -1

// Mode selects how a species entry keeps its occupants.
type Mode uint8

const (
	ModeTrack Mode = iota // Per-particle identity and coordinate
	ModeCount             // Occupant count only
)

func (m Mode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeCount:
		return "count"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses "track" or "count".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "track":
		return ModeTrack, nil
	case "count":
		return ModeCount, nil
	default:
		return 0, fmt.Errorf("unknown species mode %q", s)
	}
}

// Size holds the lattice extents.
type Size struct {
	Rows   int `json:"rows"`
	Cols   int `json:"cols"`
	Layers int `json:"layers"`
}

// Voxels returns the total voxel count. It is only meaningful for a size
// that passes Validate.
func (s Size) Voxels() int {
	return s.Rows * s.Cols * s.Layers
}

// Contains reports whether c lies inside the voxel array.
func (s Size) Contains(c Coordinate) bool {
	return c >= 0 && int(c) < s.Voxels()
}

// Index converts (row, col, layer) to a linear coordinate. Rows vary
// fastest and layers slowest: row + Rows*(col + Cols*layer).
func (s Size) Index(row, col, layer int) (Coordinate, error) {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols || layer < 0 || layer >= s.Layers {
		return 0, fmt.Errorf("(%d, %d, %d) outside %dx%dx%d: %w",
			row, col, layer, s.Rows, s.Cols, s.Layers, ErrOutOfRange)
	}
	return Coordinate(row + s.Rows*(col+s.Cols*layer)), nil
}

// Validate reports ErrInvalidSize if an extent is not positive or the voxel
// count does not fit in an int.
func (s Size) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 || s.Layers <= 0 {
		return fmt.Errorf("%dx%dx%d: extents must be positive: %w", s.Rows, s.Cols, s.Layers, ErrInvalidSize)
	}
	if s.Cols > math.MaxInt/s.Rows || s.Layers > math.MaxInt/(s.Rows*s.Cols) {
		return fmt.Errorf("%dx%dx%d: voxel count overflows: %w", s.Rows, s.Cols, s.Layers, ErrInvalidSize)
	}
	return nil
}

// Placement pairs a tracked particle with its voxel.
type Placement struct {
	ID         ParticleID `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
}
