package lattice

import (
	"errors"
	"fmt"
)

// Sentinel errors. The coordinate-carrying error types below match the first
// three with errors.Is.
var (
	ErrOutOfRange        = errors.New("coordinate out of range")
	ErrParticleNotFound  = errors.New("particle not found")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrInvalidSize       = errors.New("lattice extents must be positive")
	ErrSpeciesExists     = errors.New("species already registered")
	ErrUnknownSpecies    = errors.New("unknown species")
	ErrOccupied          = errors.New("voxel occupied")
	ErrDuplicateParticle = errors.New("particle already placed")
	ErrNotCounting       = errors.New("species is not in count mode")
)

// OutOfRangeError reports a coordinate outside the voxel array.
type OutOfRangeError struct {
	Coordinate Coordinate
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("coordinate %d out of range", e.Coordinate)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// ParticleNotFoundError reports a move from an unoccupied voxel.
type ParticleNotFoundError struct {
	Coordinate Coordinate
}

func (e *ParticleNotFoundError) Error() string {
	return fmt.Sprintf("no particle at coordinate %d", e.Coordinate)
}

func (e *ParticleNotFoundError) Is(target error) bool { return target == ErrParticleNotFound }

// InvalidLocationError reports a destination whose occupant does not match
// the mover's substrate.
type InvalidLocationError struct {
	From, To Coordinate
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("cannot move from %d to %d: substrate mismatch", e.From, e.To)
}

func (e *InvalidLocationError) Is(target error) bool { return target == ErrInvalidLocation }
