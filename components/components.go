// Package components defines ECS components for the lattice runner.
package components

import "github.com/pthm-cable/hcp/lattice"

// Walker marks an entity that mirrors one tracked lattice particle.
type Walker struct {
	ID      lattice.ParticleID
	Species lattice.SpeciesID
}

// MoveTally counts move requests issued for a walker.
type MoveTally struct {
	Attempts   int
	Accepted   int
	Rejected   int // Substrate mismatch at the destination
	BirthStep  int32
	LastMoveAt int32 // Step of the last accepted move (-1 = never moved)
}

// AcceptRate returns accepted / attempts, or 0 before the first attempt.
func (m *MoveTally) AcceptRate() float64 {
	if m.Attempts == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Attempts)
}
