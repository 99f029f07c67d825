package components

import "github.com/pthm-cable/hcp/lattice"

// Site is the voxel a walker occupies. It is updated only after the lattice
// accepts a move.
type Site struct {
	C lattice.Coordinate
}
