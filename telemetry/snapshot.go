package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/hcp/lattice"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete lattice state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Step    int32 `json:"step"`

	Lattice lattice.State `json:"lattice"`
	Walkers []WalkerState `json:"walkers"`

	// Reason is set when the snapshot was taken because of a failure.
	Reason string `json:"reason,omitempty"`
}

// WalkerState holds one walker's lifetime move tally.
type WalkerState struct {
	ID         lattice.ParticleID `json:"id"`
	Attempts   int                `json:"attempts"`
	Accepted   int                `json:"accepted"`
	Rejected   int                `json:"rejected"`
	BirthStep  int32              `json:"birth_step"`
	LastMoveAt int32              `json:"last_move_at"`
}

// Restore rebuilds the lattice recorded in the snapshot.
func (s *Snapshot) Restore() (*lattice.Space, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	return lattice.FromState(s.Lattice)
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Reason != "" {
		name += "_" + snapshot.Reason
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
