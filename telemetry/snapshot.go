package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state of every occupied tile.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`
	Day     int    `json:"day"`

	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Species []string `json:"species"`

	Cells []CellState `json:"cells"`
}

// CellState holds one tile's populations, indexed by species.
type CellState struct {
	X int `json:"x"`
	Y int `json:"y"`

	Biomass []float64 `json:"biomass"`

	// Capacity is set for biomass cells.
	Capacity []float64 `json:"capacity,omitempty"`

	// Abundance is set for abundance cells: [species][subdivision][bin].
	Abundance [][][]float64 `json:"abundance,omitempty"`
}

// TakeSnapshot records every livable tile that carries a biology.
func TakeSnapshot(m *sim.Model) *Snapshot {
	all := m.Species.All()
	s := &Snapshot{
		Version: SnapshotVersion,
		Seed:    m.Seed(),
		Day:     m.Day(),
		Width:   m.Map.Width(),
		Height:  m.Map.Height(),
	}
	for _, sp := range all {
		s.Species = append(s.Species, sp.Name)
	}
	for _, t := range m.Map.Livable() {
		b := m.Map.Biology(t)
		if b == nil {
			continue
		}
		cs := CellState{X: t.X, Y: t.Y, Biomass: make([]float64, len(all))}
		for i, sp := range all {
			cs.Biomass[i] = b.Biomass(sp)
		}
		switch c := b.(type) {
		case *biology.BiomassCell:
			cs.Capacity = make([]float64, len(all))
			for i, sp := range all {
				cs.Capacity[i] = c.CarryingCapacity(sp)
			}
		case *biology.AbundanceCell:
			for _, sp := range all {
				cs.Abundance = append(cs.Abundance, c.Abundance(sp).Matrix())
			}
		}
		s.Cells = append(s.Cells, cs)
	}
	return s
}

// Restore writes the recorded populations back onto the model's cells.
// Tiles must carry a biology of the recorded kind.
func (s *Snapshot) Restore(m *sim.Model) error {
	all := m.Species.All()
	if len(all) != len(s.Species) {
		return fmt.Errorf("snapshot has %d species, model has %d", len(s.Species), len(all))
	}
	for i, sp := range all {
		if sp.Name != s.Species[i] {
			return fmt.Errorf("snapshot species %d is %q, model has %q", i, s.Species[i], sp.Name)
		}
	}
	for _, cs := range s.Cells {
		if err := cs.restore(m); err != nil {
			return fmt.Errorf("restore tile (%d,%d): %w", cs.X, cs.Y, err)
		}
	}
	return nil
}

func (cs CellState) restore(m *sim.Model) error {
	all := m.Species.All()
	b := m.Map.Biology(ocean.Tile{X: cs.X, Y: cs.Y})
	switch c := b.(type) {
	case *biology.BiomassCell:
		if len(cs.Capacity) != len(all) {
			return errors.New("no capacity recorded for biomass cell")
		}
		for i, sp := range all {
			if err := c.SetCarryingCapacity(sp, cs.Capacity[i]); err != nil {
				return err
			}
			if err := c.SetCurrentBiomass(sp, cs.Biomass[i]); err != nil {
				return err
			}
		}
	case *biology.AbundanceCell:
		if len(cs.Abundance) != len(all) {
			return errors.New("no abundance recorded for abundance cell")
		}
		for i, sp := range all {
			ab, err := biology.AbundanceFrom(cs.Abundance[i])
			if err != nil {
				return err
			}
			if err := c.SetAbundance(sp, ab); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported biology %T", b)
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Day))

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
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
