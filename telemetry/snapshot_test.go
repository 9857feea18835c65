package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// mixedModel has a biomass cell at (0,0) and an abundance cell at (1,0).
func mixedModel(t *testing.T) (*sim.Model, *species.Species, *species.Species) {
	t.Helper()
	tuna := species.New("tuna", nil)
	cod := species.New("cod", species.MustListMeristics([][]float64{{1, 3}}, nil, nil))
	reg := species.MustRegistry(tuna, cod)
	mp, err := ocean.NewUniformMap(3, 1, -20)
	if err != nil {
		t.Fatal(err)
	}
	bc, err := biology.NewBiomassCell([]float64{40, 0}, []float64{100, 0})
	if err != nil {
		t.Fatal(err)
	}
	ac := biology.NewAbundanceCell(reg)
	if err := ac.SetAbundance(cod, biology.MustAbundance([][]float64{{5, 2}})); err != nil {
		t.Fatal(err)
	}
	_ = mp.SetBiology(ocean.Tile{X: 0}, bc)
	_ = mp.SetBiology(ocean.Tile{X: 1}, ac)
	return sim.NewModel(9, mp, reg), tuna, cod
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	m, _, _ := mixedModel(t)

	snapshot := TakeSnapshot(m)
	if len(snapshot.Cells) != 2 {
		t.Fatalf("snapshot has %d cells, want 2 occupied tiles", len(snapshot.Cells))
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_0.json" {
		t.Errorf("unexpected snapshot name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Fatal("snapshot is not valid JSON")
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 9 || loaded.Width != 3 || len(loaded.Species) != 2 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if got := loaded.Cells[0].Capacity[0]; got != 100 {
		t.Errorf("capacity = %v, want 100", got)
	}
	if got := loaded.Cells[1].Abundance[1][0][1]; got != 2 {
		t.Errorf("abundance = %v, want 2", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	m, tuna, cod := mixedModel(t)
	snapshot := TakeSnapshot(m)

	bc := m.Map.Biology(ocean.Tile{X: 0}).(*biology.BiomassCell)
	if err := bc.SetCurrentBiomass(tuna, 1); err != nil {
		t.Fatal(err)
	}
	ac := m.Map.Biology(ocean.Tile{X: 1}).(*biology.AbundanceCell)
	ac.Abundance(cod).Set(0, 0, 99)

	if err := snapshot.Restore(m); err != nil {
		t.Fatal(err)
	}
	if got := bc.Biomass(tuna); got != 40 {
		t.Errorf("tuna biomass = %v, want 40", got)
	}
	if got := ac.Biomass(cod); got != 11 {
		t.Errorf("cod biomass = %v, want 11", got)
	}
}

func TestSnapshotRestoreRejectsOtherSpecies(t *testing.T) {
	m, _, _ := mixedModel(t)
	snapshot := TakeSnapshot(m)
	snapshot.Species[0] = "marlin"
	if err := snapshot.Restore(m); err == nil {
		t.Error("restore into a different species list should fail")
	}
}

func TestLoadSnapshotRejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}
