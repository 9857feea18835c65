package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("embedded defaults: %v", err)
	}
	if cfg.Map.Width != 40 || cfg.Map.Height != 30 {
		t.Errorf("map = %dx%d, want 40x30", cfg.Map.Width, cfg.Map.Height)
	}
	if len(cfg.Species) != 2 {
		t.Fatalf("got %d default species, want 2", len(cfg.Species))
	}
	if i, ok := cfg.Derived.SpeciesIndex["tuna"]; !ok || i != 1 {
		t.Errorf("SpeciesIndex[tuna] = %d, %v", i, ok)
	}
	sp := cfg.Species[0]
	if sp.Aging.Type != "standard" || sp.Mortality.Type != "none" || sp.Recruitment.Interval != 365 {
		t.Errorf("derived defaults not filled: %+v", sp)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	err = Parse(cfg, []byte(`
map:
  width: 5
species:
  - name: plaice
    representation: abundance
    meristics:
      weights: [[1, 2, 3]]
    recruitment:
      type: fixed
      rate: 100
      spread: {10: 0.5, 20: 0.5}
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Map.Width != 5 || cfg.Map.Height != 30 {
		t.Errorf("map = %dx%d, want overlay width and default height", cfg.Map.Width, cfg.Map.Height)
	}
	if len(cfg.Species) != 1 || cfg.Species[0].Code != "plaice" {
		t.Fatalf("species list not replaced: %+v", cfg.Species)
	}
	if got := cfg.Species[0].Recruitment.Interval; got != 1 {
		t.Errorf("spread recruitment interval = %d, want daily", got)
	}
	if got := cfg.Species[0].Initial.Allocator; got.Type != "constant" || got.Value != 1 {
		t.Errorf("initial allocator = %+v, want constant 1", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		wantErr string
	}{
		{"unknown recruitment", `
species:
  - name: a
    representation: abundance
    meristics: {weights: [[1]]}
    recruitment: {type: ricker}`, `unknown type "ricker"`},
		{"unknown neighborhood", `
map: {neighborhood: hex}`, `unknown neighborhood "hex"`},
		{"duplicate names", `
species:
  - name: a
  - name: a`, "duplicate name"},
		{"mixed representations", `
species:
  - name: a
  - name: b
    representation: abundance
    meristics: {weights: [[1]]}`, "representation"},
		{"abundance without meristics", `
species:
  - name: a
    representation: abundance`, "meristics"},
		{"growth on abundance", `
species:
  - name: a
    representation: abundance
    meristics: {weights: [[1]]}
    growth: {type: logistic, rate: 1}`, "growth"},
		{"bad migration direction", `
species:
  - name: a
    migration: {rate: 0.1, direction: up}`, `unknown direction "up"`},
		{"bad map", `
map: {width: 0}`, "invalid size"},
		{"snapshot before any fish", `
species:
  - name: a
    initial:
      allocator: {type: snapshot}`, "snapshot needs fish"},
		{"exclusive targets", `
species:
  - name: a
    reset:
      enabled: true
      targets: {0: 10}
      log_normal: {mu: 1, sigma: 1}`, "exclusive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			err = Parse(cfg, []byte(tt.overlay))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.Seed = 99
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Simulation.Seed != 99 || len(loaded.Species) != len(cfg.Species) {
		t.Errorf("round trip lost data: seed %d, %d species", loaded.Simulation.Seed, len(loaded.Species))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want not-exist error", err)
	}
}

func TestCfgRequiresInit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Cfg before Init should panic")
		}
	}()
	global = nil
	Cfg()
}
