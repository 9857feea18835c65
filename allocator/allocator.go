// Package allocator scores tiles. Scores weigh where recruits go, where a
// reset puts the population back and how habitable diffusion considers a
// tile. Scores are relative; callers normalise them.
package allocator

import (
	"math"
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/species"
)

// Allocator returns the weight of a tile. Any randomness must come from r.
type Allocator interface {
	Allocate(t ocean.Tile, m *ocean.Map, r *rand.Rand) float64
}

// Snapshotter is an allocator whose weights come from a recorded state of
// the map.
type Snapshotter interface {
	Allocator
	TakeSnapshot(m *ocean.Map)
}

// Func adapts a function to Allocator.
type Func func(t ocean.Tile, m *ocean.Map, r *rand.Rand) float64

func (f Func) Allocate(t ocean.Tile, m *ocean.Map, r *rand.Rand) float64 { return f(t, m, r) }

// Constant gives every tile the same weight.
type Constant struct {
	Value float64
}

func (c Constant) Allocate(ocean.Tile, *ocean.Map, *rand.Rand) float64 { return c.Value }

// FixedTile puts all weight on one tile.
type FixedTile struct {
	Tile ocean.Tile
}

func (f FixedTile) Allocate(t ocean.Tile, _ *ocean.Map, _ *rand.Rand) float64 {
	if t == f.Tile {
		return 1
	}
	return 0
}

// Bounded restricts another allocator to a rectangle, inclusive on all sides.
type Bounded struct {
	Base                   Allocator
	MinX, MaxX, MinY, MaxY int
}

func (b Bounded) Allocate(t ocean.Tile, m *ocean.Map, r *rand.Rand) float64 {
	if t.X < b.MinX || t.X > b.MaxX || t.Y < b.MinY || t.Y > b.MaxY {
		return 0
	}
	return b.Base.Allocate(t, m, r)
}

// TakeSnapshot forwards to a snapshot base so bounding keeps it refreshable.
func (b Bounded) TakeSnapshot(m *ocean.Map) {
	if s, ok := b.Base.(Snapshotter); ok {
		s.TakeSnapshot(m)
	}
}

// Depth gives weight 1 to water tiles whose depth lies in [Min, Max] meters.
type Depth struct {
	Min, Max float64
}

func (d Depth) Allocate(t ocean.Tile, m *ocean.Map, _ *rand.Rand) float64 {
	if !m.IsWater(t) {
		return 0
	}
	depth := -m.Altitude(t)
	if depth < d.Min || depth > d.Max {
		return 0
	}
	return 1
}

// Noise weighs tiles with layered simplex noise, giving patchy but spatially
// coherent distributions. Weights are in [0, 1].
type Noise struct {
	Scale       float64
	Octaves     int
	Persistence float64
	Threshold   float64 // weights below this are zeroed

	noise opensimplex.Noise
}

// NewNoise builds a noise allocator with its own fixed seed. The seed only
// shapes the field; no random draws happen at allocation time.
func NewNoise(seed int64, scale float64, octaves int, persistence, threshold float64) *Noise {
	return &Noise{
		Scale:       scale,
		Octaves:     max(octaves, 1),
		Persistence: persistence,
		Threshold:   threshold,
		noise:       opensimplex.NewNormalized(seed),
	}
}

func (n *Noise) Allocate(t ocean.Tile, _ *ocean.Map, _ *rand.Rand) float64 {
	w := ocean.OctaveNoise(n.noise, float64(t.X)*n.Scale, float64(t.Y)*n.Scale, n.Octaves, n.Persistence)
	if w < n.Threshold {
		return 0
	}
	return w
}

// Snapshot weighs each tile by the share of a species' biomass it held when
// the snapshot was taken. Before any snapshot every tile weighs 0.
type Snapshot struct {
	Species *species.Species

	shares map[ocean.Tile]float64
}

// TakeSnapshot records the current biomass share of every livable tile.
func (s *Snapshot) TakeSnapshot(m *ocean.Map) {
	s.shares = make(map[ocean.Tile]float64, len(m.Livable()))
	total := m.TotalBiomass(s.Species)
	if total <= 0 || math.IsNaN(total) {
		return
	}
	for _, t := range m.Livable() {
		if b := m.Biology(t); b != nil {
			s.shares[t] = b.Biomass(s.Species) / total
		}
	}
}

func (s *Snapshot) Allocate(t ocean.Tile, _ *ocean.Map, _ *rand.Rand) float64 {
	return s.shares[t]
}
