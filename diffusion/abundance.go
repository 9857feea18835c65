package diffusion

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Habitability scores how attractive a tile is. Allocators satisfy it.
type Habitability interface {
	Allocate(t ocean.Tile, m *ocean.Map, r *rand.Rand) float64
}

// Abundance diffuses fish bin by bin between neighbouring abundance cells.
// For each subdivision and each bin in [MinBin, MaxBin] it moves
//
//	Rate * (here - there * wHere/wThere)
//
// when positive, where w is the habitability of a tile (1 everywhere
// without Habitability). A tile with zero habitability receives nothing.
type Abundance struct {
	Species  *species.Species
	Rate     float64
	MinBin   int
	MaxBin   int  // inclusive
	Rounding bool // move whole fish only

	Habitability Habitability

	weights map[ocean.Tile]float64
	pairs   pairs
}

// NewConstantRate diffuses every bin at the same rate between equally
// habitable tiles.
func NewConstantRate(sp *species.Species, rate float64) (*Abundance, error) {
	return NewAgeLimited(sp, rate, 0, sp.Bins()-1)
}

// NewAgeLimited diffuses only bins in [minBin, maxBin].
func NewAgeLimited(sp *species.Species, rate float64, minBin, maxBin int) (*Abundance, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("diffusion: rate %g outside [0,1]", rate)
	}
	if minBin < 0 || maxBin >= sp.Bins() || minBin > maxBin {
		return nil, fmt.Errorf("diffusion: bin range [%d,%d] invalid for %d bins", minBin, maxBin, sp.Bins())
	}
	return &Abundance{Species: sp, Rate: rate, MinBin: minBin, MaxBin: maxBin}, nil
}

// NewWeighted diffuses toward tiles in proportion to their habitability.
func NewWeighted(sp *species.Species, rate float64, minBin, maxBin int, h Habitability) (*Abundance, error) {
	d, err := NewAgeLimited(sp, rate, minBin, maxBin)
	if err != nil {
		return nil, err
	}
	d.Habitability = h
	return d, nil
}

// weight returns the cached habitability of a tile.
func (d *Abundance) weight(m *sim.Model, t ocean.Tile) float64 {
	if d.Habitability == nil {
		return 1
	}
	if d.weights == nil {
		d.weights = make(map[ocean.Tile]float64)
		// a snapshot habitability keeps the stock where it started
		if s, ok := d.Habitability.(allocator.Snapshotter); ok {
			s.TakeSnapshot(m.Map)
		}
	}
	w, ok := d.weights[t]
	if !ok {
		w = d.Habitability.Allocate(t, m.Map, m.Random)
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			w = 0
		}
		d.weights[t] = w
	}
	return w
}

func (d *Abundance) Step(m *sim.Model) error {
	return d.pairs.each(m, func(here, there ocean.Tile) error {
		src, dst := abundanceCell(m.Map, here), abundanceCell(m.Map, there)
		if src == nil || dst == nil {
			return nil
		}
		err := d.Move(src.Abundance(d.Species), dst.Abundance(d.Species), d.weight(m, here), d.weight(m, there))
		if err != nil {
			return fmt.Errorf("species %q tile %v -> %v: %w", d.Species.Name, here, there, err)
		}
		return nil
	})
}

// Move applies the rule once from src to dst given both tiles' habitability.
func (d *Abundance) Move(src, dst *biology.Abundance, wHere, wThere float64) error {
	if !src.SameShape(dst) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", biology.ErrShape, src.Subdivisions(), src.Bins(), dst.Subdivisions(), dst.Bins())
	}
	if wThere <= 0 {
		return nil
	}
	ratio := wHere / wThere
	last := min(d.MaxBin, src.Bins()-1)
	for s := range src.Subdivisions() {
		for b := d.MinBin; b <= last; b++ {
			here, there := src.At(s, b), dst.At(s, b)
			move := d.Rate * (here - there*ratio)
			if d.Rounding {
				move = math.Floor(move)
			}
			if move <= 0 {
				continue
			}
			move = min(move, here)
			src.Set(s, b, here-move)
			dst.Set(s, b, there+move)
		}
	}
	return nil
}
