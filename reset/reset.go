// Package reset puts a species' population back onto the map in a chosen
// spatial pattern. A resetter first records how much of the species there
// is, then spreads that amount over the livable tiles by allocator weight.
package reset

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Resetter is the two-phase record/reset protocol.
type Resetter interface {
	Species() *species.Species
	// RecordSnapshot records the current total and, for snapshot
	// allocators, the current spatial pattern.
	RecordSnapshot(m *sim.Model)
	// RecordTotal records the current total only.
	RecordTotal(m *sim.Model)
	ResetAbundance(mp *ocean.Map, r *rand.Rand) error
}

// base carries what both resetters share.
type base struct {
	species   *species.Species
	allocator allocator.Allocator
	target    Target
	year      int
	log       *slog.Logger
}

// SetTarget makes resets aim for a yearly target total instead of the
// recorded one. Nil restores the recorded total.
func (b *base) SetTarget(t Target) { b.target = t }

func (b *base) Species() *species.Species { return b.species }

func (b *base) snapshot(m *sim.Model) {
	if s, ok := b.allocator.(allocator.Snapshotter); ok {
		s.TakeSnapshot(m.Map)
	}
}

// weigh scores tiles. Non-finite and negative weights count as zero.
func (b *base) weigh(tiles []ocean.Tile, mp *ocean.Map, r *rand.Rand) ([]float64, float64) {
	weights := make([]float64, len(tiles))
	for i, t := range tiles {
		w := b.allocator.Allocate(t, mp, r)
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			w = 0
		}
		weights[i] = w
	}
	sum := floats.Sum(weights)
	if sum <= 0 {
		b.logger().Warn("reset skipped, allocator gave every tile zero weight",
			"species", b.species.Name,
			"tiles", len(tiles),
		)
	}
	return weights, sum
}

func (b *base) logger() *slog.Logger {
	if b.log != nil {
		return b.log
	}
	return slog.Default()
}
