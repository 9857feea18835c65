package reset

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// BiomassResetter re-spreads the total biomass of a species over biomass
// cells. No cell is filled beyond its carrying capacity; whatever does not
// fit is lost.
type BiomassResetter struct {
	base
	recorded float64
}

func NewBiomassResetter(sp *species.Species, alloc allocator.Allocator) *BiomassResetter {
	return &BiomassResetter{base: base{species: sp, allocator: alloc}}
}

// Recorded returns the total captured by the last record call.
func (b *BiomassResetter) Recorded() float64 { return b.recorded }

func (b *BiomassResetter) RecordSnapshot(m *sim.Model) {
	b.RecordTotal(m)
	b.snapshot(m)
}

func (b *BiomassResetter) RecordTotal(m *sim.Model) {
	b.recorded = m.Map.TotalBiomass(b.species)
	b.year = m.Year()
}

// ResetAbundance gives every livable biomass cell with positive capacity
// min(total * w / sum(w), K).
func (b *BiomassResetter) ResetAbundance(mp *ocean.Map, r *rand.Rand) error {
	sp := b.species
	var (
		tiles []ocean.Tile
		cells []*biology.BiomassCell
	)
	for _, t := range mp.Livable() {
		c, ok := mp.Biology(t).(*biology.BiomassCell)
		if !ok || c.CarryingCapacity(sp) <= 0 {
			continue
		}
		tiles = append(tiles, t)
		cells = append(cells, c)
	}
	if len(cells) == 0 {
		return nil
	}
	weights, sum := b.weigh(tiles, mp, r)
	if sum <= 0 {
		return nil
	}
	total := b.recorded
	if b.target != nil {
		total = b.target.Total(b.year, r)
	}
	for i, c := range cells {
		v := min(total*weights[i]/sum, c.CarryingCapacity(sp))
		if err := c.SetCurrentBiomass(sp, v); err != nil {
			return fmt.Errorf("species %q tile %v: %w", sp.Name, tiles[i], err)
		}
	}
	return nil
}
