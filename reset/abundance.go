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

// AbundanceResetter re-spreads the summed cohort matrix of a species over
// abundance cells, keeping its age and sex structure.
type AbundanceResetter struct {
	base
	recorded *biology.Abundance
}

func NewAbundanceResetter(sp *species.Species, alloc allocator.Allocator) *AbundanceResetter {
	return &AbundanceResetter{base: base{species: sp, allocator: alloc}}
}

// Recorded returns a copy of the matrix captured by the last record call,
// nil before any.
func (a *AbundanceResetter) Recorded() *biology.Abundance {
	if a.recorded == nil {
		return nil
	}
	return a.recorded.Clone()
}

func (a *AbundanceResetter) RecordSnapshot(m *sim.Model) {
	a.RecordTotal(m)
	a.snapshot(m)
}

func (a *AbundanceResetter) RecordTotal(m *sim.Model) {
	total := biology.ZeroAbundance(a.species)
	for _, c := range a.cells(m.Map) {
		// shapes always match, both come from the species
		_ = total.Accumulate(c.Abundance(a.species))
	}
	a.recorded = total
	a.year = m.Year()
}

func (a *AbundanceResetter) cells(mp *ocean.Map) []*biology.AbundanceCell {
	var out []*biology.AbundanceCell
	for _, t := range mp.Livable() {
		if c, ok := mp.Biology(t).(*biology.AbundanceCell); ok {
			out = append(out, c)
		}
	}
	return out
}

// ResetAbundance gives every livable abundance cell the recorded matrix
// scaled by its weight share. With a target, the matrix is first rescaled
// so its biomass equals the target.
func (a *AbundanceResetter) ResetAbundance(mp *ocean.Map, r *rand.Rand) error {
	if a.recorded == nil {
		return fmt.Errorf("species %q: reset before any record", a.species.Name)
	}
	sp := a.species
	var (
		tiles []ocean.Tile
		cells []*biology.AbundanceCell
	)
	for _, t := range mp.Livable() {
		if c, ok := mp.Biology(t).(*biology.AbundanceCell); ok {
			tiles = append(tiles, t)
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return nil
	}
	weights, sum := a.weigh(tiles, mp, r)
	if sum <= 0 {
		return nil
	}
	total := a.recorded.Clone()
	if a.target != nil {
		want := a.target.Total(a.year, r)
		if have := biology.Weigh(total, sp.Meristics); have > 0 {
			total.Scale(want / have)
		}
	}
	for i, c := range cells {
		share := total.Clone()
		share.Scale(weights[i] / sum)
		if err := c.SetAbundance(sp, share); err != nil {
			return fmt.Errorf("species %q tile %v: %w", sp.Name, tiles[i], err)
		}
	}
	return nil
}
