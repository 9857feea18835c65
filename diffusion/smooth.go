package diffusion

import (
	"fmt"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Smooth equalises biomass between neighbouring biomass cells. From a fuller
// tile to an emptier one it moves
//
//	Differential * min(delta, headroom), at most Limit * source biomass
//
// where delta is the biomass difference and headroom the free capacity of
// the receiving tile.
type Smooth struct {
	Species      *species.Species
	Differential float64 // share of the difference moved per step
	Limit        float64 // cap on the share of the source biomass moved per step

	pairs pairs
}

// NewSmooth validates both fractions lie in [0, 1].
func NewSmooth(sp *species.Species, differential, limit float64) (*Smooth, error) {
	if differential < 0 || differential > 1 || limit < 0 || limit > 1 {
		return nil, fmt.Errorf("diffusion: fractions must be in [0,1], got differential=%g limit=%g", differential, limit)
	}
	return &Smooth{Species: sp, Differential: differential, Limit: limit}, nil
}

func (d *Smooth) Step(m *sim.Model) error {
	return d.pairs.each(m, func(here, there ocean.Tile) error {
		src, dst := biomassCell(m.Map, here), biomassCell(m.Map, there)
		if src == nil || dst == nil {
			return nil
		}
		if err := d.Move(src, dst); err != nil {
			return fmt.Errorf("species %q tile %v -> %v: %w", d.Species.Name, here, there, err)
		}
		return nil
	})
}

// Move applies the rule once from src to dst and returns any invariant error.
func (d *Smooth) Move(src, dst *biology.BiomassCell) error {
	sp := d.Species
	if src.CarryingCapacity(sp) <= biology.Epsilon || dst.CarryingCapacity(sp) <= biology.Epsilon {
		return nil
	}
	if dst.IsFull(sp) {
		return nil
	}
	here, there := src.Biomass(sp), dst.Biomass(sp)
	delta := here - there
	if delta <= 0 {
		return nil
	}
	headroom := dst.CarryingCapacity(sp) - there
	move := d.Differential * min(delta, headroom)
	move = min(move, d.Limit*here)
	if move <= 0 {
		return nil
	}
	if err := src.SetCurrentBiomass(sp, max(here-move, 0)); err != nil {
		return err
	}
	return dst.SetCurrentBiomass(sp, min(there+move, dst.CarryingCapacity(sp)))
}
