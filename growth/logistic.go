// Package growth regrows biomass cells toward their carrying capacity.
package growth

import (
	"fmt"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Logistic grows every registered cell once a year:
//
//	B <- min(K, B + r * B * (1 - B/K))
//
// Cells with no carrying capacity are skipped.
type Logistic struct {
	Species *species.Species
	Rate    float64 // r, intrinsic yearly growth rate

	cells   []*biology.BiomassCell
	receipt *sim.Receipt
}

// NewLogistic validates the growth rate.
func NewLogistic(sp *species.Species, rate float64) (*Logistic, error) {
	if rate < 0 {
		return nil, fmt.Errorf("growth: negative rate %g for %s", rate, sp.Name)
	}
	return &Logistic{Species: sp, Rate: rate}, nil
}

// Register adds a cell to grow.
func (g *Logistic) Register(c *biology.BiomassCell) {
	g.cells = append(g.cells, c)
}

// Cells returns the number of registered cells.
func (g *Logistic) Cells() int { return len(g.cells) }

// Start schedules growth yearly in the biology phase.
func (g *Logistic) Start(m *sim.Model) error {
	g.receipt = m.EveryYear(sim.PhaseBiology, g)
	return nil
}

func (g *Logistic) Stop() {
	if g.receipt != nil {
		g.receipt.Stop()
	}
}

// Step grows every cell once.
func (g *Logistic) Step(*sim.Model) error {
	for _, c := range g.cells {
		if err := g.Grow(c); err != nil {
			return err
		}
	}
	return nil
}

// Grow applies one year of logistic growth to a single cell.
func (g *Logistic) Grow(c *biology.BiomassCell) error {
	k := c.CarryingCapacity(g.Species)
	if k <= 0 {
		return nil
	}
	b := c.Biomass(g.Species)
	next := min(k, b+g.Rate*b*(1-b/k))
	if err := c.SetCurrentBiomass(g.Species, max(next, 0)); err != nil {
		return fmt.Errorf("growth %s: %w", g.Species.Name, err)
	}
	return nil
}
