package biology

import (
	"fmt"
	"math"

	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// AbundanceCell keeps a cohort matrix per species. Biomass is derived from
// the weight-at-bin tables and cached until the matrix may have changed.
type AbundanceCell struct {
	species   []*species.Species
	abundance []*Abundance
	biomass   []float64 // NaN when stale
}

// NewAbundanceCell returns a cell holding zero fish of every registered species.
func NewAbundanceCell(reg *species.Registry) *AbundanceCell {
	c := &AbundanceCell{}
	for _, sp := range reg.All() {
		c.ensure(sp)
	}
	return c
}

// ensure makes room for a species and returns its matrix.
func (c *AbundanceCell) ensure(s *species.Species) *Abundance {
	i := s.Index()
	for len(c.abundance) <= i {
		c.species = append(c.species, nil)
		c.abundance = append(c.abundance, nil)
		c.biomass = append(c.biomass, math.NaN())
	}
	if c.abundance[i] == nil {
		c.species[i] = s
		c.abundance[i] = ZeroAbundance(s)
		c.biomass[i] = 0
	}
	return c.abundance[i]
}

// SetAbundance copies a cohort matrix into the cell.
func (c *AbundanceCell) SetAbundance(s *species.Species, ab *Abundance) error {
	if err := ab.Validate(); err != nil {
		return fmt.Errorf("species %q: %w", s.Name, err)
	}
	here := c.ensure(s)
	if err := here.CopyFrom(ab); err != nil {
		return fmt.Errorf("species %q: %w", s.Name, err)
	}
	c.biomass[s.Index()] = math.NaN()
	return nil
}

// Biomass returns the weighed sum of the species' cohorts.
func (c *AbundanceCell) Biomass(s *species.Species) float64 {
	i := s.Index()
	if i >= len(c.abundance) || c.abundance[i] == nil {
		return 0
	}
	if math.IsNaN(c.biomass[i]) {
		c.biomass[i] = Weigh(c.abundance[i], s.Meristics)
	}
	return c.biomass[i]
}

// TotalBiomass sums Biomass over every species held.
func (c *AbundanceCell) TotalBiomass() float64 {
	var total float64
	for _, sp := range c.species {
		if sp != nil {
			total += c.Biomass(sp)
		}
	}
	return total
}

// Abundance returns the live matrix of a species. The cached biomass is
// dropped since the caller may write through the returned matrix.
func (c *AbundanceCell) Abundance(s *species.Species) *Abundance {
	ab := c.ensure(s)
	c.biomass[s.Index()] = math.NaN()
	return ab
}

// ReactToCatch subtracts a per-bin catch. Every bin of every species is
// checked before anything is removed.
func (c *AbundanceCell) ReactToCatch(caught, _ *Catch, reg *species.Registry) error {
	if !caught.HasAbundance() {
		return fmt.Errorf("%w: weight-only catch on abundance cell", ErrCatchRepresentation)
	}
	for i := range caught.Len() {
		taken := caught.Abundance(i)
		if taken == nil || imaginary(reg, i) {
			continue
		}
		sp := c.speciesAt(reg, i)
		if sp == nil {
			return fmt.Errorf("%w: catch for unknown species %d", ErrShape, i)
		}
		if err := c.checkCatch(sp, taken); err != nil {
			return err
		}
	}
	for i := range caught.Len() {
		taken := caught.Abundance(i)
		if taken == nil || imaginary(reg, i) {
			continue
		}
		if i >= len(c.abundance) || c.abundance[i] == nil {
			// nothing held, so the check only let a zero catch through
			continue
		}
		here := c.abundance[i]
		for s := range here.Subdivisions() {
			for b := range here.Bins() {
				here.Set(s, b, max(here.At(s, b)-taken.At(s, b), 0))
			}
		}
		c.biomass[i] = math.NaN()
	}
	return nil
}

func (c *AbundanceCell) speciesAt(reg *species.Registry, i int) *species.Species {
	if i < len(c.species) && c.species[i] != nil {
		return c.species[i]
	}
	if reg != nil && i < reg.Len() {
		return reg.Species(i)
	}
	return nil
}

// lookup returns the matrix held for a species, or a zero one that is not
// stored in the cell.
func (c *AbundanceCell) lookup(s *species.Species) *Abundance {
	if i := s.Index(); i < len(c.abundance) && c.abundance[i] != nil {
		return c.abundance[i]
	}
	return ZeroAbundance(s)
}

func (c *AbundanceCell) checkCatch(sp *species.Species, taken *Abundance) error {
	here := c.lookup(sp)
	if !here.SameShape(taken) {
		return fmt.Errorf("%w: species %q catch %dx%d, cell %dx%d", ErrShape, sp.Name,
			taken.Subdivisions(), taken.Bins(), here.Subdivisions(), here.Bins())
	}
	for s := range here.Subdivisions() {
		for b := range here.Bins() {
			have, want := here.At(s, b), taken.At(s, b)
			if want < 0 || math.IsNaN(want) {
				return fmt.Errorf("%w: species %q catch [%d][%d] = %g", ErrNegativeAbundance, sp.Name, s, b, want)
			}
			if want > 0 && (have == 0 || want > have+Epsilon) {
				return fmt.Errorf("%w: species %q bin [%d][%d] caught %g of %g", ErrOverfished, sp.Name, s, b, want, have)
			}
		}
	}
	return nil
}

// Start drops cached biomass.
func (c *AbundanceCell) Start(*sim.Model) error {
	for i := range c.biomass {
		c.biomass[i] = math.NaN()
	}
	return nil
}

func (c *AbundanceCell) Stop() {}

// Aggregate sums several cells into a new one. The inputs are not modified.
func Aggregate(reg *species.Registry, cells ...*AbundanceCell) *AbundanceCell {
	out := NewAbundanceCell(reg)
	for _, sp := range reg.All() {
		total := out.abundance[sp.Index()]
		for _, cell := range cells {
			i := sp.Index()
			if i >= len(cell.abundance) || cell.abundance[i] == nil {
				continue
			}
			// shapes come from the same species so they always agree
			_ = total.Accumulate(cell.abundance[i])
		}
		out.biomass[sp.Index()] = math.NaN()
	}
	return out
}
