package biology

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/species"
)

// Catch is what a harvester took out of a cell, indexed by species index.
// A catch either carries weights only, or per-bin abundance with weights
// derived from it.
type Catch struct {
	weights   []float64
	abundance []*Abundance
}

// NewCatch builds a weight-only catch. weights[i] is the biomass of species i.
func NewCatch(weights ...float64) *Catch {
	return &Catch{weights: append([]float64(nil), weights...)}
}

// NewSpeciesCatch builds a weight-only catch of a single species.
func NewSpeciesCatch(s *species.Species, weight float64, reg *species.Registry) *Catch {
	weights := make([]float64, reg.Len())
	weights[s.Index()] = weight
	return &Catch{weights: weights}
}

// NewAbundanceCatch builds a per-bin catch. byIndex[i] is the catch of
// species i; nil entries mean nothing of that species was caught.
func NewAbundanceCatch(reg *species.Registry, byIndex []*Abundance) (*Catch, error) {
	if len(byIndex) != reg.Len() {
		return nil, fmt.Errorf("%w: %d species catches for %d species", ErrShape, len(byIndex), reg.Len())
	}
	c := &Catch{
		weights:   make([]float64, reg.Len()),
		abundance: make([]*Abundance, reg.Len()),
	}
	for i, ab := range byIndex {
		sp := reg.Species(i)
		if ab == nil {
			ab = ZeroAbundance(sp)
		} else {
			if err := ab.Validate(); err != nil {
				return nil, fmt.Errorf("species %q: %w", sp.Name, err)
			}
			ab = ab.Clone()
		}
		c.abundance[i] = ab
		c.weights[i] = Weigh(ab, sp.Meristics)
	}
	return c, nil
}

// Len returns the number of species slots.
func (c *Catch) Len() int { return len(c.weights) }

// Weight returns the caught biomass of species i, 0 when out of range.
func (c *Catch) Weight(i int) float64 {
	if i < 0 || i >= len(c.weights) {
		return 0
	}
	return c.weights[i]
}

// HasAbundance reports whether per-bin information is present.
func (c *Catch) HasAbundance() bool { return c.abundance != nil }

// Abundance returns the per-bin catch of species i, nil without abundance.
func (c *Catch) Abundance(i int) *Abundance {
	if c.abundance == nil || i < 0 || i >= len(c.abundance) {
		return nil
	}
	return c.abundance[i]
}

// Total returns the caught biomass over all species.
func (c *Catch) Total() float64 { return floats.Sum(c.weights) }
