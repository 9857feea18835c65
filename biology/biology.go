// Package biology holds the per-tile population state of every species.
//
// A tile carries one LocalBiology. Two representations exist: BiomassCell
// keeps a scalar biomass and carrying capacity per species, AbundanceCell
// keeps a subdivision x bin matrix of fish counts per species and derives
// biomass from the species' weight-at-bin table.
package biology

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Epsilon is the tolerance for floating point residue in population
// accounting. Catches exceeding the standing stock by less than Epsilon drive
// it to exactly zero instead of failing.
const Epsilon = 0.01

var (
	ErrNegativeBiomass     = errors.New("biology: negative or non-finite biomass")
	ErrNegativeAbundance   = errors.New("biology: negative or non-finite abundance")
	ErrAboveCapacity       = errors.New("biology: biomass above carrying capacity")
	ErrOverfished          = errors.New("biology: catch exceeds standing stock")
	ErrCatchRepresentation = errors.New("biology: catch representation does not match cell")
	ErrShape               = errors.New("biology: abundance shape mismatch")
	ErrAlreadyStarted      = errors.New("biology: cell already started")
)

// LocalBiology is the population state of one tile.
type LocalBiology interface {
	ocean.Biology
	sim.Startable

	// Abundance returns the cohort matrix of a species. Cells that keep
	// abundance natively return a live view; mutating it mutates the cell.
	Abundance(s *species.Species) *Abundance

	// ReactToCatch removes caught fish. It fails without changing anything
	// when any species' catch exceeds what stands in the cell.
	ReactToCatch(caught, notDiscarded *Catch, reg *species.Registry) error
}

var (
	_ LocalBiology = (*BiomassCell)(nil)
	_ LocalBiology = (*AbundanceCell)(nil)
	_ LocalBiology = EmptyCell{}
)

// EmptyCell is a tile where no fish can live, such as land.
type EmptyCell struct{}

func (EmptyCell) Biomass(*species.Species) float64 { return 0 }

func (EmptyCell) Abundance(s *species.Species) *Abundance { return ZeroAbundance(s) }

// ReactToCatch accepts only an all-zero catch.
func (EmptyCell) ReactToCatch(caught, _ *Catch, reg *species.Registry) error {
	for i := range caught.Len() {
		if imaginary(reg, i) {
			continue
		}
		if caught.Weight(i) > 0 {
			return fmt.Errorf("%w: empty cell, species %d caught %g", ErrOverfished, i, caught.Weight(i))
		}
	}
	return nil
}

func (EmptyCell) Start(*sim.Model) error { return nil }
func (EmptyCell) Stop()                  {}

// Weigh returns the biomass of a cohort matrix given the species' weights at
// bin. Without meristics every fish weighs one unit.
func Weigh(ab *Abundance, mer *species.Meristics) float64 {
	if ab == nil {
		return 0
	}
	if mer == nil {
		return ab.Sum()
	}
	var total float64
	for s := range ab.Subdivisions() {
		total += floats.Dot(ab.Row(s), mer.Weights[s])
	}
	return total
}
