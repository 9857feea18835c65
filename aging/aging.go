// Package aging moves fish from one bin to the next as time passes.
//
// Aging runs the natural mortality process first and then shifts the
// survivors, so a single call is one full cohort transition.
package aging

import (
	"fmt"
	"math"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/mortality"
	"github.com/pthm-cable/shoal/species"
)

// Period describes how much time one aging call covers.
type Period struct {
	Days            int
	Rounding        bool // whole fish only
	PreserveLastAge bool // keep the oldest bin instead of culling it
}

// Fraction returns the share of a year the period covers, at most 1.
func (p Period) Fraction() float64 {
	return min(float64(p.Days)/365, 1)
}

// Process advances the cohorts of one cell.
type Process interface {
	Age(ab *biology.Abundance, mer *species.Meristics, mort mortality.Process, p Period) error
}

// Standard moves Fraction() of every bin up by one bin. With a yearly period
// every fish ages by exactly one bin.
type Standard struct{}

func (Standard) Age(ab *biology.Abundance, mer *species.Meristics, mort mortality.Process, p Period) error {
	if mort != nil {
		mort.Cull(ab, mer, p.Days, p.Rounding)
	}
	f := p.Fraction()
	for s := range ab.Subdivisions() {
		shift(ab.Row(s), func(int) float64 { return f }, p)
	}
	return ab.Validate()
}

// Proportional moves a per-bin share of each cohort up, scaled by the
// period's fraction of a year. Proportions[s][b] is the share of bin b of
// subdivision s that grows out of it over a full year.
type Proportional struct {
	Proportions [][]float64
}

// NewProportional validates that every proportion lies in [0, 1].
func NewProportional(proportions [][]float64) (*Proportional, error) {
	for s, row := range proportions {
		for b, v := range row {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return nil, fmt.Errorf("aging: proportion %g at [%d][%d] outside [0,1]", v, s, b)
			}
		}
	}
	return &Proportional{Proportions: proportions}, nil
}

func (a *Proportional) Age(ab *biology.Abundance, mer *species.Meristics, mort mortality.Process, p Period) error {
	if len(a.Proportions) < ab.Subdivisions() {
		return fmt.Errorf("%w: %d proportion rows for %d subdivisions", biology.ErrShape, len(a.Proportions), ab.Subdivisions())
	}
	for s := range ab.Subdivisions() {
		if len(a.Proportions[s]) < ab.Bins() {
			return fmt.Errorf("%w: %d proportions for %d bins", biology.ErrShape, len(a.Proportions[s]), ab.Bins())
		}
	}
	if mort != nil {
		mort.Cull(ab, mer, p.Days, p.Rounding)
	}
	f := p.Fraction()
	for s := range ab.Subdivisions() {
		props := a.Proportions[s]
		shift(ab.Row(s), func(b int) float64 { return min(props[b]*f, 1) }, p)
	}
	return ab.Validate()
}

// shift moves share(b) of bin b into bin b+1 in place. The oldest bin either
// keeps its fish (preserve) or loses share(top) of them (cull).
func shift(row []float64, share func(bin int) float64, p Period) {
	top := len(row) - 1
	if top < 0 {
		return
	}
	movers := make([]float64, len(row))
	for b, v := range row {
		m := v * share(b)
		if p.Rounding {
			m = math.Floor(m)
		}
		movers[b] = m
	}
	for b := top; b >= 0; b-- {
		incoming := 0.0
		if b > 0 {
			incoming = movers[b-1]
		}
		if b == top && p.PreserveLastAge {
			row[b] += incoming
			continue
		}
		row[b] = max(row[b]-movers[b]+incoming, 0)
	}
}
