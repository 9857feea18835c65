// Package mortality applies background natural mortality to cohort matrices.
package mortality

import (
	"fmt"
	"math"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/species"
)

// Process removes fish that die of natural causes over the given number of
// days. Counts never increase and never go negative.
type Process interface {
	Cull(ab *biology.Abundance, mer *species.Meristics, days int, rounding bool)
}

func fraction(days int) float64 {
	return float64(days) / 365
}

// settle floors to whole fish when rounding and guards against residue.
func settle(v float64, rounding bool) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if rounding {
		return math.Floor(v)
	}
	return v
}

// Exponential applies count * exp(-M * days/365) to every bin.
type Exponential struct {
	// PerSubdivision holds M for each subdivision, conventionally male then
	// female. When nil M is read per bin from the species' meristics.
	PerSubdivision []float64
}

// NewExponential returns a two-sex exponential mortality.
func NewExponential(male, female float64) (Exponential, error) {
	if male < 0 || female < 0 {
		return Exponential{}, fmt.Errorf("mortality: negative rate male=%g female=%g", male, female)
	}
	return Exponential{PerSubdivision: []float64{male, female}}, nil
}

func (e Exponential) rate(mer *species.Meristics, subdivision, bin int) float64 {
	if e.PerSubdivision == nil {
		if mer == nil {
			return 0
		}
		return mer.NaturalMortality(subdivision, bin)
	}
	if subdivision >= len(e.PerSubdivision) {
		return e.PerSubdivision[len(e.PerSubdivision)-1]
	}
	return e.PerSubdivision[subdivision]
}

func (e Exponential) Cull(ab *biology.Abundance, mer *species.Meristics, days int, rounding bool) {
	f := fraction(days)
	for s := range ab.Subdivisions() {
		row := ab.Row(s)
		for b, v := range row {
			if v == 0 {
				continue
			}
			row[b] = settle(v*math.Exp(-e.rate(mer, s, b)*f), rounding)
		}
	}
}

// FixedRate removes the same fraction of every bin per year.
type FixedRate struct {
	Rate float64
}

func (r FixedRate) Cull(ab *biology.Abundance, _ *species.Meristics, days int, rounding bool) {
	f := min(r.Rate*fraction(days), 1)
	for s := range ab.Subdivisions() {
		row := ab.Row(s)
		for b, v := range row {
			row[b] = settle(v-v*f, rounding)
		}
	}
}

// None leaves every cohort untouched.
type None struct{}

func (None) Cull(*biology.Abundance, *species.Meristics, int, bool) {}
