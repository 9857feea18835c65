// Package recruitment computes how many new fish enter the youngest bin.
package recruitment

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/species"
)

// Tick is the calendar position and time span of one recruitment call.
type Tick struct {
	Random    *rand.Rand
	Year      int
	DayOfYear int
	Days      int // days simulated since the previous call
}

func (t Tick) yearFraction() float64 {
	return float64(t.Days) / 365
}

// Process returns the number of recruits produced by a stock. The result is
// never negative.
type Process interface {
	Recruit(sp *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64
}

// SpawningBiomass returns the mature biomass of the spawning subdivision:
// sum over bins of maturity * count * weight, times relative fecundity when
// the species' recruitment parameters ask for it.
func SpawningBiomass(mer *species.Meristics, ab *biology.Abundance) float64 {
	if mer == nil || ab == nil {
		return 0
	}
	s := mer.Recruitment.FemaleSubdivision
	if s >= ab.Subdivisions() {
		return 0
	}
	mature := make([]float64, ab.Bins())
	for b := range mature {
		mature[b] = mer.MatureFraction(b) * mer.Weight(s, b)
		if mer.Recruitment.UseFecundity {
			mature[b] *= mer.Fecundity(b)
		}
	}
	ssb := floats.Dot(mature, ab.Row(s))
	if math.IsNaN(ssb) || ssb < 0 {
		return 0
	}
	return ssb
}

// Fixed produces Rate recruits per year regardless of the stock.
type Fixed struct {
	Rate float64
}

func (f Fixed) Recruit(_ *species.Species, _ *species.Meristics, _ *biology.Abundance, t Tick) float64 {
	return max(f.Rate*t.yearFraction(), 0)
}
