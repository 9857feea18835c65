package recruitment

import (
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/species"
)

// Spread releases the yearly output of a base process over several days of
// the year. On a listed day it returns the base's full-year output times the
// day's proportion; every other day yields nothing. Proportions need not sum
// to one.
type Spread struct {
	Base        Process
	Proportions map[int]float64 // day of year -> share of yearly recruits
}

// NewSpread validates days and proportions.
func NewSpread(base Process, proportions map[int]float64) (*Spread, error) {
	if base == nil {
		return nil, fmt.Errorf("recruitment: spread without base process")
	}
	for day, p := range proportions {
		if day < 0 || day >= 365 {
			return nil, fmt.Errorf("recruitment: spread day %d outside the year", day)
		}
		if p < 0 {
			return nil, fmt.Errorf("recruitment: negative spread proportion %g on day %d", p, day)
		}
	}
	return &Spread{Base: base, Proportions: maps.Clone(proportions)}, nil
}

func (s *Spread) Recruit(sp *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64 {
	p, ok := s.Proportions[t.DayOfYear]
	if !ok || p == 0 {
		return 0
	}
	yearly := t
	yearly.Days = 365
	return max(s.Base.Recruit(sp, mer, ab, yearly)*p, 0)
}

// Noisy multiplies a base process by (1 + e), e ~ Normal(0, Sigma), drawn
// from the tick's shared random source. Output is clamped at zero.
type Noisy struct {
	Base  Process
	Sigma float64
}

func (n *Noisy) Recruit(sp *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64 {
	base := n.Base.Recruit(sp, mer, ab, t)
	if n.Sigma <= 0 || base == 0 {
		return base
	}
	noise := distuv.Normal{Mu: 0, Sigma: n.Sigma, Src: t.Random}
	return max(base*(1+noise.Rand()), 0)
}

// MaturityMultiplier produces one pulse per year on Day: the spawning biomass
// times a ratio looked up by year. The ratio is that of the largest key not
// above the current year, or of the smallest key before the table starts.
type MaturityMultiplier struct {
	Day   int
	years []int
	rates []float64
}

// NewMaturityMultiplier builds the year -> ratio table.
func NewMaturityMultiplier(day int, ratios map[int]float64) (*MaturityMultiplier, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("recruitment: maturity multiplier without ratios")
	}
	if day < 0 || day >= 365 {
		return nil, fmt.Errorf("recruitment: pulse day %d outside the year", day)
	}
	m := &MaturityMultiplier{Day: day}
	m.years = slices.Sorted(maps.Keys(ratios))
	for _, y := range m.years {
		if ratios[y] < 0 {
			return nil, fmt.Errorf("recruitment: negative ratio %g for year %d", ratios[y], y)
		}
		m.rates = append(m.rates, ratios[y])
	}
	return m, nil
}

// Ratio returns the multiplier in force in a given year.
func (m *MaturityMultiplier) Ratio(year int) float64 {
	i, found := slices.BinarySearch(m.years, year)
	switch {
	case found:
		return m.rates[i]
	case i == 0:
		return m.rates[0]
	default:
		return m.rates[i-1]
	}
}

func (m *MaturityMultiplier) Recruit(_ *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64 {
	if t.DayOfYear != m.Day {
		return 0
	}
	return SpawningBiomass(mer, ab) * m.Ratio(t.Year)
}
