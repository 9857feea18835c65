package reset

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// Target is the total a reset should aim for in a given year.
type Target interface {
	Total(year int, r *rand.Rand) float64
}

// FixedTargets is a table of yearly totals. A year without an entry uses the
// closest earlier one; years before the first entry use the first.
type FixedTargets struct {
	years  []int
	totals []float64
}

func NewFixedTargets(byYear map[int]float64) (*FixedTargets, error) {
	if len(byYear) == 0 {
		return nil, errors.New("reset: no yearly targets")
	}
	t := &FixedTargets{years: slices.Sorted(maps.Keys(byYear))}
	for _, y := range t.years {
		v := byYear[y]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("reset: invalid target %g for year %d", v, y)
		}
		t.totals = append(t.totals, v)
	}
	return t, nil
}

func (t *FixedTargets) Total(year int, _ *rand.Rand) float64 {
	i, found := slices.BinarySearch(t.years, year)
	switch {
	case found:
		return t.totals[i]
	case i == 0:
		return t.totals[0]
	default:
		return t.totals[i-1]
	}
}

// LogNormalTarget draws a fresh total every call, exp(N(Mu, Sigma)).
type LogNormalTarget struct {
	Mu, Sigma float64
}

func (t LogNormalTarget) Total(_ int, r *rand.Rand) float64 {
	return distuv.LogNormal{Mu: t.Mu, Sigma: t.Sigma, Src: r}.Rand()
}
