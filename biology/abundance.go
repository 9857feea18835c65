package biology

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/species"
)

// Abundance is a subdivision x bin matrix of fish counts.
type Abundance struct {
	counts [][]float64
}

// NewAbundance returns a zero matrix.
func NewAbundance(subdivisions, bins int) *Abundance {
	counts := make([][]float64, subdivisions)
	for i := range counts {
		counts[i] = make([]float64, bins)
	}
	return &Abundance{counts: counts}
}

// ZeroAbundance returns a zero matrix shaped for a species.
func ZeroAbundance(s *species.Species) *Abundance {
	return NewAbundance(s.Subdivisions(), s.Bins())
}

// AbundanceFrom copies a rectangular matrix of finite, non-negative counts.
func AbundanceFrom(matrix [][]float64) (*Abundance, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrShape)
	}
	ab := NewAbundance(len(matrix), len(matrix[0]))
	for s, row := range matrix {
		if len(row) != ab.Bins() {
			return nil, fmt.Errorf("%w: row %d has %d bins, want %d", ErrShape, s, len(row), ab.Bins())
		}
		copy(ab.counts[s], row)
	}
	if err := ab.Validate(); err != nil {
		return nil, err
	}
	return ab, nil
}

// MustAbundance is AbundanceFrom that panics on error.
func MustAbundance(matrix [][]float64) *Abundance {
	ab, err := AbundanceFrom(matrix)
	if err != nil {
		panic(err)
	}
	return ab
}

func (a *Abundance) Subdivisions() int { return len(a.counts) }

func (a *Abundance) Bins() int {
	if len(a.counts) == 0 {
		return 0
	}
	return len(a.counts[0])
}

func (a *Abundance) At(subdivision, bin int) float64 { return a.counts[subdivision][bin] }

func (a *Abundance) Set(subdivision, bin int, v float64) { a.counts[subdivision][bin] = v }

func (a *Abundance) Add(subdivision, bin int, v float64) { a.counts[subdivision][bin] += v }

// Row returns the live counts of one subdivision.
func (a *Abundance) Row(subdivision int) []float64 { return a.counts[subdivision] }

// Sum returns the total number of fish.
func (a *Abundance) Sum() float64 {
	var total float64
	for _, row := range a.counts {
		total += floats.Sum(row)
	}
	return total
}

// BinSum returns the number of fish in a bin across subdivisions.
func (a *Abundance) BinSum(bin int) float64 {
	var total float64
	for _, row := range a.counts {
		total += row[bin]
	}
	return total
}

// SameShape reports whether two matrices have the same dimensions.
func (a *Abundance) SameShape(o *Abundance) bool {
	return a.Subdivisions() == o.Subdivisions() && a.Bins() == o.Bins()
}

// Clone returns a deep copy.
func (a *Abundance) Clone() *Abundance {
	out := NewAbundance(a.Subdivisions(), a.Bins())
	for s, row := range a.counts {
		copy(out.counts[s], row)
	}
	return out
}

// Matrix returns a copy of the counts.
func (a *Abundance) Matrix() [][]float64 { return a.Clone().counts }

// CopyFrom overwrites the counts with another matrix of the same shape.
func (a *Abundance) CopyFrom(o *Abundance) error {
	if !a.SameShape(o) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShape, a.Subdivisions(), a.Bins(), o.Subdivisions(), o.Bins())
	}
	for s := range a.counts {
		copy(a.counts[s], o.counts[s])
	}
	return nil
}

// Accumulate adds another matrix of the same shape into this one.
func (a *Abundance) Accumulate(o *Abundance) error {
	if !a.SameShape(o) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShape, a.Subdivisions(), a.Bins(), o.Subdivisions(), o.Bins())
	}
	for s := range a.counts {
		floats.Add(a.counts[s], o.counts[s])
	}
	return nil
}

// Scale multiplies every count by f.
func (a *Abundance) Scale(f float64) {
	for _, row := range a.counts {
		floats.Scale(f, row)
	}
}

// Validate reports the first negative or non-finite count.
func (a *Abundance) Validate() error {
	for s, row := range a.counts {
		for b, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: [%d][%d] = %g", ErrNegativeAbundance, s, b, v)
			}
		}
	}
	return nil
}

func (a *Abundance) String() string { return fmt.Sprint(a.counts) }
