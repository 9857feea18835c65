package biology

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// BiomassCell keeps one biomass and one carrying capacity per species.
// 0 <= biomass <= capacity holds after every mutator.
type BiomassCell struct {
	biomass  []float64
	capacity []float64

	started bool
	stopped bool
	warned  bool
}

// NewBiomassCell copies per-species biomass and capacity, indexed by species index.
func NewBiomassCell(biomass, capacity []float64) (*BiomassCell, error) {
	if len(biomass) != len(capacity) {
		return nil, fmt.Errorf("%w: %d biomass values for %d capacities", ErrShape, len(biomass), len(capacity))
	}
	for i := range biomass {
		if !validAmount(capacity[i]) || !validAmount(biomass[i]) {
			return nil, fmt.Errorf("%w: species %d biomass %g capacity %g", ErrNegativeBiomass, i, biomass[i], capacity[i])
		}
		if biomass[i] > capacity[i] {
			return nil, fmt.Errorf("%w: species %d biomass %g capacity %g", ErrAboveCapacity, i, biomass[i], capacity[i])
		}
	}
	return &BiomassCell{
		biomass:  append([]float64(nil), biomass...),
		capacity: append([]float64(nil), capacity...),
	}, nil
}

// NewRandomBiomassCell gives n species the same capacity and fills each to a
// uniformly drawn fraction of it in [minFill, maxFill].
func NewRandomBiomassCell(capacity float64, n int, r *rand.Rand, minFill, maxFill float64) (*BiomassCell, error) {
	if minFill < 0 || maxFill > 1 || minFill > maxFill {
		return nil, fmt.Errorf("biology: invalid fill range [%g, %g]", minFill, maxFill)
	}
	biomass := make([]float64, n)
	capacities := make([]float64, n)
	for i := range n {
		capacities[i] = capacity
		biomass[i] = capacity * (minFill + (maxFill-minFill)*r.Float64())
	}
	return NewBiomassCell(biomass, capacities)
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Biomass returns the standing biomass, 0 for species the cell never held.
func (c *BiomassCell) Biomass(s *species.Species) float64 {
	return c.BiomassAt(s.Index())
}

// BiomassAt returns the biomass of the species with the given index.
func (c *BiomassCell) BiomassAt(index int) float64 {
	if index >= len(c.biomass) {
		return 0
	}
	return c.biomass[index]
}

// CarryingCapacity returns the capacity, 0 for species the cell never held.
func (c *BiomassCell) CarryingCapacity(s *species.Species) float64 {
	return c.CarryingCapacityAt(s.Index())
}

// CarryingCapacityAt returns the capacity of the species with the given index.
func (c *BiomassCell) CarryingCapacityAt(index int) float64 {
	if index >= len(c.capacity) {
		return 0
	}
	return c.capacity[index]
}

// IsFull reports whether biomass equals capacity exactly.
func (c *BiomassCell) IsFull(s *species.Species) bool {
	return c.Biomass(s) == c.CarryingCapacity(s)
}

// IsEmpty reports whether biomass is exactly zero.
func (c *BiomassCell) IsEmpty(s *species.Species) bool {
	return c.Biomass(s) == 0
}

// grow extends the arrays with zeros so that index is addressable.
func (c *BiomassCell) grow(index int) {
	for len(c.biomass) <= index {
		c.biomass = append(c.biomass, 0)
		c.capacity = append(c.capacity, 0)
	}
}

// SetCarryingCapacity changes a species' capacity. Biomass above the new
// capacity is clamped down to it.
func (c *BiomassCell) SetCarryingCapacity(s *species.Species, capacity float64) error {
	if !validAmount(capacity) {
		return fmt.Errorf("%w: capacity %g for %v", ErrNegativeBiomass, capacity, s)
	}
	i := s.Index()
	c.grow(i)
	c.capacity[i] = capacity
	c.biomass[i] = min(c.biomass[i], capacity)
	return nil
}

// SetCurrentBiomass changes a species' biomass. Values above capacity by less
// than Epsilon are clamped to capacity; larger excesses are an error.
func (c *BiomassCell) SetCurrentBiomass(s *species.Species, biomass float64) error {
	if !validAmount(biomass) {
		return fmt.Errorf("%w: %g for %v", ErrNegativeBiomass, biomass, s)
	}
	i := s.Index()
	c.grow(i)
	if biomass > c.capacity[i] {
		if biomass > c.capacity[i]+Epsilon {
			return fmt.Errorf("%w: %g for %v, capacity %g", ErrAboveCapacity, biomass, s, c.capacity[i])
		}
		biomass = c.capacity[i]
	}
	c.biomass[i] = biomass
	return nil
}

// Abundance synthesises a cohort matrix with all biomass in the youngest
// bin that has a positive weight, split evenly across subdivisions, so the
// matrix weighs what the cell holds. A species whose bins all weigh 0 gets an
// empty matrix. The cell warns once when this happens since biomass cells
// carry no age structure.
func (c *BiomassCell) Abundance(s *species.Species) *Abundance {
	if !c.warned {
		c.warned = true
		slog.Warn("abundance requested from biomass cell; assuming all fish in the youngest bin",
			"species", s.Name,
		)
	}
	ab := ZeroAbundance(s)
	biomass := c.Biomass(s)
	if biomass == 0 {
		return ab
	}
	subs := ab.Subdivisions()
	mer := s.Meristics
	if mer == nil {
		for sub := range subs {
			ab.Set(sub, 0, biomass/float64(subs))
		}
		return ab
	}

	youngest := make([]int, subs)
	heavy := 0
	for sub := range subs {
		youngest[sub] = -1
		for b := range ab.Bins() {
			if mer.Weight(sub, b) > 0 {
				youngest[sub] = b
				heavy++
				break
			}
		}
	}
	if heavy == 0 {
		return ab
	}
	share := biomass / float64(heavy)
	for sub, b := range youngest {
		if b >= 0 {
			ab.Set(sub, b, share/mer.Weight(sub, b))
		}
	}
	return ab
}

// ReactToCatch subtracts caught biomass. Catches carrying abundance are
// rejected. Imaginary species are ignored.
func (c *BiomassCell) ReactToCatch(caught, _ *Catch, reg *species.Registry) error {
	if caught.HasAbundance() {
		return fmt.Errorf("%w: abundance catch on biomass cell", ErrCatchRepresentation)
	}
	// validate everything first so a failed catch leaves the cell untouched
	for i := range caught.Len() {
		w := caught.Weight(i)
		if w == 0 || imaginary(reg, i) {
			continue
		}
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: species %d caught %g", ErrNegativeBiomass, i, w)
		}
		have := c.BiomassAt(i)
		if have == 0 || w > have+Epsilon {
			return fmt.Errorf("%w: species %d caught %g of %g", ErrOverfished, i, w, have)
		}
	}
	for i := range caught.Len() {
		w := caught.Weight(i)
		if w == 0 || imaginary(reg, i) {
			continue
		}
		c.biomass[i] = max(c.biomass[i]-w, 0)
	}
	return nil
}

func imaginary(reg *species.Registry, index int) bool {
	return reg != nil && index < reg.Len() && reg.Species(index).Imaginary
}

// Start marks the cell as live; a cell can only be started once.
func (c *BiomassCell) Start(*sim.Model) error {
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	return nil
}

func (c *BiomassCell) Stop() { c.stopped = true }

// Stopped reports whether Stop was called.
func (c *BiomassCell) Stopped() bool { return c.stopped }

func (c *BiomassCell) String() string {
	return fmt.Sprintf("BiomassCell{biomass=%v capacity=%v}", c.biomass, c.capacity)
}
