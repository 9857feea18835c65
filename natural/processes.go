// Package natural runs the yearly life cycle of one species across the
// abundance cells registered with it: recruitment, then aging with natural
// mortality, then the recruits entering the youngest bin.
package natural

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/aging"
	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/mortality"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/recruitment"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// ErrNegativeOutput flags a strategy that produced negative or NaN fish.
var ErrNegativeOutput = errors.New("natural: negative or non-finite output")

type registration struct {
	tile ocean.Tile
	cell *biology.AbundanceCell
}

// Processes is the per-species orchestrator.
type Processes struct {
	Species     *species.Species
	Recruitment recruitment.Process
	Aging       aging.Process
	Mortality   mortality.Process

	PreserveLastAge bool
	Rounding        bool // whole fish only, fractional recruits are dropped
	Interval        int  // days between steps, a year by default

	// LocalRecruitment makes every cell recruit from its own spawners
	// instead of sharing the recruits of the whole stock.
	LocalRecruitment bool

	// RecruitsAllocator weighs where pooled recruits settle. When nil they
	// settle in proportion to each cell's biomass.
	RecruitsAllocator allocator.Allocator

	// Diffusers run daily once the orchestrator is started.
	Diffusers []sim.Steppable

	cells        []registration
	receipts     []*sim.Receipt
	lastRecruits float64
}

// New builds an orchestrator stepping once a year.
func New(sp *species.Species, rec recruitment.Process, ag aging.Process, mort mortality.Process) (*Processes, error) {
	if sp == nil || rec == nil || ag == nil {
		return nil, errors.New("natural: species, recruitment and aging are required")
	}
	if mort == nil {
		mort = mortality.None{}
	}
	return &Processes{
		Species:     sp,
		Recruitment: rec,
		Aging:       ag,
		Mortality:   mort,
		Interval:    sim.DaysPerYear,
	}, nil
}

// Register adds a cell to the stock.
func (p *Processes) Register(t ocean.Tile, c *biology.AbundanceCell) {
	p.cells = append(p.cells, registration{tile: t, cell: c})
}

// Tiles returns the registered tiles in registration order.
func (p *Processes) Tiles() []ocean.Tile {
	out := make([]ocean.Tile, len(p.cells))
	for i, r := range p.cells {
		out[i] = r.tile
	}
	return out
}

// LastRecruits returns the recruits produced by the previous step.
func (p *Processes) LastRecruits() float64 { return p.lastRecruits }

// Start schedules each diffuser daily and the life cycle every Interval days,
// all in the biology phase. On a life-cycle day the fish move first.
func (p *Processes) Start(m *sim.Model) error {
	if p.Interval < 1 {
		return fmt.Errorf("natural: invalid interval %d for %s", p.Interval, p.Species.Name)
	}
	for _, d := range p.Diffusers {
		p.receipts = append(p.receipts, m.EveryDay(sim.PhaseBiology, d))
	}
	p.receipts = append(p.receipts, m.Schedule.Every(p.Interval, sim.PhaseBiology, p))
	return nil
}

func (p *Processes) Stop() {
	for _, r := range p.receipts {
		r.Stop()
	}
	p.receipts = nil
}

// Step runs one life cycle. With no registered cells it does nothing.
func (p *Processes) Step(m *sim.Model) error {
	if len(p.cells) == 0 {
		return nil
	}
	tick := recruitment.Tick{
		Random:    m.Random,
		Year:      m.Year(),
		DayOfYear: m.DayOfYear(),
		Days:      p.Interval,
	}
	recruits, err := p.recruits(m, tick)
	if err != nil {
		return err
	}

	period := aging.Period{Days: p.Interval, Rounding: p.Rounding, PreserveLastAge: p.PreserveLastAge}
	for _, r := range p.cells {
		ab := r.cell.Abundance(p.Species)
		if err := p.Aging.Age(ab, p.Species.Meristics, p.Mortality, period); err != nil {
			return fmt.Errorf("species %q tile %v: aging: %w", p.Species.Name, r.tile, err)
		}
	}

	var total float64
	for i, r := range p.cells {
		ab := r.cell.Abundance(p.Species)
		for s, n := range p.split(recruits[i], uniform(ab.Subdivisions())) {
			ab.Add(s, 0, n)
		}
		if err := ab.Validate(); err != nil {
			return fmt.Errorf("species %q tile %v: %w", p.Species.Name, r.tile, err)
		}
		total += recruits[i]
	}
	p.lastRecruits = total
	return nil
}

// recruits returns the recruits settling in each registered cell.
func (p *Processes) recruits(m *sim.Model, tick recruitment.Tick) ([]float64, error) {
	mer := p.Species.Meristics
	if p.LocalRecruitment {
		out := make([]float64, len(p.cells))
		for i, r := range p.cells {
			n := p.Recruitment.Recruit(p.Species, mer, r.cell.Abundance(p.Species), tick)
			if err := checkOutput(n); err != nil {
				return nil, fmt.Errorf("species %q tile %v: recruitment: %w", p.Species.Name, r.tile, err)
			}
			if p.Rounding {
				n = math.Floor(n)
			}
			out[i] = n
		}
		return out, nil
	}

	stock := biology.ZeroAbundance(p.Species)
	for _, r := range p.cells {
		if err := stock.Accumulate(r.cell.Abundance(p.Species)); err != nil {
			return nil, fmt.Errorf("species %q tile %v: %w", p.Species.Name, r.tile, err)
		}
	}
	n := p.Recruitment.Recruit(p.Species, mer, stock, tick)
	if err := checkOutput(n); err != nil {
		return nil, fmt.Errorf("species %q: recruitment: %w", p.Species.Name, err)
	}
	if p.Rounding {
		n = math.Floor(n)
	}
	weights, err := p.recruitWeights(m)
	if err != nil {
		return nil, err
	}
	return p.split(n, weights), nil
}

// recruitWeights returns normalised settlement weights, one per cell.
func (p *Processes) recruitWeights(m *sim.Model) ([]float64, error) {
	weights := make([]float64, len(p.cells))
	if p.RecruitsAllocator != nil {
		// recruits follow where the stock is now
		snap, snapshots := p.RecruitsAllocator.(allocator.Snapshotter)
		if snapshots {
			snap.TakeSnapshot(m.Map)
		}
		for i, r := range p.cells {
			w := p.RecruitsAllocator.Allocate(r.tile, m.Map, m.Random)
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("species %q tile %v: recruit allocator returned %g", p.Species.Name, r.tile, w)
			}
			weights[i] = w
		}
		sum := floats.Sum(weights)
		if sum <= 0 && snapshots && p.stockBiomass() <= 0 {
			// an empty stock leaves no pattern to follow
			return uniform(len(p.cells)), nil
		}
		if sum <= 0 {
			return nil, fmt.Errorf("species %q: recruit allocator weights sum to %g", p.Species.Name, sum)
		}
		floats.Scale(1/sum, weights)
		return weights, nil
	}
	for i, r := range p.cells {
		weights[i] = r.cell.Biomass(p.Species)
	}
	sum := floats.Sum(weights)
	if sum <= 0 || math.IsNaN(sum) {
		return uniform(len(p.cells)), nil
	}
	floats.Scale(1/sum, weights)
	return weights, nil
}

func (p *Processes) stockBiomass() float64 {
	var total float64
	for _, r := range p.cells {
		total += r.cell.Biomass(p.Species)
	}
	return total
}

// split divides total by normalised weights. With rounding, shares are whole
// numbers that still add up to the rounded total.
func (p *Processes) split(total float64, weights []float64) []float64 {
	out := make([]float64, len(weights))
	if !p.Rounding {
		for i, w := range weights {
			out[i] = total * w
		}
		return out
	}
	var cum, prev float64
	for i, w := range weights {
		cum += w
		next := math.Round(total * min(cum, 1))
		out[i] = max(next-prev, 0)
		prev = next
	}
	return out
}

func uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

func checkOutput(n float64) error {
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%w: %g", ErrNegativeOutput, n)
	}
	return nil
}
