// Package scenario assembles a runnable model from a configuration: the
// map, the species registry, one biology per livable tile and every
// process acting on them.
package scenario

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/growth"
	"github.com/pthm-cable/shoal/natural"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/reset"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
	"github.com/pthm-cable/shoal/telemetry"
)

// Scenario is a built, not yet started, simulation.
type Scenario struct {
	Model     *sim.Model
	Collector *telemetry.Collector

	// Representation is the kind of cell every livable tile holds.
	Representation string

	Natural map[*species.Species]*natural.Processes
	Growth  map[*species.Species]*growth.Logistic
	Resets  []*reset.Yearly
}

// Build creates the model described by cfg. Stats go to out, which may be nil.
func Build(cfg *config.Config, out *telemetry.OutputManager) (*Scenario, error) {
	mp, err := newMap(cfg.Map)
	if err != nil {
		return nil, err
	}

	all := make([]*species.Species, len(cfg.Species))
	for i, sc := range cfg.Species {
		if all[i], err = newSpecies(sc); err != nil {
			return nil, err
		}
	}
	reg, err := species.NewRegistry(all...)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		Model:          sim.NewModel(cfg.Simulation.Seed, mp, reg),
		Representation: representation(cfg),
		Natural:        make(map[*species.Species]*natural.Processes),
		Growth:         make(map[*species.Species]*growth.Logistic),
	}
	b := builder{Scenario: s, cfg: cfg, species: all}

	if s.Representation == "abundance" {
		err = b.abundance()
	} else {
		err = b.biomass()
	}
	if err != nil {
		return nil, err
	}

	// stats are taken before the yearly resets, which also run post-data
	s.Collector = telemetry.NewCollector(cfg.Telemetry.LogStats)
	s.Collector.Output = out
	s.Collector.Bookmarks = nil
	if n := cfg.Telemetry.Bookmarks; n > 0 {
		s.Collector.Bookmarks = telemetry.NewBookmarkDetector(n)
	}
	for sp, p := range s.Natural {
		s.Collector.Recruits[sp] = p
	}
	if err := s.Model.Register(s.Collector); err != nil {
		return nil, err
	}

	if err := b.resets(); err != nil {
		return nil, err
	}

	slog.Info("scenario built",
		"width", mp.Width(),
		"height", mp.Height(),
		"livable", len(mp.Livable()),
		"species", reg.Len(),
		"representation", s.Representation,
	)
	return s, nil
}

func newMap(mc config.MapConfig) (*ocean.Map, error) {
	nb := ocean.Moore
	if mc.Neighborhood == "von_neumann" {
		nb = ocean.VonNeumann
	}
	bc := mc.Bathymetry
	if bc.Uniform < 0 {
		return ocean.NewMap(mc.Width, mc.Height, nb, func(int, int) float64 { return bc.Uniform })
	}
	return ocean.NewMap(mc.Width, mc.Height, nb, ocean.Bathymetry(ocean.BathymetryConfig{
		Seed:        bc.Seed,
		Scale:       bc.Scale,
		Octaves:     bc.Octaves,
		Persistence: bc.Persistence,
		SeaLevel:    bc.SeaLevel,
		MaxDepth:    bc.MaxDepth,
	}))
}

// representation returns the cell kind shared by all real species.
func representation(cfg *config.Config) string {
	for _, sc := range cfg.Species {
		if !sc.Imaginary {
			return sc.Representation
		}
	}
	return "biomass"
}

type builder struct {
	*Scenario
	cfg     *config.Config
	species []*species.Species
}

// weights scores every livable tile. Non-finite and negative weights count
// as zero.
func (b *builder) weights(a allocator.Allocator) []float64 {
	m := b.Model
	tiles := m.Map.Livable()
	w := make([]float64, len(tiles))
	for i, t := range tiles {
		v := a.Allocate(t, m.Map, m.Random)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		w[i] = v
	}
	return w
}

// biomass fills every livable tile with a BiomassCell. Each species gets a
// capacity of Initial.Capacity times its allocator weight and starts at a
// random fraction of it.
func (b *builder) biomass() error {
	m := b.Model
	tiles := m.Map.Livable()
	n := len(b.species)

	capacity := make([][]float64, n)
	fills := make([][2]float64, n)
	for i, sc := range b.cfg.Species {
		if sc.Imaginary {
			continue
		}
		a, err := newAllocator(sc.Initial.Allocator, b.species[i])
		if err != nil {
			return fmt.Errorf("species %q: initial: %w", sc.Name, err)
		}
		capacity[i] = b.weights(a)
		floats.Scale(sc.Initial.Capacity, capacity[i])
		fills[i] = [2]float64{sc.Initial.MinFill, sc.Initial.MaxFill}
	}

	cells := make([]*biology.BiomassCell, len(tiles))
	for j, t := range tiles {
		k := make([]float64, n)
		bio := make([]float64, n)
		for i := range n {
			if capacity[i] == nil {
				continue
			}
			k[i] = capacity[i][j]
			lo, hi := fills[i][0], fills[i][1]
			bio[i] = k[i] * (lo + (hi-lo)*m.Random.Float64())
		}
		c, err := biology.NewBiomassCell(bio, k)
		if err != nil {
			return fmt.Errorf("tile %v: %w", t, err)
		}
		if err := b.place(t, c); err != nil {
			return err
		}
		cells[j] = c
	}

	for i, sc := range b.cfg.Species {
		if sc.Imaginary {
			continue
		}
		sp := b.species[i]
		if sc.Growth.Type == "logistic" {
			g, err := growth.NewLogistic(sp, sc.Growth.Rate)
			if err != nil {
				return err
			}
			for _, c := range cells {
				g.Register(c)
			}
			b.Growth[sp] = g
			if err := m.Register(g); err != nil {
				return err
			}
		}
		steps, err := newBiomassMovers(sc, sp)
		if err != nil {
			return fmt.Errorf("species %q: %w", sc.Name, err)
		}
		if len(steps) > 0 {
			if err := m.Register(&daily{steps: steps}); err != nil {
				return err
			}
		}
	}
	return nil
}

// abundance fills every livable tile with an AbundanceCell, splits each
// species' initial cohort matrix over tiles by allocator weight and wires
// one natural-processes orchestrator per species.
func (b *builder) abundance() error {
	m := b.Model
	tiles := m.Map.Livable()
	cells := make([]*biology.AbundanceCell, len(tiles))
	for j, t := range tiles {
		cells[j] = biology.NewAbundanceCell(m.Species)
		if err := b.place(t, cells[j]); err != nil {
			return err
		}
	}

	for i, sc := range b.cfg.Species {
		if sc.Imaginary {
			continue
		}
		sp := b.species[i]
		if err := b.seed(sc, sp, cells); err != nil {
			return fmt.Errorf("species %q: initial: %w", sc.Name, err)
		}
		p, err := b.processes(sc, sp)
		if err != nil {
			return fmt.Errorf("species %q: %w", sc.Name, err)
		}
		for j, t := range tiles {
			p.Register(t, cells[j])
		}
		b.Natural[sp] = p
		if err := m.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) seed(sc config.SpeciesConfig, sp *species.Species, cells []*biology.AbundanceCell) error {
	if len(sc.Initial.Abundance) == 0 {
		return nil
	}
	total, err := biology.AbundanceFrom(sc.Initial.Abundance)
	if err != nil {
		return err
	}
	a, err := newAllocator(sc.Initial.Allocator, sp)
	if err != nil {
		return err
	}
	w := b.weights(a)
	sum := floats.Sum(w)
	if sum <= 0 {
		return fmt.Errorf("allocator %q gives no tile any weight", sc.Initial.Allocator.Type)
	}
	for j, c := range cells {
		ab := total.Clone()
		ab.Scale(w[j] / sum)
		if err := c.SetAbundance(sp, ab); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) processes(sc config.SpeciesConfig, sp *species.Species) (*natural.Processes, error) {
	rec, err := newRecruitment(sc.Recruitment, sp.Meristics)
	if err != nil {
		return nil, err
	}
	ag, err := newAging(sc.Aging)
	if err != nil {
		return nil, err
	}
	mort, err := newMortality(sc.Mortality)
	if err != nil {
		return nil, err
	}
	p, err := natural.New(sp, rec, ag, mort)
	if err != nil {
		return nil, err
	}
	p.PreserveLastAge = sc.Aging.PreserveLastAge
	p.Rounding = sc.Aging.Rounding
	p.Interval = sc.Recruitment.Interval
	p.LocalRecruitment = sc.Recruitment.Local
	if sc.RecruitAllocator.Type != "" {
		if p.RecruitsAllocator, err = newAllocator(sc.RecruitAllocator, sp); err != nil {
			return nil, err
		}
	}
	d, err := newAbundanceDiffuser(sc.Diffusion, sp)
	if err != nil {
		return nil, err
	}
	if d != nil {
		p.Diffusers = append(p.Diffusers, d)
	}
	return p, nil
}

// resets schedules a yearly reset for every species that asks for one.
func (b *builder) resets() error {
	for i, sc := range b.cfg.Species {
		if sc.Imaginary || !sc.Reset.Enabled {
			continue
		}
		r, err := newResetter(sc, b.species[i])
		if err != nil {
			return fmt.Errorf("species %q: reset: %w", sc.Name, err)
		}
		y := &reset.Yearly{Resetters: []reset.Resetter{r}, RefreshPattern: sc.Reset.RefreshPattern}
		b.Resets = append(b.Resets, y)
		if err := b.Model.Register(y); err != nil {
			return err
		}
	}
	return nil
}

// cell is what place needs from a biology.
type cell interface {
	ocean.Biology
	sim.Startable
}

// place puts a cell on a tile and starts it with the model.
func (b *builder) place(t ocean.Tile, c cell) error {
	if err := b.Model.Map.SetBiology(t, c); err != nil {
		return err
	}
	return b.Model.Register(c)
}

// daily runs biomass movers every day in the biology phase.
type daily struct {
	steps    []sim.Steppable
	receipts []*sim.Receipt
}

func (d *daily) Start(m *sim.Model) error {
	for _, s := range d.steps {
		d.receipts = append(d.receipts, m.EveryDay(sim.PhaseBiology, s))
	}
	return nil
}

func (d *daily) Stop() {
	for _, r := range d.receipts {
		r.Stop()
	}
	d.receipts = nil
}
