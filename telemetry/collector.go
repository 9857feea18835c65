// Package telemetry reports on a running simulation: yearly population
// statistics, stock bookmarks, phase timings and their CSV output.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// RecruitSource reports the recruits of the last life-cycle step.
type RecruitSource interface {
	LastRecruits() float64
}

// Collector builds SpeciesStats for every simulated species once a year,
// after the day's biology and fishing have run.
type Collector struct {
	// Recruits maps a species to the orchestrator driving it. Optional.
	Recruits map[*species.Species]RecruitSource

	// Bookmarks, Output and Log are optional.
	Bookmarks *BookmarkDetector
	Output    *OutputManager
	Log       bool

	last    []SpeciesStats
	history []Bookmark
	receipt *sim.Receipt
}

// NewCollector creates a collector that logs its stats when log is set.
func NewCollector(log bool) *Collector {
	return &Collector{
		Recruits:  make(map[*species.Species]RecruitSource),
		Bookmarks: NewBookmarkDetector(10),
		Log:       log,
	}
}

func (c *Collector) Start(m *sim.Model) error {
	c.receipt = m.EveryYear(sim.PhasePostData, c)
	return nil
}

func (c *Collector) Stop() {
	if c.receipt != nil {
		c.receipt.Stop()
	}
}

// Step collects, logs and writes the stats of the current day.
func (c *Collector) Step(m *sim.Model) error {
	c.last = c.Collect(m)
	for _, s := range c.last {
		if c.Log {
			s.LogStats()
		}
		if err := c.Output.WriteStats(s); err != nil {
			return err
		}
		if c.Bookmarks == nil {
			continue
		}
		for _, b := range c.Bookmarks.Check(s) {
			b.LogBookmark()
			c.history = append(c.history, b)
			if err := c.Output.WriteBookmark(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Last returns the stats of the most recent step.
func (c *Collector) Last() []SpeciesStats { return c.last }

// Bookmarked returns every bookmark raised so far.
func (c *Collector) Bookmarked() []Bookmark { return c.history }

// Collect computes stats for every non-imaginary species without side effects.
func (c *Collector) Collect(m *sim.Model) []SpeciesStats {
	var out []SpeciesStats
	livable := m.Map.Livable()
	for _, sp := range m.Species.All() {
		if sp.Imaginary {
			continue
		}
		s := SpeciesStats{
			Year:         m.Year(),
			Day:          m.Day(),
			Species:      sp.Name,
			LivableCells: len(livable),
		}
		values := cellBiomass(m.Map, livable, sp)
		for _, v := range values {
			s.TotalBiomass += v
		}
		s.OccupiedCells = len(values)
		s.CellMean, s.CellStd, s.CellP10, s.CellP50, s.CellP90 = ComputeCellStats(values)
		if r, ok := c.Recruits[sp]; ok {
			s.Recruits = r.LastRecruits()
		}
		out = append(out, s)
	}
	return out
}

// cellBiomass returns the positive biomass of every occupied tile.
func cellBiomass(mp *ocean.Map, tiles []ocean.Tile, sp *species.Species) []float64 {
	var values []float64
	for _, t := range tiles {
		b := mp.Biology(t)
		if b == nil {
			continue
		}
		if v := b.Biomass(sp); v > 0 {
			values = append(values, v)
		}
	}
	return values
}

// LogSummary logs the latest stats in one line per species.
func (c *Collector) LogSummary() {
	for _, s := range c.last {
		slog.Info("final", "species", s.Species, "total_biomass", s.TotalBiomass, "occupied_cells", s.OccupiedCells)
	}
}
