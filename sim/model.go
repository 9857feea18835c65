// Package sim holds the simulation clock, the shared random source and the
// scheduler every process registers with.
package sim

import (
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/species"
)

// DaysPerYear is the length of a simulated year.
const DaysPerYear = 365

// Model is the state shared by all processes of one run. There is exactly one
// random source; processes must draw from it and never seed their own.
type Model struct {
	Random   *rand.Rand
	Map      *ocean.Map
	Species  *species.Registry
	Schedule *Schedule

	seed       uint64
	startables []Startable
	started    bool
}

// NewModel creates a model seeded for reproducible runs.
func NewModel(seed uint64, m *ocean.Map, reg *species.Registry) *Model {
	return &Model{
		Random:   newRandom(seed),
		Map:      m,
		Species:  reg,
		Schedule: &Schedule{},
		seed:     seed,
	}
}

func newRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Seed returns the seed the random source was last set to.
func (m *Model) Seed() uint64 { return m.seed }

// Reseed resets the shared random source.
func (m *Model) Reseed(seed uint64) {
	m.seed = seed
	m.Random = newRandom(seed)
}

// Day returns the number of days simulated so far.
func (m *Model) Day() int { return m.Schedule.Day() }

// Year returns the current simulated year, starting at 0.
func (m *Model) Year() int { return m.Schedule.Day() / DaysPerYear }

// DayOfYear returns the day within the current year, 0-364.
func (m *Model) DayOfYear() int { return m.Schedule.Day() % DaysPerYear }

// Register adds a Startable to be started by Start. Registering after Start
// starts it immediately.
func (m *Model) Register(s Startable) error {
	m.startables = append(m.startables, s)
	if m.started {
		return s.Start(m)
	}
	return nil
}

// Start starts every registered Startable in registration order.
func (m *Model) Start() error {
	if m.started {
		return errors.New("sim: model already started")
	}
	m.started = true
	for _, s := range m.startables {
		if err := s.Start(m); err != nil {
			return err
		}
	}
	slog.Debug("model started", "seed", m.seed, "startables", len(m.startables))
	return nil
}

// Step simulates one day.
func (m *Model) Step() error {
	if !m.started {
		return errors.New("sim: step before start")
	}
	return m.Schedule.step(m)
}

// Run simulates the given number of days, stopping at the first error.
func (m *Model) Run(days int) error {
	for range days {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every Startable in reverse registration order.
func (m *Model) Stop() {
	for i := len(m.startables) - 1; i >= 0; i-- {
		m.startables[i].Stop()
	}
}

// EveryDay schedules step daily. See Schedule.Every.
func (m *Model) EveryDay(phase Phase, step Steppable) *Receipt {
	return m.Schedule.EveryDay(phase, step)
}

// EveryYear schedules step yearly. See Schedule.Every.
func (m *Model) EveryYear(phase Phase, step Steppable) *Receipt {
	return m.Schedule.EveryYear(phase, step)
}
