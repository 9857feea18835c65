package reset

import (
	"fmt"

	"github.com/pthm-cable/shoal/sim"
)

// Yearly resets every resetter once a year, after the day's data has been
// collected. The spatial pattern of snapshot allocators is taken on the day
// it starts; with RefreshPattern it is retaken before every reset.
type Yearly struct {
	Resetters      []Resetter
	RefreshPattern bool

	receipts []*sim.Receipt
}

func (y *Yearly) Start(m *sim.Model) error {
	y.receipts = append(y.receipts,
		m.Schedule.Once(sim.PhaseDawn, sim.StepFunc(func(m *sim.Model) error {
			for _, r := range y.Resetters {
				r.RecordSnapshot(m)
			}
			return nil
		})),
		m.EveryYear(sim.PhasePostData, y),
	)
	return nil
}

func (y *Yearly) Stop() {
	for _, r := range y.receipts {
		r.Stop()
	}
	y.receipts = nil
}

func (y *Yearly) Step(m *sim.Model) error {
	for _, r := range y.Resetters {
		if y.RefreshPattern {
			r.RecordSnapshot(m)
		} else {
			r.RecordTotal(m)
		}
		if err := r.ResetAbundance(m.Map, m.Random); err != nil {
			return fmt.Errorf("reset %s: %w", r.Species().Name, err)
		}
	}
	return nil
}
