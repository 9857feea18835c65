package sim

import "fmt"

// Phase orders the work done within a single simulated day.
type Phase int

const (
	PhaseDawn Phase = iota
	PhaseBiology
	PhaseFishing
	PhasePostData
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhaseDawn:
		return "dawn"
	case PhaseBiology:
		return "biology"
	case PhaseFishing:
		return "fishing"
	case PhasePostData:
		return "post_data"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Steppable is work the schedule runs on a given day and phase.
type Steppable interface {
	Step(m *Model) error
}

// StepFunc adapts a function to Steppable.
type StepFunc func(m *Model) error

// Step calls f(m).
func (f StepFunc) Step(m *Model) error { return f(m) }

// Startable has a run lifecycle: started once when the scenario begins and
// stopped once when it is torn down.
type Startable interface {
	Start(m *Model) error
	Stop()
}

// PhaseTimer receives phase boundaries so step time can be profiled.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Receipt cancels a scheduled Steppable.
type Receipt struct {
	stopped bool
}

// Stop prevents any further runs. Safe to call more than once.
func (r *Receipt) Stop() { r.stopped = true }

// Stopped reports whether Stop was called.
func (r *Receipt) Stopped() bool { return r.stopped }

type entry struct {
	phase    Phase
	interval int // days between runs, 0 for one-shot
	next     int // day of next run
	step     Steppable
	receipt  *Receipt
}

// Schedule is a day-granularity discrete event scheduler. Within a day,
// phases run in order and entries within a phase run in registration order.
type Schedule struct {
	entries []*entry
	day     int
	running bool
	phase   Phase
	timer   PhaseTimer
}

// Day returns the number of days fully simulated.
func (s *Schedule) Day() int { return s.day }

// SetTimer installs a phase timer; nil disables timing.
func (s *Schedule) SetTimer(t PhaseTimer) { s.timer = t }

// firstDay returns the first day a new entry for phase may run.
func (s *Schedule) firstDay(phase Phase) int {
	if s.running && phase <= s.phase {
		return s.day + 1
	}
	return s.day
}

// Every runs step every `days` days in the given phase. The first run is at
// the end of the first interval, so a yearly entry registered on day 0 runs
// on day 364.
func (s *Schedule) Every(days int, phase Phase, step Steppable) *Receipt {
	if days < 1 {
		panic(fmt.Sprintf("sim: invalid interval %d", days))
	}
	r := &Receipt{}
	s.entries = append(s.entries, &entry{
		phase:    phase,
		interval: days,
		next:     s.firstDay(phase) + days - 1,
		step:     step,
		receipt:  r,
	})
	return r
}

// EveryDay runs step daily.
func (s *Schedule) EveryDay(phase Phase, step Steppable) *Receipt {
	return s.Every(1, phase, step)
}

// EveryYear runs step once per simulated year.
func (s *Schedule) EveryYear(phase Phase, step Steppable) *Receipt {
	return s.Every(DaysPerYear, phase, step)
}

// Once runs step a single time, today if the phase has not passed yet.
func (s *Schedule) Once(phase Phase, step Steppable) *Receipt {
	r := &Receipt{}
	s.entries = append(s.entries, &entry{
		phase:   phase,
		next:    s.firstDay(phase),
		step:    step,
		receipt: r,
	})
	return r
}

// step runs every entry due today. The first error aborts the day.
func (s *Schedule) step(m *Model) error {
	s.running = true
	defer func() { s.running = false }()

	if s.timer != nil {
		s.timer.StartTick()
		defer s.timer.EndTick()
	}
	for phase := PhaseDawn; phase < numPhases; phase++ {
		s.phase = phase
		if s.timer != nil {
			s.timer.StartPhase(phase.String())
		}
		// index loop: entries may be appended while stepping
		for i := 0; i < len(s.entries); i++ {
			e := s.entries[i]
			if e.phase != phase || e.next != s.day || e.receipt.stopped {
				continue
			}
			if err := e.step.Step(m); err != nil {
				return fmt.Errorf("day %d (year %d) %s phase: %w", s.day, s.day/DaysPerYear, phase, err)
			}
			if e.interval == 0 {
				e.receipt.stopped = true
			} else {
				e.next += e.interval
			}
		}
	}
	s.compact()
	s.day++
	return nil
}

// compact drops cancelled entries.
func (s *Schedule) compact() {
	live := s.entries[:0]
	for _, e := range s.entries {
		if !e.receipt.stopped {
			live = append(live, e)
		}
	}
	clear(s.entries[len(live):])
	s.entries = live
}

// Pending returns the number of live entries.
func (s *Schedule) Pending() int {
	n := 0
	for _, e := range s.entries {
		if !e.receipt.stopped {
			n++
		}
	}
	return n
}
