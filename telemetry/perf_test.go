package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("biology")
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase("fishing")
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average day duration")
	}
	if _, ok := stats.PhaseAvg["biology"]; !ok {
		t.Error("expected biology phase to be tracked")
	}
	if _, ok := stats.PhaseAvg["fishing"]; !ok {
		t.Error("expected fishing phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase("dawn")
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average day duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive days per second")
	}
}

// stepClock is a clock that only moves when told to.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time          { return c.t }
func (c *stepClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	clock := &stepClock{t: time.Unix(0, 0)}
	pc.now = clock.Now

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		clock.Advance(10 * time.Millisecond)
		pc.StartPhase("slow")
		clock.Advance(90 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration != 100*time.Millisecond {
		t.Errorf("avg day = %v, want 100ms", stats.AvgTickDuration)
	}
	if got := stats.PhaseAvg["slow"]; got != 90*time.Millisecond {
		t.Errorf("slow phase avg = %v, want 90ms", got)
	}
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if math.Abs(fastPct-10) > 1e-9 || math.Abs(slowPct-90) > 1e-9 {
		t.Errorf("phase pct fast %v%%, slow %v%%, want 10%% and 90%%", fastPct, slowPct)
	}
	if math.Abs(stats.TicksPerSecond-10) > 1e-9 {
		t.Errorf("days per second = %v, want 10", stats.TicksPerSecond)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg day duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_TimesSchedulePhases(t *testing.T) {
	mp, _ := ocean.NewUniformMap(1, 1, -1)
	m := sim.NewModel(1, mp, species.MustRegistry())
	pc := NewPerfCollector(10)
	m.Schedule.SetTimer(pc)
	m.EveryDay(sim.PhaseBiology, sim.StepFunc(func(*sim.Model) error {
		time.Sleep(50 * time.Microsecond)
		return nil
	}))
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(3); err != nil {
		t.Fatal(err)
	}

	stats := pc.Stats()
	for _, phase := range phases {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %q not timed", phase)
		}
	}
	row := stats.ToCSV(m.Day())
	if row.Day != 3 || row.BiologyPct <= 0 {
		t.Errorf("csv row = %+v, want day 3 with biology time", row)
	}
}
