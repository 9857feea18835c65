package sim

import (
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	days []int
}

func (r *recorder) Step(m *Model) error {
	r.days = append(r.days, m.Day())
	return nil
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel(7, nil, nil)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEveryIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		days     int
		want     []int
	}{
		{"daily", 1, 3, []int{0, 1, 2}},
		{"weekly", 7, 15, []int{6, 13}},
		{"yearly", DaysPerYear, 2 * DaysPerYear, []int{364, 729}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			r := &recorder{}
			m.Schedule.Every(tt.interval, PhaseBiology, r)
			if err := m.Run(tt.days); err != nil {
				t.Fatal(err)
			}
			if len(r.days) != len(tt.want) {
				t.Fatalf("ran on days %v, want %v", r.days, tt.want)
			}
			for i := range tt.want {
				if r.days[i] != tt.want[i] {
					t.Errorf("run %d on day %d, want %d", i, r.days[i], tt.want[i])
				}
			}
		})
	}
}

func TestPhaseOrder(t *testing.T) {
	m := newTestModel(t)
	var order []string
	add := func(p Phase) {
		m.EveryDay(p, StepFunc(func(*Model) error {
			order = append(order, p.String())
			return nil
		}))
	}
	// registered out of order on purpose
	add(PhasePostData)
	add(PhaseFishing)
	add(PhaseDawn)
	add(PhaseBiology)
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	want := "dawn,biology,fishing,post_data"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("phase order = %s, want %s", got, want)
	}
}

func TestReceiptStop(t *testing.T) {
	m := newTestModel(t)
	r := &recorder{}
	receipt := m.EveryDay(PhaseDawn, r)
	if err := m.Run(2); err != nil {
		t.Fatal(err)
	}
	receipt.Stop()
	if err := m.Run(2); err != nil {
		t.Fatal(err)
	}
	if len(r.days) != 2 {
		t.Errorf("ran %d times, want 2", len(r.days))
	}
	if m.Schedule.Pending() != 0 {
		t.Errorf("pending = %d, want 0", m.Schedule.Pending())
	}
}

func TestOnceDuringStep(t *testing.T) {
	m := newTestModel(t)
	r := &recorder{}
	m.EveryDay(PhaseBiology, StepFunc(func(m *Model) error {
		if m.Day() == 0 {
			// later phase: still today
			m.Schedule.Once(PhasePostData, r)
			// same phase: tomorrow
			m.Schedule.Once(PhaseBiology, r)
		}
		return nil
	}))
	if err := m.Run(3); err != nil {
		t.Fatal(err)
	}
	if len(r.days) != 2 || r.days[0] != 0 || r.days[1] != 1 {
		t.Errorf("once entries ran on %v, want [0 1]", r.days)
	}
}

func TestStepErrorCarriesDay(t *testing.T) {
	m := newTestModel(t)
	boom := errors.New("boom")
	m.Schedule.Every(3, PhaseFishing, StepFunc(func(*Model) error { return boom }))
	err := m.Run(10)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "day 2") || !strings.Contains(err.Error(), "fishing") {
		t.Errorf("error %q lacks day or phase", err)
	}
	if m.Day() != 2 {
		t.Errorf("day advanced to %d after failure", m.Day())
	}
}

func TestStepBeforeStart(t *testing.T) {
	m := NewModel(1, nil, nil)
	if err := m.Step(); err == nil {
		t.Error("expected error stepping an unstarted model")
	}
}

type lifecycle struct {
	started, stopped *[]string
	name             string
}

func (l lifecycle) Start(*Model) error { *l.started = append(*l.started, l.name); return nil }
func (l lifecycle) Stop()              { *l.stopped = append(*l.stopped, l.name) }

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	m := NewModel(1, nil, nil)
	for _, n := range []string{"a", "b"} {
		if err := m.Register(lifecycle{&started, &stopped, n}); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(lifecycle{&started, &stopped, "c"}); err != nil {
		t.Fatal(err)
	}
	m.Stop()
	if got := strings.Join(started, ""); got != "abc" {
		t.Errorf("start order %q, want abc", got)
	}
	if got := strings.Join(stopped, ""); got != "cba" {
		t.Errorf("stop order %q, want cba", got)
	}
}

func TestCalendar(t *testing.T) {
	m := newTestModel(t)
	if err := m.Run(DaysPerYear + 3); err != nil {
		t.Fatal(err)
	}
	if m.Year() != 1 || m.DayOfYear() != 3 {
		t.Errorf("year %d day %d, want year 1 day 3", m.Year(), m.DayOfYear())
	}
}

func TestReseedReproducible(t *testing.T) {
	a := NewModel(42, nil, nil)
	b := NewModel(1, nil, nil)
	b.Reseed(42)
	for range 5 {
		if a.Random.Float64() != b.Random.Float64() {
			t.Fatal("reseeded source diverged")
		}
	}
}
