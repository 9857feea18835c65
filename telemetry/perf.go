package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/shoal/sim"
)

// Phase names as reported by the schedule.
var phases = []string{
	sim.PhaseDawn.String(),
	sim.PhaseBiology.String(),
	sim.PhaseFishing.String(),
	sim.PhasePostData.String(),
}

// PerfSample holds timing data for a single simulated day.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window. It
// implements sim.PhaseTimer.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	now func() time.Time
}

var _ sim.PhaseTimer = (*PerfCollector)(nil)

// NewPerfCollector creates a new performance collector.
// windowSize: number of days to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = sim.DaysPerYear
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartTick begins timing a new simulated day.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current day and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total day time
	PhasePct map[string]float64

	TicksPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var totalTick time.Duration
	var minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration

		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_day_us", s.AvgTickDuration.Microseconds(),
		"min_day_us", s.MinTickDuration.Microseconds(),
		"max_day_us", s.MaxTickDuration.Microseconds(),
		"days_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_day_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_day_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_day_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("days_per_sec", s.TicksPerSecond),
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Day         int     `csv:"day"`
	AvgDayUS    int64   `csv:"avg_day_us"`
	MinDayUS    int64   `csv:"min_day_us"`
	MaxDayUS    int64   `csv:"max_day_us"`
	DaysPerSec  float64 `csv:"days_per_sec"`
	DawnPct     float64 `csv:"dawn_pct"`
	BiologyPct  float64 `csv:"biology_pct"`
	FishingPct  float64 `csv:"fishing_pct"`
	PostDataPct float64 `csv:"post_data_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(day int) PerfStatsCSV {
	return PerfStatsCSV{
		Day:         day,
		AvgDayUS:    s.AvgTickDuration.Microseconds(),
		MinDayUS:    s.MinTickDuration.Microseconds(),
		MaxDayUS:    s.MaxTickDuration.Microseconds(),
		DaysPerSec:  s.TicksPerSecond,
		DawnPct:     s.PhasePct[sim.PhaseDawn.String()],
		BiologyPct:  s.PhasePct[sim.PhaseBiology.String()],
		FishingPct:  s.PhasePct[sim.PhaseFishing.String()],
		PostDataPct: s.PhasePct[sim.PhasePostData.String()],
	}
}
