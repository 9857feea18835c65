package natural

import (
	"errors"
	"testing"

	"github.com/pthm-cable/shoal/aging"
	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/mortality"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/recruitment"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

type constRecruit float64

func (c constRecruit) Recruit(*species.Species, *species.Meristics, *biology.Abundance, recruitment.Tick) float64 {
	return float64(c)
}

type fixture struct {
	model *sim.Model
	sp    *species.Species
	cells []*biology.AbundanceCell
	proc  *Processes
}

func newFixture(t *testing.T, rec recruitment.Process, counts ...[][]float64) *fixture {
	t.Helper()
	mer := species.MustListMeristics(
		[][]float64{{1, 1}, {1, 1}},
		[][]float64{{10, 20}, {10, 20}},
		[]float64{0, 1},
	)
	sp := species.New("hake", mer)
	reg := species.MustRegistry(sp)
	m, err := ocean.NewUniformMap(max(len(counts), 1), 1, -10)
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(sp, rec, aging.Standard{}, mortality.None{})
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{model: sim.NewModel(7, m, reg), sp: sp, proc: p}
	for x, matrix := range counts {
		c := biology.NewAbundanceCell(reg)
		if err := c.SetAbundance(sp, biology.MustAbundance(matrix)); err != nil {
			t.Fatal(err)
		}
		p.Register(ocean.Tile{X: x}, c)
		f.cells = append(f.cells, c)
	}
	return f
}

func assertRows(t *testing.T, ab *biology.Abundance, want [][]float64) {
	t.Helper()
	for s, row := range want {
		for b, v := range row {
			if got := ab.At(s, b); got != v {
				t.Errorf("[%d][%d] = %v, want %v (matrix %v)", s, b, got, v, ab)
			}
		}
	}
}

func TestStepAgesThenRecruits(t *testing.T) {
	f := newFixture(t, constRecruit(100),
		[][]float64{{10, 3}, {10, 3}},
		[][]float64{{10, 3}, {10, 3}},
	)
	if err := f.proc.Step(f.model); err != nil {
		t.Fatal(err)
	}
	// equal biomass: 50 recruits per cell, 25 per subdivision
	for _, c := range f.cells {
		assertRows(t, c.Abundance(f.sp), [][]float64{{25, 10}, {25, 10}})
	}
	if got := f.proc.LastRecruits(); got != 100 {
		t.Errorf("LastRecruits = %v, want 100", got)
	}
}

func TestRecruitsFollowBiomassByDefault(t *testing.T) {
	f := newFixture(t, constRecruit(40),
		[][]float64{{30, 0}, {0, 0}},
		[][]float64{{10, 0}, {0, 0}},
	)
	if err := f.proc.Step(f.model); err != nil {
		t.Fatal(err)
	}
	if got := f.cells[0].Abundance(f.sp).BinSum(0); got != 30 {
		t.Errorf("recruits in rich cell = %v, want 30", got)
	}
	if got := f.cells[1].Abundance(f.sp).BinSum(0); got != 10 {
		t.Errorf("recruits in poor cell = %v, want 10", got)
	}
}

func TestRecruitsSplitEvenlyWhenStockIsEmpty(t *testing.T) {
	f := newFixture(t, constRecruit(20),
		[][]float64{{0, 0}, {0, 0}},
		[][]float64{{0, 0}, {0, 0}},
	)
	if err := f.proc.Step(f.model); err != nil {
		t.Fatal(err)
	}
	for i, c := range f.cells {
		if got := c.Abundance(f.sp).BinSum(0); got != 10 {
			t.Errorf("cell %d recruits = %v, want 10", i, got)
		}
	}
}

func TestRecruitAllocatorTargetsOneCell(t *testing.T) {
	f := newFixture(t, constRecruit(60),
		[][]float64{{5, 0}, {5, 0}},
		[][]float64{{5, 0}, {5, 0}},
	)
	f.proc.RecruitsAllocator = allocator.FixedTile{Tile: ocean.Tile{X: 1}}
	if err := f.proc.Step(f.model); err != nil {
		t.Fatal(err)
	}
	assertRows(t, f.cells[0].Abundance(f.sp), [][]float64{{0, 5}, {0, 5}})
	assertRows(t, f.cells[1].Abundance(f.sp), [][]float64{{30, 5}, {30, 5}})
}

func TestRecruitAllocatorErrors(t *testing.T) {
	tests := []struct {
		name  string
		alloc allocator.Allocator
	}{
		{"all zero", allocator.Constant{Value: 0}},
		{"negative", allocator.Constant{Value: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, constRecruit(10), [][]float64{{1, 0}, {1, 0}})
			f.proc.RecruitsAllocator = tt.alloc
			before := f.cells[0].Abundance(f.sp).Clone()
			if err := f.proc.Step(f.model); err == nil {
				t.Fatal("expected an error")
			}
			assertRows(t, f.cells[0].Abundance(f.sp), before.Matrix())
		})
	}
}

func TestNegativeRecruitmentIsAnError(t *testing.T) {
	f := newFixture(t, constRecruit(-1), [][]float64{{1, 0}, {1, 0}})
	err := f.proc.Step(f.model)
	if !errors.Is(err, ErrNegativeOutput) {
		t.Fatalf("err = %v, want ErrNegativeOutput", err)
	}
}

func TestRoundedSplitKeepsTotal(t *testing.T) {
	p := &Processes{Rounding: true}
	tests := []struct {
		total   float64
		weights []float64
		want    []float64
	}{
		{10, uniform(3), []float64{3, 4, 3}},
		{1, uniform(2), []float64{1, 0}},
		{7, []float64{0.5, 0, 0.5}, []float64{4, 0, 3}},
		{0, uniform(4), []float64{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := p.split(tt.total, tt.weights)
		var sum float64
		for i := range got {
			sum += got[i]
			if got[i] != tt.want[i] {
				t.Errorf("split(%v, %v) = %v, want %v", tt.total, tt.weights, got, tt.want)
				break
			}
		}
		if sum != tt.total {
			t.Errorf("split(%v, %v) sums to %v", tt.total, tt.weights, sum)
		}
	}
}

func TestLocalRecruitmentUsesOwnSpawners(t *testing.T) {
	f := newFixture(t, recruitment.Fixed{Rate: 8},
		[][]float64{{1, 0}, {1, 0}},
		[][]float64{{9, 0}, {9, 0}},
	)
	f.proc.LocalRecruitment = true
	if err := f.proc.Step(f.model); err != nil {
		t.Fatal(err)
	}
	for i, c := range f.cells {
		if got := c.Abundance(f.sp).BinSum(0); got != 8 {
			t.Errorf("cell %d recruits = %v, want 8", i, got)
		}
	}
	if got := f.proc.LastRecruits(); got != 16 {
		t.Errorf("LastRecruits = %v, want 16", got)
	}
}

func TestNoCellsIsNoop(t *testing.T) {
	f := newFixture(t, constRecruit(-1))
	if err := f.proc.Step(f.model); err != nil {
		t.Fatalf("Step with no cells: %v", err)
	}
}

func TestScheduledYearlyWithDailyDiffusers(t *testing.T) {
	f := newFixture(t, constRecruit(100), [][]float64{{1, 0}, {1, 0}})
	var diffused int
	f.proc.Diffusers = []sim.Steppable{sim.StepFunc(func(*sim.Model) error {
		diffused++
		return nil
	})}
	if err := f.model.Register(f.proc); err != nil {
		t.Fatal(err)
	}
	if err := f.model.Start(); err != nil {
		t.Fatal(err)
	}
	if err := f.model.Run(sim.DaysPerYear - 1); err != nil {
		t.Fatal(err)
	}
	if got := f.proc.LastRecruits(); got != 0 {
		t.Fatalf("recruited before the year ended: %v", got)
	}
	if err := f.model.Run(1); err != nil {
		t.Fatal(err)
	}
	if got := f.proc.LastRecruits(); got != 100 {
		t.Errorf("LastRecruits = %v, want 100", got)
	}
	if diffused != sim.DaysPerYear {
		t.Errorf("diffusers ran %d times, want %d", diffused, sim.DaysPerYear)
	}
	f.model.Stop()
	if err := f.model.Run(sim.DaysPerYear); err != nil {
		t.Fatal(err)
	}
	if diffused != sim.DaysPerYear {
		t.Errorf("diffusers kept running after stop: %d", diffused)
	}
}

func TestSnapshotRecruitAllocatorFollowsStock(t *testing.T) {
	tests := []struct {
		name  string
		cells [][][]float64
		want  []float64
	}{
		{"follows the stock", [][][]float64{
			{{15, 0}, {15, 0}},
			{{5, 0}, {5, 0}},
		}, []float64{30, 10}},
		{"empty stock spreads evenly", [][][]float64{
			{{0, 0}, {0, 0}},
			{{0, 0}, {0, 0}},
		}, []float64{20, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, constRecruit(40), tt.cells...)
			for x, c := range f.cells {
				if err := f.model.Map.SetBiology(ocean.Tile{X: x}, c); err != nil {
					t.Fatal(err)
				}
			}
			f.proc.RecruitsAllocator = &allocator.Snapshot{Species: f.sp}
			if err := f.proc.Step(f.model); err != nil {
				t.Fatal(err)
			}
			for i, c := range f.cells {
				if got := c.Abundance(f.sp).BinSum(0); got != tt.want[i] {
					t.Errorf("cell %d recruits = %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestDiffusersMoveBeforeLifeCycle(t *testing.T) {
	f := newFixture(t, constRecruit(100), [][]float64{{1, 0}, {1, 0}})
	seen := -1.0
	f.proc.Diffusers = []sim.Steppable{sim.StepFunc(func(*sim.Model) error {
		seen = f.proc.LastRecruits()
		return nil
	})}
	if err := f.model.Register(f.proc); err != nil {
		t.Fatal(err)
	}
	if err := f.model.Start(); err != nil {
		t.Fatal(err)
	}
	if err := f.model.Run(sim.DaysPerYear); err != nil {
		t.Fatal(err)
	}
	if seen != 0 {
		t.Errorf("diffuser saw %v recruits on the life-cycle day, want 0", seen)
	}
	if got := f.proc.LastRecruits(); got != 100 {
		t.Errorf("LastRecruits = %v, want 100", got)
	}
}

func TestRoundingDropsFractionalRecruits(t *testing.T) {
	tests := []struct {
		name  string
		local bool
		want  float64
	}{
		{"pooled", false, 9},
		{"local", true, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, constRecruit(9.9),
				[][]float64{{1, 0}, {1, 0}},
				[][]float64{{1, 0}, {1, 0}},
			)
			f.proc.Rounding = true
			f.proc.LocalRecruitment = tt.local
			if err := f.proc.Step(f.model); err != nil {
				t.Fatal(err)
			}
			if got := f.proc.LastRecruits(); got != tt.want {
				t.Errorf("LastRecruits = %v, want %v", got, tt.want)
			}
		})
	}
}
