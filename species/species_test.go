package species

import (
	"math"
	"strings"
	"testing"
)

func TestRegistryAssignsDenseIndices(t *testing.T) {
	a := New("sablefish", nil)
	b := New("yelloweye", nil)
	b.Code = "YE"
	c := New("placeholder", nil)
	c.Imaginary = true

	reg, err := NewRegistry(a, b, c)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", reg.Len())
	}
	for i, s := range []*Species{a, b, c} {
		if s.Index() != i {
			t.Errorf("%s index = %d, want %d", s.Name, s.Index(), i)
		}
		if reg.Species(i) != s {
			t.Errorf("Species(%d) = %v, want %v", i, reg.Species(i), s)
		}
	}
	if got, ok := reg.ByCode("YE"); !ok || got != b {
		t.Errorf("ByCode(YE) = %v, %v", got, ok)
	}
	if got, ok := reg.ByName("sablefish"); !ok || got != a {
		t.Errorf("ByName(sablefish) = %v, %v", got, ok)
	}
	if _, ok := reg.ByName("cod"); ok {
		t.Error("ByName(cod) should miss")
	}
}

func TestRegistryRejectsReuse(t *testing.T) {
	a := New("a", nil)
	MustRegistry(a)
	if _, err := NewRegistry(a); err == nil {
		t.Error("expected error registering an indexed species twice")
	}

	x, y := New("x", nil), New("x", nil)
	if _, err := NewRegistry(x, y); err == nil {
		t.Error("expected duplicate name error")
	}
	if x.Index() != -1 || y.Index() != -1 {
		t.Errorf("failed registry must not assign indices, got %d %d", x.Index(), y.Index())
	}
}

func TestListMeristicsValidation(t *testing.T) {
	tests := []struct {
		name     string
		weights  [][]float64
		maturity []float64
		wantErr  bool
	}{
		{"single subdivision", [][]float64{{1, 10}}, nil, false},
		{"two sexes", [][]float64{{1, 2, 3}, {1, 2, 3}}, []float64{0, 0.5, 1}, false},
		{"ragged", [][]float64{{1, 2}, {1}}, nil, true},
		{"negative weight", [][]float64{{1, -2}}, nil, true},
		{"maturity mismatch", [][]float64{{1, 2}}, []float64{1}, true},
		{"empty", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewListMeristics(tt.weights, nil, tt.maturity)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestListMeristicsCopiesInput(t *testing.T) {
	w := [][]float64{{1, 10}}
	m := MustListMeristics(w, nil, nil)
	w[0][0] = 99
	if m.Weight(0, 0) != 1 {
		t.Errorf("meristics aliased caller slice: weight = %v", m.Weight(0, 0))
	}
	if m.Bins() != 2 || m.Subdivisions() != 1 {
		t.Errorf("shape = %dx%d, want 1x2", m.Subdivisions(), m.Bins())
	}
	if m.Recruitment.FemaleSubdivision != 0 {
		t.Errorf("single-sex female subdivision = %d, want 0", m.Recruitment.FemaleSubdivision)
	}
	if !math.IsNaN(m.Length(0, 0)) {
		t.Errorf("missing length should be NaN, got %v", m.Length(0, 0))
	}
}

func TestStockAssessmentMeristics(t *testing.T) {
	sex := SexParams{
		MaxAge:      10,
		YoungAge:    0.5,
		YoungLength: 25,
		MaxLength:   60,
		K:           0.3,
		WeightA:     0.00001,
		WeightB:     3,
		Mortality:   0.1,
	}
	m, err := NewStockAssessmentMeristics(StockAssessmentParams{
		Male:               sex,
		Female:             sex,
		MaturityInflection: 45,
		MaturitySlope:      -0.4,
		FecundityIntercept: 1,
		FecunditySlope:     0,
		VirginRecruits:     1000,
		Steepness:          0.6,
	})
	if err != nil {
		t.Fatalf("NewStockAssessmentMeristics: %v", err)
	}
	if m.Bins() != 11 || m.Subdivisions() != 2 {
		t.Fatalf("shape = %dx%d, want 2x11", m.Subdivisions(), m.Bins())
	}

	// length at max age equals the configured max length
	if got := m.Length(Female, 10); math.Abs(got-60) > 1e-9 {
		t.Errorf("length at max age = %v, want 60", got)
	}
	// growth is monotone and maturity rises with length
	for age := 1; age < m.Bins(); age++ {
		if m.Weight(Female, age) < m.Weight(Female, age-1) {
			t.Errorf("weight decreased at age %d", age)
		}
		if m.MatureFraction(age) < m.MatureFraction(age-1) {
			t.Errorf("maturity decreased at age %d", age)
		}
	}
	if m.Recruitment.CumulativePhi <= 0 {
		t.Errorf("cumulative phi = %v, want > 0", m.Recruitment.CumulativePhi)
	}
	if got := m.NaturalMortality(Male, 3); got != 0.1 {
		t.Errorf("mortality = %v, want 0.1", got)
	}
}

func TestReadMeristicsCSV(t *testing.T) {
	table := `subdivision,bin,weight,length,maturity,fecundity,mortality
0,0,1,10,0,1,0.2
0,1,10,20,0,1,0.2
1,0,1,10,0,1,0.25
1,1,12,22,1,1,0.25
`
	m, err := ReadMeristicsCSV(strings.NewReader(table))
	if err != nil {
		t.Fatalf("ReadMeristicsCSV: %v", err)
	}
	if m.Subdivisions() != 2 || m.Bins() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", m.Subdivisions(), m.Bins())
	}
	if m.Weight(Female, 1) != 12 {
		t.Errorf("female weight[1] = %v, want 12", m.Weight(Female, 1))
	}
	if m.MatureFraction(1) != 1 || m.MatureFraction(0) != 0 {
		t.Errorf("maturity = %v, want [0 1]", m.Maturity)
	}
	if m.NaturalMortality(Female, 0) != 0.25 {
		t.Errorf("female M = %v, want 0.25", m.NaturalMortality(Female, 0))
	}
}

func TestReadMeristicsCSVMissingRow(t *testing.T) {
	table := `subdivision,bin,weight,length,maturity,fecundity,mortality
0,0,1,10,0,1,0.2
0,1,10,20,0,1,0.2
1,0,1,10,0,1,0.25
`
	if _, err := ReadMeristicsCSV(strings.NewReader(table)); err == nil {
		t.Error("expected error for incomplete table")
	}
}
