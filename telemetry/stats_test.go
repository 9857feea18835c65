package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
		{"clamped", []float64{1, 2, 3}, 1.5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeCellStats(t *testing.T) {
	values := []float64{40, 10, 30, 20}
	mean, std, p10, p50, p90 := ComputeCellStats(values)

	if mean != 25 {
		t.Errorf("mean = %v, want 25", mean)
	}
	// sample standard deviation of 10,20,30,40
	if math.Abs(std-12.9099) > 0.001 {
		t.Errorf("std = %v, want ~12.91", std)
	}
	if p10 != 10 || p50 != 20 || p90 != 40 {
		t.Errorf("percentiles = %v/%v/%v, want 10/20/40", p10, p50, p90)
	}
	if values[0] != 40 {
		t.Error("input slice was reordered")
	}
}

func TestComputeCellStatsSmall(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeCellStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
	mean, std, _, p50, _ = ComputeCellStats([]float64{7})
	if mean != 7 || std != 0 || p50 != 7 {
		t.Errorf("single value stats = %v/%v/%v, want 7/0/7", mean, std, p50)
	}
}
