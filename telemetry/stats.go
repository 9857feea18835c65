package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// SpeciesStats summarises one species over the whole map at the end of a year.
type SpeciesStats struct {
	Year    int    `csv:"year"`
	Day     int    `csv:"day"`
	Species string `csv:"species"`

	TotalBiomass  float64 `csv:"total_biomass"`
	OccupiedCells int     `csv:"occupied_cells"`
	LivableCells  int     `csv:"livable_cells"`

	// Distribution of biomass over occupied cells
	CellMean float64 `csv:"cell_mean"`
	CellStd  float64 `csv:"cell_std"`
	CellP10  float64 `csv:"cell_p10"`
	CellP50  float64 `csv:"cell_p50"`
	CellP90  float64 `csv:"cell_p90"`

	// Recruits produced by the last natural-processes step, 0 when the
	// species has no orchestrator.
	Recruits float64 `csv:"recruits"`
}

// Percentile returns the p-th quantile of a sorted slice, 0 when empty.
// Uses the empirical (step) estimator.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(min(max(p, 0), 1), stat.Empirical, sorted, nil)
}

// ComputeCellStats returns mean, standard deviation and 10/50/90 percentiles.
func ComputeCellStats(values []float64) (mean, std, p10, p50, p90 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0, 0, 0
	case 1:
		v := values[0]
		return v, 0, v, v, v
	}
	mean, std = stat.MeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("year", s.Year),
		slog.Int("day", s.Day),
		slog.String("species", s.Species),
		slog.Float64("total_biomass", s.TotalBiomass),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("livable_cells", s.LivableCells),
		slog.Float64("cell_mean", s.CellMean),
		slog.Float64("cell_std", s.CellStd),
		slog.Float64("cell_p10", s.CellP10),
		slog.Float64("cell_p50", s.CellP50),
		slog.Float64("cell_p90", s.CellP90),
		slog.Float64("recruits", s.Recruits),
	)
}

// LogStats logs the stats using slog.
func (s SpeciesStats) LogStats() {
	slog.Info("stats", "species_stats", s)
}
