package species

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// MeristicsRow is one line of a per-bin meristics table.
type MeristicsRow struct {
	Subdivision int     `csv:"subdivision"`
	Bin         int     `csv:"bin"`
	Weight      float64 `csv:"weight"`
	Length      float64 `csv:"length"`
	Maturity    float64 `csv:"maturity"`
	Fecundity   float64 `csv:"fecundity"`
	Mortality   float64 `csv:"mortality"`
}

// ReadMeristicsCSV parses a meristics table. Every (subdivision, bin) pair must
// appear exactly once; maturity and fecundity are read from the female
// subdivision (or subdivision 0 for single-sex tables).
func ReadMeristicsCSV(r io.Reader) (*Meristics, error) {
	var rows []MeristicsRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing meristics table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parsing meristics table: no rows")
	}

	subs, bins := 0, 0
	for _, row := range rows {
		if row.Subdivision < 0 || row.Bin < 0 {
			return nil, fmt.Errorf("meristics table: negative index in row %+v", row)
		}
		subs = max(subs, row.Subdivision+1)
		bins = max(bins, row.Bin+1)
	}

	m := &Meristics{
		Weights:           newMatrix(subs, bins),
		Lengths:           newMatrix(subs, bins),
		Mortality:         newMatrix(subs, bins),
		Maturity:          make([]float64, bins),
		RelativeFecundity: make([]float64, bins),
	}
	spawning := 0
	if subs > Female {
		spawning = Female
	}
	m.Recruitment.FemaleSubdivision = spawning

	seen := make(map[[2]int]bool, len(rows))
	for _, row := range rows {
		key := [2]int{row.Subdivision, row.Bin}
		if seen[key] {
			return nil, fmt.Errorf("meristics table: duplicate row for subdivision %d bin %d", row.Subdivision, row.Bin)
		}
		seen[key] = true
		m.Weights[row.Subdivision][row.Bin] = row.Weight
		m.Lengths[row.Subdivision][row.Bin] = row.Length
		m.Mortality[row.Subdivision][row.Bin] = row.Mortality
		if row.Subdivision == spawning {
			m.Maturity[row.Bin] = row.Maturity
			m.RelativeFecundity[row.Bin] = row.Fecundity
		}
	}
	if len(seen) != subs*bins {
		return nil, fmt.Errorf("meristics table: %d rows, want %d (%d subdivisions x %d bins)", len(seen), subs*bins, subs, bins)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadMeristicsCSV reads a meristics table from a file.
func LoadMeristicsCSV(path string) (*Meristics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening meristics table: %w", err)
	}
	defer f.Close()
	return ReadMeristicsCSV(f)
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
