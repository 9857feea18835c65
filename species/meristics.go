package species

import (
	"errors"
	"fmt"
	"math"
)

// Conventional subdivision indices for two-sex species.
const (
	Male   = 0
	Female = 1
)

// RecruitmentParams holds the stock-recruit parameters carried by a species.
type RecruitmentParams struct {
	VirginRecruits    float64 // R0, recruits produced by an unfished stock
	Steepness         float64 // h, fraction of R0 produced at 20% of virgin SSB
	CumulativePhi     float64 // spawning biomass per recruit; SSB0 = R0 * CumulativePhi
	FemaleSubdivision int     // subdivision whose mature biomass spawns
	UseFecundity      bool    // weight spawning biomass by relative fecundity
}

// VirginSpawningBiomass returns SSB0 = R0 * phi.
func (p RecruitmentParams) VirginSpawningBiomass() float64 {
	return p.VirginRecruits * p.CumulativePhi
}

// Meristics is the biological parameter table of a species.
// All per-bin tables are indexed [subdivision][bin].
type Meristics struct {
	Weights  [][]float64 // weight of one individual
	Lengths  [][]float64 // length of one individual
	Maturity []float64   // mature fraction per bin (female schedule)

	// RelativeFecundity per bin; nil means 1 everywhere.
	RelativeFecundity []float64

	// Mortality holds the instantaneous natural mortality rate M per
	// subdivision and bin.
	Mortality [][]float64

	Recruitment RecruitmentParams
}

// Subdivisions returns the number of subdivisions (usually male/female).
func (m *Meristics) Subdivisions() int { return len(m.Weights) }

// Bins returns the number of age/length bins.
func (m *Meristics) Bins() int {
	if len(m.Weights) == 0 {
		return 0
	}
	return len(m.Weights[0])
}

// Weight returns the weight of one individual of the given subdivision and bin.
func (m *Meristics) Weight(subdivision, bin int) float64 {
	return m.Weights[subdivision][bin]
}

// Length returns the length of one individual, or NaN when no lengths are known.
func (m *Meristics) Length(subdivision, bin int) float64 {
	if subdivision >= len(m.Lengths) || bin >= len(m.Lengths[subdivision]) {
		return math.NaN()
	}
	return m.Lengths[subdivision][bin]
}

// MatureFraction returns the mature fraction of a bin, 0 when unknown.
func (m *Meristics) MatureFraction(bin int) float64 {
	if bin >= len(m.Maturity) {
		return 0
	}
	return m.Maturity[bin]
}

// Fecundity returns the relative fecundity of a bin.
func (m *Meristics) Fecundity(bin int) float64 {
	if m.RelativeFecundity == nil {
		return 1
	}
	if bin >= len(m.RelativeFecundity) {
		return 0
	}
	return m.RelativeFecundity[bin]
}

// NaturalMortality returns M for a subdivision and bin, 0 when unknown.
func (m *Meristics) NaturalMortality(subdivision, bin int) float64 {
	if subdivision >= len(m.Mortality) || bin >= len(m.Mortality[subdivision]) {
		return 0
	}
	return m.Mortality[subdivision][bin]
}

// Validate checks that all tables agree on shape and contain no negative values.
func (m *Meristics) Validate() error {
	subs := m.Subdivisions()
	if subs == 0 {
		return errors.New("meristics: no subdivisions")
	}
	bins := m.Bins()
	if bins == 0 {
		return errors.New("meristics: no bins")
	}
	for s, row := range m.Weights {
		if len(row) != bins {
			return fmt.Errorf("meristics: subdivision %d has %d weights, want %d", s, len(row), bins)
		}
		for b, w := range row {
			if w < 0 || math.IsNaN(w) {
				return fmt.Errorf("meristics: invalid weight %v at [%d][%d]", w, s, b)
			}
		}
	}
	if m.Lengths != nil && len(m.Lengths) != subs {
		return fmt.Errorf("meristics: %d length rows, want %d", len(m.Lengths), subs)
	}
	if m.Maturity != nil && len(m.Maturity) != bins {
		return fmt.Errorf("meristics: %d maturity entries, want %d", len(m.Maturity), bins)
	}
	if m.RelativeFecundity != nil && len(m.RelativeFecundity) != bins {
		return fmt.Errorf("meristics: %d fecundity entries, want %d", len(m.RelativeFecundity), bins)
	}
	if m.Mortality != nil {
		if len(m.Mortality) != subs {
			return fmt.Errorf("meristics: %d mortality rows, want %d", len(m.Mortality), subs)
		}
		for s, row := range m.Mortality {
			for b, v := range row {
				if v < 0 {
					return fmt.Errorf("meristics: negative mortality %v at [%d][%d]", v, s, b)
				}
			}
		}
	}
	if r := m.Recruitment.FemaleSubdivision; r < 0 || r >= subs {
		return fmt.Errorf("meristics: female subdivision %d out of range", r)
	}
	return nil
}

// NewListMeristics builds meristics from explicit weight tables, one row per
// subdivision. Lengths and maturity may be nil.
func NewListMeristics(weights [][]float64, lengths [][]float64, maturity []float64) (*Meristics, error) {
	m := &Meristics{
		Weights:  copyMatrix(weights),
		Lengths:  copyMatrix(lengths),
		Maturity: append([]float64(nil), maturity...),
	}
	if len(m.Weights) > Female {
		m.Recruitment.FemaleSubdivision = Female
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustListMeristics is like NewListMeristics but panics on error.
func MustListMeristics(weights [][]float64, lengths [][]float64, maturity []float64) *Meristics {
	m, err := NewListMeristics(weights, lengths, maturity)
	if err != nil {
		panic(err)
	}
	return m
}

// SexParams are the von Bertalanffy growth and allometry parameters of one sex.
type SexParams struct {
	MaxAge      int
	YoungAge    float64
	YoungLength float64
	MaxLength   float64
	K           float64 // growth rate
	WeightA     float64 // W = A * L^B
	WeightB     float64
	Mortality   float64 // natural mortality M
}

// StockAssessmentParams describes a two-sex species the way stock assessments do.
type StockAssessmentParams struct {
	Male, Female       SexParams
	MaturityInflection float64
	MaturitySlope      float64
	FecundityIntercept float64
	FecunditySlope     float64
	VirginRecruits     float64
	Steepness          float64
	UseFecundity       bool
}

// NewStockAssessmentMeristics derives per-age tables from von Bertalanffy growth.
// Bins run from age 0 to max(MaxAge); a sex with a lower max age has
// zero weight past its last age.
func NewStockAssessmentMeristics(p StockAssessmentParams) (*Meristics, error) {
	if p.Male.MaxAge < 0 || p.Female.MaxAge < 0 {
		return nil, errors.New("meristics: negative max age")
	}
	maxAge := max(p.Male.MaxAge, p.Female.MaxAge)
	bins := maxAge + 1

	m := &Meristics{
		Weights:           [][]float64{make([]float64, bins), make([]float64, bins)},
		Lengths:           [][]float64{make([]float64, bins), make([]float64, bins)},
		Maturity:          make([]float64, bins),
		RelativeFecundity: make([]float64, bins),
		Mortality:         [][]float64{make([]float64, bins), make([]float64, bins)},
	}
	for sex, sp := range []SexParams{Male: p.Male, Female: p.Female} {
		linf := sp.YoungLength + (sp.MaxLength-sp.YoungLength)/
			(1-math.Exp(-sp.K*(float64(sp.MaxAge)-sp.YoungAge)))
		for age := 0; age <= sp.MaxAge; age++ {
			l := linf + (sp.YoungLength-linf)*math.Exp(-sp.K*(float64(age)-sp.YoungAge))
			// very young fish come out negative
			if l < 0 {
				l = 0
			}
			m.Lengths[sex][age] = l
			m.Weights[sex][age] = sp.WeightA * math.Pow(l, sp.WeightB)
		}
		for age := range bins {
			m.Mortality[sex][age] = sp.Mortality
		}
	}

	survival := 1.0
	var phi float64
	for age := range bins {
		if age > 0 {
			survival *= math.Exp(-p.Female.Mortality)
		}
		m.Maturity[age] = 1 / (1 + math.Exp(p.MaturitySlope*(m.Lengths[Female][age]-p.MaturityInflection)))
		w := m.Weights[Female][age]
		m.RelativeFecundity[age] = w * (p.FecundityIntercept + p.FecunditySlope*w)
		phi += m.Maturity[age] * m.RelativeFecundity[age] * survival
	}

	m.Recruitment = RecruitmentParams{
		VirginRecruits:    p.VirginRecruits,
		Steepness:         p.Steepness,
		CumulativePhi:     phi,
		FemaleSubdivision: Female,
		UseFecundity:      p.UseFecundity,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func copyMatrix(src [][]float64) [][]float64 {
	if src == nil {
		return nil
	}
	dst := make([][]float64, len(src))
	for i, row := range src {
		dst[i] = append([]float64(nil), row...)
	}
	return dst
}
