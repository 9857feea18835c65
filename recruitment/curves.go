package recruitment

import (
	"fmt"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/species"
)

// BevertonHolt is the steepness-parameterised stock-recruit curve:
//
//	R = 4 h R0 SSB / (SSB0 (1 - h) + SSB (5h - 1)),  SSB0 = R0 * phi
type BevertonHolt struct {
	VirginRecruits float64 // R0
	Steepness      float64 // h
	CumulativePhi  float64 // phi
}

// NewBevertonHolt validates h in (0, 1] and positive R0 and phi.
func NewBevertonHolt(virginRecruits, steepness, cumulativePhi float64) (*BevertonHolt, error) {
	if virginRecruits <= 0 || cumulativePhi <= 0 {
		return nil, fmt.Errorf("recruitment: virgin recruits %g and phi %g must be positive", virginRecruits, cumulativePhi)
	}
	if steepness <= 0 || steepness > 1 {
		return nil, fmt.Errorf("recruitment: steepness %g outside (0, 1]", steepness)
	}
	return &BevertonHolt{VirginRecruits: virginRecruits, Steepness: steepness, CumulativePhi: cumulativePhi}, nil
}

// BevertonHoltFromMeristics reads the curve parameters carried by the species.
func BevertonHoltFromMeristics(mer *species.Meristics) (*BevertonHolt, error) {
	p := mer.Recruitment
	return NewBevertonHolt(p.VirginRecruits, p.Steepness, p.CumulativePhi)
}

// VirginSpawningBiomass returns SSB0.
func (bh *BevertonHolt) VirginSpawningBiomass() float64 {
	return bh.VirginRecruits * bh.CumulativePhi
}

// Curve evaluates the curve at a given spawning biomass.
func (bh *BevertonHolt) Curve(ssb float64) float64 {
	if ssb <= 0 {
		return 0
	}
	h := bh.Steepness
	den := bh.VirginSpawningBiomass()*(1-h) + ssb*(5*h-1)
	if den <= 0 {
		return 0
	}
	return 4 * h * bh.VirginRecruits * ssb / den
}

// Recruit returns the yearly curve output scaled to the days simulated.
func (bh *BevertonHolt) Recruit(_ *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64 {
	return bh.Curve(SpawningBiomass(mer, ab)) * t.yearFraction()
}

// HockeyStick ramps linearly from 0 recruits at SSB 0 to VirginRecruits at
// Hinge * SSB0 and stays flat above.
type HockeyStick struct {
	VirginRecruits        float64
	VirginSpawningBiomass float64 // SSB0
	Hinge                 float64 // fraction of SSB0 in (0, 1]
}

// NewHockeyStick validates the parameters.
func NewHockeyStick(virginRecruits, virginSSB, hinge float64) (*HockeyStick, error) {
	if virginRecruits < 0 || virginSSB <= 0 {
		return nil, fmt.Errorf("recruitment: invalid hockey stick R0=%g SSB0=%g", virginRecruits, virginSSB)
	}
	if hinge <= 0 || hinge > 1 {
		return nil, fmt.Errorf("recruitment: hinge %g outside (0, 1]", hinge)
	}
	return &HockeyStick{VirginRecruits: virginRecruits, VirginSpawningBiomass: virginSSB, Hinge: hinge}, nil
}

// Curve evaluates the hockey stick at a given spawning biomass.
func (hs *HockeyStick) Curve(ssb float64) float64 {
	if ssb <= 0 {
		return 0
	}
	return hs.VirginRecruits * min(1, ssb/(hs.Hinge*hs.VirginSpawningBiomass))
}

func (hs *HockeyStick) Recruit(_ *species.Species, mer *species.Meristics, ab *biology.Abundance, t Tick) float64 {
	return hs.Curve(SpawningBiomass(mer, ab)) * t.yearFraction()
}
