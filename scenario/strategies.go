package scenario

import (
	"fmt"

	"github.com/pthm-cable/shoal/aging"
	"github.com/pthm-cable/shoal/allocator"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/diffusion"
	"github.com/pthm-cable/shoal/mortality"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/recruitment"
	"github.com/pthm-cable/shoal/reset"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// newSpecies builds an unregistered species. Biomass species may come
// without meristics.
func newSpecies(sc config.SpeciesConfig) (*species.Species, error) {
	mer, err := newMeristics(sc)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", sc.Name, err)
	}
	sp := species.New(sc.Name, mer)
	sp.Code = sc.Code
	sp.Imaginary = sc.Imaginary
	return sp, nil
}

func newMeristics(sc config.SpeciesConfig) (*species.Meristics, error) {
	mc := sc.Meristics
	var (
		mer *species.Meristics
		err error
	)
	switch {
	case mc.StockAssessment != nil:
		sa := mc.StockAssessment
		mer, err = species.NewStockAssessmentMeristics(species.StockAssessmentParams{
			Male:               sexParams(sa.Male),
			Female:             sexParams(sa.Female),
			MaturityInflection: sa.MaturityInflection,
			MaturitySlope:      sa.MaturitySlope,
			FecundityIntercept: sa.FecundityIntercept,
			FecunditySlope:     sa.FecunditySlope,
			VirginRecruits:     sa.VirginRecruits,
			Steepness:          sa.Steepness,
			UseFecundity:       sa.UseFecundity,
		})
	case mc.File != "":
		mer, err = species.LoadMeristicsCSV(mc.File)
	case len(mc.Weights) > 0:
		mer, err = species.NewListMeristics(mc.Weights, mc.Lengths, mc.Maturity)
		if err == nil && mc.Mortality != nil {
			mer.Mortality = mc.Mortality
			err = mer.Validate()
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// recruitment settings override what the meristics carry
	rc := sc.Recruitment
	if rc.VirginRecruits > 0 {
		mer.Recruitment.VirginRecruits = rc.VirginRecruits
	}
	if rc.Steepness > 0 {
		mer.Recruitment.Steepness = rc.Steepness
	}
	if rc.CumulativePhi > 0 {
		mer.Recruitment.CumulativePhi = rc.CumulativePhi
	}
	return mer, nil
}

func sexParams(c config.SexConfig) species.SexParams {
	return species.SexParams{
		MaxAge:      c.MaxAge,
		YoungAge:    c.YoungAge,
		YoungLength: c.YoungLength,
		MaxLength:   c.MaxLength,
		K:           c.K,
		WeightA:     c.WeightA,
		WeightB:     c.WeightB,
		Mortality:   c.Mortality,
	}
}

// newAllocator builds a tile-weighting strategy. A constant without a value
// weighs every tile 1.
func newAllocator(ac config.AllocatorConfig, sp *species.Species) (allocator.Allocator, error) {
	var a allocator.Allocator
	switch ac.Type {
	case "constant":
		v := ac.Value
		if v == 0 {
			v = 1
		}
		a = allocator.Constant{Value: v}
	case "fixed_tile":
		a = allocator.FixedTile{Tile: ocean.Tile{X: ac.X, Y: ac.Y}}
	case "depth":
		a = allocator.Depth{Min: ac.MinDepth, Max: ac.MaxDepth}
	case "noise":
		a = allocator.NewNoise(ac.Seed, ac.Scale, ac.Octaves, ac.Persistence, ac.Threshold)
	case "snapshot":
		a = &allocator.Snapshot{Species: sp}
	default:
		return nil, fmt.Errorf("unknown allocator %q", ac.Type)
	}
	if b := ac.Bounds; b != nil {
		a = allocator.Bounded{Base: a, MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY}
	}
	return a, nil
}

func newRecruitment(rc config.RecruitmentConfig, mer *species.Meristics) (recruitment.Process, error) {
	if mer == nil && rc.Type != "none" && rc.Type != "fixed" {
		return nil, fmt.Errorf("recruitment %q needs meristics", rc.Type)
	}
	var (
		p   recruitment.Process
		err error
	)
	switch rc.Type {
	case "none":
		p = recruitment.Fixed{}
	case "fixed":
		p = recruitment.Fixed{Rate: rc.Rate}
	case "beverton_holt":
		p, err = recruitment.BevertonHoltFromMeristics(mer)
	case "hockey_stick":
		ssb0 := rc.VirginSSB
		if ssb0 == 0 {
			ssb0 = mer.Recruitment.VirginSpawningBiomass()
		}
		p, err = recruitment.NewHockeyStick(mer.Recruitment.VirginRecruits, ssb0, rc.Hinge)
	case "maturity_multiplier":
		p, err = recruitment.NewMaturityMultiplier(rc.Day, rc.Ratios)
	default:
		return nil, fmt.Errorf("unknown recruitment %q", rc.Type)
	}
	if err != nil {
		return nil, err
	}
	if len(rc.Spread) > 0 {
		if p, err = recruitment.NewSpread(p, rc.Spread); err != nil {
			return nil, err
		}
	}
	if rc.NoiseSigma > 0 {
		p = &recruitment.Noisy{Base: p, Sigma: rc.NoiseSigma}
	}
	return p, nil
}

func newAging(ac config.AgingConfig) (aging.Process, error) {
	switch ac.Type {
	case "standard":
		return aging.Standard{}, nil
	case "proportional":
		return aging.NewProportional(ac.Proportions)
	}
	return nil, fmt.Errorf("unknown aging %q", ac.Type)
}

// newMortality builds natural mortality. Exponential mortality without
// rates reads M from the meristics.
func newMortality(mc config.MortalityConfig) (mortality.Process, error) {
	switch mc.Type {
	case "none":
		return mortality.None{}, nil
	case "exponential":
		if mc.Male == 0 && mc.Female == 0 {
			return mortality.Exponential{}, nil
		}
		return mortality.NewExponential(mc.Male, mc.Female)
	case "fixed_rate":
		if mc.Rate < 0 || mc.Rate > 1 {
			return nil, fmt.Errorf("mortality rate %g outside [0,1]", mc.Rate)
		}
		return mortality.FixedRate{Rate: mc.Rate}, nil
	}
	return nil, fmt.Errorf("unknown mortality %q", mc.Type)
}

// newAbundanceDiffuser returns nil when the species does not move. Weighted
// diffusion covers every bin unless max_bin is set.
func newAbundanceDiffuser(dc config.DiffusionConfig, sp *species.Species) (sim.Steppable, error) {
	var (
		d   *diffusion.Abundance
		err error
	)
	switch dc.Type {
	case "none":
		return nil, nil
	case "constant_rate":
		d, err = diffusion.NewConstantRate(sp, dc.Rate)
	case "age_limited":
		d, err = diffusion.NewAgeLimited(sp, dc.Rate, dc.MinBin, dc.MaxBin)
	case "weighted":
		maxBin := dc.MaxBin
		if maxBin == 0 {
			maxBin = sp.Bins() - 1
		}
		var h allocator.Allocator
		if h, err = newAllocator(dc.Habitability, sp); err != nil {
			return nil, err
		}
		d, err = diffusion.NewWeighted(sp, dc.Rate, dc.MinBin, maxBin, h)
	default:
		return nil, fmt.Errorf("diffusion %q needs biomass cells", dc.Type)
	}
	if err != nil {
		return nil, err
	}
	d.Rounding = dc.Rounding
	return d, nil
}

// newBiomassMovers returns the daily smooth diffusion and migration of a
// biomass species, either of which may be absent.
func newBiomassMovers(sc config.SpeciesConfig, sp *species.Species) ([]sim.Steppable, error) {
	var steps []sim.Steppable
	switch sc.Diffusion.Type {
	case "none":
	case "smooth":
		d, err := diffusion.NewSmooth(sp, sc.Diffusion.Differential, sc.Diffusion.Limit)
		if err != nil {
			return nil, err
		}
		steps = append(steps, d)
	default:
		return nil, fmt.Errorf("diffusion %q needs abundance cells", sc.Diffusion.Type)
	}
	if sc.Migration.Rate != 0 {
		dir, err := diffusion.ParseDirection(sc.Migration.Direction)
		if err != nil {
			return nil, err
		}
		g, err := diffusion.NewMigration(sp, sc.Migration.Rate, dir)
		if err != nil {
			return nil, err
		}
		steps = append(steps, g)
	}
	return steps, nil
}

// targeted is implemented by both resetters.
type targeted interface {
	reset.Resetter
	SetTarget(reset.Target)
}

func newResetter(sc config.SpeciesConfig, sp *species.Species) (reset.Resetter, error) {
	alloc, err := newAllocator(sc.Reset.Allocator, sp)
	if err != nil {
		return nil, err
	}
	var r targeted
	if sc.Representation == "abundance" {
		r = reset.NewAbundanceResetter(sp, alloc)
	} else {
		r = reset.NewBiomassResetter(sp, alloc)
	}
	switch {
	case len(sc.Reset.Targets) > 0:
		t, err := reset.NewFixedTargets(sc.Reset.Targets)
		if err != nil {
			return nil, err
		}
		r.SetTarget(t)
	case sc.Reset.LogNormal != nil:
		r.SetTarget(reset.LogNormalTarget{Mu: sc.Reset.LogNormal.Mu, Sigma: sc.Reset.LogNormal.Sigma})
	}
	return r, nil
}
