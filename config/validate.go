package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	representations   = []string{"biomass", "abundance"}
	neighborhoods     = []string{"moore", "von_neumann"}
	recruitmentTypes  = []string{"none", "fixed", "beverton_holt", "hockey_stick", "maturity_multiplier"}
	agingTypes        = []string{"standard", "proportional"}
	mortalityTypes    = []string{"none", "exponential", "fixed_rate"}
	growthTypes       = []string{"none", "logistic"}
	diffusionTypes    = []string{"none", "smooth", "constant_rate", "age_limited", "weighted"}
	allocatorTypes    = []string{"constant", "fixed_tile", "depth", "noise", "snapshot"}
	compassDirections = []string{"north", "south", "east", "west"}
)

// Validate reports every unknown strategy name and inconsistent setting in
// one joined error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Map.Width < 1 || c.Map.Height < 1 {
		add("map: invalid size %dx%d", c.Map.Width, c.Map.Height)
	}
	if !slices.Contains(neighborhoods, c.Map.Neighborhood) {
		add("map: unknown neighborhood %q", c.Map.Neighborhood)
	}
	if c.Simulation.Years < 0 {
		add("simulation: negative years %d", c.Simulation.Years)
	}
	if len(c.Species) == 0 {
		add("species: none configured")
	}

	names := make(map[string]bool)
	codes := make(map[string]bool)
	representation := ""
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Name == "" {
			add("species %d: missing name", i)
		}
		if names[sp.Name] {
			add("species %q: duplicate name", sp.Name)
		}
		if codes[sp.Code] {
			add("species %q: duplicate code %q", sp.Name, sp.Code)
		}
		names[sp.Name], codes[sp.Code] = true, true

		if !sp.Imaginary {
			if representation == "" {
				representation = sp.Representation
			} else if sp.Representation != representation {
				add("species %q: representation %q differs from %q; every tile holds one kind of cell",
					sp.Name, sp.Representation, representation)
			}
		}
		for _, err := range sp.validate() {
			errs = append(errs, fmt.Errorf("species %q: %w", sp.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (sp *SpeciesConfig) validate() []error {
	var errs []error
	check := func(section, value string, known []string) {
		if !slices.Contains(known, value) {
			errs = append(errs, fmt.Errorf("%s: unknown type %q", section, value))
		}
	}

	check("representation", sp.Representation, representations)
	check("recruitment", sp.Recruitment.Type, recruitmentTypes)
	check("aging", sp.Aging.Type, agingTypes)
	check("mortality", sp.Mortality.Type, mortalityTypes)
	check("growth", sp.Growth.Type, growthTypes)
	check("diffusion", sp.Diffusion.Type, diffusionTypes)
	check("initial allocator", sp.Initial.Allocator.Type, allocatorTypes)
	if sp.Initial.Allocator.Type == "snapshot" {
		errs = append(errs, errors.New("initial allocator: snapshot needs fish already on the map"))
	}
	if sp.RecruitAllocator.Type != "" {
		check("recruit allocator", sp.RecruitAllocator.Type, allocatorTypes)
	}
	if sp.Diffusion.Type == "weighted" {
		check("diffusion habitability", sp.Diffusion.Habitability.Type, allocatorTypes)
	}
	if sp.Reset.Enabled {
		check("reset allocator", sp.Reset.Allocator.Type, allocatorTypes)
		if len(sp.Reset.Targets) > 0 && sp.Reset.LogNormal != nil {
			errs = append(errs, errors.New("reset: targets and log_normal are exclusive"))
		}
	}

	if sp.Recruitment.Interval < 1 {
		errs = append(errs, fmt.Errorf("recruitment: invalid interval %d", sp.Recruitment.Interval))
	}
	if sp.Initial.MinFill < 0 || sp.Initial.MaxFill > 1 || sp.Initial.MinFill > sp.Initial.MaxFill {
		errs = append(errs, fmt.Errorf("initial: invalid fill range [%g, %g]", sp.Initial.MinFill, sp.Initial.MaxFill))
	}
	if sp.Migration.Rate != 0 {
		if err := checkDirection(sp.Migration.Direction); err != nil {
			errs = append(errs, fmt.Errorf("migration: %w", err))
		}
	}

	if sp.Representation == "abundance" && !sp.Imaginary {
		m := sp.Meristics
		if len(m.Weights) == 0 && m.File == "" && m.StockAssessment == nil {
			errs = append(errs, errors.New("meristics: abundance species need weights, a file or stock assessment parameters"))
		}
		if sp.Growth.Type != "none" {
			errs = append(errs, fmt.Errorf("growth: %q needs the biomass representation", sp.Growth.Type))
		}
		if sp.Diffusion.Type == "smooth" || sp.Migration.Rate != 0 {
			errs = append(errs, errors.New("diffusion: smooth diffusion and migration need the biomass representation"))
		}
	}
	if sp.Representation == "biomass" {
		switch sp.Diffusion.Type {
		case "constant_rate", "age_limited", "weighted":
			errs = append(errs, fmt.Errorf("diffusion: %q needs the abundance representation", sp.Diffusion.Type))
		}
		if sp.Recruitment.Type != "none" {
			errs = append(errs, fmt.Errorf("recruitment: %q needs the abundance representation", sp.Recruitment.Type))
		}
	}
	return errs
}

// checkDirection accepts compass words joined by underscores, e.g. "north"
// or "south_west".
func checkDirection(s string) error {
	if s == "" {
		return errors.New("missing direction")
	}
	for _, part := range strings.Split(s, "_") {
		if !slices.Contains(compassDirections, part) {
			return fmt.Errorf("unknown direction %q", s)
		}
	}
	return nil
}
