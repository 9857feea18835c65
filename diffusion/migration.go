package diffusion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/species"
)

// Direction is a compass bias. North is toward y = 0.
type Direction struct {
	North, South, East, West bool
}

// ParseDirection reads compass words joined by underscores, such as
// "north" or "south_west".
func ParseDirection(s string) (Direction, error) {
	var d Direction
	for _, part := range strings.Split(s, "_") {
		switch part {
		case "north":
			d.North = true
		case "south":
			d.South = true
		case "east":
			d.East = true
		case "west":
			d.West = true
		default:
			return Direction{}, fmt.Errorf("diffusion: unknown direction %q", s)
		}
	}
	return d, nil
}

func (d Direction) offset() (dx, dy int) {
	switch {
	case d.North:
		dy = -1
	case d.South:
		dy = 1
	}
	switch {
	case d.East:
		dx = 1
	case d.West:
		dx = -1
	}
	return dx, dy
}

// Migration drifts habitat: each step every tile hands Rate of its carrying
// capacity, and the same share of its biomass, to the neighbour in the
// preferred direction.
type Migration struct {
	Species   *species.Species
	Rate      float64
	Direction Direction

	order pairs
}

// NewMigration rejects opposite directions on the same axis and a bias with
// no direction at all.
func NewMigration(sp *species.Species, rate float64, dir Direction) (*Migration, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("diffusion: migration rate %g outside [0,1]", rate)
	}
	if dir.North && dir.South || dir.East && dir.West {
		return nil, errors.New("diffusion: migration direction is contradictory")
	}
	if dx, dy := dir.offset(); dx == 0 && dy == 0 {
		return nil, errors.New("diffusion: migration without direction")
	}
	return &Migration{Species: sp, Rate: rate, Direction: dir}, nil
}

func (g *Migration) Step(m *sim.Model) error {
	dx, dy := g.Direction.offset()
	for _, here := range g.order.shuffled(m) {
		there := ocean.Tile{X: here.X + dx, Y: here.Y + dy}
		if !m.Map.IsWater(there) {
			continue
		}
		src, dst := biomassCell(m.Map, here), biomassCell(m.Map, there)
		if src == nil || dst == nil {
			continue
		}
		if err := g.Move(src, dst); err != nil {
			return fmt.Errorf("species %q tile %v -> %v: %w", g.Species.Name, here, there, err)
		}
	}
	return nil
}

// Move shifts Rate of src's capacity and biomass into dst. Tiles whose
// capacity has drained to about zero are left alone.
func (g *Migration) Move(src, dst *biology.BiomassCell) error {
	sp := g.Species
	k := src.CarryingCapacity(sp)
	if k <= biology.Epsilon {
		return nil
	}
	b := src.Biomass(sp)
	kMove, bMove := g.Rate*k, g.Rate*b

	// receiver first: raise its ceiling, then its biomass
	if err := dst.SetCarryingCapacity(sp, dst.CarryingCapacity(sp)+kMove); err != nil {
		return err
	}
	if err := dst.SetCurrentBiomass(sp, dst.Biomass(sp)+bMove); err != nil {
		return err
	}
	// source: lower biomass before the ceiling so nothing is clamped away
	if err := src.SetCurrentBiomass(sp, max(b-bMove, 0)); err != nil {
		return err
	}
	return src.SetCarryingCapacity(sp, max(k-kMove, 0))
}
