// Package ocean provides the spatial grid the biology lives on.
// Tiles are entities in an ark ECS world; neighbour lookup is by grid offset.
package ocean

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/species"
)

// Tile identifies one grid cell.
type Tile struct {
	X, Y int
}

func (t Tile) String() string { return fmt.Sprintf("(%d,%d)", t.X, t.Y) }

// Location is the grid coordinate component of a tile entity.
type Location struct {
	X, Y int
}

// Habitat holds the physical description of a tile.
// Altitude is negative below sea level; tiles at or above 0 are land.
type Habitat struct {
	Altitude float64
}

// Occupant links a tile to the biology living on it.
type Occupant struct {
	Biology Biology
}

// Biology is the read side of a local biology as seen by the map.
type Biology interface {
	Biomass(s *species.Species) float64
}

// Neighborhood selects which tiles count as adjacent.
type Neighborhood int

const (
	Moore      Neighborhood = iota // 8 surrounding tiles
	VonNeumann                     // 4 orthogonal tiles
)

// Map is a rectangular grid of tiles.
type Map struct {
	world     *ecs.World
	mapper    *ecs.Map3[Location, Habitat, Occupant]
	habitats  *ecs.Map[Habitat]
	occupants *ecs.Map[Occupant]

	width, height int
	neighborhood  Neighborhood
	grid          []ecs.Entity // row-major

	livable []Tile
}

// NewMap builds a width x height grid. altitude is evaluated once per tile.
func NewMap(width, height int, neighborhood Neighborhood, altitude func(x, y int) float64) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ocean: invalid size %dx%d", width, height)
	}
	world := ecs.NewWorld()
	m := &Map{
		world:        world,
		mapper:       ecs.NewMap3[Location, Habitat, Occupant](world),
		habitats:     ecs.NewMap[Habitat](world),
		occupants:    ecs.NewMap[Occupant](world),
		width:        width,
		height:       height,
		neighborhood: neighborhood,
		grid:         make([]ecs.Entity, width*height),
	}
	for y := range height {
		for x := range width {
			loc := Location{X: x, Y: y}
			hab := Habitat{Altitude: altitude(x, y)}
			m.grid[y*width+x] = m.mapper.NewEntity(&loc, &hab, &Occupant{})
		}
	}
	m.livable = m.collectLivable()
	return m, nil
}

// NewUniformMap builds a grid where every tile is sea at the given altitude (< 0).
func NewUniformMap(width, height int, altitude float64) (*Map, error) {
	return NewMap(width, height, Moore, func(int, int) float64 { return altitude })
}

func (m *Map) collectLivable() []Tile {
	filter := ecs.NewFilter2[Location, Habitat](m.world)
	var tiles []Tile
	query := filter.Query()
	for query.Next() {
		loc, hab := query.Get()
		if hab.Altitude < 0 {
			tiles = append(tiles, Tile{X: loc.X, Y: loc.Y})
		}
	}
	// archetype order is insertion order today, but keep it explicit
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
	return tiles
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// Contains reports whether a tile lies on the grid.
func (m *Map) Contains(t Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < m.width && t.Y < m.height
}

func (m *Map) entity(t Tile) ecs.Entity {
	return m.grid[t.Y*m.width+t.X]
}

// Altitude returns a tile's altitude.
func (m *Map) Altitude(t Tile) float64 {
	return m.habitats.Get(m.entity(t)).Altitude
}

// IsWater reports whether a tile is below sea level.
func (m *Map) IsWater(t Tile) bool {
	return m.Contains(t) && m.Altitude(t) < 0
}

// Livable returns all sea tiles in row-major order. The slice must not be modified.
func (m *Map) Livable() []Tile { return m.livable }

// Neighbors returns the adjacent tiles that lie on the grid, land included.
func (m *Map) Neighbors(t Tile) []Tile {
	out := make([]Tile, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if m.neighborhood == VonNeumann && dx != 0 && dy != 0 {
				continue
			}
			n := Tile{X: t.X + dx, Y: t.Y + dy}
			if m.Contains(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Biology returns the biology on a tile, nil when none was set.
func (m *Map) Biology(t Tile) Biology {
	return m.occupants.Get(m.entity(t)).Biology
}

// SetBiology places a biology on a tile.
func (m *Map) SetBiology(t Tile, b Biology) error {
	if !m.Contains(t) {
		return fmt.Errorf("ocean: tile %v outside %dx%d map", t, m.width, m.height)
	}
	m.occupants.Get(m.entity(t)).Biology = b
	return nil
}

// TotalBiomass sums the biomass of a species over all livable tiles.
func (m *Map) TotalBiomass(s *species.Species) float64 {
	var total float64
	for _, t := range m.livable {
		if b := m.Biology(t); b != nil {
			total += b.Biomass(s)
		}
	}
	return total
}
