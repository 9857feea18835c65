// Package diffusion moves fish between neighbouring tiles.
//
// Every diffuser visits the livable tiles in a freshly shuffled order each
// step and applies its rule once per (tile, neighbour) pair. A pair of
// tiles is therefore visited from both sides within one step, and the
// second visit sees the state left by the first.
package diffusion

import (
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/ocean"
	"github.com/pthm-cable/shoal/sim"
)

// pairs walks (tile, neighbour) pairs in shuffled tile order. Neighbour
// lists are computed on first use and kept.
type pairs struct {
	neighbors map[ocean.Tile][]ocean.Tile
	order     []ocean.Tile
}

func (p *pairs) neighborsOf(m *ocean.Map, t ocean.Tile) []ocean.Tile {
	if p.neighbors == nil {
		p.neighbors = make(map[ocean.Tile][]ocean.Tile)
	}
	if n, ok := p.neighbors[t]; ok {
		return n
	}
	var water []ocean.Tile
	for _, n := range m.Neighbors(t) {
		if m.IsWater(n) {
			water = append(water, n)
		}
	}
	p.neighbors[t] = water
	return water
}

// shuffled returns the livable tiles in a new random order drawn from the
// model's shared source.
func (p *pairs) shuffled(m *sim.Model) []ocean.Tile {
	p.order = append(p.order[:0], m.Map.Livable()...)
	m.Random.Shuffle(len(p.order), func(i, j int) {
		p.order[i], p.order[j] = p.order[j], p.order[i]
	})
	return p.order
}

// each calls fn for every (tile, neighbour) pair.
func (p *pairs) each(m *sim.Model, fn func(here, there ocean.Tile) error) error {
	for _, here := range p.shuffled(m) {
		for _, there := range p.neighborsOf(m.Map, here) {
			if err := fn(here, there); err != nil {
				return err
			}
		}
	}
	return nil
}

func biomassCell(m *ocean.Map, t ocean.Tile) *biology.BiomassCell {
	c, _ := m.Biology(t).(*biology.BiomassCell)
	return c
}

func abundanceCell(m *ocean.Map, t ocean.Tile) *biology.AbundanceCell {
	c, _ := m.Biology(t).(*biology.AbundanceCell)
	return c
}
