package species

import "fmt"

// Registry is the immutable, ordered catalog of species for one scenario.
// It assigns dense indices 0..N-1 exactly once.
type Registry struct {
	species []*Species
	byName  map[string]*Species
	byCode  map[string]*Species
}

// NewRegistry indexes the given species in order.
func NewRegistry(all ...*Species) (*Registry, error) {
	r := &Registry{
		species: make([]*Species, 0, len(all)),
		byName:  make(map[string]*Species, len(all)),
		byCode:  make(map[string]*Species, len(all)),
	}
	for _, s := range all {
		if s == nil {
			return nil, fmt.Errorf("registry: nil species at position %d", len(r.species))
		}
		if s.index >= 0 {
			return nil, fmt.Errorf("registry: species %q already has index %d", s.Name, s.index)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate species name %q", s.Name)
		}
		code := s.Code
		if code == "" {
			code = s.Name
		}
		if _, dup := r.byCode[code]; dup {
			return nil, fmt.Errorf("registry: duplicate species code %q", code)
		}
		r.byName[s.Name] = s
		r.byCode[code] = s
		r.species = append(r.species, s)
	}
	// assign only once everything validated, so a failed build leaves species untouched
	for i, s := range r.species {
		s.index = i
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(all ...*Species) *Registry {
	r, err := NewRegistry(all...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of species.
func (r *Registry) Len() int { return len(r.species) }

// Species returns the species with the given index.
func (r *Registry) Species(index int) *Species { return r.species[index] }

// All returns the species in index order. The slice must not be modified.
func (r *Registry) All() []*Species { return r.species }

// ByName looks up a species by name.
func (r *Registry) ByName(name string) (*Species, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// ByCode looks up a species by code.
func (r *Registry) ByCode(code string) (*Species, bool) {
	s, ok := r.byCode[code]
	return s, ok
}
