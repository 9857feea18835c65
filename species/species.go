// Package species holds the catalog of modeled species and their biology.
package species

import "fmt"

// Species is one modeled stock. The index is assigned by the Registry and is
// the offset of this species in every per-species array of the simulation.
type Species struct {
	Name      string
	Code      string
	Meristics *Meristics

	// Imaginary species exist only for accounting and are never simulated.
	Imaginary bool

	index int
}

// New creates an unregistered species.
func New(name string, meristics *Meristics) *Species {
	return &Species{Name: name, Code: name, Meristics: meristics, index: -1}
}

// Index returns the registry ordinal, or -1 if the species is not registered yet.
func (s *Species) Index() int { return s.index }

// Bins returns the number of age/length bins, 1 when no meristics are set.
func (s *Species) Bins() int {
	if s.Meristics == nil {
		return 1
	}
	return s.Meristics.Bins()
}

// Subdivisions returns the number of subdivisions, 1 when no meristics are set.
func (s *Species) Subdivisions() int {
	if s.Meristics == nil {
		return 1
	}
	return s.Meristics.Subdivisions()
}

func (s *Species) String() string {
	return fmt.Sprintf("%s#%d", s.Name, s.index)
}
