package mol

import "fmt"

// Environment describes the periodic box and the sampling parameters of a
// run. It is read-only once the simulation has started.
type Environment struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`

	Cutoff      float64 `toml:"cutoff"`
	Temperature float64 `toml:"temperature"`

	// MaxTranslation is in the distance unit of the coordinates (angstroms),
	// MaxRotation in degrees. Both bound one axis of a move independently.
	MaxTranslation float64 `toml:"max_translation"`
	MaxRotation    float64 `toml:"max_rotation"`

	// PrimaryAtom is the per-molecule index of the atom used for the cheap
	// inter-molecule distance screening.
	PrimaryAtom int `toml:"primary_atom"`

	NumAtoms     int `toml:"-"`
	NumMolecules int `toml:"-"`
}

// Box returns the box dimensions as an array.
func (e *Environment) Box() [3]float64 {
	return [3]float64{e.X, e.Y, e.Z}
}

// Validate checks the environment before a run starts. An environment that
// fails validation is not recoverable mid-run and must be rejected here.
func (e *Environment) Validate() error {
	if e.X <= 0 || e.Y <= 0 || e.Z <= 0 {
		return fmt.Errorf("box dimensions must be positive (got %g %g %g)", e.X, e.Y, e.Z)
	}
	if e.Cutoff <= 0 {
		return fmt.Errorf("cutoff must be positive (got %g)", e.Cutoff)
	}
	if e.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive (got %g)", e.Temperature)
	}
	if e.MaxTranslation < 0 || e.MaxRotation < 0 {
		return fmt.Errorf("step sizes must not be negative (got %g, %g)",
			e.MaxTranslation, e.MaxRotation)
	}
	if e.PrimaryAtom < 0 {
		return fmt.Errorf("primary atom index must not be negative (got %d)", e.PrimaryAtom)
	}
	return nil
}
