// Package mol contains the molecular data model shared by the simulation
// packages: atoms, bonded structure records, molecules and the environment
// describing the periodic box.
package mol

// Atom is a single interaction site. Sigma and Epsilon are the Lennard-Jones
// parameters; a negative value for either marks a site with no LJ
// interaction. Charge is in elementary charge units.
type Atom struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`

	Sigma   float64 `toml:"sigma"`
	Epsilon float64 `toml:"epsilon"`
	Charge  float64 `toml:"charge"`
}

// Pos returns the coordinates of the atom as an array.
func (a *Atom) Pos() [3]float64 {
	return [3]float64{a.X, a.Y, a.Z}
}

// Bond connects two atoms of the same molecule at a fixed or variable
// distance.
type Bond struct {
	Atom1    int     `toml:"atom_1"`
	Atom2    int     `toml:"atom_2"`
	Distance float64 `toml:"distance"`
	Variable bool    `toml:"variable"`
}

// Angle is the angle in degrees formed at the common neighbor of two atoms.
type Angle struct {
	Atom1    int     `toml:"atom_1"`
	Atom2    int     `toml:"atom_2"`
	Value    float64 `toml:"value"`
	Variable bool    `toml:"variable"`
}

// Dihedral is the torsion angle in degrees between the planes spanned by two
// bonded atom triples.
type Dihedral struct {
	Atom1    int     `toml:"atom_1"`
	Atom2    int     `toml:"atom_2"`
	Value    float64 `toml:"value"`
	Variable bool    `toml:"variable"`
}

// Hop records the number of bonds separating two atoms of the same molecule.
type Hop struct {
	Atom1 int `toml:"atom_1"`
	Atom2 int `toml:"atom_2"`
	Hop   int `toml:"hop"`
}

// Molecule is a group of atoms moved as one rigid unit per Monte Carlo step,
// together with its bonded structure. The lengths of the sub-slices are fixed
// after the initial load; moves mutate the contents in place.
type Molecule struct {
	ID int `toml:"id"`

	Atoms     []Atom     `toml:"atom"`
	Bonds     []Bond     `toml:"bond"`
	Angles    []Angle    `toml:"angle"`
	Dihedrals []Dihedral `toml:"dihedral"`
	Hops      []Hop      `toml:"hop"`
}

// CloneInto deep-copies the molecule into dst, reusing dst's storage and
// growing it only when the source is larger than dst's current capacity.
// After the call dst is bit-identical to m and shares no memory with it.
func (m *Molecule) CloneInto(dst *Molecule) {
	dst.ID = m.ID
	dst.Atoms = append(dst.Atoms[:0], m.Atoms...)
	dst.Bonds = append(dst.Bonds[:0], m.Bonds...)
	dst.Angles = append(dst.Angles[:0], m.Angles...)
	dst.Dihedrals = append(dst.Dihedrals[:0], m.Dihedrals...)
	dst.Hops = append(dst.Hops[:0], m.Hops...)
}
