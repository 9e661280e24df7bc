package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tmarkley/metromc/pkg/mol"
	"github.com/tmarkley/metromc/pkg/pbc"
)

// Box is the molecular state store. It owns the environment and the molecule
// pool and exposes move proposal, in-place perturbation and single-level
// rollback. Exactly one mutation is in flight at a time, so no locking is
// needed; the scratch checkpoint molecule is reused between steps and grows
// on demand.
type Box struct {
	env  *mol.Environment
	mols []mol.Molecule

	scratch mol.Molecule
	saved   int // index of the checkpointed molecule, -1 when none

	rng *rand.Rand
}

// NewBox wraps an environment and a populated molecule pool. Both must have
// been validated by the loader.
func NewBox(env *mol.Environment, mols []mol.Molecule, rng *rand.Rand) *Box {
	return &Box{env: env, mols: mols, saved: -1, rng: rng}
}

// Env returns the read-only environment of the run.
func (b *Box) Env() *mol.Environment { return b.env }

// Molecules returns the molecule pool. The pool is mutated in place by moves.
func (b *Box) Molecules() []mol.Molecule { return b.mols }

// ChooseMolecule selects a molecule index uniformly at random.
func (b *Box) ChooseMolecule() int {
	return b.rng.Intn(len(b.mols))
}

// ChangeMolecule checkpoints the molecule, rotates it about a random vertex
// atom by uniform per-axis angles, translates it by uniform per-axis offsets
// and wraps every atom back into the box.
func (b *Box) ChangeMolecule(idx int) {
	if idx < 0 || idx >= len(b.mols) {
		panic(fmt.Sprintf("sim: molecule index %d out of range [0, %d)", idx, len(b.mols)))
	}
	b.mols[idx].CloneInto(&b.scratch)
	b.saved = idx

	m := &b.mols[idx]
	vertex := m.Atoms[b.rng.Intn(len(m.Atoms))].Pos()

	dx := b.uniform(b.env.MaxTranslation)
	dy := b.uniform(b.env.MaxTranslation)
	dz := b.uniform(b.env.MaxTranslation)

	degX := b.uniform(b.env.MaxRotation)
	degY := b.uniform(b.env.MaxRotation)
	degZ := b.uniform(b.env.MaxRotation)

	for i := range m.Atoms {
		rotateAtom(&m.Atoms[i], vertex, degX, degY, degZ)
		m.Atoms[i].X += dx
		m.Atoms[i].Y += dy
		m.Atoms[i].Z += dz
	}
	b.keepInBox(m)
}

// Rollback overwrites the molecule with the checkpointed copy. Calling it for
// any molecule but the most recently checkpointed one is a programming defect.
func (b *Box) Rollback(idx int) {
	if idx != b.saved {
		panic(fmt.Sprintf("sim: rollback of molecule %d without matching checkpoint (have %d)",
			idx, b.saved))
	}
	b.scratch.CloneInto(&b.mols[idx])
	b.saved = -1
}

// uniform draws from [-max, max].
func (b *Box) uniform(max float64) float64 {
	return -max + b.rng.Float64()*2*max
}

func (b *Box) keepInBox(m *mol.Molecule) {
	for i := range m.Atoms {
		m.Atoms[i].X = pbc.Wrap(m.Atoms[i].X, b.env.X)
		m.Atoms[i].Y = pbc.Wrap(m.Atoms[i].Y, b.env.Y)
		m.Atoms[i].Z = pbc.Wrap(m.Atoms[i].Z, b.env.Z)
	}
}

// rotateAtom rotates the atom about the vertex by the given angles in
// degrees, applied about the x, y and z axes in that order.
func rotateAtom(a *mol.Atom, vertex [3]float64, degX, degY, degZ float64) {
	x := a.X - vertex[0]
	y := a.Y - vertex[1]
	z := a.Z - vertex[2]

	x, y, z = rotateX(x, y, z, degX*math.Pi/180)
	x, y, z = rotateY(x, y, z, degY*math.Pi/180)
	x, y, z = rotateZ(x, y, z, degZ*math.Pi/180)

	a.X = x + vertex[0]
	a.Y = y + vertex[1]
	a.Z = z + vertex[2]
}

func rotateX(x, y, z, theta float64) (float64, float64, float64) {
	sin, cos := math.Sincos(theta)
	return x, y*cos - z*sin, y*sin + z*cos
}

func rotateY(x, y, z, theta float64) (float64, float64, float64) {
	sin, cos := math.Sincos(theta)
	return z*sin + x*cos, y, z*cos - x*sin
}

func rotateZ(x, y, z, theta float64) (float64, float64, float64) {
	sin, cos := math.Sincos(theta)
	return x*cos - y*sin, x*sin + y*cos, z
}
