package sim

import (
	"fmt"
	"math"

	"github.com/tmarkley/metromc/pkg/mol"
	"github.com/tmarkley/metromc/pkg/pbc"
	"github.com/tmarkley/metromc/pkg/util"
)

// coulombK is the Coulomb constant in kcal*angstrom/(mol*e^2).
const coulombK = 332.06

// grid maps (batch molecule, atom of the moved molecule, atom of the batch
// molecule) triples onto a flat energy buffer. size is the maximum atom count
// over all molecules, so every molecule pair fits in one size*size block.
type grid struct {
	size int
}

func (g grid) index(b, i, j int) int {
	return (b*g.size+i)*g.size + j
}

func (g grid) cell(idx int) (b, i, j int) {
	j = idx % g.size
	idx /= g.size
	return idx / g.size, idx % g.size, j
}

func (g grid) cells(batch int) int {
	return batch * g.size * g.size
}

// BuildBatch returns, in ascending order, the indices in [start, n) of the
// molecules whose primary atom lies within the cutoff of molecule m's primary
// atom. start = m+1 avoids double counting in full-system sums; start = 0
// gives the neighborhood for a single-molecule delta. The returned slice is
// scratch storage valid until the next call.
func (e *Engine) BuildBatch(m, start int) []int {
	n := len(e.box.mols)
	if m < 0 || m >= n {
		panic(fmt.Sprintf("sim: molecule index %d out of range [0, %d)", m, n))
	}
	if cap(e.flags) < n {
		e.flags = make([]bool, n)
	}
	flags := e.flags[:n]

	box := e.box.env.Box()
	cut2 := e.box.env.Cutoff * e.box.env.Cutoff
	p := e.box.env.PrimaryAtom
	ref := e.box.mols[m].Atoms[p].Pos()

	// Per-candidate checks are independent; each writes its own flag slot.
	e.parallelFor(n-start, func(lo, hi int) {
		for c := start + lo; c < start+hi; c++ {
			flags[c] = c != m &&
				pbc.Dist2(ref, e.box.mols[c].Atoms[p].Pos(), box) < cut2
		}
	})

	batch := e.batch[:0]
	for c := start; c < n; c++ {
		if flags[c] {
			batch = append(batch, c)
		}
	}
	e.batch = batch
	return batch
}

// EvaluateBatch computes the LJ+Coulomb energy of every atom pair between
// molecule m and each batch molecule. One cell of the work grid is assigned
// per (batch molecule, atom, atom) triple; inactive cells stay zero. The
// returned buffer is scratch storage; it is cleared here and must not be read
// across evaluations.
func (e *Engine) EvaluateBatch(m int, batch []int) []float64 {
	g := grid{size: e.maxMolSize}
	cells := g.cells(len(batch))
	if cap(e.energies) < cells {
		e.energies = make([]float64, cells)
	}
	buf := e.energies[:cells]
	for i := range buf {
		buf[i] = 0
	}

	molA := &e.box.mols[m]
	box := e.box.env.Box()

	e.parallelFor(cells, func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			b, i, j := g.cell(idx)
			molB := &e.box.mols[batch[b]]
			if i >= len(molA.Atoms) || j >= len(molB.Atoms) {
				continue
			}
			buf[idx] = pairEnergy(&molA.Atoms[i], &molB.Atoms[j], box)
		}
	})
	return buf
}

// pairEnergy is the LJ+Coulomb energy of one atom pair under the minimum
// image convention. A negative sigma or epsilon on either side marks an inert
// site and zeroes the whole pair; coincident sites contribute zero as well.
func pairEnergy(a1, a2 *mol.Atom, box [3]float64) float64 {
	if a1.Sigma < 0 || a1.Epsilon < 0 || a2.Sigma < 0 || a2.Epsilon < 0 {
		return 0
	}
	r2 := pbc.Dist2(a1.Pos(), a2.Pos(), box)
	if r2 == 0 {
		return 0
	}

	sigma := math.Sqrt(a1.Sigma * a2.Sigma)
	epsilon := math.Sqrt(a1.Epsilon * a2.Epsilon)
	t := sigma * sigma / r2
	lj := 4 * epsilon * (util.Pow(t, 6) - util.Pow(t, 3))

	coulomb := a1.Charge * a2.Charge * coulombK / math.Sqrt(r2)
	return lj + coulomb
}
