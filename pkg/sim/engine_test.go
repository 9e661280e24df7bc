package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tmarkley/metromc/pkg/mol"
	"github.com/tmarkley/metromc/pkg/pbc"

	"go.uber.org/zap"
)

// ljCoulomb is the analytic pair energy used as an oracle by the scenario
// tests.
func ljCoulomb(r, s1, e1, q1, s2, e2, q2 float64) float64 {
	sigma := math.Sqrt(s1 * s2)
	epsilon := math.Sqrt(e1 * e2)
	return 4*epsilon*(math.Pow(sigma/r, 12)-math.Pow(sigma/r, 6)) + q1*q2*332.06/r
}

func TestRunKeepsTotalEnergyConsistent(t *testing.T) {
	// The running total is maintained from single-molecule deltas only; after
	// many steps it must still agree with a full recomputation.
	env := &mol.Environment{
		X: 20, Y: 20, Z: 20,
		Cutoff: 8, Temperature: 300, MaxTranslation: 0.3, MaxRotation: 10,
	}
	mols := []mol.Molecule{
		waterLike(1, 3, 3, 3),
		waterLike(2, 9, 4, 5),
		waterLike(3, 15, 3, 12),
		waterLike(4, 4, 12, 9),
		singleAtom(5, 12, 12, 12, 3, 0.2, 0.1),
		singleAtom(6, 17, 9, 3, 3, 0.2, -0.1),
		waterLike(7, 8, 16, 16),
		waterLike(8, 16, 16, 5),
	}
	e := NewEngine(env, mols, rand.New(rand.NewSource(21)),
		Options{Workers: 4, ParallelMin: 1}, zap.NewNop())

	res := e.Run(300)
	if res.Accepted+res.Rejected != 300 {
		t.Fatalf("accepted %d + rejected %d != 300 steps", res.Accepted, res.Rejected)
	}
	if res.Accepted == 0 {
		t.Fatal("no move was accepted in 300 steps")
	}

	recomputed := e.SystemEnergy()
	if math.Abs(res.Energy-recomputed) > 1e-6 {
		t.Errorf("incremental total %g drifted from recomputed %g", res.Energy, recomputed)
	}
}

func TestRunSkipsFullEnergyWhenKnown(t *testing.T) {
	env := &mol.Environment{
		X: 20, Y: 20, Z: 20,
		Cutoff: 8, Temperature: 300, MaxTranslation: 0.3, MaxRotation: 10,
	}
	mols := []mol.Molecule{waterLike(1, 3, 3, 3), waterLike(2, 9, 4, 5)}
	e := NewEngine(env, mols, rand.New(rand.NewSource(1)), Options{Workers: 1}, zap.NewNop())

	e.SetTotalEnergy(123.25)
	res := e.Run(0)
	if res.Energy != 123.25 {
		t.Errorf("Run recomputed a known energy: got %g, want 123.25", res.Energy)
	}
	if res.Accepted != 0 || res.Rejected != 0 {
		t.Errorf("zero-step run reported counters %d/%d", res.Accepted, res.Rejected)
	}
}

func TestStepCallback(t *testing.T) {
	env := &mol.Environment{
		X: 20, Y: 20, Z: 20,
		Cutoff: 8, Temperature: 300, MaxTranslation: 0.3, MaxRotation: 10,
	}
	mols := []mol.Molecule{waterLike(1, 3, 3, 3), waterLike(2, 9, 4, 5)}
	e := NewEngine(env, mols, rand.New(rand.NewSource(2)), Options{Workers: 1}, zap.NewNop())

	var steps []Step
	e.OnStep(func(s Step) { steps = append(steps, s) })

	res := e.Run(25)
	if len(steps) != 25 {
		t.Fatalf("callback fired %d times, want 25", len(steps))
	}
	last := steps[len(steps)-1]
	if last.Step != 25 || last.Accepted != res.Accepted || last.Rejected != res.Rejected ||
		last.Energy != res.Energy {
		t.Errorf("last snapshot %+v disagrees with result %+v", last, res)
	}
}

// Two molecules, cutoff beyond the box diagonal. Whatever the seeded draws
// produce, an accepted step must report exactly the analytic pair energy at
// the new separation, and a rejected step must leave the pool untouched.
func TestTwoMoleculeStepMatchesAnalytic(t *testing.T) {
	const (
		s1, e1, q1 = 3.0, 0.2, 0.2
		s2, e2, q2 = 3.0, 0.2, -0.2
	)

	accepted := 0
	for seed := int64(0); seed < 20; seed++ {
		env := &mol.Environment{
			X: 100, Y: 100, Z: 100,
			Cutoff: 200, Temperature: 300, MaxTranslation: 1.0,
		}
		mols := []mol.Molecule{
			singleAtom(1, 40, 50, 50, s1, e1, q1),
			singleAtom(2, 45, 50, 50, s2, e2, q2),
		}
		e := NewEngine(env, mols, rand.New(rand.NewSource(seed)),
			Options{Workers: 1}, zap.NewNop())

		res := e.Run(1)

		pool := e.Box().Molecules()
		r := math.Sqrt(pbc.Dist2(pool[0].Atoms[0].Pos(), pool[1].Atoms[0].Pos(), env.Box()))
		want := ljCoulomb(r, s1, e1, q1, s2, e2, q2)
		if math.Abs(res.Energy-want) > 1e-9 {
			t.Fatalf("seed %d: energy %g, want analytic %g at r = %g", seed, res.Energy, want, r)
		}

		if res.Rejected == 1 {
			if r != 5 {
				t.Fatalf("seed %d: rejected step moved the molecules (r = %g)", seed, r)
			}
		} else {
			accepted++
		}
	}
	if accepted == 0 {
		t.Error("no seed produced an accepted move")
	}
}

// At the pair-potential minimum with a vanishing temperature, nearly every
// proposal climbs the potential and must be rejected.
func TestRepulsiveMovesAreRejected(t *testing.T) {
	const sigma, epsilon = 3.0, 0.3
	rmin := math.Pow(2, 1.0/6) * sigma

	total, rejected := 0, 0
	for seed := int64(1); seed <= 5; seed++ {
		env := &mol.Environment{
			X: 50, Y: 50, Z: 50,
			Cutoff: 100, Temperature: 0.5, MaxTranslation: 1.5,
		}
		mols := []mol.Molecule{
			singleAtom(1, 20, 20, 20, sigma, epsilon, 0),
			singleAtom(2, 20+rmin, 20, 20, sigma, epsilon, 0),
		}
		e := NewEngine(env, mols, rand.New(rand.NewSource(seed)),
			Options{Workers: 1}, zap.NewNop())

		res := e.Run(400)
		total += 400
		rejected += res.Rejected
	}

	frac := float64(rejected) / float64(total)
	if frac < 0.9 {
		t.Errorf("rejection fraction %g, want > 0.9 at the potential minimum", frac)
	}
}

// A vanishing temperature turns the acceptance rule into pure descent: every
// accepted step must lower the running total.
func TestColdRunOnlyAcceptsDownhill(t *testing.T) {
	const sigma, epsilon = 3.0, 0.3

	env := &mol.Environment{
		X: 50, Y: 50, Z: 50,
		Cutoff: 100, Temperature: 0.5, MaxTranslation: 0.4,
	}
	// Start inside the repulsive wall so there is somewhere to descend to.
	mols := []mol.Molecule{
		singleAtom(1, 20, 20, 20, sigma, epsilon, 0),
		singleAtom(2, 20+0.9*sigma, 20, 20, sigma, epsilon, 0),
	}
	e := NewEngine(env, mols, rand.New(rand.NewSource(33)),
		Options{Workers: 1}, zap.NewNop())

	initial := e.SystemEnergy()

	prev := initial
	e.OnStep(func(s Step) {
		if s.Moved {
			// kT is about 1e-3 kcal/mol here, so any genuine uphill
			// acceptance would exceed this slack.
			if s.Energy > prev+0.01 {
				t.Errorf("step %d: accepted move raised the energy %g -> %g", s.Step, prev, s.Energy)
			}
			prev = s.Energy
		}
	})

	res := e.Run(200)
	if res.Accepted == 0 {
		t.Fatal("descent run accepted nothing")
	}
	if res.Energy >= initial {
		t.Errorf("energy did not descend: %g -> %g", initial, res.Energy)
	}
}
