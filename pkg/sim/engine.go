package sim

import (
	"math"
	"math/rand"
	"runtime"

	"github.com/tmarkley/metromc/pkg/mol"
	"go.uber.org/zap"
)

// boltzmann is the Boltzmann constant in kcal/(mol*K).
const boltzmann = 1.987206504191549e-3

// Options are the performance tuning knobs of an engine. They change how the
// work is distributed, never what is computed.
type Options struct {
	// Workers is the number of goroutines used for parallel sections.
	// Zero means runtime.NumCPU().
	Workers int

	// ReduceBranch is the branching factor of the tree reduction.
	// Zero means 3.
	ReduceBranch int

	// ParallelMin is the number of work items below which a parallel section
	// runs inline. Zero means 2048.
	ParallelMin int

	// LogEvery logs progress every that many steps. Zero disables it.
	LogEvery int
}

// Step is the snapshot published after every Metropolis step.
type Step struct {
	Step     int     `json:"step"`
	Molecule int     `json:"molecule"`
	Moved    bool    `json:"moved"`
	Energy   float64 `json:"energy"`
	Accepted int     `json:"accepted"`
	Rejected int     `json:"rejected"`
}

// Result is what a run exposes at termination.
type Result struct {
	Energy   float64 `toml:"energy"`
	Accepted int     `toml:"accepted"`
	Rejected int     `toml:"rejected"`
	Steps    int     `toml:"steps"`
}

// Engine drives the Metropolis acceptance loop over a Box. One engine owns
// its scratch buffers exclusively, so independent simulations can run
// concurrently as long as each has its own engine.
type Engine struct {
	box        *Box
	maxMolSize int

	workers     int
	branch      int
	parallelMin int
	logEvery    int

	flags    []bool
	batch    []int
	energies []float64

	totalEnergy float64
	knownEnergy bool
	accepted    int
	rejected    int

	onStep func(Step)
	log    *zap.Logger
}

// NewEngine builds an engine over a validated environment and molecule pool.
func NewEngine(env *mol.Environment, mols []mol.Molecule, rng *rand.Rand,
	opt Options, log *zap.Logger) *Engine {

	if opt.Workers <= 0 {
		opt.Workers = runtime.NumCPU()
	}
	if opt.ReduceBranch <= 0 {
		opt.ReduceBranch = 3
	}
	if opt.ParallelMin <= 0 {
		opt.ParallelMin = 2048
	}

	maxSize, atoms := 0, 0
	for i := range mols {
		atoms += len(mols[i].Atoms)
		if len(mols[i].Atoms) > maxSize {
			maxSize = len(mols[i].Atoms)
		}
	}

	e := &Engine{
		box:         NewBox(env, mols, rng),
		maxMolSize:  maxSize,
		workers:     opt.Workers,
		branch:      opt.ReduceBranch,
		parallelMin: opt.ParallelMin,
		logEvery:    opt.LogEvery,
		log:         log,
	}
	e.log.Info("engine ready",
		zap.Int("molecules", len(mols)),
		zap.Int("atoms", atoms),
		zap.Int("max_molecule_size", maxSize),
		zap.Int("workers", opt.Workers))
	return e
}

// Box returns the engine's state store.
func (e *Engine) Box() *Box { return e.box }

// OnStep registers a callback invoked after every step with the running
// counters. The callback runs on the driver goroutine and must not block.
func (e *Engine) OnStep(fn func(Step)) { e.onStep = fn }

// SetTotalEnergy seeds the running total energy, e.g. from a previous run's
// state file, so Run can skip the full system recomputation.
func (e *Engine) SetTotalEnergy(energy float64) {
	e.totalEnergy = energy
	e.knownEnergy = true
}

// MoleculeEnergy is the interaction energy of molecule m with every other
// molecule within the cutoff.
func (e *Engine) MoleculeEnergy(m int) float64 {
	buf := e.EvaluateBatch(m, e.BuildBatch(m, 0))
	return e.reduce(buf, len(buf))
}

// SystemEnergy is the full O(N^2) system energy. It pairs every molecule
// only with higher indices so each interaction counts once.
func (e *Engine) SystemEnergy() float64 {
	var total float64
	for m := range e.box.mols {
		buf := e.EvaluateBatch(m, e.BuildBatch(m, m+1))
		total += e.reduce(buf, len(buf))
	}
	return total
}

// Run performs the configured number of Metropolis steps and returns the
// final energy and counters. The full system energy is computed at most once,
// before the first step; every step afterwards maintains the total
// incrementally from the single-molecule delta.
func (e *Engine) Run(steps int) Result {
	if !e.knownEnergy {
		e.totalEnergy = e.SystemEnergy()
		e.knownEnergy = true
		e.log.Info("initial system energy", zap.Float64("energy", e.totalEnergy))
	}

	for step := 1; step <= steps; step++ {
		e.step(step)
		if e.logEvery > 0 && step%e.logEvery == 0 {
			e.log.Info("progress",
				zap.Int("step", step),
				zap.Float64("energy", e.totalEnergy),
				zap.Int("accepted", e.accepted),
				zap.Int("rejected", e.rejected))
		}
	}

	return Result{
		Energy:   e.totalEnergy,
		Accepted: e.accepted,
		Rejected: e.rejected,
		Steps:    steps,
	}
}

// step runs one proposal through the acceptance rule. The energy of the
// chosen molecule is evaluated against its full neighborhood before and after
// the move; the driver blocks on each evaluation's reduction before deciding.
func (e *Engine) step(n int) {
	m := e.box.ChooseMolecule()

	oldEnergy := e.MoleculeEnergy(m)
	e.box.ChangeMolecule(m)
	newEnergy := e.MoleculeEnergy(m)

	delta := newEnergy - oldEnergy
	accept := delta < 0
	if !accept {
		kT := boltzmann * e.box.env.Temperature
		accept = e.box.rng.Float64() < math.Exp(-delta/kT)
	}

	if accept {
		e.totalEnergy += delta
		e.accepted++
	} else {
		e.box.Rollback(m)
		e.rejected++
	}

	if e.onStep != nil {
		e.onStep(Step{
			Step:     n,
			Molecule: m,
			Moved:    accept,
			Energy:   e.totalEnergy,
			Accepted: e.accepted,
			Rejected: e.rejected,
		})
	}
}
