// Package state reads and writes simulation state files. A state file is a
// TOML document holding the environment, the full molecule pool and, for
// files produced by a finished run, the run result. Feeding a produced file
// back in continues sampling from where the previous run stopped.
package state

import (
	"errors"
	"fmt"
	"os"

	"github.com/tmarkley/metromc/pkg/mol"
	"github.com/tmarkley/metromc/pkg/sim"
	"github.com/tmarkley/metromc/pkg/util"

	"github.com/pelletier/go-toml"
)

// State is the decoded content of a state file.
type State struct {
	Environment mol.Environment `toml:"environment"`
	Molecules   []mol.Molecule  `toml:"molecule"`

	// Result is present only in files written at the end of a run. Its
	// energy seeds the next run's running total.
	Result *sim.Result `toml:"result"`
}

// Read opens, decodes and validates a state file. Every cross-reference is
// checked here so the simulation can index the pools without further guards.
func Read(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var st State
	dec := toml.NewDecoder(f)
	err = dec.Decode(&st)
	if err != nil {
		return nil, err
	}

	err = st.validate()
	if err != nil {
		return nil, err
	}

	st.Environment.NumMolecules = len(st.Molecules)
	st.Environment.NumAtoms = 0
	for i := range st.Molecules {
		st.Environment.NumAtoms += len(st.Molecules[i].Atoms)
	}
	return &st, nil
}

func (st *State) validate() error {
	err := st.Environment.Validate()
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if len(st.Molecules) == 0 {
		return errors.New("state file contains no molecules")
	}

	for i := range st.Molecules {
		m := &st.Molecules[i]
		if len(m.Atoms) == 0 {
			return fmt.Errorf("molecule %d has no atoms", m.ID)
		}
		if st.Environment.PrimaryAtom >= len(m.Atoms) {
			return fmt.Errorf("molecule %d: primary atom index %d out of range (%d atoms)",
				m.ID, st.Environment.PrimaryAtom, len(m.Atoms))
		}

		for k, b := range m.Bonds {
			if !inRange(b.Atom1, b.Atom2, len(m.Atoms)) {
				return fmt.Errorf("molecule %d: bond %d references atoms %d-%d (%d atoms)",
					m.ID, k, b.Atom1, b.Atom2, len(m.Atoms))
			}
		}
		for k, a := range m.Angles {
			if !inRange(a.Atom1, a.Atom2, len(m.Atoms)) {
				return fmt.Errorf("molecule %d: angle %d references atoms %d-%d (%d atoms)",
					m.ID, k, a.Atom1, a.Atom2, len(m.Atoms))
			}
		}
		for k, d := range m.Dihedrals {
			if !inRange(d.Atom1, d.Atom2, len(m.Atoms)) {
				return fmt.Errorf("molecule %d: dihedral %d references atoms %d-%d (%d atoms)",
					m.ID, k, d.Atom1, d.Atom2, len(m.Atoms))
			}
		}
		for k, h := range m.Hops {
			if !inRange(h.Atom1, h.Atom2, len(m.Atoms)) {
				return fmt.Errorf("molecule %d: hop %d references atoms %d-%d (%d atoms)",
					m.ID, k, h.Atom1, h.Atom2, len(m.Atoms))
			}
		}
	}
	return nil
}

func inRange(a, b, n int) bool {
	return a >= 0 && a < n && b >= 0 && b < n
}

// Write writes the mutated pool and the run result to path so downstream
// tools can report on it or continue the run.
func Write(path string, env *mol.Environment, mols []mol.Molecule, res sim.Result) error {
	out := State{Environment: *env, Molecules: mols, Result: &res}

	f, err := util.Write(path, out)
	if err != nil {
		return err
	}
	return f.Close()
}
