// Package metropolis runs a Metropolis Monte Carlo sampling of a molecular
// state file: it loads the state, drives the configured number of steps
// through the engine and writes the mutated state back with the run result.
package metropolis

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/tmarkley/metromc/pkg/monitor"
	"github.com/tmarkley/metromc/pkg/sim"
	"github.com/tmarkley/metromc/pkg/state"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is the name of the calculation.
var Type = "metropolis"

// Metropolis is a structure containing the parameters that can be parsed
// from a TOML configuration file. This structure can be instanced through the
// New method. FileIn is a state file; FileOut receives the final state and
// the run result. Workers, ReduceBranch and ParallelMin tune how the energy
// evaluation is distributed and default to sensible values when zero.
type Metropolis struct {
	FileIn  string `toml:"metropolis.file_in"`
	FileOut string `toml:"metropolis.file_out"`

	Steps int   `toml:"metropolis.steps"`
	Seed  int64 `toml:"metropolis.seed"`

	LogEvery int `toml:"metropolis.log_every"`

	Workers      int `toml:"metropolis.workers"`
	ReduceBranch int `toml:"metropolis.reduce_branch"`
	ParallelMin  int `toml:"metropolis.parallel_min"`

	// MonitorAddr, when set, serves live step snapshots over WebSocket on
	// that address for the duration of the run.
	MonitorAddr string `toml:"metropolis.monitor_addr"`

	log *zap.Logger
}

// New returns an instance of the Metropolis structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string, log *zap.Logger) (*Metropolis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Metropolis
	dec := toml.NewDecoder(f)
	err = dec.Decode(&m)
	if err != nil {
		return nil, err
	}

	if m.FileIn == "" || m.FileOut == "" {
		return nil, errors.New("file_in and file_out are required")
	}
	if m.Steps <= 0 {
		return nil, errors.New("steps must be greater than 0")
	}
	if m.ReduceBranch == 1 {
		return nil, errors.New("reduce_branch must be at least 2")
	}
	if m.Workers < 0 || m.ReduceBranch < 0 || m.ParallelMin < 0 || m.LogEvery < 0 {
		return nil, errors.New("tuning parameters must not be negative")
	}

	m.log = log
	return &m, nil
}

// Start performs the run. It is a thread blocking method; the energy
// evaluations inside each step use the configured number of workers.
func (m *Metropolis) Start() error {
	st, err := state.Read(m.FileIn)
	if err != nil {
		return err
	}

	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	m.log.Info("run configured",
		zap.String("file_in", m.FileIn),
		zap.Int("steps", m.Steps),
		zap.Int64("seed", seed))

	eng := sim.NewEngine(&st.Environment, st.Molecules, rng, sim.Options{
		Workers:      m.Workers,
		ReduceBranch: m.ReduceBranch,
		ParallelMin:  m.ParallelMin,
		LogEvery:     m.LogEvery,
	}, m.log)

	if st.Result != nil {
		eng.SetTotalEnergy(st.Result.Energy)
		m.log.Info("continuing from previous run",
			zap.Float64("energy", st.Result.Energy))
	}

	if m.MonitorAddr != "" {
		mon := monitor.New(m.log)
		defer mon.Close()

		srv := &http.Server{Addr: m.MonitorAddr, Handler: mon}
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.log.Warn("monitor server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())

		eng.OnStep(func(s sim.Step) { mon.Notify(s) })
		m.log.Info("monitor listening", zap.String("addr", m.MonitorAddr))
	}

	res := eng.Run(m.Steps)
	m.log.Info("run finished",
		zap.Float64("energy", res.Energy),
		zap.Int("accepted", res.Accepted),
		zap.Int("rejected", res.Rejected))

	return state.Write(m.FileOut, &st.Environment, eng.Box().Molecules(), res)
}
