// Package cfg dispatches several simulation runs. It avoids to start a
// specific program for each run.
package cfg

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Cfg is a structure where the types of runs are stored. It can be instanced
// through the New method. The length of the Files slice must be equal to the
// length of the Types files. Each run requires a configuration file where the
// parameters required to perform it are stored.
type Cfg struct {
	Types [][]string `toml:"types"`
	Files [][]string `toml:"files"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// New returns an instance of the Cfg structure. It opens and reads the
// configuration file where Types and Files are stored. The configuration file
// must use the TOML format.
func New(path string) (Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cfg{}, err
	}
	defer f.Close()

	var cfg Cfg
	dec := toml.NewDecoder(f)
	err = dec.Decode(&cfg)
	if err != nil {
		return Cfg{}, err
	}

	if len(cfg.Files) != len(cfg.Types) {
		return Cfg{}, fmt.Errorf("length of Files isn't equal to Types (%d vs %d)",
			len(cfg.Files), len(cfg.Types))
	}

	for k, v := range cfg.Files {
		if len(v) != len(cfg.Types[k]) {
			return Cfg{}, fmt.Errorf("length of Files isn't equal to Types (%d vs %d, step %d)",
				len(v), len(cfg.Types[k]), k)
		}
	}

	return cfg, nil
}

// Start dispatches and performs the runs. If several runs are in the same
// array (e.g Types: [["metropolis", "metropolis"]]), they will be performed
// in parallel, each run with its own engine and scratch buffers. The length
// of the array must be in accordance with the number of threads available.
//
// It is a thread blocking method. If an error occurs for a specific run, the
// run will stop and log the error but the method won't stop.
func (c Cfg) Start(log *zap.Logger) {
	var wg sync.WaitGroup
	for step, types := range c.Types {
		if len(types) == 0 {
			continue
		}

		if len(types) > 1 {
			for rtn, name := range types[1:] { // For each run
				wg.Add(1)
				go func(step, rtn int, name string) {
					err := Launch(name, c.Files[step][rtn], log)
					if err != nil {
						log.Error("run failed", zap.Int("step", step),
							zap.Int("routine", rtn), zap.Error(err))
					}

					wg.Done()
				}(step, rtn+1, name)

			}
		}

		err := Launch(types[0], c.Files[step][0], log)
		if err != nil {
			log.Error("run failed", zap.Int("step", step),
				zap.Int("routine", 0), zap.Error(err))
		}
		wg.Wait()
	}
}
