package cfg

import (
	"fmt"

	"github.com/tmarkley/metromc/pkg/metropolis"

	"go.uber.org/zap"
)

// Run is an interface that only contains one method: Start. Every run type
// must have a Start method that will perform the run. It must be a thread
// blocking method.
type Run interface {
	Start() error
}

// Launch launchs a specific run. It is a thread blocking method. The
// parameters required to launch the run must be in a file.
func Launch(name string, path string, log *zap.Logger) error {
	var (
		err error
		run Run
	)

	switch name {
	case metropolis.Type:
		run, err = metropolis.New(path, log)
	default:
		return fmt.Errorf("run type `%s` doesn't exist", name)
	}

	if err != nil {
		return fmt.Errorf("%s: New: %w", name, err)
	}

	err = run.Start()
	if err != nil {
		return fmt.Errorf("%s: Start: %w", name, err)
	}

	return nil
}
