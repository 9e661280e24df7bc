// Package util contains some methods that can be used by every other package.
package util

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

// Write writes the output file according to a specific scheme. It writes the
// date, parses the structure in a TOML format and writes it. This method
// returns the file for further writing. It must be closed at the end of the
// run.
func Write(path string, structure interface{}) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(f, "# Date: %v\n", time.Now().Format("2006-01-02 15:04:05 -0700 MST"))

	enc := toml.NewEncoder(f)
	err = enc.Encode(structure)
	if err != nil {
		return nil, err
	}

	f.Write([]byte{'\n'})
	return f, nil
}

// Pow returns x**n, the n-th power of x, for n >= 1.
func Pow(x float64, n int) float64 {
	res := x
	for i := 0; i < (n - 1); i++ {
		res *= x
	}
	return res
}
