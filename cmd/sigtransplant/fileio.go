package main

import (
	"fmt"
	"io/ioutil"
	"os"

	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/sassoftware/relic/v7/lib/atomicfile"
)

// ioError marks a failed file operation so it gets its own exit code.
type ioError struct {
	op   string
	path string
	err  error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.op, e.path, e.err)
}

func (e *ioError) Unwrap() error { return e.err }

func readFile(op, path string) ([]byte, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &ioError{op: op, path: path, err: err}
	}
	return contents, nil
}

// writeFile replaces path with data in a single rename, so a failed write
// never leaves a truncated file behind, and then sets its mode.
func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := atomicfile.WriteFile(path, data); err != nil {
		return &ioError{op: "writing", path: path, err: err}
	}
	if err := os.Chmod(path, perm); err != nil {
		return &ioError{op: "setting mode of", path: path, err: err}
	}
	return nil
}

// writePE optionally fixes the checksum of contents and writes it to path.
func writePE(globalFlags *GlobalFlags, path string, contents []byte) ([]byte, error) {
	if globalFlags.FixChecksum {
		fixed, err := sigtransplant.UpdateChecksum(contents)
		if err != nil {
			return nil, err
		}
		contents = fixed
		log.Debugf("updated checksum of %s", path)
	}

	if err := writeFile(path, contents, 0755); err != nil {
		return nil, err
	}
	return contents, nil
}
