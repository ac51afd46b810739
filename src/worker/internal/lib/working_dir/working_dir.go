package working_dir

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// WorkingDir is an absolute directory that job scratch space hangs off
// of. Each job makes its own subdirectory so concurrent runs never
// collide.
type WorkingDir struct {
	root string
}

func NewWorkingDir(dir string) (WorkingDir, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	if err := os.MkdirAll(absDir, os.ModePerm); err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to create working dir")
	}

	return WorkingDir{root: absDir}, nil
}

func (w WorkingDir) Root() string {
	return w.root
}

// MakeScratchDir creates a fresh job-scoped directory. The caller owns
// removal.
func (w WorkingDir) MakeScratchDir(pattern string) (string, error) {
	scratchDir, err := os.MkdirTemp(w.root, pattern)
	if err != nil {
		return "", errors.Wrap(err, "Failed to create scratch dir")
	}

	return scratchDir, nil
}
