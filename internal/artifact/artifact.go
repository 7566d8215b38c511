// Package artifact resolves canonical paths and checks whether expected
// build outputs are present.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/nativeprep/internal/errs"
)

// Canonical returns the absolute, symlink-free form of path. A path that
// does not exist cannot be canonicalized and yields a PathResolutionError.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &errs.PathResolutionError{Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &errs.PathResolutionError{Path: path, Err: err}
	}
	return resolved, nil
}

// Artifact is an expected build output located under a canonical root.
type Artifact struct {
	Root string // canonical directory the output is built into
	Rel  string // slash or OS separated path below Root
	Dir  bool   // output is a directory rather than a regular file
}

// File returns a regular-file artifact.
func File(root, rel string) Artifact {
	return Artifact{Root: root, Rel: rel}
}

// Dir returns a directory artifact.
func Dir(root, rel string) Artifact {
	return Artifact{Root: root, Rel: rel, Dir: true}
}

// Path returns the full path of the artifact.
func (a Artifact) Path() string {
	return filepath.Join(a.Root, filepath.FromSlash(a.Rel))
}

func (a Artifact) String() string {
	return a.Path()
}

// Probe answers whether artifacts exist. The zero value is ready to use.
type Probe struct{}

// Exists reports whether a is present with the expected kind.
//
// A missing artifact is not an error. The root, however, must be an
// existing directory: it is created before anything is probed, so its
// absence points to a broken environment rather than to an unbuilt
// dependency.
func (Probe) Exists(a Artifact) (bool, error) {
	info, err := os.Stat(a.Root)
	if err != nil {
		return false, &errs.FileSystemError{Op: "stat", Path: a.Root, Err: err}
	}
	if !info.IsDir() {
		return false, &errs.FileSystemError{Op: "stat", Path: a.Root, Err: fmt.Errorf("not a directory")}
	}

	path := a.Path()
	info, err = os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &errs.FileSystemError{Op: "stat", Path: path, Err: err}
	}
	if a.Dir {
		return info.IsDir(), nil
	}
	return info.Mode().IsRegular(), nil
}

// Missing returns the artifacts of list that do not exist, stopping at the
// first probe error.
func (p Probe) Missing(list ...Artifact) ([]Artifact, error) {
	var missing []Artifact
	for _, a := range list {
		ok, err := p.Exists(a)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, a)
		}
	}
	return missing, nil
}
