// Package toolchain builds external native dependencies with CMake.
package toolchain

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/qiniu/x/log"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/proc"
	"github.com/goplus/nativeprep/x/cmake"
)

// Profile is a CMake build type.
type Profile string

// Release is the only profile dependencies are built with.
const Release Profile = "Release"

// Dependency describes one external dependency. It is created once at the
// start of an orchestration pass and not modified afterwards.
type Dependency struct {
	Name      string
	Version   string
	SourceDir string // CMake source tree; canonicalized before use
	OutputDir string // canonical install prefix
	Artifacts []artifact.Artifact
	Defines   map[string]string
}

// Label returns the name with the version appended when there is one.
func (d Dependency) Label() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + "@" + d.Version
}

// Builder configures, compiles and installs a dependency.
type Builder struct {
	Runner    proc.Runner
	CMake     string // cmake executable, "cmake" if empty
	Generator string
}

// New returns a Builder running commands through runner.
func New(runner proc.Runner) *Builder {
	return &Builder{Runner: runner}
}

// Build runs configure, build and install for dep. The build tree lives in
// <OutputDir>/build and artifacts are installed into OutputDir. Libraries
// always land in <OutputDir>/lib, also where GNUInstallDirs would pick lib64.
func (b *Builder) Build(ctx context.Context, dep Dependency, profile Profile) error {
	src, err := artifact.Canonical(dep.SourceDir)
	if err != nil {
		return err
	}
	log.Infof("building %s (%s) from %s", dep.Label(), profile, src)

	c := cmake.New(b.Runner, src, filepath.Join(dep.OutputDir, "build"), dep.OutputDir).
		Dep(dep.Name).
		Binary(b.CMake).
		Generator(b.Generator).
		BuildType(string(profile)).
		Define("CMAKE_INSTALL_LIBDIR", "lib")

	keys := make([]string, 0, len(dep.Defines))
	for k := range dep.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Define(k, dep.Defines[k])
	}

	if _, err := c.Configure(ctx); err != nil {
		return err
	}
	if _, err := c.Build(ctx); err != nil {
		return err
	}
	if _, err := c.Install(ctx); err != nil {
		return err
	}
	log.Infof("built %s into %s", dep.Label(), c.OutputDir())
	return nil
}
