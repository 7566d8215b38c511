// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"context"
	"sort"

	"github.com/goplus/nativeprep/internal/proc"
)

// CMake drives CMake-based builds.
type CMake struct {
	dep        string
	bin        string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	defines    map[string]string
	runner     proc.Runner
}

// New returns a CMake that configures sourceDir into buildDir and installs
// into installDir, running commands through runner.
func New(runner proc.Runner, sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		bin:        "cmake",
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    make(map[string]string),
		runner:     runner,
	}
}

// Dep names the dependency being built; it is attached to subprocess errors.
func (c *CMake) Dep(name string) *CMake {
	c.dep = name
	return c
}

// Binary overrides the cmake executable.
func (c *CMake) Binary(path string) *CMake {
	if path != "" {
		c.bin = path
	}
	return c
}

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "Debug").
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = value
	return c
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
func (c *CMake) Configure(ctx context.Context, args ...string) ([]byte, error) {
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

// Build runs "cmake --build <build>".
func (c *CMake) Build(ctx context.Context, args ...string) ([]byte, error) {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

// Install runs "cmake --install <build>".
func (c *CMake) Install(ctx context.Context, args ...string) ([]byte, error) {
	cmakeArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "--prefix", c.installDir)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

// OutputDir returns installDir if set, otherwise buildDir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) run(ctx context.Context, args []string) ([]byte, error) {
	return c.runner.Run(ctx, proc.Cmd{Dep: c.dep, Path: c.bin, Args: args})
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+":STRING="+c.defines[k])
	}
	return args
}
