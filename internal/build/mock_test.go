package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/config"
	"github.com/goplus/nativeprep/internal/proc"
	"github.com/goplus/nativeprep/internal/schema"
	"github.com/goplus/nativeprep/internal/toolchain"
)

// fakeBuilder records builds and, unless told to fail, installs the
// artifacts a real build would produce.
type fakeBuilder struct {
	cfg       *config.Config
	built     []string
	fail      map[string]error
	noRuntime bool // install everything but the runtime library
}

func (f *fakeBuilder) Build(ctx context.Context, dep toolchain.Dependency, profile toolchain.Profile) error {
	f.built = append(f.built, dep.Name)
	if err := f.fail[dep.Name]; err != nil {
		return err
	}
	runtime := filepath.Join(dep.OutputDir, filepath.FromSlash(f.cfg.Dependencies.Media.Runtime))
	for _, a := range dep.Artifacts {
		if f.noRuntime && a.Path() == runtime {
			continue
		}
		touch(a.Path())
	}
	if dep.Name == f.cfg.Dependencies.Media.Name && !f.noRuntime {
		touch(runtime)
	}
	return nil
}

// fakeCompiler records jobs and creates the bindings directory.
type fakeCompiler struct {
	cfg  *config.Config
	jobs []schema.Job
	err  error
}

func (f *fakeCompiler) Compile(ctx context.Context, job schema.Job) ([]byte, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return nil, f.err
	}
	os.MkdirAll(f.cfg.Path(f.cfg.Schema.Bindings), 0o755)
	return []byte("generated rocktree.pb.cc\n"), nil
}

// countingProbe records which artifacts were asked for through Missing.
type countingProbe struct {
	artifact.Probe
	asked []string
}

func (p *countingProbe) Missing(list ...artifact.Artifact) ([]artifact.Artifact, error) {
	for _, a := range list {
		p.asked = append(p.asked, a.Rel)
	}
	return p.Probe.Missing(list...)
}

// nopRunner satisfies proc.Runner without running anything.
type nopRunner struct {
	cmds []proc.Cmd
}

func (r *nopRunner) Run(ctx context.Context, cmd proc.Cmd) ([]byte, error) {
	r.cmds = append(r.cmds, cmd)
	return nil, nil
}

func touch(path string) {
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("artifact"), 0o644)
}

// newWorkspace lays out the sources of the default configuration under a
// temporary root: the crate, bundled third-party headers, the dependency
// source trees and the schema file. Nothing is built yet.
func newWorkspace(t *testing.T) (*config.Config, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default("linux")
	cfg.Root = root

	for _, inc := range cfg.Unit.Includes {
		os.MkdirAll(cfg.CratePath(inc), 0o755)
	}
	for _, src := range cfg.Unit.Sources {
		touch(cfg.CratePath(src))
	}
	for _, inc := range cfg.Unit.ThirdParty {
		os.MkdirAll(cfg.Path(inc), 0o755)
	}
	for _, dc := range []config.DependencyConfig{cfg.Dependencies.Schema, cfg.Dependencies.Media} {
		os.MkdirAll(cfg.Path(dc.Source), 0o755)
		os.MkdirAll(cfg.Path(dc.Include), 0o755)
	}
	for _, f := range cfg.Schema.Files {
		touch(cfg.Path(f))
	}

	outDir := filepath.Join(root, "target", "out")
	os.MkdirAll(outDir, 0o755)
	return cfg, outDir
}

// prebuild installs every artifact and the generated bindings.
func prebuild(cfg *config.Config) {
	for _, dc := range []config.DependencyConfig{cfg.Dependencies.Schema, cfg.Dependencies.Media} {
		for _, rel := range dc.Artifacts {
			touch(filepath.Join(cfg.Path(dc.Output), filepath.FromSlash(rel)))
		}
	}
	touch(filepath.Join(cfg.Path(cfg.Dependencies.Media.Output), filepath.FromSlash(cfg.Dependencies.Media.Runtime)))
	os.MkdirAll(cfg.Path(cfg.Schema.Bindings), 0o755)
}
