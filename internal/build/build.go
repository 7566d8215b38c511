// Package build sequences dependency builds, binding generation, link
// directives and compile unit assembly into a fixed pipeline.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/qiniu/x/log"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/config"
	"github.com/goplus/nativeprep/internal/errs"
	"github.com/goplus/nativeprep/internal/link"
	"github.com/goplus/nativeprep/internal/proc"
	"github.com/goplus/nativeprep/internal/schema"
	"github.com/goplus/nativeprep/internal/toolchain"
	"github.com/goplus/nativeprep/internal/unit"
)

// Probe reports whether artifacts are present.
type Probe interface {
	Exists(a artifact.Artifact) (bool, error)
	Missing(list ...artifact.Artifact) ([]artifact.Artifact, error)
}

// DependencyBuilder builds an external dependency into its output directory.
type DependencyBuilder interface {
	Build(ctx context.Context, dep toolchain.Dependency, profile toolchain.Profile) error
}

// SchemaCompiler generates bindings and returns what the compiler printed.
type SchemaCompiler interface {
	Compile(ctx context.Context, job schema.Job) ([]byte, error)
}

// Options configures an Orchestrator. Config and OutDir are required; the
// remaining fields default to the real implementations.
type Options struct {
	Config   *config.Config
	OutDir   string // host output directory receiving the runtime library
	Probe    Probe
	Builder  DependencyBuilder
	Compiler SchemaCompiler
	Emitter  *link.Emitter

	// OnTransition, if set, is called for every state change.
	OnTransition func(from, to State)
}

// Result describes a successful pass.
type Result struct {
	Unit           *unit.Spec
	Directives     []link.Directive
	Built          []string // dependencies that had to be built
	SchemaCompiled bool
	Runtime        string // path of the copied runtime library
}

// Orchestrator runs the preparation pipeline.
type Orchestrator struct {
	opts  Options
	cfg   *config.Config
	state State

	schemaDep toolchain.Dependency
	mediaDep  toolchain.Dependency
}

// New returns an Orchestrator for opts.
func New(opts Options) *Orchestrator {
	if opts.Probe == nil {
		opts.Probe = artifact.Probe{}
	}
	if opts.Builder == nil {
		b := toolchain.New(&proc.Exec{Stream: os.Stderr})
		b.CMake = opts.Config.CMake
		b.Generator = opts.Config.Generator
		opts.Builder = b
	}
	if opts.Compiler == nil {
		opts.Compiler = schema.New(&proc.Exec{})
	}
	if opts.Emitter == nil {
		opts.Emitter = link.NewEmitter(io.Discard)
	}
	return &Orchestrator{opts: opts, cfg: opts.Config}
}

// State returns the state reached by the last Run.
func (o *Orchestrator) State() State {
	return o.state
}

type stage struct {
	to  State
	run func(ctx context.Context, res *Result) error
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{DepsDirsEnsured, o.ensureDirs},
		{ToolchainReadyA, o.ensureSchemaDep},
		{SchemaReady, o.ensureBindings},
		{LinkedA, o.linkSchemaDep},
		{ToolchainReadyB, o.ensureMediaDep},
		{LinkedB, o.linkMediaDep},
		{RuntimeCopied, o.copyRuntime},
		{UnitAssembled, o.assemble},
	}
}

// Run executes one pass of the pipeline. Every pass probes the filesystem
// again, so a pass after a successful one invokes no external tool.
//
// The first failing stage stops the pass; its error is returned as is and
// the orchestrator ends in Failed.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	o.state = Init
	res := &Result{}
	emitted := len(o.opts.Emitter.Emitted())

	for _, st := range o.stages() {
		if err := st.run(ctx, res); err != nil {
			log.Debugf("%v failed: %v", st.to, err)
			o.transition(Failed)
			return nil, err
		}
		o.transition(st.to)
	}
	res.Directives = o.opts.Emitter.Emitted()[emitted:]
	return res, nil
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	if o.opts.OnTransition != nil {
		o.opts.OnTransition(from, to)
	}
}

func (o *Orchestrator) ensureDirs(ctx context.Context, res *Result) error {
	var err error
	if o.schemaDep, err = o.dependency(o.cfg.Dependencies.Schema); err != nil {
		return err
	}
	o.mediaDep, err = o.dependency(o.cfg.Dependencies.Media)
	return err
}

func (o *Orchestrator) dependency(dc config.DependencyConfig) (toolchain.Dependency, error) {
	out := o.cfg.Path(dc.Output)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return toolchain.Dependency{}, &errs.FileSystemError{Op: "mkdir", Path: out, Err: err}
	}
	out, err := artifact.Canonical(out)
	if err != nil {
		return toolchain.Dependency{}, err
	}

	dep := toolchain.Dependency{
		Name:      dc.Name,
		Version:   dc.Version,
		SourceDir: o.cfg.Path(dc.Source),
		OutputDir: out,
		Defines:   dc.Defines,
	}
	for _, rel := range dc.Artifacts {
		dep.Artifacts = append(dep.Artifacts, artifact.File(out, rel))
	}
	// The runtime library is probed with the other artifacts of its dependency.
	if dc.Runtime != "" && !slices.Contains(dc.Artifacts, dc.Runtime) {
		dep.Artifacts = append(dep.Artifacts, artifact.File(out, dc.Runtime))
	}
	return dep, nil
}

func (o *Orchestrator) ensureSchemaDep(ctx context.Context, res *Result) error {
	return o.ensureDep(ctx, o.schemaDep, res)
}

func (o *Orchestrator) ensureMediaDep(ctx context.Context, res *Result) error {
	return o.ensureDep(ctx, o.mediaDep, res)
}

func (o *Orchestrator) linkSchemaDep(ctx context.Context, res *Result) error {
	return o.link(o.schemaDep, o.cfg.Dependencies.Schema.Link)
}

func (o *Orchestrator) linkMediaDep(ctx context.Context, res *Result) error {
	return o.link(o.mediaDep, o.cfg.Dependencies.Media.Link)
}

func (o *Orchestrator) ensureDep(ctx context.Context, dep toolchain.Dependency, res *Result) error {
	missing, err := o.opts.Probe.Missing(dep.Artifacts...)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		log.Debugf("%s is up to date", dep.Label())
		return nil
	}

	log.Debugf("%s: missing %v", dep.Label(), missing)
	if err := o.opts.Emitter.Warn("compiling " + dep.Name); err != nil {
		return err
	}
	if err := o.opts.Builder.Build(ctx, dep, toolchain.Release); err != nil {
		return err
	}
	res.Built = append(res.Built, dep.Name)
	return nil
}

func (o *Orchestrator) ensureBindings(ctx context.Context, res *Result) error {
	root, err := artifact.Canonical(o.cfg.Root)
	if err != nil {
		return err
	}
	sc := o.cfg.Schema
	for _, f := range sc.Files {
		if err := o.opts.Emitter.RerunIfChanged(filepath.Join(root, filepath.FromSlash(f))); err != nil {
			return err
		}
	}

	ok, err := o.opts.Probe.Exists(artifact.Dir(root, sc.Bindings))
	if err != nil {
		return err
	}
	if ok {
		log.Debugf("bindings in %s are up to date", sc.Bindings)
		return nil
	}

	if err := o.opts.Emitter.Warn("compiling schema files"); err != nil {
		return err
	}
	job := schema.Job{
		Compiler:   filepath.Join(o.schemaDep.OutputDir, filepath.FromSlash(o.cfg.Dependencies.Schema.Compiler)),
		Schemas:    sc.Files,
		WorkDir:    root,
		OutDir:     sc.Out,
		Lang:       sc.Lang,
		ProtoPaths: sc.ProtoPaths,
	}
	out, err := o.opts.Compiler.Compile(ctx, job)
	if err != nil {
		return err
	}
	res.SchemaCompiled = true
	return o.opts.Emitter.Warn(string(out))
}

func (o *Orchestrator) link(dep toolchain.Dependency, lc config.LinkConfig) error {
	dir, err := artifact.Canonical(filepath.Join(dep.OutputDir, filepath.FromSlash(lc.Dir)))
	if err != nil {
		return err
	}
	kind, err := link.ParseKind(lc.Kind)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrInvalidConfig, dep.Name, err)
	}
	return o.opts.Emitter.Emit(dir, lc.Name, kind)
}

func (o *Orchestrator) copyRuntime(ctx context.Context, res *Result) error {
	if o.opts.OutDir == "" {
		return &errs.EnvironmentError{Key: o.cfg.OutDirKey(), Reason: "is not set"}
	}
	outDir, err := artifact.Canonical(o.opts.OutDir)
	if err != nil {
		return err
	}
	rel := filepath.FromSlash(o.cfg.Dependencies.Media.Runtime)
	src := filepath.Join(o.mediaDep.OutputDir, rel)
	dst := filepath.Join(outDir, filepath.Base(rel))
	if err := copyFile(src, dst); err != nil {
		return err
	}
	log.Debugf("copied %s to %s", src, dst)
	res.Runtime = dst
	return nil
}

func (o *Orchestrator) assemble(ctx context.Context, res *Result) error {
	uc := o.cfg.Unit

	var sources []string
	for _, s := range uc.Sources {
		sources = append(sources, o.cfg.CratePath(s))
	}
	includes := o.includeDirs()

	var opts []unit.Option
	if uc.Cpp {
		opts = append(opts, unit.Cpp())
	}
	if uc.StaticCRT {
		opts = append(opts, unit.StaticCRT())
	}
	opts = append(opts, unit.Shared(uc.Shared))

	spec, err := unit.Assemble(sources, includes, uc.Defines, uc.Flags, uc.Name, opts...)
	if err != nil {
		return err
	}
	log.Infof("assembled %s: %d sources, %d include directories", spec.Output, len(spec.Sources), len(spec.Includes))
	res.Unit = spec
	return nil
}

// includeDirs returns the crate's own include directories, both
// dependencies' include roots and the bundled third-party roots.
func (o *Orchestrator) includeDirs() []string {
	var dirs []string
	for _, inc := range o.cfg.Unit.Includes {
		dirs = append(dirs, o.cfg.CratePath(inc))
	}
	for _, dc := range []config.DependencyConfig{o.cfg.Dependencies.Schema, o.cfg.Dependencies.Media} {
		if dc.Include != "" {
			dirs = append(dirs, o.cfg.Path(dc.Include))
		}
	}
	for _, inc := range o.cfg.Unit.ThirdParty {
		dirs = append(dirs, o.cfg.Path(inc))
	}
	return dirs
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &errs.FileSystemError{Op: "copy", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &errs.FileSystemError{Op: "copy", Path: src, Err: err}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &errs.FileSystemError{Op: "copy", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &errs.FileSystemError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &errs.FileSystemError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}
