// Package schema generates source bindings from schema definition files
// with a previously built schema compiler.
package schema

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/errs"
	"github.com/goplus/nativeprep/internal/proc"
)

// Job is a single schema compiler invocation.
//
// Relative Schemas, OutDir and ProtoPaths are resolved against WorkDir,
// which is also the working directory of the compiler process. The
// calling process never changes its own working directory.
type Job struct {
	Compiler   string
	Schemas    []string
	WorkDir    string
	OutDir     string
	Lang       string // generator name, "cpp" if empty
	ProtoPaths []string
}

// Compiler runs a protoc-compatible schema compiler.
type Compiler struct {
	Runner proc.Runner
}

// New returns a Compiler running commands through runner.
func New(runner proc.Runner) *Compiler {
	return &Compiler{Runner: runner}
}

// Compile generates bindings for job and returns what the compiler printed.
func (c *Compiler) Compile(ctx context.Context, job Job) ([]byte, error) {
	cmd, err := job.command()
	if err != nil {
		return nil, err
	}
	log.Infof("compiling %s", strings.Join(job.Schemas, ", "))
	return c.Runner.Run(ctx, cmd)
}

func (j Job) command() (proc.Cmd, error) {
	workDir, err := artifact.Canonical(j.WorkDir)
	if err != nil {
		return proc.Cmd{}, err
	}
	compiler, err := artifact.Canonical(j.Compiler)
	if err != nil {
		return proc.Cmd{}, err
	}

	protoPaths := j.ProtoPaths
	if len(protoPaths) == 0 {
		protoPaths = []string{"."}
	}
	var includes []string
	for _, p := range protoPaths {
		dir, err := artifact.Canonical(j.resolve(workDir, p))
		if err != nil {
			return proc.Cmd{}, err
		}
		includes = append(includes, "--proto_path="+dir)
	}
	var files []string
	for _, s := range j.Schemas {
		file, err := artifact.Canonical(j.resolve(workDir, s))
		if err != nil {
			return proc.Cmd{}, err
		}
		files = append(files, file)
	}

	// The output directory is only created once every input resolved.
	outDir := j.resolve(workDir, j.OutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return proc.Cmd{}, &errs.FileSystemError{Op: "mkdir", Path: outDir, Err: err}
	}
	if outDir, err = artifact.Canonical(outDir); err != nil {
		return proc.Cmd{}, err
	}

	lang := j.Lang
	if lang == "" {
		lang = "cpp"
	}
	args := append([]string{"--" + lang + "_out=" + outDir}, includes...)
	args = append(args, files...)
	return proc.Cmd{Dep: "schema", Path: compiler, Args: args, Dir: workDir}, nil
}

func (j Job) resolve(workDir, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workDir, p)
}
