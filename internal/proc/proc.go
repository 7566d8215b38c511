// Package proc runs external build tools and captures what they print.
package proc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/sys/execabs"

	"github.com/goplus/nativeprep/internal/errs"
)

// Cmd describes one invocation of an external tool.
type Cmd struct {
	Dep  string // dependency the invocation serves, for diagnostics
	Path string
	Args []string
	Dir  string // working directory of the child; empty means inherit
}

// Argv returns the full command line.
func (c Cmd) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Runner runs a command to completion and returns its combined output.
// Spawn failures and nonzero exits are reported as *errs.SubprocessError.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) ([]byte, error)
}

// Exec is the Runner backed by real processes.
type Exec struct {
	// Stream, if set, receives the child's output as it is produced in
	// addition to it being captured.
	Stream io.Writer
}

var _ Runner = (*Exec)(nil)

func (e *Exec) Run(ctx context.Context, c Cmd) ([]byte, error) {
	log.Debugf("exec %s (dir %q)", strings.Join(c.Argv(), " "), c.Dir)

	cmd := execabs.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	var out bytes.Buffer
	var w io.Writer = &out
	if e.Stream != nil {
		w = io.MultiWriter(&out, e.Stream)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out.Bytes(), &errs.SubprocessError{
			Dep:      c.Dep,
			Command:  c.Argv(),
			ExitCode: code,
			Output:   out.Bytes(),
			Err:      err,
		}
	}
	return out.Bytes(), nil
}
