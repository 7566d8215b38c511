// Package errs defines the error kinds produced while preparing native
// dependencies. Stages return these values unwrapped so callers can tell
// them apart with errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig indicates the layout configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// Exit codes returned by the command line tool.
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitConfigError    = 2
	ExitFileSystem     = 3
	ExitSubprocess     = 4
	ExitPathResolution = 5
	ExitEnvironment    = 6
)

// FileSystemError reports a failed directory creation, copy or stat.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// SubprocessError reports an external tool that could not be spawned or
// exited with a nonzero status. Output holds what the tool printed.
type SubprocessError struct {
	Dep      string
	Command  []string
	ExitCode int // -1 if the process never ran
	Output   []byte
	Err      error
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	if e.Dep != "" {
		fmt.Fprintf(&b, "%s: ", e.Dep)
	}
	fmt.Fprintf(&b, "%s", strings.Join(e.Command, " "))
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		fmt.Fprintf(&b, "\n%s", out)
	}
	return b.String()
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// PathResolutionError reports a path that could not be canonicalized,
// usually because it does not exist.
type PathResolutionError struct {
	Path string
	Err  error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Path, e.Err)
}

func (e *PathResolutionError) Unwrap() error { return e.Err }

// EnvironmentError reports a required configuration value that is absent
// or malformed.
type EnvironmentError struct {
	Key    string
	Reason string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment variable %s %s", e.Key, e.Reason)
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		fsErr   *FileSystemError
		subErr  *SubprocessError
		pathErr *PathResolutionError
		envErr  *EnvironmentError
	)
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.As(err, &subErr):
		return ExitSubprocess
	case errors.As(err, &pathErr):
		return ExitPathResolution
	case errors.As(err, &fsErr):
		return ExitFileSystem
	case errors.As(err, &envErr):
		return ExitEnvironment
	}
	return ExitGeneralError
}
