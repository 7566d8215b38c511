package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"config", fmt.Errorf("load: %w", ErrInvalidConfig), ExitConfigError},
		{"filesystem", &FileSystemError{Op: "mkdir", Path: "/x", Err: fs.ErrPermission}, ExitFileSystem},
		{"subprocess", &SubprocessError{Command: []string{"cmake"}, ExitCode: 1}, ExitSubprocess},
		{"wrapped subprocess", fmt.Errorf("prepare: %w", &SubprocessError{ExitCode: 2}), ExitSubprocess},
		{"path", &PathResolutionError{Path: "/x", Err: fs.ErrNotExist}, ExitPathResolution},
		{"environment", &EnvironmentError{Key: "OUT_DIR", Reason: "is not set"}, ExitEnvironment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSubprocessErrorMessage(t *testing.T) {
	err := &SubprocessError{
		Dep:      "protobuf",
		Command:  []string{"cmake", "--build", "/b"},
		ExitCode: 2,
		Output:   []byte("  error: missing header\n"),
	}
	msg := err.Error()
	for _, want := range []string{"protobuf: ", "cmake --build /b", "exit status 2", "error: missing header"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	spawn := &SubprocessError{Command: []string{"protoc"}, ExitCode: -1, Err: errors.New("executable file not found")}
	if got := spawn.Error(); !strings.Contains(got, "executable file not found") {
		t.Errorf("spawn message = %q", got)
	}
	if !errors.Is(spawn, spawn.Err) {
		t.Error("SubprocessError does not unwrap to its cause")
	}
}

func TestUnwrap(t *testing.T) {
	err := error(&FileSystemError{Op: "copy", Path: "/out/SDL2.dll", Err: fs.ErrNotExist})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("FileSystemError does not unwrap")
	}
	err = &PathResolutionError{Path: "/nope", Err: fs.ErrNotExist}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("PathResolutionError does not unwrap")
	}
}
