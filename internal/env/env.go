// Package env reads the values the host build system passes through the
// environment.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/errs"
)

// DotEnvFile is loaded by LoadDotEnv when no file is named.
const DotEnvFile = ".env"

// LoadDotEnv loads variables from the given dotenv files, or from .env when
// none is given. Missing files are skipped and variables already present in
// the environment are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DotEnvFile}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return &errs.FileSystemError{Op: "stat", Path: f, Err: err}
		}
		present = append(present, f)
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// OutDir returns the canonical host output directory named by the
// environment variable key. The variable is required and the directory
// must exist.
func OutDir(key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return "", &errs.EnvironmentError{Key: key, Reason: "is not set"}
	}
	if strings.TrimSpace(val) == "" {
		return "", &errs.EnvironmentError{Key: key, Reason: "is empty"}
	}
	return artifact.Canonical(val)
}
