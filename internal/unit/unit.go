// Package unit assembles the native compilation request handed to the host
// build system.
package unit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/errs"
)

// Define is a preprocessor definition. A nil Value defines the bare name.
type Define struct {
	Name  string  `yaml:"name" json:"name"`
	Value *string `yaml:"value,omitempty" json:"value,omitempty"`
}

func (d Define) String() string {
	if d.Value == nil {
		return d.Name
	}
	return d.Name + "=" + *d.Value
}

// Spec is a complete compilation request. Field order is the encoding order.
type Spec struct {
	Output    string   `yaml:"output" json:"output"`
	Sources   []string `yaml:"sources" json:"sources"`
	Includes  []string `yaml:"includes" json:"includes"`
	Defines   []Define `yaml:"defines" json:"defines"`
	Flags     []string `yaml:"flags" json:"flags"`
	Cpp       bool     `yaml:"cpp" json:"cpp"`
	StaticCRT bool     `yaml:"static_crt" json:"static_crt"`
	Shared    bool     `yaml:"shared" json:"shared"`
}

// Option adjusts how the unit is compiled.
type Option func(*Spec)

// Cpp compiles the sources as C++.
func Cpp() Option { return func(s *Spec) { s.Cpp = true } }

// StaticCRT links the C runtime statically.
func StaticCRT() Option { return func(s *Spec) { s.StaticCRT = true } }

// Shared selects a shared rather than a static output.
func Shared(v bool) Option { return func(s *Spec) { s.Shared = v } }

// Assemble validates its inputs and returns the compilation request.
//
// Every source must be an existing regular file and every include an
// existing directory. Paths are canonicalized; duplicate includes and flags
// are dropped keeping the first occurrence, and defines are sorted by name.
// The returned Spec shares no memory with the arguments.
func Assemble(sources, includes []string, defines map[string]*string, flags []string, output string, opts ...Option) (*Spec, error) {
	if output == "" {
		return nil, fmt.Errorf("unit: empty output name")
	}
	s := &Spec{Output: output}

	for _, src := range sources {
		path, err := existing(src, false)
		if err != nil {
			return nil, err
		}
		s.Sources = append(s.Sources, path)
	}

	seen := make(map[string]bool)
	for _, inc := range includes {
		path, err := existing(inc, true)
		if err != nil {
			return nil, err
		}
		if !seen[path] {
			seen[path] = true
			s.Includes = append(s.Includes, path)
		}
	}

	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := Define{Name: name}
		if v := defines[name]; v != nil {
			val := *v
			d.Value = &val
		}
		s.Defines = append(s.Defines, d)
	}

	seenFlag := make(map[string]bool)
	for _, f := range flags {
		if !seenFlag[f] {
			seenFlag[f] = true
			s.Flags = append(s.Flags, f)
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func existing(path string, dir bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &errs.FileSystemError{Op: "stat", Path: path, Err: err}
	}
	if dir && !info.IsDir() {
		return "", &errs.FileSystemError{Op: "stat", Path: path, Err: fmt.Errorf("not a directory")}
	}
	if !dir && !info.Mode().IsRegular() {
		return "", &errs.FileSystemError{Op: "stat", Path: path, Err: fmt.Errorf("not a regular file")}
	}
	return artifact.Canonical(path)
}

// WriteYAML encodes s as YAML.
func (s *Spec) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON encodes s as indented JSON.
func (s *Spec) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
