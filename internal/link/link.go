// Package link writes link directives for the host build system.
//
// Directives are line oriented and use cargo's build script syntax:
//
//	cargo:rustc-link-search=native=<dir>
//	cargo:rustc-link-lib=<kind>=<name>
package link

import (
	"fmt"
	"io"
	"strings"
)

// Kind selects how a library is linked.
type Kind string

const (
	Static Kind = "static"
	Dylib  Kind = "dylib"
)

// ParseKind parses a link kind. "dynamic" is accepted as an alias of dylib.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "static":
		return Static, nil
	case "dylib", "dynamic":
		return Dylib, nil
	}
	return "", fmt.Errorf("unknown link kind %q", s)
}

// Directive tells the host where to find a library and how to link it.
type Directive struct {
	SearchPath string
	Library    string
	Kind       Kind
}

func (d Directive) String() string {
	return fmt.Sprintf("cargo:rustc-link-search=native=%s\ncargo:rustc-link-lib=%s=%s\n", d.SearchPath, d.Kind, d.Library)
}

// Emitter writes directives to the host's directive channel.
type Emitter struct {
	w       io.Writer
	emitted []Directive
}

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes the search-path and link directives for library in dir.
func (e *Emitter) Emit(dir, library string, kind Kind) error {
	d := Directive{SearchPath: dir, Library: library, Kind: kind}
	if _, err := io.WriteString(e.w, d.String()); err != nil {
		return err
	}
	e.emitted = append(e.emitted, d)
	return nil
}

// Warn forwards msg to the host as warnings, one directive per line.
// Blank lines are dropped.
func (e *Emitter) Warn(msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := fmt.Fprintf(e.w, "cargo:warning=%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// RerunIfChanged asks the host to run the preparation again when path
// changes.
func (e *Emitter) RerunIfChanged(path string) error {
	_, err := fmt.Fprintf(e.w, "cargo:rerun-if-changed=%s\n", path)
	return err
}

// Emitted returns the link directives written so far.
func (e *Emitter) Emitted() []Directive {
	return append([]Directive(nil), e.emitted...)
}
