package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/goplus/nativeprep/internal/errs"
	"github.com/goplus/nativeprep/internal/link"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the file looked up when no path is given.
const ConfigFileName = "nativeprep.yaml"

// LinkConfig says how a built dependency is linked.
type LinkConfig struct {
	Dir  string `yaml:"dir"` // search path, relative to the dependency output
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
}

// DependencyConfig describes an external dependency built with CMake.
// Source, Output and Include are relative to the workspace root; Artifacts,
// Compiler and Runtime are relative to Output.
type DependencyConfig struct {
	Name      string            `yaml:"name"`
	Version   string            `yaml:"version,omitempty"`
	Source    string            `yaml:"source"`
	Output    string            `yaml:"output"`
	Include   string            `yaml:"include"`
	Artifacts []string          `yaml:"artifacts"`
	Compiler  string            `yaml:"compiler,omitempty"`
	Runtime   string            `yaml:"runtime,omitempty"`
	Link      LinkConfig        `yaml:"link"`
	Defines   map[string]string `yaml:"defines,omitempty"`
}

type Dependencies struct {
	Schema DependencyConfig `yaml:"schema"` // provides the schema compiler
	Media  DependencyConfig `yaml:"media"`
}

// SchemaConfig describes binding generation. Paths are relative to the
// workspace root, which is also the compiler's working directory.
type SchemaConfig struct {
	Files      []string `yaml:"files"`
	Out        string   `yaml:"out"`
	Bindings   string   `yaml:"bindings"` // directory whose presence means bindings are generated
	Lang       string   `yaml:"lang,omitempty"`
	ProtoPaths []string `yaml:"proto_paths,omitempty"` // import roots; the workspace root if empty
}

// UnitConfig describes the application's compilation unit. Sources and
// Includes are relative to the crate directory, ThirdParty to the
// workspace root.
type UnitConfig struct {
	Name       string             `yaml:"name"`
	Crate      string             `yaml:"crate"`
	Sources    []string           `yaml:"sources"`
	Includes   []string           `yaml:"includes"`
	ThirdParty []string           `yaml:"third_party"`
	Defines    map[string]*string `yaml:"defines"`
	Flags      []string           `yaml:"flags"`
	Cpp        bool               `yaml:"cpp"`
	StaticCRT  bool               `yaml:"static_crt"`
	Shared     bool               `yaml:"shared"`
}

// Config is the workspace layout.
type Config struct {
	Root         string       `yaml:"root"`
	OutDirEnv    string       `yaml:"out_dir_env,omitempty"`
	CMake        string       `yaml:"cmake,omitempty"`
	Generator    string       `yaml:"generator,omitempty"`
	Dependencies Dependencies `yaml:"dependencies"`
	Schema       SchemaConfig `yaml:"schema"`
	Unit         UnitConfig   `yaml:"unit"`
}

// Load reads the config file at path. A relative root is resolved against
// the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err)
	}
	if err := cfg.Abs(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Abs makes Root absolute, resolving a relative root against base.
func (c *Config) Abs(base string) error {
	root := c.Root
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(base, filepath.FromSlash(root))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	c.Root = abs
	return nil
}

// Path joins rel onto the workspace root.
func (c *Config) Path(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// CratePath joins rel onto the crate directory.
func (c *Config) CratePath(rel string) string {
	return filepath.Join(c.Path(c.Unit.Crate), filepath.FromSlash(rel))
}

// OutDirKey returns the environment variable naming the host output directory.
func (c *Config) OutDirKey() string {
	if c.OutDirEnv == "" {
		return "OUT_DIR"
	}
	return c.OutDirEnv
}

// Validate checks that every required field is set.
func (c *Config) Validate() error {
	if err := c.Dependencies.Schema.validate("dependencies.schema"); err != nil {
		return err
	}
	if c.Dependencies.Schema.Compiler == "" {
		return invalid("dependencies.schema.compiler is required")
	}
	if err := c.Dependencies.Media.validate("dependencies.media"); err != nil {
		return err
	}
	if c.Dependencies.Media.Runtime == "" {
		return invalid("dependencies.media.runtime is required")
	}
	if c.Dependencies.Schema.Output == c.Dependencies.Media.Output {
		return invalid("dependencies must not share an output directory")
	}
	if len(c.Schema.Files) == 0 {
		return invalid("schema.files is empty")
	}
	if c.Schema.Bindings == "" {
		return invalid("schema.bindings is required")
	}
	if c.Unit.Name == "" {
		return invalid("unit.name is required")
	}
	if len(c.Unit.Sources) == 0 {
		return invalid("unit.sources is empty")
	}
	return nil
}

func (d *DependencyConfig) validate(field string) error {
	switch {
	case d.Name == "":
		return invalid(field + ".name is required")
	case d.Source == "":
		return invalid(field + ".source is required")
	case d.Output == "":
		return invalid(field + ".output is required")
	case d.Link.Name == "":
		return invalid(field + ".link.name is required")
	case len(d.Artifacts) == 0:
		return invalid(field + ".artifacts is empty")
	}
	if d.Version != "" && !semver.IsValid(d.Version) {
		return invalid(fmt.Sprintf("%s.version %q is not a semantic version", field, d.Version))
	}
	if _, err := link.ParseKind(d.Link.Kind); err != nil {
		return invalid(fmt.Sprintf("%s.link: %v", field, err))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidConfig, msg)
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
