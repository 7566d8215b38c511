package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/nativeprep/internal/build"
	"github.com/goplus/nativeprep/internal/config"
	"github.com/goplus/nativeprep/internal/env"
	"github.com/goplus/nativeprep/internal/errs"
	"github.com/goplus/nativeprep/internal/link"
	"github.com/goplus/nativeprep/internal/proc"
	"github.com/goplus/nativeprep/internal/schema"
	"github.com/goplus/nativeprep/internal/toolchain"
	"github.com/goplus/nativeprep/internal/unit"
)

var (
	prepareFormat   string
	prepareUnitOut  string
	prepareEnvFiles []string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build missing dependencies and describe the compilation unit",
	Long: `Prepare builds every dependency whose artifacts are missing, generates
schema bindings when absent, prints link directives on stdout, copies the
runtime library into the host output directory and writes the compilation
unit description.

Running prepare again after a successful run invokes no external tool.`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareFormat, "format", "f", "yaml", "Compilation unit format: yaml or json")
	prepareCmd.Flags().StringVarP(&prepareUnitOut, "unit-out", "o", "", "Compilation unit destination, - for stdout (default <out dir>/compile_unit.<format>)")
	prepareCmd.Flags().StringArrayVar(&prepareEnvFiles, "env-file", nil, "Dotenv file to load (default "+env.DotEnvFile+")")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	write, err := unitWriter(prepareFormat)
	if err != nil {
		return err
	}
	if err := env.LoadDotEnv(prepareEnvFiles...); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	outDir, err := env.OutDir(cfg.OutDirKey())
	if err != nil {
		return err
	}

	orch := build.New(newOptions(cfg, outDir, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	res, err := orch.Run(context.Background())
	if err != nil {
		return err
	}

	dest := prepareUnitOut
	if dest == "" {
		dest = filepath.Join(outDir, "compile_unit."+strings.ToLower(prepareFormat))
	}
	if err := writeUnit(res.Unit, dest, write, cmd.OutOrStdout()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), color.Green.Sprint(summary(res, dest)))
	return nil
}

// newOptions wires the real toolchain for cfg. Directives go to stdout;
// build tool output is streamed to stderr only in verbose mode.
func newOptions(cfg *config.Config, outDir string, stdout, stderr io.Writer) build.Options {
	var stream io.Writer
	if verbose {
		stream = stderr
	}
	builder := toolchain.New(&proc.Exec{Stream: stream})
	builder.CMake = cfg.CMake
	builder.Generator = cfg.Generator

	return build.Options{
		Config:   cfg,
		OutDir:   outDir,
		Builder:  builder,
		Compiler: schema.New(&proc.Exec{Stream: stream}),
		Emitter:  link.NewEmitter(stdout),
		OnTransition: func(from, to build.State) {
			log.Debugf("%v -> %v", from, to)
		},
	}
}

func unitWriter(format string) (func(*unit.Spec, io.Writer) error, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return (*unit.Spec).WriteYAML, nil
	case "json":
		return (*unit.Spec).WriteJSON, nil
	}
	return nil, fmt.Errorf("%w: unknown unit format %q", errs.ErrInvalidConfig, format)
}

func writeUnit(spec *unit.Spec, dest string, write func(*unit.Spec, io.Writer) error, stdout io.Writer) error {
	if dest == "-" {
		return write(spec, stdout)
	}
	f, err := os.Create(dest)
	if err != nil {
		return &errs.FileSystemError{Op: "create", Path: dest, Err: err}
	}
	if err := write(spec, f); err != nil {
		f.Close()
		return &errs.FileSystemError{Op: "write", Path: dest, Err: err}
	}
	if err := f.Close(); err != nil {
		return &errs.FileSystemError{Op: "write", Path: dest, Err: err}
	}
	return nil
}

func summary(res *build.Result, dest string) string {
	var b strings.Builder
	if len(res.Built) == 0 {
		b.WriteString("dependencies up to date")
	} else {
		fmt.Fprintf(&b, "built %s", strings.Join(res.Built, ", "))
	}
	if res.SchemaCompiled {
		b.WriteString(", bindings generated")
	}
	if dest != "-" {
		fmt.Fprintf(&b, "; unit %s written to %s", res.Unit.Output, dest)
	}
	return b.String()
}
