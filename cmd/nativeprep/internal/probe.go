package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/config"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report which build artifacts are present",
	Long: `Probe checks the artifacts prepare relies on and reports each as present
or missing, without building anything. It exits non-zero when a probe
itself fails, not when artifacts are missing.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

// probeEntry is one line of the probe report.
type probeEntry struct {
	Owner    string
	Artifact artifact.Artifact
	Present  bool
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	entries, err := probeAll(artifact.Probe{}, cfg)
	if err != nil {
		return err
	}
	printProbe(cmd.OutOrStdout(), entries)
	return nil
}

// probeAll lists the dependency artifacts, runtime libraries and bindings
// of cfg. A dependency whose output directory does not exist yet has
// nothing built, so its artifacts are reported missing without probing.
func probeAll(p artifact.Probe, cfg *config.Config) ([]probeEntry, error) {
	var entries []probeEntry
	add := func(owner string, a artifact.Artifact) error {
		e := probeEntry{Owner: owner, Artifact: a}
		if info, err := os.Stat(a.Root); err == nil && info.IsDir() {
			ok, err := p.Exists(a)
			if err != nil {
				return err
			}
			e.Present = ok
		}
		entries = append(entries, e)
		return nil
	}

	for _, dc := range []config.DependencyConfig{cfg.Dependencies.Schema, cfg.Dependencies.Media} {
		out := cfg.Path(dc.Output)
		list := dc.Artifacts
		for _, extra := range []string{dc.Compiler, dc.Runtime} {
			if extra != "" && !slices.Contains(list, extra) {
				list = append(list[:len(list):len(list)], extra)
			}
		}
		for _, rel := range list {
			if err := add(dc.Name, artifact.File(out, rel)); err != nil {
				return nil, err
			}
		}
	}
	if err := add("schema", artifact.Dir(cfg.Root, cfg.Schema.Bindings)); err != nil {
		return nil, err
	}
	return entries, nil
}

func printProbe(w io.Writer, entries []probeEntry) {
	for _, e := range entries {
		status := color.Red.Sprint("missing")
		if e.Present {
			status = color.Green.Sprint("present")
		}
		fmt.Fprintf(w, "%-10s %-8s %s\n", e.Owner, status, filepath.ToSlash(e.Artifact.Rel))
	}
}
