package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/nativeprep/internal/artifact"
	"github.com/goplus/nativeprep/internal/config"
)

func TestProbeAllNothingBuilt(t *testing.T) {
	cfgFile, _ := setupWorkspace(t, false)
	cfg, err := config.Load(cfgFile)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := probeAll(artifact.Probe{}, cfg)
	if err != nil {
		t.Fatalf("probeAll: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no entries")
	}
	for _, e := range entries {
		if e.Present {
			t.Errorf("%s %s reported present", e.Owner, e.Artifact)
		}
	}
}

func TestProbeAllPartial(t *testing.T) {
	cfgFile, _ := setupWorkspace(t, true)
	cfg, err := config.Load(cfgFile)
	if err != nil {
		t.Fatal(err)
	}
	media := cfg.Dependencies.Media
	removed := media.Artifacts[0]
	if err := os.Remove(filepath.Join(cfg.Path(media.Output), filepath.FromSlash(removed))); err != nil {
		t.Fatal(err)
	}

	entries, err := probeAll(artifact.Probe{}, cfg)
	if err != nil {
		t.Fatalf("probeAll: %v", err)
	}
	var missing []string
	for _, e := range entries {
		if !e.Present {
			missing = append(missing, e.Owner+":"+e.Artifact.Rel)
		}
	}
	if want := []string{media.Name + ":" + removed}; strings.Join(missing, ",") != strings.Join(want, ",") {
		t.Errorf("missing = %v, want %v", missing, want)
	}
}

func TestProbeCommand(t *testing.T) {
	cfgFile, _ := setupWorkspace(t, true)

	stdout, err := execute(t, "probe", "-c", cfgFile)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	cfg := config.Default(runtime.GOOS)
	for _, rel := range []string{cfg.Dependencies.Schema.Compiler, cfg.Dependencies.Media.Runtime, cfg.Schema.Bindings} {
		if !strings.Contains(stdout, rel) {
			t.Errorf("report missing %s:\n%s", rel, stdout)
		}
	}
	if strings.Contains(stdout, "missing") {
		t.Errorf("everything is built:\n%s", stdout)
	}
}

func TestConfigCommand(t *testing.T) {
	cfgFile, _ := setupWorkspace(t, false)

	stdout, err := execute(t, "config", "-c", cfgFile)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"name: ere", "name: protobuf", "bindings: client/cpp/src/proto"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output missing %q:\n%s", want, stdout)
		}
	}
}
