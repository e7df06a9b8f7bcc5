package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved == "" {
		t.Fatal("resolved path should be reported")
	}
	if cfg.Language != "pl" {
		t.Fatalf("Language = %q, want the pl default", cfg.Language)
	}
	if cfg.Selection.TargetTotalDuration != 1200 {
		t.Fatalf("TargetTotalDuration = %v, want 1200", cfg.Selection.TargetTotalDuration)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("cache should default to enabled")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
language = "EN"

[selection]
target_total_duration = 600.0
min_clip_duration = 10.0

[scoring]
prefilter_top_n = 20
batch_size = 5

[cache]
enabled = true
force_recompute = true

[logging]
format = "JSON"
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("file exists")
	}
	if cfg.Language != "en" {
		t.Fatalf("Language = %q, want normalized en", cfg.Language)
	}
	if cfg.Selection.TargetTotalDuration != 600 {
		t.Fatalf("TargetTotalDuration = %v", cfg.Selection.TargetTotalDuration)
	}
	if !cfg.Cache.ForceRecompute {
		t.Fatal("force_recompute not parsed")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("Format = %q, want json", cfg.Logging.Format)
	}
	// Unset sections keep their defaults.
	if cfg.Packing.MaxParts != 4 {
		t.Fatalf("MaxParts = %d, want default 4", cfg.Packing.MaxParts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{
			"bad language",
			"language = \"de\"\n",
			"language",
		},
		{
			"negative weight",
			"[scoring.weights]\nsemantic = -0.5\n",
			"weights",
		},
		{
			"batch above prefilter",
			"[scoring]\nprefilter_top_n = 5\nbatch_size = 10\n",
			"batch_size",
		},
		{
			"min clip above target",
			"[selection]\ntarget_total_duration = 30.0\nmin_clip_duration = 60.0\n",
			"min_clip_duration",
		},
		{
			"tolerance too large",
			"[selection]\nduration_tolerance = 1.5\n",
			"duration_tolerance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.toml)
			_, _, _, err := Load(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestJudgeAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("SEJMHL_JUDGE_API_KEY", "from-env")

	path := writeConfig(t, "language = \"pl\"\n")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Judge.APIKey != "from-env" {
		t.Fatalf("APIKey = %q, want the env fallback", cfg.Judge.APIKey)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	expanded, err := expandPath("~/sejmhl/output")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if expanded != filepath.Join(home, "sejmhl", "output") {
		t.Fatalf("expandPath = %q", expanded)
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.OutputDir = filepath.Join(base, "output")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.CacheDir, cfg.Paths.OutputDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}

func TestCreateSampleParsesBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("the shipped sample must load cleanly: exists=%v err=%v", exists, err)
	}
}
