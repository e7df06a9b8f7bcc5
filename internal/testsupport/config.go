package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Cache.Enabled = true

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLanguage sets the title and prompt language on the test config.
func WithLanguage(lang string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Language = lang
	}
}

// WithTarget overrides the selection target duration in seconds.
func WithTarget(seconds float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Selection.TargetTotalDuration = seconds
	}
}

// WithForceRecompute enables the cache force-recompute directive.
func WithForceRecompute() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.ForceRecompute = true
	}
}
