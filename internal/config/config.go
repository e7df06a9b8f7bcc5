package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
	OutputDir string `toml:"output_dir"`
}

// Judge contains connection settings for the semantic judge API.
type Judge struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Weights controls how the composite segment score is assembled. The values
// are expected, but not required, to sum to 1.0.
type Weights struct {
	Semantic      float64 `toml:"semantic"`
	Acoustic      float64 `toml:"acoustic"`
	Keyword       float64 `toml:"keyword"`
	SpeakerChange float64 `toml:"speaker_change"`
	Diversity     float64 `toml:"diversity"`
}

// Scoring contains configuration for the segment scoring stage.
type Scoring struct {
	PrefilterTopN    int     `toml:"prefilter_top_n"`
	BatchSize        int     `toml:"batch_size"`
	JudgeConcurrency int     `toml:"judge_concurrency"`
	Weights          Weights `toml:"weights"`
}

// Selection contains configuration for the clip selection stage.
type Selection struct {
	// TargetTotalDuration is the desired compilation length in seconds.
	TargetTotalDuration float64 `toml:"target_total_duration"`
	MinClipDuration     float64 `toml:"min_clip_duration"`
	MaxClips            int     `toml:"max_clips"`
	// MinScore discards segments scoring below this cutoff before selection.
	MinScore float64 `toml:"min_score"`
	// MergeGapSeconds merges adjacent picks whose source gap is below this value.
	MergeGapSeconds float64 `toml:"merge_gap_seconds"`
	// DurationTolerance allows the selection to overshoot the target by this ratio.
	DurationTolerance float64 `toml:"duration_tolerance"`
	// MinFillRatio triggers one threshold-relaxation retry when the selected
	// duration lands below target*ratio.
	MinFillRatio float64 `toml:"min_fill_ratio"`
}

// Packing contains configuration for splitting a selection into released parts.
type Packing struct {
	// MinDurationForSplit is the selected duration (seconds) above which the
	// compilation is split into multiple parts.
	MinDurationForSplit  float64 `toml:"min_duration_for_split"`
	PremiereCadenceHours int     `toml:"premiere_cadence_hours"`
	MaxParts             int     `toml:"max_parts"`
}

// Cache contains configuration for the content-addressed stage cache.
type Cache struct {
	Enabled bool `toml:"enabled"`
	// ForceRecompute makes every Get report a miss while Put still writes, so a
	// later non-forced run benefits from the refreshed payloads.
	ForceRecompute bool `toml:"force_recompute"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the highlight pipeline core.
//
// Sections by subsystem:
//   - Paths: state, cache, log, and output directories
//   - Judge: semantic judge API connection
//   - Scoring: prefilter size, batch size, composite score weights
//   - Selection: target duration, clip constraints, merge and relaxation knobs
//   - Packing: split threshold, premiere cadence, part cap
//   - Cache: stage cache toggle and force-recompute directive
//   - Logging: log format and level
type Config struct {
	// Language selects title templates and the judge prompt language ("pl", "en").
	Language string `toml:"language"`

	Paths     Paths     `toml:"paths"`
	Judge     Judge     `toml:"judge"`
	Scoring   Scoring   `toml:"scoring"`
	Selection Selection `toml:"selection"`
	Packing   Packing   `toml:"packing"`
	Cache     Cache     `toml:"cache"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sejmhl/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sejmhl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Paths.CacheDir) != "" {
		if err := os.MkdirAll(c.Paths.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Paths.CacheDir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
