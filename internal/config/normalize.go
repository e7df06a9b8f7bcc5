package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguage()
	c.normalizeJudge()
	c.normalizeScoring()
	c.normalizeSelection()
	c.normalizePacking()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguage() {
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = defaultLanguage
	}
}

func (c *Config) normalizeJudge() {
	c.Judge.BaseURL = strings.TrimSpace(c.Judge.BaseURL)
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = defaultJudgeBaseURL
	}
	c.Judge.Model = strings.TrimSpace(c.Judge.Model)
	if c.Judge.Model == "" {
		c.Judge.Model = defaultJudgeModel
	}
	if c.Judge.TimeoutSeconds <= 0 {
		c.Judge.TimeoutSeconds = defaultJudgeTimeoutSeconds
	}
	c.Judge.APIKey = strings.TrimSpace(c.Judge.APIKey)
	if c.Judge.APIKey == "" {
		if value, ok := os.LookupEnv("SEJMHL_JUDGE_API_KEY"); ok {
			c.Judge.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Judge.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeScoring() {
	if c.Scoring.PrefilterTopN <= 0 {
		c.Scoring.PrefilterTopN = defaultPrefilterTopN
	}
	if c.Scoring.BatchSize <= 0 {
		c.Scoring.BatchSize = defaultBatchSize
	}
	if c.Scoring.JudgeConcurrency <= 0 {
		c.Scoring.JudgeConcurrency = defaultJudgeConcurrency
	}
}

func (c *Config) normalizeSelection() {
	if c.Selection.TargetTotalDuration <= 0 {
		c.Selection.TargetTotalDuration = defaultTargetTotalDuration
	}
	if c.Selection.MinClipDuration <= 0 {
		c.Selection.MinClipDuration = defaultMinClipDuration
	}
	if c.Selection.MaxClips <= 0 {
		c.Selection.MaxClips = defaultMaxClips
	}
	if c.Selection.MinScore < 0 {
		c.Selection.MinScore = 0
	}
	if c.Selection.MergeGapSeconds < 0 {
		c.Selection.MergeGapSeconds = defaultMergeGapSeconds
	}
	if c.Selection.DurationTolerance <= 0 {
		c.Selection.DurationTolerance = defaultDurationTolerance
	}
	if c.Selection.MinFillRatio <= 0 || c.Selection.MinFillRatio > 1 {
		c.Selection.MinFillRatio = defaultMinFillRatio
	}
}

func (c *Config) normalizePacking() {
	if c.Packing.MinDurationForSplit <= 0 {
		c.Packing.MinDurationForSplit = defaultMinDurationForSplit
	}
	if c.Packing.PremiereCadenceHours <= 0 {
		c.Packing.PremiereCadenceHours = defaultPremiereCadenceHours
	}
	if c.Packing.MaxParts <= 0 {
		c.Packing.MaxParts = defaultMaxParts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
