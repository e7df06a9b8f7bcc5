package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguage(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validatePacking(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLanguage() error {
	switch c.Language {
	case "pl", "en":
		return nil
	default:
		return fmt.Errorf("language must be \"pl\" or \"en\", got %q", c.Language)
	}
}

func (c *Config) validateScoring() error {
	w := c.Scoring.Weights
	for name, value := range map[string]float64{
		"scoring.weights.semantic":       w.Semantic,
		"scoring.weights.acoustic":       w.Acoustic,
		"scoring.weights.keyword":        w.Keyword,
		"scoring.weights.speaker_change": w.SpeakerChange,
		"scoring.weights.diversity":      w.Diversity,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if w.Semantic+w.Acoustic+w.Keyword+w.SpeakerChange+w.Diversity <= 0 {
		return errors.New("scoring.weights must not all be zero")
	}
	if c.Scoring.BatchSize > c.Scoring.PrefilterTopN {
		return errors.New("scoring.batch_size must not exceed scoring.prefilter_top_n")
	}
	return nil
}

func (c *Config) validateSelection() error {
	if c.Selection.MinClipDuration >= c.Selection.TargetTotalDuration {
		return errors.New("selection.min_clip_duration must be below selection.target_total_duration")
	}
	if c.Selection.DurationTolerance >= 1 {
		return errors.New("selection.duration_tolerance must be below 1")
	}
	return nil
}

func (c *Config) validatePacking() error {
	if c.Packing.MaxParts < 1 {
		return errors.New("packing.max_parts must be >= 1")
	}
	return nil
}
