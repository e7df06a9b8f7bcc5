package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
)

// Stage identifies a cacheable pipeline stage.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageVAD           Stage = "vad"
	StageScoring       Stage = "scoring"
)

type configField struct {
	name  string
	value func(cfg *config.Config) string
}

// stageAllowLists declares, per stage, exactly which configuration fields
// participate in that stage's fingerprint. A config field not listed here does
// not invalidate the stage's cache when edited; a new field defaults to
// "does not affect cache" until deliberately added.
var stageAllowLists = map[Stage][]configField{
	StageTranscription: {
		{"language", func(cfg *config.Config) string { return cfg.Language }},
	},
	StageVAD: {},
	StageScoring: {
		{"language", func(cfg *config.Config) string { return cfg.Language }},
		{"judge.model", func(cfg *config.Config) string { return cfg.Judge.Model }},
		{"scoring.prefilter_top_n", func(cfg *config.Config) string { return strconv.Itoa(cfg.Scoring.PrefilterTopN) }},
		{"scoring.weights.semantic", func(cfg *config.Config) string { return formatWeight(cfg.Scoring.Weights.Semantic) }},
		{"scoring.weights.acoustic", func(cfg *config.Config) string { return formatWeight(cfg.Scoring.Weights.Acoustic) }},
		{"scoring.weights.keyword", func(cfg *config.Config) string { return formatWeight(cfg.Scoring.Weights.Keyword) }},
		{"scoring.weights.speaker_change", func(cfg *config.Config) string { return formatWeight(cfg.Scoring.Weights.SpeakerChange) }},
		{"scoring.weights.diversity", func(cfg *config.Config) string { return formatWeight(cfg.Scoring.Weights.Diversity) }},
	},
}

// Config hashes the canonical serialization of the configuration fields
// declared relevant to the given stage. Fields outside the stage's allow-list
// never affect the result.
func Config(cfg *config.Config, stage Stage) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config fingerprint: nil config")
	}
	fields, ok := stageAllowLists[stage]
	if !ok {
		return "", fmt.Errorf("config fingerprint: unknown stage %q", stage)
	}

	h := sha256.New()
	_, _ = h.Write([]byte(string(stage)))
	_, _ = h.Write([]byte{0})
	for _, field := range fields {
		_, _ = h.Write([]byte(field.name))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(field.value(cfg)))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func formatWeight(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
