package config

const (
	defaultStateDir  = "~/.local/share/sejmhl"
	defaultLogDir    = "~/.local/share/sejmhl/logs"
	defaultCacheDir  = "~/.cache/sejmhl/stages"
	defaultOutputDir = "~/sejmhl/output"

	defaultLanguage = "pl"

	defaultJudgeBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultJudgeModel          = "google/gemini-3-flash-preview"
	defaultJudgeTimeoutSeconds = 60

	defaultPrefilterTopN    = 80
	defaultBatchSize        = 10
	defaultJudgeConcurrency = 4

	defaultTargetTotalDuration = 1200.0
	defaultMinClipDuration     = 8.0
	defaultMaxClips            = 40
	defaultMergeGapSeconds     = 2.0
	defaultDurationTolerance   = 0.15
	defaultMinFillRatio        = 0.7

	defaultMinDurationForSplit  = 1500.0
	defaultPremiereCadenceHours = 24
	defaultMaxParts             = 4

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Language: defaultLanguage,
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir,
			OutputDir: defaultOutputDir,
		},
		Judge: Judge{
			BaseURL:        defaultJudgeBaseURL,
			Model:          defaultJudgeModel,
			TimeoutSeconds: defaultJudgeTimeoutSeconds,
		},
		Scoring: Scoring{
			PrefilterTopN:    defaultPrefilterTopN,
			BatchSize:        defaultBatchSize,
			JudgeConcurrency: defaultJudgeConcurrency,
			Weights: Weights{
				Semantic:      0.45,
				Acoustic:      0.2,
				Keyword:       0.15,
				SpeakerChange: 0.1,
				Diversity:     0.1,
			},
		},
		Selection: Selection{
			TargetTotalDuration: defaultTargetTotalDuration,
			MinClipDuration:     defaultMinClipDuration,
			MaxClips:            defaultMaxClips,
			MergeGapSeconds:     defaultMergeGapSeconds,
			DurationTolerance:   defaultDurationTolerance,
			MinFillRatio:        defaultMinFillRatio,
		},
		Packing: Packing{
			MinDurationForSplit:  defaultMinDurationForSplit,
			PremiereCadenceHours: defaultPremiereCadenceHours,
			MaxParts:             defaultMaxParts,
		},
		Cache: Cache{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
