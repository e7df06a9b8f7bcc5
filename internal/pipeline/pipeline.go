package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/fingerprint"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/packing"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runcoord"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runstore"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/scoring"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/selection"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/services"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/stagecache"
)

// Stage names used for timing records and log context.
const (
	stageScoring   = "scoring"
	stageSelection = "selection"
	stagePacking   = "packing"
)

// Outcome is everything one run produced.
type Outcome struct {
	RunID        string                 `json:"run_id"`
	InputPath    string                 `json:"input_path"`
	Selection    segment.Selection      `json:"selection"`
	Plan         packing.Plan           `json:"plan"`
	Parts        []packing.Part         `json:"parts"`
	Diagnostics  []segment.Diagnostic   `json:"diagnostics,omitempty"`
	OutputDir    string                 `json:"output_dir"`
	ScoringCache string                 `json:"scoring_cache"`
	StageTimings []runcoord.StageTiming `json:"stage_timings"`
}

// Pipeline wires the scoring, selection, and packing engines together under
// the run coordinator.
type Pipeline struct {
	cfg    *config.Config
	coord  *runcoord.Coordinator
	store  *runstore.Store
	judge  scoring.Judge
	logger *slog.Logger
}

// New builds a pipeline. store may be nil to skip run history; judge may be
// nil to score on local signals only.
func New(cfg *config.Config, coord *runcoord.Coordinator, store *runstore.Store, judge scoring.Judge, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		coord:  coord,
		store:  store,
		judge:  judge,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes one full compilation run on a segments file. It holds the
// coordinator's run slot for its entire duration and records the outcome in
// the run history store on every exit path.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (*Outcome, error) {
	identity, err := p.coord.Begin()
	if err != nil {
		return nil, err
	}

	ctx = services.WithRunID(ctx, identity.RunID)
	log := logging.WithContext(ctx, p.logger)

	outcome := &Outcome{RunID: identity.RunID, InputPath: inputPath}
	runErr := p.execute(ctx, log, inputPath, identity, outcome)
	outcome.StageTimings = p.coord.End(identity.RunID)

	p.recordHistory(ctx, log, identity, outcome, runErr)

	if runErr != nil {
		return nil, runErr
	}
	return outcome, nil
}

func (p *Pipeline) execute(ctx context.Context, log *slog.Logger, inputPath string, identity runcoord.RunIdentity, outcome *Outcome) error {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "ensure directories", "", err)
	}

	segments, err := LoadSegments(inputPath)
	if err != nil {
		return err
	}
	log.Info("segments loaded",
		logging.String(logging.FieldEventType, "input_loaded"),
		logging.Int("segment_count", len(segments)),
		logging.String("input_path", inputPath))

	result, err := p.scoreStage(ctx, identity, inputPath, segments, outcome)
	if err != nil {
		return err
	}
	outcome.Diagnostics = append(outcome.Diagnostics, result.Diagnostics...)

	sel := p.selectStage(ctx, identity, result.Segments)
	outcome.Selection = sel
	outcome.Diagnostics = append(outcome.Diagnostics, sel.Diagnostics...)

	plan, parts := p.packStage(identity, sel)
	outcome.Plan = plan
	outcome.Parts = parts

	return p.writeArtifacts(identity.RunID, outcome)
}

// scoreStage runs (or replays from cache) the composite scoring stage. The
// whole scored result is one cache payload keyed by the input and the
// scoring-relevant config fields.
func (p *Pipeline) scoreStage(ctx context.Context, identity runcoord.RunIdentity, inputPath string, segments []segment.Segment, outcome *Outcome) (scoring.Result, error) {
	ctx = services.WithStage(ctx, stageScoring)
	log := logging.WithContext(ctx, p.logger)
	started := time.Now()
	defer func() {
		p.coord.RecordStage(identity.RunID, stageScoring, time.Since(started))
	}()

	cache := p.openCache()
	var inputFp, configFp string
	if cache != nil {
		var err error
		inputFp, err = fingerprint.Input(inputPath)
		if err != nil {
			log.Warn("input fingerprint failed; scoring without cache", logging.Error(err))
			cache = nil
		} else if configFp, err = fingerprint.Config(p.cfg, fingerprint.StageScoring); err != nil {
			log.Warn("config fingerprint failed; scoring without cache", logging.Error(err))
			cache = nil
		}
	}

	if cache != nil {
		if payload, ok := cache.Get(inputFp, fingerprint.StageScoring, configFp); ok {
			var cached scoring.Result
			if err := json.Unmarshal(payload, &cached); err == nil && len(cached.Segments) == len(segments) {
				outcome.ScoringCache = "hit"
				log.Info("scoring replayed from cache",
					logging.String(logging.FieldEventType, "cache_hit"),
					logging.Int("segment_count", len(cached.Segments)))
				return cached, nil
			}
			log.Warn("cached scoring payload unusable; rescoring",
				logging.String(logging.FieldEventType, "cache_invalid"))
		}
		outcome.ScoringCache = "miss"
	} else {
		outcome.ScoringCache = "disabled"
	}

	engine := scoring.NewEngine(scoring.Options{
		PrefilterTopN: p.cfg.Scoring.PrefilterTopN,
		BatchSize:     p.cfg.Scoring.BatchSize,
		Concurrency:   p.cfg.Scoring.JudgeConcurrency,
		Weights:       p.cfg.Scoring.Weights,
	}, p.judge, p.logger)

	result, err := engine.Score(ctx, segments)
	if err != nil {
		return scoring.Result{}, err
	}

	if cache != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			err = cache.Put(inputFp, fingerprint.StageScoring, configFp, payload)
		}
		if err != nil {
			log.Warn("failed to cache scoring result", logging.Error(err))
		}
	}
	return result, nil
}

func (p *Pipeline) selectStage(ctx context.Context, identity runcoord.RunIdentity, scored []segment.Segment) segment.Selection {
	ctx = services.WithStage(ctx, stageSelection)
	started := time.Now()
	defer func() {
		p.coord.RecordStage(identity.RunID, stageSelection, time.Since(started))
	}()

	engine := selection.NewEngine(selection.Options{
		TargetDuration:  p.cfg.Selection.TargetTotalDuration,
		MinClipDuration: p.cfg.Selection.MinClipDuration,
		MinScore:        p.cfg.Selection.MinScore,
		MaxClips:        p.cfg.Selection.MaxClips,
		MergeGap:        p.cfg.Selection.MergeGapSeconds,
		Tolerance:       p.cfg.Selection.DurationTolerance,
		MinFillRatio:    p.cfg.Selection.MinFillRatio,
	}, p.logger)

	return engine.Select(ctx, scored)
}

func (p *Pipeline) packStage(identity runcoord.RunIdentity, sel segment.Selection) (packing.Plan, []packing.Part) {
	started := time.Now()
	defer func() {
		p.coord.RecordStage(identity.RunID, stagePacking, time.Since(started))
	}()

	packer := packing.NewPacker(packing.Options{
		TargetDuration:      p.cfg.Selection.TargetTotalDuration,
		MinDurationForSplit: p.cfg.Packing.MinDurationForSplit,
		Tolerance:           p.cfg.Selection.DurationTolerance,
		Cadence:             time.Duration(p.cfg.Packing.PremiereCadenceHours) * time.Hour,
		MaxParts:            p.cfg.Packing.MaxParts,
		Language:            p.cfg.Language,
	}, p.logger)

	plan := packer.Plan(sel.TotalDuration)
	return plan, packer.Pack(sel, plan)
}

func (p *Pipeline) openCache() *stagecache.Cache {
	if !p.cfg.Cache.Enabled || p.cfg.Paths.CacheDir == "" {
		return nil
	}
	return stagecache.New(p.cfg.Paths.CacheDir, p.cfg.Cache.ForceRecompute, p.logger)
}

// writeArtifacts publishes the run's metadata under a run-scoped directory so
// concurrent inspection of past runs never collides.
func (p *Pipeline) writeArtifacts(runID string, outcome *Outcome) error {
	dir := filepath.Join(p.cfg.Paths.OutputDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "create output dir", dir, err)
	}
	outcome.OutputDir = dir

	files := map[string]any{
		"selection.json": outcome.Selection,
		"parts.json":     outcome.Parts,
		"plan.json":      outcome.Plan,
	}
	for name, value := range files {
		if err := writeJSON(filepath.Join(dir, name), value); err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "write artifact", name, err)
		}
	}
	return nil
}

// writeJSON writes via a temp file and rename so readers never observe a
// partial document.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

func (p *Pipeline) recordHistory(ctx context.Context, log *slog.Logger, identity runcoord.RunIdentity, outcome *Outcome, runErr error) {
	if p.store == nil {
		return
	}

	run := runstore.Run{
		RunID:            identity.RunID,
		InputPath:        outcome.InputPath,
		StartedAt:        identity.StartedAt,
		FinishedAt:       time.Now().UTC(),
		Outcome:          runstore.OutcomeSucceeded,
		ClipCount:        outcome.Selection.Count,
		SelectedDuration: outcome.Selection.TotalDuration,
		MeanScore:        outcome.Selection.MeanScore,
		PartCount:        len(outcome.Parts),
		DiagnosticCount:  len(outcome.Diagnostics),
		StageTimings:     outcome.StageTimings,
	}
	if runErr != nil {
		run.Outcome = runstore.OutcomeFailed
		run.ErrorMessage = runErr.Error()
	}

	if err := p.store.Record(ctx, run); err != nil {
		log.Warn("failed to record run history", logging.Error(err))
	}
}
