package selection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
)

// Options controls the greedy clip selection.
type Options struct {
	// TargetDuration is the desired compilation length in seconds.
	TargetDuration float64
	// MinClipDuration discards shorter segments before selection.
	MinClipDuration float64
	// MinScore discards segments scoring below this cutoff (0 disables).
	MinScore float64
	// MaxClips caps the number of accepted segments.
	MaxClips int
	// MergeGap merges adjacent picks whose source gap is below this value.
	MergeGap float64
	// Tolerance allows the selection to overshoot the target by this ratio.
	Tolerance float64
	// MinFillRatio triggers one threshold-relaxation retry when the selected
	// duration lands below TargetDuration*MinFillRatio.
	MinFillRatio float64
}

// Engine picks a duration- and count-constrained subset of scored segments.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine builds a selection engine with sane fallbacks for zero options.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.15
	}
	if opts.MaxClips <= 0 {
		opts.MaxClips = 40
	}
	if opts.MinFillRatio <= 0 || opts.MinFillRatio > 1 {
		opts.MinFillRatio = 0.7
	}
	return &Engine{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "selection"),
	}
}

// Select picks a non-overlapping, score-maximizing subset of the scored
// segments. An empty Selection is a valid outcome; degraded conditions are
// reported through the Selection's diagnostics, never as errors.
func (e *Engine) Select(ctx context.Context, scored []segment.Segment) segment.Selection {
	log := logging.WithContext(ctx, e.logger)

	var diagnostics []segment.Diagnostic

	clips := e.pick(scored, e.opts.MinClipDuration, e.opts.MinScore)
	total := totalDuration(clips)

	// One bounded relaxation retry when too little content survives the
	// thresholds; halve the duration floor and drop the score cutoff.
	if total < e.opts.TargetDuration*e.opts.MinFillRatio {
		relaxedMinDuration := e.opts.MinClipDuration / 2
		relaxed := e.pick(scored, relaxedMinDuration, 0)
		if relaxedTotal := totalDuration(relaxed); relaxedTotal > total {
			diagnostics = append(diagnostics, segment.Diagnostic{
				Type: segment.DiagnosticThresholdsRelaxed,
				Message: fmt.Sprintf("selection reached %.0fs of %.0fs target; retried with min_clip_duration %.1fs and no score cutoff",
					total, e.opts.TargetDuration, relaxedMinDuration),
			})
			log.Warn("selection thresholds relaxed",
				logging.String(logging.FieldEventType, "thresholds_relaxed"),
				logging.Float64("initial_duration", total),
				logging.Float64("target_duration", e.opts.TargetDuration),
				logging.String(logging.FieldImpact, "shorter or lower-scoring clips admitted"))
			clips = relaxed
			total = relaxedTotal
		}
	}

	if total < e.opts.TargetDuration*e.opts.MinFillRatio {
		diagnostics = append(diagnostics, segment.Diagnostic{
			Type: segment.DiagnosticBelowTarget,
			Message: fmt.Sprintf("selected %.0fs of %.0fs target; not enough qualifying segments",
				total, e.opts.TargetDuration),
		})
	}
	if len(clips) == 0 {
		diagnostics = append(diagnostics, segment.Diagnostic{
			Type:    segment.DiagnosticEmptySelection,
			Message: "no segments qualified for selection",
		})
	}

	result := segment.NewSelection(clips, diagnostics)

	log.Info("selection complete",
		logging.String(logging.FieldEventType, "selection_complete"),
		logging.Int("clip_count", result.Count),
		logging.Float64("total_duration", result.TotalDuration),
		logging.Float64("mean_score", result.MeanScore),
		logging.Float64("target_duration", e.opts.TargetDuration))

	return result
}

// pick runs the greedy accept loop and the gap-merge pass for one set of
// thresholds.
func (e *Engine) pick(scored []segment.Segment, minClipDuration, minScore float64) []segment.Segment {
	candidates := make([]segment.Segment, 0, len(scored))
	for _, seg := range scored {
		if seg.Duration() < minClipDuration {
			continue
		}
		if minScore > 0 && seg.FinalScore < minScore {
			continue
		}
		candidates = append(candidates, seg)
	}
	segment.SortByFinalScore(candidates)

	budget := e.opts.TargetDuration * (1 + e.opts.Tolerance)
	var accepted []segment.Segment
	var total float64
	for _, candidate := range candidates {
		if len(accepted) >= e.opts.MaxClips {
			break
		}
		if total >= e.opts.TargetDuration {
			break
		}
		if total+candidate.Duration() > budget {
			continue
		}
		if overlapsAny(candidate, accepted) {
			continue
		}
		accepted = append(accepted, candidate)
		total += candidate.Duration()
	}

	return e.mergeAdjacent(accepted, budget)
}

// mergeAdjacent joins accepted clips whose source gap is below MergeGap into
// one contiguous clip. Merged duration is the source span, not the sum, so
// every merge charges its gap against the duration budget; a merge that would
// push the total past the budget is skipped.
func (e *Engine) mergeAdjacent(clips []segment.Segment, budget float64) []segment.Segment {
	if len(clips) < 2 {
		return clips
	}
	segment.SortByStart(clips)

	total := totalDuration(clips)
	merged := make([]segment.Segment, 0, len(clips))
	current := clips[0]
	for _, next := range clips[1:] {
		gap := next.T0 - current.T1
		if gap <= e.opts.MergeGap && total+gap <= budget {
			current = mergePair(current, next)
			total += gap
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

func mergePair(a, b segment.Segment) segment.Segment {
	da, db := a.Duration(), b.Duration()
	score := a.FinalScore
	if da+db > 0 {
		score = (a.FinalScore*da + b.FinalScore*db) / (da + db)
	}
	merged := a
	merged.T1 = b.T1
	merged.FinalScore = score
	if a.Text != "" && b.Text != "" {
		merged.Text = a.Text + " " + b.Text
	} else if b.Text != "" {
		merged.Text = b.Text
	}
	merged.SemanticScore = nil
	return merged
}

func overlapsAny(candidate segment.Segment, accepted []segment.Segment) bool {
	for _, existing := range accepted {
		if candidate.Overlaps(existing) {
			return true
		}
	}
	return false
}

func totalDuration(clips []segment.Segment) float64 {
	var total float64
	for _, clip := range clips {
		total += clip.Duration()
	}
	return total
}
