package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
)

// Judge is the external semantic judgment capability: one batch of transcript
// excerpts in, one interestingness score in [0,1] per excerpt out.
type Judge interface {
	ScoreBatch(ctx context.Context, texts []string) ([]float64, error)
}

// Options controls prefiltering, batching, and the composite score weights.
type Options struct {
	PrefilterTopN int
	BatchSize     int
	Concurrency   int
	Weights       config.Weights
}

// Result carries the enriched segments plus any degradations recorded while
// scoring. Segments are returned sorted by start time.
type Result struct {
	Segments    []segment.Segment    `json:"segments"`
	Diagnostics []segment.Diagnostic `json:"diagnostics,omitempty"`
}

// Engine assigns each segment a composite interestingness score.
type Engine struct {
	opts   Options
	judge  Judge
	logger *slog.Logger
}

// NewEngine builds a scoring engine. judge may be nil, in which case every
// segment scores on local signals only.
func NewEngine(opts Options, judge Judge, logger *slog.Logger) *Engine {
	if opts.PrefilterTopN <= 0 {
		opts.PrefilterTopN = 80
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{
		opts:   opts,
		judge:  judge,
		logger: logging.NewComponentLogger(logger, "scoring"),
	}
}

// Score enriches the segments with semantic and composite scores. Judge
// failures degrade the affected segments to local-signal-only scoring and are
// reported as diagnostics, never as errors.
func (e *Engine) Score(ctx context.Context, segments []segment.Segment) (Result, error) {
	log := logging.WithContext(ctx, e.logger)

	scored := make([]segment.Segment, len(segments))
	copy(scored, segments)

	var diagnostics []segment.Diagnostic

	judged := e.prefilter(scored)
	if len(judged) < len(scored) {
		diagnostics = append(diagnostics, segment.Diagnostic{
			Type: segment.DiagnosticPrefilterTruncated,
			Message: fmt.Sprintf("%d of %d segments sent to judge; the rest score on local signals only",
				len(judged), len(scored)),
		})
	}

	if e.judge == nil {
		if len(judged) > 0 {
			diagnostics = append(diagnostics, segment.Diagnostic{
				Type:    segment.DiagnosticJudgeBatchFailed,
				Message: "semantic judge not configured; all segments score on local signals only",
			})
			log.Warn("semantic judge not configured",
				logging.String(logging.FieldEventType, "judge_unavailable"),
				logging.String(logging.FieldImpact, "composite scores use local signals only"))
		}
	} else {
		diagnostics = append(diagnostics, e.judgeBatches(ctx, log, scored, judged)...)
	}

	e.composite(scored)
	segment.SortByStart(scored)

	log.Info("scoring complete",
		logging.String(logging.FieldEventType, "scoring_complete"),
		logging.Int("segment_count", len(scored)),
		logging.Int("judged_count", len(judged)),
		logging.Int("degradations", len(diagnostics)))

	return Result{Segments: scored, Diagnostics: diagnostics}, nil
}

// prefilter ranks segments by local signal and returns the indices of the top
// N, bounding judge call volume on long sessions.
func (e *Engine) prefilter(segments []segment.Segment) []int {
	indices := make([]int, len(segments))
	for i := range segments {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		sa := e.localSignal(segments[indices[a]])
		sb := e.localSignal(segments[indices[b]])
		if sa != sb {
			return sa > sb
		}
		return segments[indices[a]].T0 < segments[indices[b]].T0
	})
	if len(indices) > e.opts.PrefilterTopN {
		indices = indices[:e.opts.PrefilterTopN]
	}
	return indices
}

// judgeBatches fans the surviving segments out to the judge in fixed-size
// batches and joins all results before compositing proceeds. A failed batch
// leaves its segments unjudged and yields a diagnostic.
func (e *Engine) judgeBatches(ctx context.Context, log *slog.Logger, segments []segment.Segment, judged []int) []segment.Diagnostic {
	batches := chunk(judged, e.opts.BatchSize)

	scores := make([][]float64, len(batches))
	errs := make([]error, len(batches))

	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = segments[idx].Text
			}
			scores[i], errs[i] = e.judge.ScoreBatch(ctx, texts)
		}(i, batch)
	}
	wg.Wait()

	var diagnostics []segment.Diagnostic
	for i, batch := range batches {
		if errs[i] != nil {
			diagnostics = append(diagnostics, segment.Diagnostic{
				Type:    segment.DiagnosticJudgeBatchFailed,
				Message: fmt.Sprintf("batch %d/%d (%d segments): %v", i+1, len(batches), len(batch), errs[i]),
			})
			log.Warn("judge batch failed",
				logging.String(logging.FieldEventType, "judge_batch_failed"),
				logging.Int("batch", i+1),
				logging.Int("batch_count", len(batches)),
				logging.String(logging.FieldImpact, "affected segments score on local signals only"),
				logging.Error(errs[i]))
			continue
		}
		if len(scores[i]) != len(batch) {
			diagnostics = append(diagnostics, segment.Diagnostic{
				Type:    segment.DiagnosticJudgeBatchFailed,
				Message: fmt.Sprintf("batch %d/%d: expected %d scores, got %d", i+1, len(batches), len(batch), len(scores[i])),
			})
			continue
		}
		for j, idx := range batch {
			value := clamp01(scores[i][j])
			segments[idx].SemanticScore = &value
		}
	}
	return diagnostics
}

// composite assigns each segment its final score: the weighted mean of the
// available signals, so unjudged segments stay comparable on the same [0,1]
// scale instead of being penalized for a missing semantic term.
func (e *Engine) composite(segments []segment.Segment) {
	w := e.opts.Weights
	diversity := diversityBonuses(segments)
	for i := range segments {
		seg := &segments[i]
		sum := w.Acoustic*seg.Features.Acoustic +
			w.Keyword*seg.Features.Keyword +
			w.SpeakerChange*seg.Features.SpeakerChange +
			w.Diversity*diversity[i]
		total := w.Acoustic + w.Keyword + w.SpeakerChange + w.Diversity
		if seg.SemanticScore != nil {
			sum += w.Semantic * *seg.SemanticScore
			total += w.Semantic
		}
		if total <= 0 {
			seg.FinalScore = 0
			continue
		}
		seg.FinalScore = clamp01(sum / total)
	}
}

// localSignal is the pre-semantic ranking signal used by the prefilter.
func (e *Engine) localSignal(seg segment.Segment) float64 {
	w := e.opts.Weights
	total := w.Acoustic + w.Keyword + w.SpeakerChange
	if total <= 0 {
		return 0
	}
	sum := w.Acoustic*seg.Features.Acoustic +
		w.Keyword*seg.Features.Keyword +
		w.SpeakerChange*seg.Features.SpeakerChange
	return sum / total
}

const diversityBuckets = 10

// diversityBonuses rewards segments in sparsely-represented regions of the
// timeline so the selection does not cluster around one exchange.
func diversityBonuses(segments []segment.Segment) []float64 {
	bonuses := make([]float64, len(segments))
	if len(segments) == 0 {
		return bonuses
	}

	minT0, maxT0 := segments[0].T0, segments[0].T0
	for _, seg := range segments[1:] {
		if seg.T0 < minT0 {
			minT0 = seg.T0
		}
		if seg.T0 > maxT0 {
			maxT0 = seg.T0
		}
	}
	span := maxT0 - minT0
	if span <= 0 {
		for i := range bonuses {
			bonuses[i] = 1
		}
		return bonuses
	}

	counts := make([]int, diversityBuckets)
	bucketOf := func(t0 float64) int {
		b := int(float64(diversityBuckets) * (t0 - minT0) / span)
		if b >= diversityBuckets {
			b = diversityBuckets - 1
		}
		return b
	}
	for _, seg := range segments {
		counts[bucketOf(seg.T0)]++
	}
	for i, seg := range segments {
		bonuses[i] = 1 / float64(counts[bucketOf(seg.T0)])
	}
	return bonuses
}

func chunk(indices []int, size int) [][]int {
	var out [][]int
	for len(indices) > 0 {
		n := size
		if n > len(indices) {
			n = len(indices)
		}
		out = append(out, indices[:n])
		indices = indices[n:]
	}
	return out
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
