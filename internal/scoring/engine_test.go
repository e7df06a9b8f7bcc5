package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/testsupport"
)

func defaultWeights() config.Weights {
	return config.Weights{Semantic: 0.45, Acoustic: 0.2, Keyword: 0.15, SpeakerChange: 0.1, Diversity: 0.1}
}

func TestScoreAssignsSemanticScoresViaJudge(t *testing.T) {
	judge := &testsupport.StubJudge{Score: 0.9}
	engine := NewEngine(Options{
		PrefilterTopN: 10,
		BatchSize:     2,
		Concurrency:   2,
		Weights:       defaultWeights(),
	}, judge, logging.NewNop())

	segments := testsupport.Segments(6, 20)
	result, err := engine.Score(context.Background(), segments)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if len(result.Segments) != 6 {
		t.Fatalf("expected all segments back, got %d", len(result.Segments))
	}
	for _, seg := range result.Segments {
		if seg.SemanticScore == nil {
			t.Fatalf("segment %s missing semantic score", seg.ID)
		}
		if *seg.SemanticScore != 0.9 {
			t.Fatalf("segment %s semantic score = %v, want 0.9", seg.ID, *seg.SemanticScore)
		}
		if seg.FinalScore < 0 || seg.FinalScore > 1 {
			t.Fatalf("segment %s final score %v out of range", seg.ID, seg.FinalScore)
		}
	}
	if judge.Calls() != 3 {
		t.Fatalf("expected 3 batches of 2, judge saw %d", judge.Calls())
	}
}

func TestScorePrefilterBoundsJudgeVolume(t *testing.T) {
	judge := &testsupport.StubJudge{Score: 0.5}
	engine := NewEngine(Options{
		PrefilterTopN: 4,
		BatchSize:     4,
		Weights:       defaultWeights(),
	}, judge, logging.NewNop())

	result, err := engine.Score(context.Background(), testsupport.Segments(12, 20))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	var judged int
	for _, seg := range result.Segments {
		if seg.SemanticScore != nil {
			judged++
		}
	}
	if judged != 4 {
		t.Fatalf("expected exactly 4 judged segments, got %d", judged)
	}
	if judge.Calls() != 1 {
		t.Fatalf("expected one batch, judge saw %d", judge.Calls())
	}

	if !hasDiagnostic(result.Diagnostics, segment.DiagnosticPrefilterTruncated) {
		t.Fatal("expected a prefilter_truncated diagnostic")
	}
}

func TestScoreDegradesToLocalSignalsOnJudgeFailure(t *testing.T) {
	judge := &testsupport.StubJudge{Err: errors.New("upstream 503")}
	engine := NewEngine(Options{
		PrefilterTopN: 10,
		BatchSize:     5,
		Weights:       defaultWeights(),
	}, judge, logging.NewNop())

	segments := testsupport.Segments(5, 20)
	result, err := engine.Score(context.Background(), segments)
	if err != nil {
		t.Fatalf("judge failures must degrade, not fail: %v", err)
	}

	if !hasDiagnostic(result.Diagnostics, segment.DiagnosticJudgeBatchFailed) {
		t.Fatal("expected a judge_batch_failed diagnostic")
	}
	for _, seg := range result.Segments {
		if seg.SemanticScore != nil {
			t.Fatalf("segment %s should be unjudged", seg.ID)
		}
		if seg.FinalScore <= 0 {
			t.Fatalf("segment %s must still score on local signals, got %v", seg.ID, seg.FinalScore)
		}
	}
}

func TestScoreWithoutJudge(t *testing.T) {
	engine := NewEngine(Options{Weights: defaultWeights()}, nil, logging.NewNop())

	result, err := engine.Score(context.Background(), testsupport.Segments(3, 20))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !hasDiagnostic(result.Diagnostics, segment.DiagnosticJudgeBatchFailed) {
		t.Fatal("expected a diagnostic noting the judge is unavailable")
	}
	for _, seg := range result.Segments {
		if seg.SemanticScore != nil {
			t.Fatalf("segment %s should have no semantic score", seg.ID)
		}
	}
}

func TestScoreUnjudgedSegmentsStayComparable(t *testing.T) {
	// One strong segment outside the judged set must not be buried by the
	// missing semantic term.
	judge := &testsupport.StubJudge{Score: 0.1}
	engine := NewEngine(Options{
		PrefilterTopN: 1,
		BatchSize:     1,
		Weights:       defaultWeights(),
	}, judge, logging.NewNop())

	segments := []segment.Segment{
		{ID: "judged", T0: 0, T1: 20, Features: segment.Features{Acoustic: 0.9, Keyword: 0.9, SpeakerChange: 0.9}},
		{ID: "local", T0: 100, T1: 120, Features: segment.Features{Acoustic: 0.8, Keyword: 0.8, SpeakerChange: 0.8}},
	}
	result, err := engine.Score(context.Background(), segments)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	var local segment.Segment
	for _, seg := range result.Segments {
		if seg.ID == "local" {
			local = seg
		}
	}
	if local.FinalScore < 0.5 {
		t.Fatalf("unjudged segment scored %v; weighted mean over available signals should keep it competitive", local.FinalScore)
	}
}

func TestScoreResultSortedByStart(t *testing.T) {
	engine := NewEngine(Options{Weights: defaultWeights()}, nil, logging.NewNop())

	segments := []segment.Segment{
		{ID: "c", T0: 200, T1: 220},
		{ID: "a", T0: 0, T1: 20},
		{ID: "b", T0: 100, T1: 120},
	}
	result, err := engine.Score(context.Background(), segments)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 1; i < len(result.Segments); i++ {
		if result.Segments[i].T0 < result.Segments[i-1].T0 {
			t.Fatal("scored segments must be sorted by start time")
		}
	}
}

func hasDiagnostic(diags []segment.Diagnostic, kind segment.DiagnosticType) bool {
	for _, diag := range diags {
		if diag.Type == kind {
			return true
		}
	}
	return false
}
