package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
)

// Clip builds a segment spanning [t0, t1) with the given final score and a
// filler transcript.
func Clip(id string, t0, t1, score float64) segment.Segment {
	return segment.Segment{
		ID:         id,
		T0:         t0,
		T1:         t1,
		Text:       fmt.Sprintf("wypowiedź %s w sprawie budżetu", id),
		FinalScore: score,
	}
}

// Segments builds count back-to-back candidates of equal duration with
// monotonically decreasing scores, starting at score 1.0.
func Segments(count int, duration float64) []segment.Segment {
	out := make([]segment.Segment, 0, count)
	for i := 0; i < count; i++ {
		t0 := float64(i) * (duration + 5)
		seg := Clip(fmt.Sprintf("seg-%03d", i), t0, t0+duration, 1-float64(i)/float64(count+1))
		seg.Features = segment.Features{
			Acoustic:      seg.FinalScore,
			Keyword:       seg.FinalScore,
			SpeakerChange: seg.FinalScore,
		}
		out = append(out, seg)
	}
	return out
}

// WriteSegmentsFile serializes segments to a JSON file under the test's temp
// directory and returns its path.
func WriteSegmentsFile(t testing.TB, segments []segment.Segment) string {
	t.Helper()

	data, err := json.Marshal(segments)
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	path := filepath.Join(t.TempDir(), "segments.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write segments file: %v", err)
	}
	return path
}

// StubJudge is an in-memory semantic judge for tests. It replays a fixed score
// for every excerpt, or the configured error, and counts calls.
type StubJudge struct {
	mu    sync.Mutex
	calls int

	Score float64
	Err   error
}

// ScoreBatch returns one Score per text, or Err when set.
func (j *StubJudge) ScoreBatch(_ context.Context, texts []string) ([]float64, error) {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()

	if j.Err != nil {
		return nil, j.Err
	}
	scores := make([]float64, len(texts))
	for i := range scores {
		scores[i] = j.Score
	}
	return scores, nil
}

// Calls reports how many batches the judge received.
func (j *StubJudge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}
