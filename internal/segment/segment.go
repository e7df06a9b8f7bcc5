package segment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Features holds the locally computed signals for a candidate segment, each
// normalized to [0,1] by the upstream feature extractor.
type Features struct {
	Acoustic      float64 `json:"acoustic"`
	Keyword       float64 `json:"keyword"`
	SpeakerChange float64 `json:"speaker_change"`
}

// Segment is a candidate time window from the source recording.
//
// SemanticScore stays nil until the segment has been judged; segments that
// never reach the judge contribute through local signals only.
type Segment struct {
	ID            string   `json:"id"`
	T0            float64  `json:"t0"`
	T1            float64  `json:"t1"`
	Text          string   `json:"text"`
	Features      Features `json:"features"`
	SemanticScore *float64 `json:"semantic_score,omitempty"`
	FinalScore    float64  `json:"final_score"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.T1 - s.T0
}

// Overlaps reports whether the two segments share any source time.
func (s Segment) Overlaps(other Segment) bool {
	return s.T0 < other.T1 && other.T0 < s.T1
}

// Validate checks the basic time-window invariant.
func (s Segment) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("segment id is required")
	}
	if s.T1 <= s.T0 {
		return fmt.Errorf("segment %s: t1 (%.3f) must be after t0 (%.3f)", s.ID, s.T1, s.T0)
	}
	return nil
}

// SortByStart orders segments by source start time in place.
func SortByStart(segments []Segment) {
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].T0 < segments[j].T0
	})
}

// SortByFinalScore orders segments by final score descending in place. Ties
// fall back to start time so the ordering is deterministic.
func SortByFinalScore(segments []Segment) {
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].FinalScore != segments[j].FinalScore {
			return segments[i].FinalScore > segments[j].FinalScore
		}
		return segments[i].T0 < segments[j].T0
	})
}
