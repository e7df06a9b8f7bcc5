package segment

// DiagnosticType labels degraded-result conditions surfaced on stage outputs.
type DiagnosticType string

const (
	DiagnosticJudgeBatchFailed   DiagnosticType = "judge_batch_failed"
	DiagnosticThresholdsRelaxed  DiagnosticType = "thresholds_relaxed"
	DiagnosticBelowTarget        DiagnosticType = "below_target_duration"
	DiagnosticEmptySelection     DiagnosticType = "empty_selection"
	DiagnosticPrefilterTruncated DiagnosticType = "prefilter_truncated"
)

// Diagnostic records a recoverable degradation so callers can observe it
// without the stage failing.
type Diagnostic struct {
	Type    DiagnosticType `json:"type"`
	Message string         `json:"message"`
}

// Selection is an ordered, non-overlapping sequence of chosen segments plus
// aggregate stats. An empty Selection is a valid, if degenerate, outcome.
type Selection struct {
	Clips         []Segment    `json:"clips"`
	TotalDuration float64      `json:"total_duration"`
	MeanScore     float64      `json:"mean_score"`
	Count         int          `json:"count"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// NewSelection builds a Selection from chosen clips, computing the aggregate
// stats. The clips are sorted by start time; callers must guarantee they do
// not overlap.
func NewSelection(clips []Segment, diagnostics []Diagnostic) Selection {
	SortByStart(clips)
	var total, scoreSum float64
	for _, clip := range clips {
		total += clip.Duration()
		scoreSum += clip.FinalScore
	}
	mean := 0.0
	if len(clips) > 0 {
		mean = scoreSum / float64(len(clips))
	}
	return Selection{
		Clips:         clips,
		TotalDuration: total,
		MeanScore:     mean,
		Count:         len(clips),
		Diagnostics:   diagnostics,
	}
}
