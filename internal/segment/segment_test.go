package segment

import (
	"math"
	"testing"
)

func TestSegmentDurationAndOverlap(t *testing.T) {
	a := Segment{ID: "a", T0: 10, T1: 25}
	b := Segment{ID: "b", T0: 24, T1: 30}
	c := Segment{ID: "c", T0: 25, T1: 30}

	if got := a.Duration(); got != 15 {
		t.Fatalf("Duration() = %v, want 15", got)
	}
	if !a.Overlaps(b) {
		t.Fatal("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("touching segments must not count as overlapping")
	}
}

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		seg     Segment
		wantErr bool
	}{
		{"valid", Segment{ID: "x", T0: 0, T1: 5}, false},
		{"inverted", Segment{ID: "x", T0: 5, T1: 5}, true},
		{"negative start", Segment{ID: "x", T0: -1, T1: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortByFinalScoreBreaksTiesByStart(t *testing.T) {
	segs := []Segment{
		{ID: "late", T0: 100, T1: 110, FinalScore: 0.8},
		{ID: "early", T0: 10, T1: 20, FinalScore: 0.8},
		{ID: "best", T0: 50, T1: 60, FinalScore: 0.9},
	}
	SortByFinalScore(segs)

	if segs[0].ID != "best" {
		t.Fatalf("expected highest score first, got %s", segs[0].ID)
	}
	if segs[1].ID != "early" || segs[2].ID != "late" {
		t.Fatalf("expected tie broken by start time, got %s then %s", segs[1].ID, segs[2].ID)
	}
}

func TestNewSelectionComputesAggregates(t *testing.T) {
	clips := []Segment{
		{ID: "a", T0: 0, T1: 30, FinalScore: 0.6},
		{ID: "b", T0: 100, T1: 130, FinalScore: 0.8},
	}
	sel := NewSelection(clips, nil)

	if sel.Count != 2 {
		t.Fatalf("Count = %d, want 2", sel.Count)
	}
	if sel.TotalDuration != 60 {
		t.Fatalf("TotalDuration = %v, want 60", sel.TotalDuration)
	}
	if math.Abs(sel.MeanScore-0.7) > 1e-9 {
		t.Fatalf("MeanScore = %v, want 0.7", sel.MeanScore)
	}
}

func TestNewSelectionEmptyIsValid(t *testing.T) {
	sel := NewSelection(nil, []Diagnostic{{Type: DiagnosticEmptySelection, Message: "nothing qualified"}})

	if sel.Count != 0 || sel.TotalDuration != 0 || sel.MeanScore != 0 {
		t.Fatalf("empty selection should carry zero aggregates, got %+v", sel)
	}
	if len(sel.Diagnostics) != 1 {
		t.Fatalf("expected the diagnostic to survive, got %d", len(sel.Diagnostics))
	}
}
