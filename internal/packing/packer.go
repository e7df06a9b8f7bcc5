package packing

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
)

// Options controls how a selection is packed into released parts.
type Options struct {
	// TargetDuration is the caller's desired per-release length in seconds.
	TargetDuration float64
	// MinDurationForSplit is the selected duration below which splitting never
	// triggers regardless of the target ratio.
	MinDurationForSplit float64
	// Tolerance mirrors the selection overshoot allowance; a selection inside
	// target*(1+tolerance) stays a single part.
	Tolerance float64
	// Cadence spaces consecutive premiere times.
	Cadence time.Duration
	// MaxParts caps the part count for very long selections.
	MaxParts int
	// Language selects the title template ("pl" or "en").
	Language string
	// BaseRelease anchors the first premiere. Zero means the next full hour.
	BaseRelease time.Time
}

// Plan is the split decision derived from the selected duration.
type Plan struct {
	NumParts           int     `json:"num_parts"`
	PartTargetDuration float64 `json:"part_target_duration"`
	Split              bool    `json:"split"`
	// Justification is a human-readable explanation of the band choice.
	Justification string `json:"justification"`
}

// Part is a release-sized slice of a Selection.
type Part struct {
	PartNumber     int               `json:"part_number"`
	TotalParts     int               `json:"total_parts"`
	Clips          []segment.Segment `json:"clips"`
	TargetDuration float64           `json:"target_duration"`
	ActualDuration float64           `json:"actual_duration"`
	ScheduledAt    time.Time         `json:"scheduled_at"`
	Title          string            `json:"title"`
	AvgScore       float64           `json:"avg_score"`
}

// Packer decides whether a selection is released whole or as multiple timed
// parts, and derives each part's schedule and title.
type Packer struct {
	opts   Options
	logger *slog.Logger
}

// NewPacker builds a packer with sane fallbacks for zero options.
func NewPacker(opts Options, logger *slog.Logger) *Packer {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.15
	}
	if opts.MaxParts <= 0 {
		opts.MaxParts = 4
	}
	if opts.Cadence <= 0 {
		opts.Cadence = 24 * time.Hour
	}
	return &Packer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "packing"),
	}
}

// Plan derives the split decision from the actual selected duration. The
// source recording's length deliberately plays no role here: a six-hour
// session that yields twenty selected minutes releases as one part.
func (p *Packer) Plan(selectedDuration float64) Plan {
	target := p.opts.TargetDuration
	threshold := target * (1 + p.opts.Tolerance)

	if selectedDuration <= 0 {
		return Plan{NumParts: 1, PartTargetDuration: target, Justification: "empty selection releases as a single (empty) compilation"}
	}
	if selectedDuration <= threshold || selectedDuration <= p.opts.MinDurationForSplit {
		return Plan{
			NumParts:           1,
			PartTargetDuration: selectedDuration,
			Justification: fmt.Sprintf("selected %.0fs fits within the %.0fs target (tolerance %.0f%%); releasing as one part",
				selectedDuration, target, p.opts.Tolerance*100),
		}
	}

	ratio := selectedDuration / target
	var numParts int
	var justification string
	switch {
	case ratio <= 2:
		numParts = 2
		justification = fmt.Sprintf("selected %.0fs is up to twice the %.0fs target; splitting into two parts", selectedDuration, target)
	case ratio <= 3:
		numParts = 3
		justification = fmt.Sprintf("selected %.0fs is up to three times the %.0fs target; splitting into three parts", selectedDuration, target)
	default:
		numParts = p.opts.MaxParts
		justification = fmt.Sprintf("selected %.0fs exceeds three times the %.0fs target; capping at %d parts", selectedDuration, target, p.opts.MaxParts)
	}
	if numParts > p.opts.MaxParts {
		numParts = p.opts.MaxParts
	}

	return Plan{
		NumParts:           numParts,
		PartTargetDuration: selectedDuration / float64(numParts),
		Split:              true,
		Justification:      justification,
	}
}

// Pack partitions the selection's clips into contiguous groups approximating
// equal duration and assigns each group its schedule and title. The parts
// partition the selection exactly: no clip is dropped or duplicated.
func (p *Packer) Pack(sel segment.Selection, plan Plan) []Part {
	if len(sel.Clips) == 0 {
		return nil
	}

	numParts := plan.NumParts
	if numParts < 1 {
		numParts = 1
	}
	if numParts > len(sel.Clips) {
		numParts = len(sel.Clips)
	}

	groups := partitionByDuration(sel.Clips, numParts)
	base := p.baseRelease()
	keywords := prominentKeywords(sel.Clips, p.opts.Language)

	parts := make([]Part, 0, len(groups))
	for i, clips := range groups {
		var duration, scoreSum float64
		for _, clip := range clips {
			duration += clip.Duration()
			scoreSum += clip.FinalScore
		}
		part := Part{
			PartNumber:     i + 1,
			TotalParts:     len(groups),
			Clips:          clips,
			TargetDuration: plan.PartTargetDuration,
			ActualDuration: duration,
			ScheduledAt:    base.Add(time.Duration(i) * p.opts.Cadence),
			Title:          buildTitle(p.opts.Language, keywords, i+1, len(groups)),
			AvgScore:       scoreSum / float64(len(clips)),
		}
		parts = append(parts, part)
	}

	p.logger.Info("selection packed",
		logging.String(logging.FieldEventType, "packing_complete"),
		logging.Int("part_count", len(parts)),
		logging.Float64("selected_duration", sel.TotalDuration),
		logging.String("justification", plan.Justification))

	return parts
}

// partitionByDuration walks the time-ordered clips once, cutting a new group
// whenever the running duration passes an equal share of the remainder while
// leaving at least one clip for every remaining group.
func partitionByDuration(clips []segment.Segment, numParts int) [][]segment.Segment {
	total := 0.0
	for _, clip := range clips {
		total += clip.Duration()
	}

	groups := make([][]segment.Segment, 0, numParts)
	start := 0
	remaining := total
	for g := 0; g < numParts; g++ {
		groupsLeft := numParts - g
		if groupsLeft == 1 {
			groups = append(groups, clips[start:])
			break
		}
		share := remaining / float64(groupsLeft)
		end := start
		var acc float64
		for end < len(clips)-(groupsLeft-1) {
			clipDur := clips[end].Duration()
			// Cut before this clip if adding it moves further from the share
			// than stopping here.
			if acc > 0 && math.Abs(acc+clipDur-share) > math.Abs(acc-share) {
				break
			}
			acc += clipDur
			end++
		}
		if end == start {
			end = start + 1
			acc = clips[start].Duration()
		}
		groups = append(groups, clips[start:end])
		start = end
		remaining -= acc
	}
	return groups
}

func (p *Packer) baseRelease() time.Time {
	if !p.opts.BaseRelease.IsZero() {
		return p.opts.BaseRelease
	}
	return time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
}
