package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/segment"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/services"
)

// segmentDocument is the accepted input shape: either a bare JSON array of
// segments or an object wrapping them, as produced by the transcription and
// feature extraction stages upstream of this tool.
type segmentDocument struct {
	Segments []segment.Segment `json:"segments"`
}

// LoadSegments reads segment candidates from a JSON file and validates each
// entry. Segments missing an id are assigned a positional one.
func LoadSegments(path string) ([]segment.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "input", "read segments", path, err)
	}

	var segments []segment.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		var doc segmentDocument
		if docErr := json.Unmarshal(data, &doc); docErr != nil {
			return nil, services.Wrap(services.ErrValidation, "input", "parse segments", path, err)
		}
		segments = doc.Segments
	}

	for i := range segments {
		if segments[i].ID == "" {
			segments[i].ID = fmt.Sprintf("seg-%04d", i)
		}
		if err := segments[i].Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "input", "validate segment", segments[i].ID, err)
		}
	}
	segment.SortByStart(segments)
	return segments, nil
}
