package database

import (
	"slices"
	"time"

	"github.com/kozaktomas/face-recall/internal/srs"
)

// FaceSample is one captured face embedding. Samples are immutable once
// stored; assigning an unassigned sample to a person only sets PersonID.
type FaceSample struct {
	ID            string    `json:"id"`
	PersonID      string    `json:"person_id,omitempty"` // empty while pending labeling
	Embedding     []float32 `json:"embedding"`
	Dim           int       `json:"dim"`
	CapturedAt    time.Time `json:"captured_at"`
	SourceContext string    `json:"source_context,omitempty"` // e.g. "conference 2025", free text from the capture event
}

// Person is someone the user has met. A person owns its samples and its
// review state; both are removed with the person.
type Person struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"display_name"`
	Notes           string           `json:"notes,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ProfileSampleID string           `json:"profile_sample_id,omitempty"`
	Samples         []FaceSample     `json:"samples,omitempty"`
	Review          *srs.ReviewState `json:"review,omitempty"` // nil until the first quiz attempt
}

// HasSamples reports whether the person can be matched or quizzed.
func (p *Person) HasSamples() bool {
	return len(p.Samples) > 0
}

// HasTag reports whether the person carries the given tag.
func (p *Person) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// ExportData contains people, unassigned samples and the attempt log for export/import.
type ExportData struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	People     []Person      `json:"people"`
	Unassigned []FaceSample  `json:"unassigned,omitempty"`
	Attempts   []srs.Attempt `json:"attempts,omitempty"`
}

// CurrentExportVersion is written into every export.
const CurrentExportVersion = 1
