package database

import (
	"context"
	"errors"
	"time"

	"github.com/kozaktomas/face-recall/internal/srs"
)

// ErrNotFound is returned when a person or sample does not exist.
var ErrNotFound = errors.New("not found")

// PersonReader provides read-only access to people and their samples
type PersonReader interface {
	// Get retrieves a person with samples and review state, returns ErrNotFound if missing
	Get(ctx context.Context, personID string) (*Person, error)
	// List returns all people with samples and review state, ordered by creation time
	List(ctx context.Context) ([]Person, error)
	// Count returns the total number of people
	Count(ctx context.Context) (int, error)
	// ListDue returns people whose review is due at now, including never-reviewed people with samples
	ListDue(ctx context.Context, now time.Time) ([]Person, error)
	// EmbeddingDim returns the dimension of stored samples, 0 if none are stored yet
	EmbeddingDim(ctx context.Context) (int, error)
}

// PersonWriter provides write access to people
type PersonWriter interface {
	PersonReader

	// Create stores a new person (samples and review state are ignored)
	Create(ctx context.Context, person *Person) error
	// Update changes display name, notes and tags
	Update(ctx context.Context, person *Person) error
	// Delete removes a person together with samples, review state and attempts
	Delete(ctx context.Context, personID string) error
	// SetProfileSample designates the sample shown in quizzes; it must belong to the person
	SetProfileSample(ctx context.Context, personID, sampleID string) error
	// SaveReview stores the review state verbatim
	SaveReview(ctx context.Context, personID string, state srs.ReviewState) error
}

// SampleWriter provides write access to face samples
type SampleWriter interface {
	// AddSample stores a sample; an empty PersonID leaves it unassigned.
	// Returns vector.ErrDimensionMismatch if the dimension differs from stored samples.
	AddSample(ctx context.Context, sample *FaceSample) error
	// AssignSample sets the owner of a sample
	AssignSample(ctx context.Context, sampleID, personID string) error
	// GetSample retrieves one sample by ID
	GetSample(ctx context.Context, sampleID string) (*FaceSample, error)
	// ListUnassigned returns samples pending labeling
	ListUnassigned(ctx context.Context) ([]FaceSample, error)
	// ListSamples returns every stored sample (assigned or not)
	ListSamples(ctx context.Context) ([]FaceSample, error)
	// DeleteSample removes a sample
	DeleteSample(ctx context.Context, sampleID string) error
}

// AttemptLog is the append-only quiz attempt log
type AttemptLog interface {
	// Append adds an attempt; attempts are never updated or deleted individually
	Append(ctx context.Context, attempt srs.Attempt) error
	// ListByPerson returns a person's attempts ordered by time
	ListByPerson(ctx context.Context, personID string) ([]srs.Attempt, error)
	// ListSince returns all attempts at or after since, ordered by time
	ListSince(ctx context.Context, since time.Time) ([]srs.Attempt, error)
}

// Store bundles everything the web server and CLI need.
type Store interface {
	PersonWriter
	SampleWriter
	AttemptLog
}
