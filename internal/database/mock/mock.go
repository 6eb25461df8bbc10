// Package mock provides in-memory implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/srs"
	"github.com/kozaktomas/face-recall/internal/vector"
)

// MockStore is an in-memory implementation of database.Store
type MockStore struct {
	mu       sync.RWMutex
	people   map[string]*database.Person
	order    []string // person IDs in insertion order
	samples  map[string]*database.FaceSample
	attempts []srs.Attempt

	// Error injection
	GetError         error
	ListError        error
	CreateError      error
	UpdateError      error
	DeleteError      error
	SaveReviewError  error
	AddSampleError   error
	AssignError      error
	AppendError      error
	ListAttemptError error
}

var _ database.Store = (*MockStore)(nil)

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		people:  make(map[string]*database.Person),
		samples: make(map[string]*database.FaceSample),
	}
}

// AddPerson seeds a person together with its samples and review state
func (m *MockStore) AddPerson(p database.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := p
	stored.Samples = nil
	if _, exists := m.people[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.people[p.ID] = &stored
	for _, s := range p.Samples {
		s.PersonID = p.ID
		m.samples[s.ID] = &s
	}
}

// Attempts returns a copy of every appended attempt
func (m *MockStore) Attempts() []srs.Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.attempts)
}

// assembleLocked builds a detached copy of a person with samples attached.
func (m *MockStore) assembleLocked(id string) database.Person {
	p := *m.people[id]
	p.Tags = slices.Clone(p.Tags)
	if p.Review != nil {
		r := *p.Review
		p.Review = &r
	}
	p.Samples = nil
	for _, s := range m.samples {
		if s.PersonID == id {
			p.Samples = append(p.Samples, *s)
		}
	}
	slices.SortFunc(p.Samples, func(a, b database.FaceSample) int {
		if c := a.CapturedAt.Compare(b.CapturedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return p
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Get retrieves a person by ID
func (m *MockStore) Get(ctx context.Context, personID string) (*database.Person, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.people[personID]; !ok {
		return nil, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	p := m.assembleLocked(personID)
	return &p, nil
}

// List returns all people in insertion order
func (m *MockStore) List(ctx context.Context) ([]database.Person, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	people := make([]database.Person, 0, len(m.order))
	for _, id := range m.order {
		people = append(people, m.assembleLocked(id))
	}
	return people, nil
}

// Count returns the number of people
func (m *MockStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.people), nil
}

// ListDue returns people with samples whose review is due
func (m *MockStore) ListDue(ctx context.Context, now time.Time) ([]database.Person, error) {
	people, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	due := people[:0]
	for _, p := range people {
		if p.HasSamples() && srs.IsDue(p.Review, now) {
			due = append(due, p)
		}
	}
	return due, nil
}

// EmbeddingDim returns the dimension of stored samples
func (m *MockStore) EmbeddingDim(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.samples {
		return len(s.Embedding), nil
	}
	return 0, nil
}

// Create stores a new person
func (m *MockStore) Create(ctx context.Context, person *database.Person) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.people[person.ID]; exists {
		return fmt.Errorf("person %s already exists", person.ID)
	}
	stored := *person
	stored.Samples = nil
	stored.Review = nil
	stored.ProfileSampleID = ""
	stored.Tags = slices.Clone(person.Tags)
	m.people[person.ID] = &stored
	m.order = append(m.order, person.ID)
	return nil
}

// Update changes name, notes and tags
func (m *MockStore) Update(ctx context.Context, person *database.Person) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.people[person.ID]
	if !ok {
		return fmt.Errorf("person %s: %w", person.ID, database.ErrNotFound)
	}
	stored.DisplayName = person.DisplayName
	stored.Notes = person.Notes
	stored.Tags = slices.Clone(person.Tags)
	return nil
}

// Delete removes a person with samples and attempts
func (m *MockStore) Delete(ctx context.Context, personID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[personID]; !ok {
		return fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	delete(m.people, personID)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == personID })
	for id, s := range m.samples {
		if s.PersonID == personID {
			delete(m.samples, id)
		}
	}
	m.attempts = slices.DeleteFunc(m.attempts, func(a srs.Attempt) bool { return a.PersonID == personID })
	return nil
}

// SetProfileSample designates the quiz sample
func (m *MockStore) SetProfileSample(ctx context.Context, personID, sampleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[personID]
	if !ok {
		return fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	s, ok := m.samples[sampleID]
	if !ok || s.PersonID != personID {
		return fmt.Errorf("sample %s of person %s: %w", sampleID, personID, database.ErrNotFound)
	}
	p.ProfileSampleID = sampleID
	return nil
}

// SaveReview stores the review state verbatim
func (m *MockStore) SaveReview(ctx context.Context, personID string, state srs.ReviewState) error {
	if m.SaveReviewError != nil {
		return m.SaveReviewError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[personID]
	if !ok {
		return fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	p.Review = &state
	return nil
}

// AddSample stores a sample
func (m *MockStore) AddSample(ctx context.Context, sample *database.FaceSample) error {
	if m.AddSampleError != nil {
		return m.AddSampleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sample.PersonID != "" {
		if _, ok := m.people[sample.PersonID]; !ok {
			return fmt.Errorf("person %s: %w", sample.PersonID, database.ErrNotFound)
		}
	}
	for _, s := range m.samples {
		if len(s.Embedding) != len(sample.Embedding) {
			return fmt.Errorf("%w: %d != %d", vector.ErrDimensionMismatch, len(sample.Embedding), len(s.Embedding))
		}
		break
	}
	stored := *sample
	stored.Embedding = slices.Clone(sample.Embedding)
	m.samples[sample.ID] = &stored
	return nil
}

// AssignSample sets the owner of a sample
func (m *MockStore) AssignSample(ctx context.Context, sampleID, personID string) error {
	if m.AssignError != nil {
		return m.AssignError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[sampleID]
	if !ok {
		return fmt.Errorf("sample %s: %w", sampleID, database.ErrNotFound)
	}
	if _, ok := m.people[personID]; !ok {
		return fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	s.PersonID = personID
	return nil
}

// GetSample retrieves a sample
func (m *MockStore) GetSample(ctx context.Context, sampleID string) (*database.FaceSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[sampleID]
	if !ok {
		return nil, fmt.Errorf("sample %s: %w", sampleID, database.ErrNotFound)
	}
	out := *s
	return &out, nil
}

// ListUnassigned returns samples without owner
func (m *MockStore) ListUnassigned(ctx context.Context) ([]database.FaceSample, error) {
	all, err := m.ListSamples(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(s database.FaceSample) bool { return s.PersonID != "" }), nil
}

// ListSamples returns all samples ordered by capture time
func (m *MockStore) ListSamples(ctx context.Context) ([]database.FaceSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.FaceSample, 0, len(m.samples))
	for _, s := range m.samples {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b database.FaceSample) int {
		if c := a.CapturedAt.Compare(b.CapturedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return out, nil
}

// DeleteSample removes a sample
func (m *MockStore) DeleteSample(ctx context.Context, sampleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[sampleID]
	if !ok {
		return fmt.Errorf("sample %s: %w", sampleID, database.ErrNotFound)
	}
	if p, ok := m.people[s.PersonID]; ok && p.ProfileSampleID == sampleID {
		p.ProfileSampleID = ""
	}
	delete(m.samples, sampleID)
	return nil
}

// Append adds an attempt to the log
func (m *MockStore) Append(ctx context.Context, attempt srs.Attempt) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
	return nil
}

// ListByPerson returns one person's attempts ordered by time
func (m *MockStore) ListByPerson(ctx context.Context, personID string) ([]srs.Attempt, error) {
	if m.ListAttemptError != nil {
		return nil, m.ListAttemptError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []srs.Attempt
	for _, a := range m.attempts {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b srs.Attempt) int { return a.AttemptedAt.Compare(b.AttemptedAt) })
	return out, nil
}

// ListSince returns attempts at or after since ordered by time
func (m *MockStore) ListSince(ctx context.Context, since time.Time) ([]srs.Attempt, error) {
	if m.ListAttemptError != nil {
		return nil, m.ListAttemptError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []srs.Attempt
	for _, a := range m.attempts {
		if !a.AttemptedAt.Before(since) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b srs.Attempt) int { return a.AttemptedAt.Compare(b.AttemptedAt) })
	return out, nil
}
