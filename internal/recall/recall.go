// Package recall wires the store, the sample index, the matcher and the
// scheduler into the operations the HTTP API and the CLI expose.
package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/srs"
)

var (
	// ErrDuplicateName is returned when a person with the same normalized name exists.
	ErrDuplicateName = errors.New("recall: a person with this name already exists")
	// ErrEmptyEmbedding is returned for samples without an embedding.
	ErrEmptyEmbedding = errors.New("recall: empty embedding")
	// ErrEmptyName is returned when creating or renaming to a blank name.
	ErrEmptyName = errors.New("recall: empty display name")
)

// Options tune the service.
type Options struct {
	CandidateLimit      int // 0 scores every person, otherwise the index preselects this many
	Distractors         int
	SessionSize         int
	AllowDuplicateNames bool
	Now                 func() time.Time
	Logger              *slog.Logger
}

type Service struct {
	store     database.Store
	index     *database.SampleIndex // nil disables candidate preselection
	matcher   *facematch.Matcher
	scheduler *srs.Scheduler
	opts      Options
}

// ProgressInfo contains progress information for callbacks
type ProgressInfo struct {
	Phase   string // "people", "samples", "attempts"
	Current int
	Total   int
}

func New(store database.Store, index *database.SampleIndex, matcher *facematch.Matcher, scheduler *srs.Scheduler, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if scheduler == nil {
		scheduler = srs.Default()
	}
	return &Service{
		store:     store,
		index:     index,
		matcher:   matcher,
		scheduler: scheduler,
		opts:      opts,
	}
}

// Store returns the underlying store.
func (s *Service) Store() database.Store {
	return s.store
}

// Index returns the sample index, nil when disabled.
func (s *Service) Index() *database.SampleIndex {
	return s.index
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.opts.Now()
}

// PersonInput carries the editable person fields.
type PersonInput struct {
	DisplayName string   `json:"display_name" validate:"required,max=200"`
	Notes       string   `json:"notes" validate:"max=4000"`
	Tags        []string `json:"tags" validate:"max=50,dive,required,max=64"`
}

func (in PersonInput) normalized() PersonInput {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return in
}

// AddPerson creates a person. Names that normalize to an existing person's
// name are rejected unless duplicates are allowed.
func (s *Service) AddPerson(ctx context.Context, in PersonInput) (*database.Person, error) {
	in = in.normalized()
	if in.DisplayName == "" {
		return nil, ErrEmptyName
	}
	if err := s.checkDuplicate(ctx, "", in.DisplayName); err != nil {
		return nil, err
	}

	p := &database.Person{
		ID:          uuid.NewString(),
		DisplayName: in.DisplayName,
		Notes:       in.Notes,
		Tags:        in.Tags,
		CreatedAt:   s.opts.Now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	s.opts.Logger.Info("person added", "person_id", p.ID)
	return p, nil
}

// UpdatePerson changes name, notes and tags.
func (s *Service) UpdatePerson(ctx context.Context, personID string, in PersonInput) (*database.Person, error) {
	in = in.normalized()
	if in.DisplayName == "" {
		return nil, ErrEmptyName
	}
	p, err := s.store.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !facematch.SameName(p.DisplayName, in.DisplayName) {
		if err := s.checkDuplicate(ctx, personID, in.DisplayName); err != nil {
			return nil, err
		}
	}
	p.DisplayName, p.Notes, p.Tags = in.DisplayName, in.Notes, in.Tags
	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update person: %w", err)
	}
	return p, nil
}

func (s *Service) checkDuplicate(ctx context.Context, exceptID, name string) error {
	if s.opts.AllowDuplicateNames {
		return nil
	}
	people, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list people: %w", err)
	}
	for _, p := range people {
		if p.ID != exceptID && facematch.SameName(p.DisplayName, name) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, p.DisplayName)
		}
	}
	return nil
}

// DeletePerson removes a person with everything it owns.
func (s *Service) DeletePerson(ctx context.Context, personID string) error {
	if err := s.store.Delete(ctx, personID); err != nil {
		return err
	}
	if s.index != nil {
		s.index.RemovePerson(personID)
	}
	s.opts.Logger.Info("person deleted", "person_id", personID)
	return nil
}

// SampleInput describes a captured face. An empty PersonID stores it unassigned.
type SampleInput struct {
	PersonID      string    `json:"person_id"`
	Embedding     []float32 `json:"embedding" validate:"required,min=1"`
	CapturedAt    time.Time `json:"captured_at"`
	SourceContext string    `json:"source_context" validate:"max=500"`
}

// AddSample stores a sample and indexes it.
func (s *Service) AddSample(ctx context.Context, in SampleInput) (*database.FaceSample, error) {
	if len(in.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	capturedAt := in.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.opts.Now()
	}
	sample := &database.FaceSample{
		ID:            uuid.NewString(),
		PersonID:      in.PersonID,
		Embedding:     in.Embedding,
		Dim:           len(in.Embedding),
		CapturedAt:    capturedAt,
		SourceContext: in.SourceContext,
	}
	if err := s.store.AddSample(ctx, sample); err != nil {
		return nil, fmt.Errorf("add sample: %w", err)
	}
	if s.index != nil {
		if err := s.index.Add(sample); err != nil {
			s.opts.Logger.Warn("sample stored but not indexed", "sample_id", sample.ID, "error", err)
		}
	}
	return sample, nil
}

// AssignSample labels a sample with its person.
func (s *Service) AssignSample(ctx context.Context, sampleID, personID string) error {
	if err := s.store.AssignSample(ctx, sampleID, personID); err != nil {
		return err
	}
	if s.index == nil || s.index.Reassign(sampleID, personID) {
		return nil
	}
	sample, err := s.store.GetSample(ctx, sampleID)
	if err != nil {
		return err
	}
	if err := s.index.Add(sample); err != nil {
		s.opts.Logger.Warn("sample assigned but not indexed", "sample_id", sampleID, "error", err)
	}
	return nil
}

// SetProfileSample picks the sample shown in quizzes.
func (s *Service) SetProfileSample(ctx context.Context, personID, sampleID string) error {
	return s.store.SetProfileSample(ctx, personID, sampleID)
}

// Identities loads the matcher projection, narrowed by the index when configured.
func (s *Service) Identities(ctx context.Context, query []float32) ([]facematch.Identity, error) {
	people, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	identities := facematch.IdentitiesFromPeople(people)

	if s.opts.CandidateLimit <= 0 || s.index == nil || s.index.IsEmpty() || len(identities) <= s.opts.CandidateLimit {
		return identities, nil
	}
	ids, err := s.index.CandidatePeople(query, s.opts.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("preselect candidates: %w", err)
	}
	return facematch.FilterIdentities(identities, ids), nil
}

// Match decides which known person query belongs to. Nothing is stored.
func (s *Service) Match(ctx context.Context, query []float32) (facematch.MatchResult, error) {
	if len(query) == 0 {
		return facematch.MatchResult{}, ErrEmptyEmbedding
	}
	identities, err := s.Identities(ctx, query)
	if err != nil {
		return facematch.MatchResult{}, err
	}
	return s.matcher.Match(query, identities)
}

// MatchAndAssign matches in.Embedding and stores it under the best person
// only when the decision is Accept. The stored sample is nil otherwise.
func (s *Service) MatchAndAssign(ctx context.Context, in SampleInput) (facematch.MatchResult, *database.FaceSample, error) {
	result, err := s.Match(ctx, in.Embedding)
	if err != nil {
		return result, nil, err
	}
	if result.Decision != facematch.Accept {
		return result, nil, nil
	}
	in.PersonID = result.BestPersonID
	sample, err := s.AddSample(ctx, in)
	if err != nil {
		return result, nil, err
	}
	return result, sample, nil
}

// RebuildIndex reloads the sample index from the store.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, errors.New("sample index disabled")
	}
	samples, err := s.store.ListSamples(ctx)
	if err != nil {
		return 0, fmt.Errorf("list samples: %w", err)
	}
	if err := s.index.BuildFromSamples(samples); err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}
	return s.index.Count(), nil
}
