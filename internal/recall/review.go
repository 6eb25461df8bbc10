package recall

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/quiz"
	"github.com/kozaktomas/face-recall/internal/srs"
)

// ReviewStatus is a person's stored review state plus the values derived from it at a point in time.
type ReviewStatus struct {
	PersonID        string           `json:"person_id"`
	DisplayName     string           `json:"display_name"`
	State           *srs.ReviewState `json:"state,omitempty"`
	NeedsReview     bool             `json:"needs_review"`
	DaysUntilReview int              `json:"days_until_review"`
	Accuracy        float64          `json:"accuracy"`
	Phase           srs.Phase        `json:"phase"`
}

// StatusOf derives the review status of p at now. Nothing derived is stored.
func StatusOf(p database.Person, now time.Time) ReviewStatus {
	st := ReviewStatus{
		PersonID:        p.ID,
		DisplayName:     p.DisplayName,
		State:           p.Review,
		NeedsReview:     srs.IsDue(p.Review, now),
		DaysUntilReview: srs.DaysUntilReview(p.Review, now),
		Phase:           srs.Learning,
	}
	if p.Review != nil {
		st.Accuracy = p.Review.Accuracy()
		st.Phase = p.Review.Phase()
	}
	return st
}

// Due lists people currently needing review, most overdue first.
func (s *Service) Due(ctx context.Context) ([]ReviewStatus, error) {
	now := s.opts.Now()
	people, err := s.store.ListDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	out := make([]ReviewStatus, 0, len(people))
	for _, p := range people {
		out = append(out, StatusOf(p, now))
	}
	sortByUrgency(out)
	return out, nil
}

func sortByUrgency(statuses []ReviewStatus) {
	slices.SortStableFunc(statuses, func(a, b ReviewStatus) int {
		return cmp.Compare(a.DaysUntilReview, b.DaysUntilReview)
	})
}

// Review returns one person's review status.
func (s *Service) Review(ctx context.Context, personID string) (ReviewStatus, error) {
	p, err := s.store.Get(ctx, personID)
	if err != nil {
		return ReviewStatus{}, err
	}
	return StatusOf(*p, s.opts.Now()), nil
}

// RepairReview rebuilds a person's review state from the attempt log and stores it.
// A person without attempts keeps no state.
func (s *Service) RepairReview(ctx context.Context, personID string) (*srs.ReviewState, error) {
	attempts, err := s.store.ListByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	state, err := s.scheduler.Replay(attempts)
	if err != nil || state == nil {
		return state, err
	}
	if err := s.store.SaveReview(ctx, personID, *state); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	return state, nil
}

// BuildQuiz creates a session over every stored person. Unset options fall
// back to the service defaults.
func (s *Service) BuildQuiz(ctx context.Context, opts quiz.Options) (*quiz.Session, error) {
	people, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	if opts.Mode == 0 {
		opts.Mode = quiz.Spaced
	}
	if opts.DistractorCount < 0 {
		opts.DistractorCount = s.opts.Distractors
	}
	if opts.Limit == 0 {
		opts.Limit = s.opts.SessionSize
	}
	if opts.Now.IsZero() {
		opts.Now = s.opts.Now()
	}
	return quiz.Build(people, opts)
}

// Answer records one answer. The new review state is stored, then the
// attempt appended, and only then is the session item marked answered. On a
// store failure the session is unchanged and the answer can be retried; if
// the append fails after the state was stored, the previous state is put back.
func (s *Service) Answer(ctx context.Context, session *quiz.Session, personID, guessPersonID string, responseTimeMs *int) (quiz.Outcome, error) {
	p, err := s.store.Get(ctx, personID)
	if err != nil {
		return quiz.Outcome{}, err
	}
	var opts []srs.AttemptOption
	if responseTimeMs != nil {
		opts = append(opts, srs.WithResponseTime(*responseTimeMs))
	}

	now := s.opts.Now()
	outcome, err := session.Grade(s.scheduler, personID, guessPersonID, p.Review, now, opts...)
	if err != nil {
		return quiz.Outcome{}, err
	}
	if err := s.store.SaveReview(ctx, personID, outcome.Review); err != nil {
		return quiz.Outcome{}, fmt.Errorf("save review: %w", err)
	}
	if err := s.store.Append(ctx, outcome.Attempt); err != nil {
		previous := s.scheduler.NewState(now)
		if p.Review != nil {
			previous = *p.Review
		}
		if rbErr := s.store.SaveReview(ctx, personID, previous); rbErr != nil {
			s.opts.Logger.Error("review state not restored after failed append", "person_id", personID, "error", rbErr)
		}
		return quiz.Outcome{}, fmt.Errorf("append attempt: %w", err)
	}
	if err := session.Commit(outcome); err != nil {
		return quiz.Outcome{}, err
	}
	return outcome, nil
}
