package srs

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Scheduler turns quiz outcomes into review schedules.
// It holds only immutable parameters and is safe for concurrent use.
type Scheduler struct {
	params Parameters
}

var defaultScheduler = &Scheduler{params: DefaultParameters}

// NewScheduler creates a Scheduler. Zero-value fields fall back to DefaultParameters.
func NewScheduler(params Parameters) (*Scheduler, error) {
	p := params.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: p}, nil
}

// Default returns the scheduler configured with DefaultParameters.
func Default() *Scheduler {
	return defaultScheduler
}

// Parameters returns the parameters in use.
func (s *Scheduler) Parameters() Parameters {
	return s.params
}

// NewState returns the initial state for a never-quizzed person, due at now.
func (s *Scheduler) NewState(now time.Time) ReviewState {
	return ReviewState{
		EaseFactor:     s.params.InitialEase,
		NextReviewDate: now,
	}
}

// RecordAttempt applies one quiz outcome to state and returns the new state
// together with the attempt record to append. A nil state means the person
// was never quizzed and defaults are materialized first. The input is never
// mutated. Out-of-range stored values are clamped rather than rejected.
// The ease bonus is skipped on the 0->1 repetition, so the first correct
// answer leaves ease at 2.5.
func (s *Scheduler) RecordAttempt(state *ReviewState, personID string, wasCorrect bool, now time.Time, opts ...AttemptOption) (ReviewState, Attempt) {
	var next ReviewState
	if state == nil {
		next = s.NewState(now)
	} else {
		next = state.clone()
	}
	s.repair(&next)

	if wasCorrect {
		s.applyCorrect(&next)
	} else {
		s.applyIncorrect(&next)
	}

	next.NextReviewDate = now.AddDate(0, 0, next.Interval)
	next.LastReviewDate = &now
	next.TotalAttempts++
	if wasCorrect {
		next.CorrectAttempts++
	}

	attempt := Attempt{
		PersonID:    personID,
		WasCorrect:  wasCorrect,
		AttemptedAt: now,
	}
	for _, opt := range opts {
		opt(&attempt)
	}

	return next, attempt
}

func (s *Scheduler) applyCorrect(st *ReviewState) {
	st.Repetitions++
	switch st.Repetitions {
	case 1:
		st.Interval = s.params.FirstInterval
	case 2:
		st.Interval = s.params.SecondInterval
	default:
		st.Interval = int(math.Round(float64(st.Interval) * st.EaseFactor))
	}
	st.Interval = min(max(st.Interval, s.params.FirstInterval), s.params.MaxInterval)

	// The first recall of a learning run only graduates the person to the
	// first interval; ease starts moving from the second consecutive recall.
	if st.Repetitions > 1 {
		st.EaseFactor += s.params.EaseBonus
	}
}

func (s *Scheduler) applyIncorrect(st *ReviewState) {
	st.Repetitions = 0
	st.Interval = s.params.FirstInterval
	st.EaseFactor = max(s.params.MinEase, st.EaseFactor-s.params.EasePenalty)
}

// repair clamps fields that a foreign writer may have left out of range.
func (s *Scheduler) repair(st *ReviewState) {
	if math.IsNaN(st.EaseFactor) || st.EaseFactor < s.params.MinEase {
		st.EaseFactor = s.params.MinEase
	}
	st.Interval = min(max(st.Interval, 0), s.params.MaxInterval)
	st.Repetitions = max(st.Repetitions, 0)
	st.TotalAttempts = max(st.TotalAttempts, 0)
	st.CorrectAttempts = min(max(st.CorrectAttempts, 0), st.TotalAttempts)
}

// Replay rebuilds a review state from an attempt log. Attempts are applied in
// AttemptedAt order starting from a never-quizzed state. Returns nil for an
// empty log.
func (s *Scheduler) Replay(attempts []Attempt) (*ReviewState, error) {
	if len(attempts) == 0 {
		return nil, nil
	}

	ordered := slices.Clone(attempts)
	slices.SortStableFunc(ordered, func(a, b Attempt) int {
		return a.AttemptedAt.Compare(b.AttemptedAt)
	})

	personID := ordered[0].PersonID
	var state *ReviewState
	for _, a := range ordered {
		if a.PersonID != personID {
			return nil, fmt.Errorf("%w: %s and %s", ErrPersonMismatch, personID, a.PersonID)
		}
		next, _ := s.RecordAttempt(state, personID, a.WasCorrect, a.AttemptedAt)
		state = &next
	}
	return state, nil
}

// RecordAttempt applies one outcome using DefaultParameters.
func RecordAttempt(state *ReviewState, wasCorrect bool, now time.Time) ReviewState {
	next, _ := defaultScheduler.RecordAttempt(state, "", wasCorrect, now)
	return next
}

// IsDue reports whether a person needs review at now. A missing state is
// always due; an exactly-due state counts as due.
func IsDue(state *ReviewState, now time.Time) bool {
	if state == nil {
		return true
	}
	return !state.NextReviewDate.After(now)
}

// DaysUntilReview returns the number of calendar days between now and the
// next review, in now's location. Negative values mean overdue. A missing
// state is due today.
func DaysUntilReview(state *ReviewState, now time.Time) int {
	if state == nil {
		return 0
	}
	return calendarDays(now, state.NextReviewDate.In(now.Location()))
}

// calendarDays counts midnights crossed going from a to b.
func calendarDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
