package quiz

import (
	"fmt"
	"slices"
	"time"

	"github.com/kozaktomas/face-recall/internal/srs"
)

// Session is an ordered run of quiz items. A Session is not safe for
// concurrent use; callers serialize access per session.
type Session struct {
	ID        string        `json:"id"`
	Mode      Mode          `json:"mode"`
	CreatedAt time.Time     `json:"created_at"`
	State     State         `json:"state"`
	Items     []Item        `json:"items"`
	Attempts  []srs.Attempt `json:"attempts"`
}

// Outcome is the result of answering one item.
type Outcome struct {
	Correct     bool            `json:"correct"`
	CorrectName string          `json:"correct_name"`
	Review      srs.ReviewState `json:"review"`
	Attempt     srs.Attempt     `json:"attempt"`
}

// Empty reports whether the session has no items.
func (s *Session) Empty() bool {
	return len(s.Items) == 0
}

// Next returns the first unanswered item, or nil once every item is answered.
func (s *Session) Next() *Item {
	for i := range s.Items {
		if !s.Items[i].Answered {
			return &s.Items[i]
		}
	}
	return nil
}

// Item returns the item quizzing personID.
func (s *Session) Item(personID string) (*Item, bool) {
	for i := range s.Items {
		if s.Items[i].PersonID == personID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Answer grades the guess for the item of personID and commits it to the
// session in one step. See Grade and Commit to persist in between.
func (s *Session) Answer(sched *srs.Scheduler, personID, guessPersonID string, current *srs.ReviewState, now time.Time, opts ...srs.AttemptOption) (Outcome, error) {
	outcome, err := s.Grade(sched, personID, guessPersonID, current, now, opts...)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.Commit(outcome); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// Grade computes the outcome of a guess for the item of personID and the
// person's next review from current (nil for never quizzed). The session is
// not changed.
func (s *Session) Grade(sched *srs.Scheduler, personID, guessPersonID string, current *srs.ReviewState, now time.Time, opts ...srs.AttemptOption) (Outcome, error) {
	item, err := s.pending(personID)
	if err != nil {
		return Outcome{}, err
	}
	if sched == nil {
		sched = srs.Default()
	}

	correct := guessPersonID == personID
	guess := guessPersonID
	for _, o := range item.Options {
		if o.PersonID == guessPersonID {
			guess = o.Name
			break
		}
	}
	opts = append(slices.Clip(opts), srs.WithGuess(guess))
	next, attempt := sched.RecordAttempt(current, personID, correct, now, opts...)

	return Outcome{
		Correct:     correct,
		CorrectName: item.Name,
		Review:      next,
		Attempt:     attempt,
	}, nil
}

// Commit marks the graded item answered and records its attempt.
func (s *Session) Commit(outcome Outcome) error {
	item, err := s.pending(outcome.Attempt.PersonID)
	if err != nil {
		return err
	}
	item.Answered = true
	item.Correct = outcome.Correct
	s.Attempts = append(s.Attempts, outcome.Attempt)
	s.State = InProgress
	return nil
}

// pending returns the unanswered item of personID.
func (s *Session) pending(personID string) (*Item, error) {
	if s.State == Complete {
		return nil, ErrSessionComplete
	}
	item, ok := s.Item(personID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, personID)
	}
	if item.Answered {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAnswered, personID)
	}
	return item, nil
}

// Complete finishes the session and returns its summary. Calling it again
// returns the same summary.
func (s *Session) Complete() Summary {
	s.State = Complete
	return s.Summary()
}

// Summary aggregates the answers recorded so far.
func (s *Session) Summary() Summary {
	return Summarize(s.Attempts)
}

// Progress returns how many items are answered out of the total.
func (s *Session) Progress() (answered, total int) {
	for _, it := range s.Items {
		if it.Answered {
			answered++
		}
	}
	return answered, len(s.Items)
}

// Streak returns the current run of consecutive correct answers.
func (s *Session) Streak() int {
	streak := 0
	for i := len(s.Attempts) - 1; i >= 0 && s.Attempts[i].WasCorrect; i-- {
		streak++
	}
	return streak
}

// Summary is the aggregate of a session's answers.
type Summary struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"` // percent, 0 with no answers
	Tier     Tier    `json:"tier"`
}

// Summarize folds any list of attempts into a summary.
func Summarize(attempts []srs.Attempt) Summary {
	sum := Summary{Total: len(attempts)}
	for _, a := range attempts {
		if a.WasCorrect {
			sum.Correct++
		}
	}
	if sum.Total > 0 {
		sum.Accuracy = float64(sum.Correct) * 100 / float64(sum.Total)
	}
	sum.Tier = TierFor(sum.Accuracy)
	return sum
}
