package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
	"time"
)

// ReviewState is the per-person spaced repetition record.
// Only stored fields live here; due-ness, days until review and accuracy are
// always derived from them.
type ReviewState struct {
	EaseFactor      float64    `json:"ease_factor"`
	Interval        int        `json:"interval"` // days
	Repetitions     int        `json:"repetitions"`
	NextReviewDate  time.Time  `json:"next_review_date"`
	LastReviewDate  *time.Time `json:"last_review_date"` // nil before first review.
	TotalAttempts   int        `json:"total_attempts"`
	CorrectAttempts int        `json:"correct_attempts"`
}

// NewReviewState returns the default state for a person who was never quizzed.
// It is due immediately.
func NewReviewState(now time.Time) ReviewState {
	return ReviewState{
		EaseFactor:     DefaultParameters.InitialEase,
		NextReviewDate: now,
	}
}

// clone returns a deep copy of the state.
func (s ReviewState) clone() ReviewState {
	out := s
	if s.LastReviewDate != nil {
		v := *s.LastReviewDate
		out.LastReviewDate = &v
	}
	return out
}

// Accuracy returns the fraction of correct attempts in [0, 1], or 0 without attempts.
func (s ReviewState) Accuracy() float64 {
	if s.TotalAttempts <= 0 {
		return 0
	}
	correct := min(max(s.CorrectAttempts, 0), s.TotalAttempts)
	return float64(correct) / float64(s.TotalAttempts)
}

// Phase reports whether the person is still being learned or already established.
func (s ReviewState) Phase() Phase {
	if s.Repetitions >= 2 {
		return Established
	}
	return Learning
}

// Phase is the learning stage derived from the repetition count.
type Phase int

const (
	Learning    Phase = iota + 1 // Fewer than two consecutive correct recalls.
	Established                  // Two or more consecutive correct recalls.
)

var (
	phaseNames  = [...]string{Learning: "learning", Established: "established"}
	phaseByName = map[string]Phase{
		"learning":    Learning,
		"established": Established,
	}
)

var (
	_ fmt.Stringer             = Phase(0)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
	_ json.Marshaler           = Phase(0)
)

func (p Phase) isValid() bool {
	return p >= Learning && p <= Established
}

// String returns the phase name. For invalid values it returns "Phase(n)".
func (p Phase) String() string {
	if p.isValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.isValid() {
		return nil, fmt.Errorf("srs: invalid phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("srs: invalid phase: %q", text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. Phase serializes as a JSON string.
func (p Phase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}
