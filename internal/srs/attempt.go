package srs

import "time"

// Attempt is an append-only record of a single quiz answer.
type Attempt struct {
	PersonID       string    `json:"person_id"`
	WasCorrect     bool      `json:"was_correct"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`
	UserGuess      *string   `json:"user_guess,omitempty"`
}

// AttemptOption decorates the Attempt produced by RecordAttempt.
type AttemptOption func(*Attempt)

// WithResponseTime records how long the user took to answer.
func WithResponseTime(ms int) AttemptOption {
	return func(a *Attempt) {
		a.ResponseTimeMs = &ms
	}
}

// WithGuess records the name the user picked.
func WithGuess(guess string) AttemptOption {
	return func(a *Attempt) {
		a.UserGuess = &guess
	}
}
