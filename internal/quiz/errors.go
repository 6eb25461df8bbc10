package quiz

import "errors"

var (
	// ErrUnknownItem is returned when answering a person that is not part of the session.
	ErrUnknownItem = errors.New("quiz: unknown item")
	// ErrAlreadyAnswered is returned when an item is answered twice.
	ErrAlreadyAnswered = errors.New("quiz: item already answered")
	// ErrSessionComplete is returned when answering after completion.
	ErrSessionComplete = errors.New("quiz: session complete")
	// ErrInvalidMode is returned for an unknown session mode.
	ErrInvalidMode = errors.New("quiz: invalid mode")
)
