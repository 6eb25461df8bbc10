package quiz

import (
	"encoding"
	"fmt"
)

// Mode selects which people a session quizzes.
type Mode int

const (
	Spaced   Mode = iota + 1 // People due for review, falling back to everyone with samples.
	All                      // Everyone with at least one sample.
	Filtered                 // A caller-supplied subset.
)

var (
	modeNames  = [...]string{Spaced: "spaced", All: "all", Filtered: "filtered"}
	modeByName = map[string]Mode{"spaced": Spaced, "all": All, "filtered": Filtered}
)

var (
	_ encoding.TextMarshaler   = Mode(0)
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m, ok := modeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

func (m Mode) String() string {
	if m >= Spaced && m <= Filtered {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m < Spaced || m > Filtered {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// State is the session lifecycle stage.
type State int

const (
	Created State = iota + 1
	InProgress
	Complete
)

var stateNames = [...]string{Created: "created", InProgress: "in_progress", Complete: "complete"}

func (s State) String() string {
	if s >= Created && s <= Complete {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s < Created || s > Complete {
		return nil, fmt.Errorf("quiz: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for v := Created; v <= Complete; v++ {
		if stateNames[v] == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("quiz: invalid state: %q", text)
}

// Tier is the qualitative grade of a finished session.
type Tier int

const (
	NeedsPractice Tier = iota + 1 // below 50%
	Good                          // 50% up to, not including, 80%
	Excellent                     // 80% and above
)

var tierNames = [...]string{NeedsPractice: "needs_practice", Good: "good", Excellent: "excellent"}

// Tier boundaries in percent, both inclusive on the upper tier.
const (
	ExcellentFrom = 80.0
	GoodFrom      = 50.0
)

// TierFor grades an accuracy percentage.
func TierFor(accuracyPercent float64) Tier {
	switch {
	case accuracyPercent >= ExcellentFrom:
		return Excellent
	case accuracyPercent >= GoodFrom:
		return Good
	default:
		return NeedsPractice
	}
}

func (t Tier) String() string {
	if t >= NeedsPractice && t <= Excellent {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	if t < NeedsPractice || t > Excellent {
		return nil, fmt.Errorf("quiz: invalid tier: %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	for v := NeedsPractice; v <= Excellent; v++ {
		if tierNames[v] == string(text) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("quiz: invalid tier: %q", text)
}
