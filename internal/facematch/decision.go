package facematch

import (
	"encoding"
	"fmt"
)

// Decision is the outcome of matching one embedding.
type Decision int

const (
	Accept Decision = iota + 1 // Confident match, the caller may assign automatically.
	Review                     // Plausible match, a human has to confirm.
	Reject                     // No known person is close enough.
)

var (
	decisionNames  = [...]string{Accept: "accept", Review: "review", Reject: "reject"}
	decisionByName = map[string]Decision{
		"accept": Accept,
		"review": Review,
		"reject": Reject,
	}
)

var (
	_ fmt.Stringer             = Decision(0)
	_ encoding.TextMarshaler   = Decision(0)
	_ encoding.TextUnmarshaler = (*Decision)(nil)
)

func (d Decision) isValid() bool {
	return d >= Accept && d <= Reject
}

func (d Decision) String() string {
	if d.isValid() {
		return decisionNames[d]
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	if !d.isValid() {
		return nil, fmt.Errorf("facematch: invalid decision: %d", int(d))
	}
	return []byte(decisionNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decision) UnmarshalText(text []byte) error {
	v, ok := decisionByName[string(text)]
	if !ok {
		return fmt.Errorf("facematch: invalid decision: %q", text)
	}
	*d = v
	return nil
}

// downgrade lowers Accept to Review. Review and Reject stay.
func (d Decision) downgrade() Decision {
	if d == Accept {
		return Review
	}
	return d
}
