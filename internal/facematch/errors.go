package facematch

import (
	"errors"
	"fmt"
	"math"
)

// Threshold bounds accepted at configuration time.
const (
	MinThreshold = 0.70
	MaxThreshold = 0.99
)

// ErrInvalidThreshold is returned when an auto-accept threshold is outside [MinThreshold, MaxThreshold].
var ErrInvalidThreshold = errors.New("facematch: invalid threshold")

// ValidateThreshold checks the auto-accept threshold.
func ValidateThreshold(t float64) error {
	if t < MinThreshold || t > MaxThreshold || math.IsNaN(t) {
		return fmt.Errorf("%w: %v not in [%.2f, %.2f]", ErrInvalidThreshold, t, MinThreshold, MaxThreshold)
	}
	return nil
}
