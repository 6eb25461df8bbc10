package srs

import "fmt"

// Parameters tune the scheduler. Zero values are replaced by defaults in NewScheduler.
type Parameters struct {
	InitialEase    float64 `json:"initial_ease" yaml:"initial_ease"`
	MinEase        float64 `json:"min_ease" yaml:"min_ease"`
	EaseBonus      float64 `json:"ease_bonus" yaml:"ease_bonus"`
	EasePenalty    float64 `json:"ease_penalty" yaml:"ease_penalty"`
	FirstInterval  int     `json:"first_interval" yaml:"first_interval"`   // days
	SecondInterval int     `json:"second_interval" yaml:"second_interval"` // days
	MaxInterval    int     `json:"max_interval" yaml:"max_interval"`       // days
}

// DefaultParameters are the classic SM-2 constants.
var DefaultParameters = Parameters{
	InitialEase:    2.5,
	MinEase:        1.3,
	EaseBonus:      0.05,
	EasePenalty:    0.2,
	FirstInterval:  1,
	SecondInterval: 6,
	MaxInterval:    36500,
}

// withDefaults fills zero fields from DefaultParameters.
func (p Parameters) withDefaults() Parameters {
	if p.InitialEase == 0 {
		p.InitialEase = DefaultParameters.InitialEase
	}
	if p.MinEase == 0 {
		p.MinEase = DefaultParameters.MinEase
	}
	if p.EaseBonus == 0 {
		p.EaseBonus = DefaultParameters.EaseBonus
	}
	if p.EasePenalty == 0 {
		p.EasePenalty = DefaultParameters.EasePenalty
	}
	if p.FirstInterval == 0 {
		p.FirstInterval = DefaultParameters.FirstInterval
	}
	if p.SecondInterval == 0 {
		p.SecondInterval = DefaultParameters.SecondInterval
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = DefaultParameters.MaxInterval
	}
	return p
}

// Validate checks that parameters describe a usable schedule.
func (p Parameters) Validate() error {
	switch {
	case p.MinEase < 1:
		return fmt.Errorf("%w: min ease %.2f below 1", ErrInvalidParameters, p.MinEase)
	case p.InitialEase < p.MinEase:
		return fmt.Errorf("%w: initial ease %.2f below min ease %.2f", ErrInvalidParameters, p.InitialEase, p.MinEase)
	case p.EaseBonus < 0 || p.EasePenalty < 0:
		return fmt.Errorf("%w: ease adjustments must be non-negative", ErrInvalidParameters)
	case p.FirstInterval < 1:
		return fmt.Errorf("%w: first interval %d must be at least 1 day", ErrInvalidParameters, p.FirstInterval)
	case p.SecondInterval < p.FirstInterval:
		return fmt.Errorf("%w: second interval %d shorter than first %d", ErrInvalidParameters, p.SecondInterval, p.FirstInterval)
	case p.MaxInterval < p.SecondInterval:
		return fmt.Errorf("%w: max interval %d shorter than second %d", ErrInvalidParameters, p.MaxInterval, p.SecondInterval)
	}
	return nil
}
