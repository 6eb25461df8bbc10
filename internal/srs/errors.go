package srs

import "errors"

// Sentinel errors for the srs package.
// Use errors.Is to check: errors.Is(err, srs.ErrInvalidParameters)
var (
	ErrInvalidParameters = errors.New("srs: parameters out of bounds")
	ErrPersonMismatch    = errors.New("srs: attempt log mixes persons")
)
