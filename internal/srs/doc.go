// Package srs schedules recall reviews with an SM-2 derived algorithm adapted
// to binary (correct / incorrect) quiz outcomes.
//
// All functions are pure: they take the current review state by pointer
// (nil meaning "never reviewed") and return a fresh value. The caller owns
// persistence and must serialize writes for a single person.
package srs
