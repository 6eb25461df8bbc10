// Package quiz builds recall quiz sessions and folds answers into review schedules.
package quiz

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/srs"
)

// DefaultDistractors is the number of wrong names offered per item.
const DefaultDistractors = 3

// Filter narrows the pool in Filtered mode. Empty fields do not filter.
type Filter struct {
	PersonIDs []string `json:"person_ids,omitempty"`
	Tag       string   `json:"tag,omitempty"`
}

// Options control session construction.
type Options struct {
	Mode            Mode
	Filter          Filter
	DistractorCount int    // negative selects DefaultDistractors
	Limit           int    // 0 quizzes every selected person
	Seed            *int64 // nil uses fresh entropy
	Now             time.Time
}

// Option is one answer choice.
type Option struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
}

// Item is one question: a face and the names to pick from.
type Item struct {
	PersonID string              `json:"person_id"`
	Name     string              `json:"-"`
	Sample   database.FaceSample `json:"sample"`
	Options  []Option            `json:"options"`
	Answered bool                `json:"answered"`
	Correct  bool                `json:"correct"`
}

// Build selects people from pool according to opts and creates a session.
// An empty selection yields a completed session with no items.
func Build(pool []database.Person, opts Options) (*Session, error) {
	if opts.Mode < Spaced || opts.Mode > Filtered {
		return nil, ErrInvalidMode
	}
	if opts.DistractorCount < 0 {
		opts.DistractorCount = DefaultDistractors
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := newRand(opts.Seed)

	selected := selectPeople(pool, opts)
	if opts.Mode != Spaced {
		rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	}
	if opts.Limit > 0 && len(selected) > opts.Limit {
		selected = selected[:opts.Limit]
	}
	if opts.Mode == Spaced {
		rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	}

	session := &Session{
		ID:        uuid.NewString(),
		Mode:      opts.Mode,
		CreatedAt: opts.Now,
		State:     Created,
		Items:     make([]Item, 0, len(selected)),
		Attempts:  []srs.Attempt{},
	}
	for _, p := range selected {
		options := append([]Option{{PersonID: p.ID, Name: p.DisplayName}}, distractors(p, pool, opts.DistractorCount, rng)...)
		rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		session.Items = append(session.Items, Item{
			PersonID: p.ID,
			Name:     p.DisplayName,
			Sample:   representativeSample(p),
			Options:  options,
		})
	}
	if len(session.Items) == 0 {
		session.State = Complete
	}
	return session, nil
}

// BuildSession builds a session with the given mode, distractor count and seed at now.
func BuildSession(pool []database.Person, mode Mode, distractorCount int, seed *int64, now time.Time) (*Session, error) {
	return Build(pool, Options{Mode: mode, DistractorCount: distractorCount, Seed: seed, Now: now})
}

func newRand(seed *int64) *rand.Rand {
	var s uint64
	if seed != nil {
		s = uint64(*seed)
	} else {
		s = rand.Uint64()
	}
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// selectPeople returns the people to quiz in a deterministic order.
// Spaced mode orders the most overdue first so a limit keeps the most urgent.
func selectPeople(pool []database.Person, opts Options) []database.Person {
	var eligible []database.Person
	for _, p := range pool {
		if p.HasSamples() {
			eligible = append(eligible, p)
		}
	}

	switch opts.Mode {
	case All:
		return eligible
	case Filtered:
		return slices.DeleteFunc(eligible, func(p database.Person) bool {
			if len(opts.Filter.PersonIDs) > 0 && !slices.Contains(opts.Filter.PersonIDs, p.ID) {
				return true
			}
			return opts.Filter.Tag != "" && !p.HasTag(opts.Filter.Tag)
		})
	}

	var due []database.Person
	for _, p := range eligible {
		if srs.IsDue(p.Review, opts.Now) {
			due = append(due, p)
		}
	}
	if len(due) == 0 {
		due = eligible
	}
	slices.SortStableFunc(due, func(a, b database.Person) int {
		return cmp.Compare(nextReview(a, opts.Now).UnixNano(), nextReview(b, opts.Now).UnixNano())
	})
	return due
}

// nextReview treats never-quizzed people as due at now.
func nextReview(p database.Person, now time.Time) time.Time {
	if p.Review == nil {
		return now
	}
	return p.Review.NextReviewDate
}

// representativeSample picks the profile sample if it resolves, else the earliest capture.
func representativeSample(p database.Person) database.FaceSample {
	if p.ProfileSampleID != "" {
		for _, s := range p.Samples {
			if s.ID == p.ProfileSampleID {
				return s
			}
		}
	}
	return slices.MinFunc(p.Samples, func(a, b database.FaceSample) int {
		if c := a.CapturedAt.Compare(b.CapturedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// distractors draws up to k other people from pool without replacement.
// People whose name matches one already offered are skipped.
func distractors(target database.Person, pool []database.Person, k int, rng *rand.Rand) []Option {
	if k == 0 {
		return nil
	}
	seen := map[string]struct{}{facematch.NormalizePersonName(target.DisplayName): {}}
	picked := make([]Option, 0, k)
	for _, i := range rng.Perm(len(pool)) {
		p := pool[i]
		if p.ID == target.ID {
			continue
		}
		key := facematch.NormalizePersonName(p.DisplayName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		picked = append(picked, Option{PersonID: p.ID, Name: p.DisplayName})
		if len(picked) == k {
			break
		}
	}
	return picked
}
