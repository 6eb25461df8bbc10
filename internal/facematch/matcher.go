package facematch

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-recall/internal/vector"
)

// Default matching parameters. Scores use vector.Similarity, i.e. cosine mapped to [0,1].
const (
	DefaultAutoAcceptThreshold = 0.85
	DefaultReviewFloor         = 0.55
	DefaultTieEpsilon          = 1e-6
)

// Candidate is one scored person.
type Candidate struct {
	PersonID string  `json:"person_id"`
	Score    float64 `json:"score"`
}

// MatchResult is the ephemeral outcome of one match call.
type MatchResult struct {
	BestPersonID string      `json:"best_person_id,omitempty"` // empty on Reject
	BestScore    float64     `json:"best_score"`
	Decision     Decision    `json:"decision"`
	Ambiguous    bool        `json:"ambiguous"`
	Candidates   []Candidate `json:"candidates"` // ranked by score descending
}

// Config holds matcher settings.
type Config struct {
	AutoAcceptThreshold float64
	ReviewFloor         float64
	TieEpsilon          float64
	Workers             int // values <= 1 score serially
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{
		AutoAcceptThreshold: DefaultAutoAcceptThreshold,
		ReviewFloor:         DefaultReviewFloor,
		TieEpsilon:          DefaultTieEpsilon,
		Workers:             1,
	}
}

// Matcher decides which known person a new embedding belongs to.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	cfg Config
}

// NewMatcher validates cfg and creates a Matcher.
func NewMatcher(cfg Config) (*Matcher, error) {
	if err := ValidateThreshold(cfg.AutoAcceptThreshold); err != nil {
		return nil, err
	}
	if cfg.ReviewFloor < 0 || cfg.ReviewFloor >= cfg.AutoAcceptThreshold {
		return nil, fmt.Errorf("%w: review floor %v must be in [0, %v)", ErrInvalidThreshold, cfg.ReviewFloor, cfg.AutoAcceptThreshold)
	}
	if cfg.TieEpsilon <= 0 {
		cfg.TieEpsilon = DefaultTieEpsilon
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Matcher{cfg: cfg}, nil
}

// Config returns the configuration in use.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Match scores query against every identity and returns the decision.
// A dimension mismatch against any stored sample aborts the call with a zero result.
func (m *Matcher) Match(query []float32, identities []Identity) (MatchResult, error) {
	var (
		candidates []Candidate
		err        error
	)
	if m.cfg.Workers > 1 && len(identities) > 1 {
		candidates, err = scoreParallel(query, identities, m.cfg.Workers)
	} else {
		candidates, err = scoreAll(context.Background(), query, identities)
	}
	if err != nil {
		return MatchResult{}, err
	}

	rank(candidates)
	return m.decide(candidates), nil
}

func (m *Matcher) decide(candidates []Candidate) MatchResult {
	result := MatchResult{Decision: Reject, Candidates: candidates}
	if len(candidates) == 0 {
		result.Candidates = []Candidate{}
		return result
	}

	top := candidates[0]
	result.BestScore = top.Score
	switch {
	case top.Score >= m.cfg.AutoAcceptThreshold:
		result.Decision = Accept
	case top.Score > m.cfg.ReviewFloor:
		result.Decision = Review
	default:
		return result
	}
	result.BestPersonID = top.PersonID

	if len(candidates) > 1 && top.Score-candidates[1].Score <= m.cfg.TieEpsilon {
		result.Ambiguous = true
		result.Decision = result.Decision.downgrade()
	}
	return result
}

// scoreIdentity returns the best similarity between query and any of the embeddings.
func scoreIdentity(query []float32, ident Identity) (float64, error) {
	best := math.Inf(-1)
	for _, emb := range ident.Embeddings {
		s, err := vector.Similarity(query, emb)
		if err != nil {
			return 0, fmt.Errorf("person %s: %w", ident.PersonID, err)
		}
		best = max(best, s)
	}
	return best, nil
}

func scoreAll(ctx context.Context, query []float32, identities []Identity) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(identities))
	for _, ident := range identities {
		if len(ident.Embeddings) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := scoreIdentity(query, ident)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{PersonID: ident.PersonID, Score: score})
	}
	return candidates, nil
}

// scoreParallel splits identities into contiguous chunks, one per worker.
// Each worker reduces its own people; the first error cancels the rest.
func scoreParallel(query []float32, identities []Identity, workers int) ([]Candidate, error) {
	workers = min(workers, len(identities))
	chunkSize := (len(identities) + workers - 1) / workers
	parts := make([][]Candidate, 0, workers)

	g, ctx := errgroup.WithContext(context.Background())
	for chunk := range slices.Chunk(identities, chunkSize) {
		idx := len(parts)
		parts = append(parts, nil)
		g.Go(func() error {
			c, err := scoreAll(ctx, query, chunk)
			if err != nil {
				return err
			}
			parts[idx] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(parts...), nil
}

// rank sorts by score descending, ties by person ID.
func rank(candidates []Candidate) {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.PersonID, b.PersonID)
	})
}

// Match scores query against identities using the default review floor and
// tie epsilon with the given auto-accept threshold.
func Match(query []float32, identities []Identity, threshold float64) (MatchResult, error) {
	cfg := DefaultConfig()
	cfg.AutoAcceptThreshold = threshold
	m, err := NewMatcher(cfg)
	if err != nil {
		return MatchResult{}, err
	}
	return m.Match(query, identities)
}
