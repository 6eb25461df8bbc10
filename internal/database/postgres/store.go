package postgres

import (
	"math"

	"github.com/kozaktomas/face-recall/internal/database"
)

// Store implements database.Store on top of the per-table repositories.
type Store struct {
	*PersonRepository
	*SampleRepository
	*AttemptRepository
}

var _ database.Store = (*Store)(nil)

// NewStore creates a store sharing one pool across repositories.
func NewStore(pool *Pool) *Store {
	return &Store{
		PersonRepository:  NewPersonRepository(pool),
		SampleRepository:  NewSampleRepository(pool),
		AttemptRepository: NewAttemptRepository(pool),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// safeIntToInt32 converts int to int32 with clamping to prevent overflow.
func safeIntToInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
