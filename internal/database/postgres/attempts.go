package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/srs"
)

// AttemptRepository is the append-only quiz attempt log.
type AttemptRepository struct {
	pool *Pool
}

// NewAttemptRepository creates a new PostgreSQL attempt log.
func NewAttemptRepository(pool *Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Append adds one attempt.
func (r *AttemptRepository) Append(ctx context.Context, attempt srs.Attempt) error {
	var responseTime sql.NullInt32
	if attempt.ResponseTimeMs != nil {
		responseTime = sql.NullInt32{Int32: safeIntToInt32(*attempt.ResponseTimeMs), Valid: true}
	}
	var guess sql.NullString
	if attempt.UserGuess != nil {
		guess = sql.NullString{String: *attempt.UserGuess, Valid: true}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (person_id, was_correct, response_time_ms, attempted_at, user_guess)
		VALUES ($1, $2, $3, $4, $5)
	`, attempt.PersonID, attempt.WasCorrect, responseTime, attempt.AttemptedAt, guess)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("person %s: %w", attempt.PersonID, database.ErrNotFound)
		}
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// ListByPerson returns a person's attempts ordered by time.
func (r *AttemptRepository) ListByPerson(ctx context.Context, personID string) ([]srs.Attempt, error) {
	return r.query(ctx, "WHERE person_id = $1", personID)
}

// ListSince returns all attempts at or after since.
func (r *AttemptRepository) ListSince(ctx context.Context, since time.Time) ([]srs.Attempt, error) {
	return r.query(ctx, "WHERE attempted_at >= $1", since)
}

func (r *AttemptRepository) query(ctx context.Context, where string, args ...any) ([]srs.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT person_id, was_correct, response_time_ms, attempted_at, user_guess
		FROM quiz_attempts `+where+`
		ORDER BY attempted_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []srs.Attempt
	for rows.Next() {
		var a srs.Attempt
		var responseTime sql.NullInt32
		var guess sql.NullString
		if err := rows.Scan(&a.PersonID, &a.WasCorrect, &responseTime, &a.AttemptedAt, &guess); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if responseTime.Valid {
			ms := int(responseTime.Int32)
			a.ResponseTimeMs = &ms
		}
		if guess.Valid {
			g := guess.String
			a.UserGuess = &g
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// isForeignKeyViolation reports a PostgreSQL foreign_key_violation.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
