package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/vector"
)

// sampleDimLock serializes sample inserts so the dimension check cannot race.
const sampleDimLock = 0x66616365

// SampleRepository provides PostgreSQL-backed face sample storage.
type SampleRepository struct {
	pool *Pool
}

// NewSampleRepository creates a new PostgreSQL sample repository.
func NewSampleRepository(pool *Pool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

const sampleColumns = "id, person_id, embedding, dim, captured_at, source_context"

func scanSample(scanner rowScanner) (database.FaceSample, error) {
	var s database.FaceSample
	var vec pgvector.Vector
	var personID sql.NullString

	if err := scanner.Scan(&s.ID, &personID, &vec, &s.Dim, &s.CapturedAt, &s.SourceContext); err != nil {
		return s, fmt.Errorf("scan sample: %w", err)
	}
	s.PersonID = personID.String
	s.Embedding = vec.Slice()
	return s, nil
}

func querySamples(ctx context.Context, pool *Pool, where string, args ...any) ([]database.FaceSample, error) {
	rows, err := pool.Query(ctx, "SELECT "+sampleColumns+" FROM face_samples "+where+" ORDER BY captured_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []database.FaceSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// AddSample stores a sample. It fails with vector.ErrDimensionMismatch when the
// embedding length differs from already stored samples.
func (r *SampleRepository) AddSample(ctx context.Context, sample *database.FaceSample) error {
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now()
	}
	sample.Dim = len(sample.Embedding)

	var personID sql.NullString
	if sample.PersonID != "" {
		personID = sql.NullString{String: sample.PersonID, Valid: true}
	}
	return r.pool.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", sampleDimLock); err != nil {
			return fmt.Errorf("lock samples: %w", err)
		}
		dim, err := embeddingDim(ctx, tx.QueryRowContext)
		if err != nil {
			return err
		}
		if dim != 0 && dim != sample.Dim {
			return fmt.Errorf("%w: sample has %d dimensions, store has %d", vector.ErrDimensionMismatch, sample.Dim, dim)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO face_samples (id, person_id, embedding, dim, captured_at, source_context)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sample.ID, personID, pgvector.NewVector(sample.Embedding), safeIntToInt32(sample.Dim), sample.CapturedAt, sample.SourceContext)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("person %s: %w", sample.PersonID, database.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert sample %s: %w", sample.ID, err)
		}
		return nil
	})
}

// AssignSample sets the owner of a sample.
func (r *SampleRepository) AssignSample(ctx context.Context, sampleID, personID string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE face_samples SET person_id = $2
		WHERE id = $1 AND EXISTS (SELECT 1 FROM people WHERE id = $2)
	`, sampleID, personID)
	if err != nil {
		return fmt.Errorf("assign sample %s: %w", sampleID, err)
	}
	return requireAffected(res, fmt.Sprintf("sample %s or person %s", sampleID, personID))
}

// GetSample retrieves one sample.
func (r *SampleRepository) GetSample(ctx context.Context, sampleID string) (*database.FaceSample, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+sampleColumns+" FROM face_samples WHERE id = $1", sampleID)
	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sample %s: %w", sampleID, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListUnassigned returns samples pending labeling.
func (r *SampleRepository) ListUnassigned(ctx context.Context) ([]database.FaceSample, error) {
	return querySamples(ctx, r.pool, "WHERE person_id IS NULL")
}

// ListSamples returns every stored sample.
func (r *SampleRepository) ListSamples(ctx context.Context) ([]database.FaceSample, error) {
	return querySamples(ctx, r.pool, "")
}

// DeleteSample removes a sample. A profile reference to it is cleared by the schema.
func (r *SampleRepository) DeleteSample(ctx context.Context, sampleID string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM face_samples WHERE id = $1", sampleID)
	if err != nil {
		return fmt.Errorf("delete sample %s: %w", sampleID, err)
	}
	return requireAffected(res, "sample "+sampleID)
}
