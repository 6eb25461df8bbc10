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

// PersonRepository provides PostgreSQL-backed storage of people and their review state.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a new PostgreSQL person repository.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

const personColumns = `
	p.id, p.display_name, p.notes, p.tags, p.profile_sample_id, p.created_at,
	r.ease_factor, r.interval_days, r.repetitions, r.next_review_at, r.last_review_at,
	r.total_attempts, r.correct_attempts`

const personFrom = `
	FROM people p
	LEFT JOIN review_states r ON r.person_id = p.id`

// scanPerson scans one person row joined with its optional review state.
func scanPerson(scanner rowScanner) (database.Person, error) {
	var p database.Person
	var tags pq.StringArray
	var profile sql.NullString
	var ease sql.NullFloat64
	var interval, reps, total, correct sql.NullInt32
	var next, last sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.DisplayName, &p.Notes, &tags, &profile, &p.CreatedAt,
		&ease, &interval, &reps, &next, &last, &total, &correct,
	)
	if err != nil {
		return p, fmt.Errorf("scan person: %w", err)
	}

	p.Tags = []string(tags)
	p.ProfileSampleID = profile.String
	if ease.Valid {
		p.Review = &srs.ReviewState{
			EaseFactor:      ease.Float64,
			Interval:        int(interval.Int32),
			Repetitions:     int(reps.Int32),
			NextReviewDate:  next.Time,
			TotalAttempts:   int(total.Int32),
			CorrectAttempts: int(correct.Int32),
		}
		if last.Valid {
			t := last.Time
			p.Review.LastReviewDate = &t
		}
	}
	return p, nil
}

// Get retrieves a person with samples and review state.
func (r *PersonRepository) Get(ctx context.Context, personID string) (*database.Person, error) {
	row := r.pool.QueryRow(ctx, "SELECT"+personColumns+personFrom+" WHERE p.id = $1", personID)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	samples, err := querySamples(ctx, r.pool, "WHERE person_id = $1", personID)
	if err != nil {
		return nil, err
	}
	p.Samples = samples
	return &p, nil
}

// List returns all people with samples and review state, ordered by creation time.
func (r *PersonRepository) List(ctx context.Context) ([]database.Person, error) {
	return r.listWhere(ctx, "")
}

// ListDue returns people with at least one sample whose review is due at now.
// People without review state are always due.
func (r *PersonRepository) ListDue(ctx context.Context, now time.Time) ([]database.Person, error) {
	return r.listWhere(ctx, `
		WHERE EXISTS (SELECT 1 FROM face_samples s WHERE s.person_id = p.id)
		  AND (r.person_id IS NULL OR r.next_review_at <= $1)`, now)
}

func (r *PersonRepository) listWhere(ctx context.Context, where string, args ...any) ([]database.Person, error) {
	rows, err := r.pool.Query(ctx, "SELECT"+personColumns+personFrom+where+" ORDER BY p.created_at, p.id", args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []database.Person
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(people)
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	if len(people) == 0 {
		return people, nil
	}

	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	samples, err := querySamples(ctx, r.pool, "WHERE person_id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, s := range samples {
		i := index[s.PersonID]
		people[i].Samples = append(people[i].Samples, s)
	}
	return people, nil
}

// Count returns the total number of people.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM people").Scan(&count); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}

// EmbeddingDim returns the dimension of stored samples, 0 if none exist.
func (r *PersonRepository) EmbeddingDim(ctx context.Context) (int, error) {
	return embeddingDim(ctx, r.pool.QueryRow)
}

func embeddingDim(ctx context.Context, queryRow func(context.Context, string, ...any) *sql.Row) (int, error) {
	var dim int
	err := queryRow(ctx, "SELECT dim FROM face_samples LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query embedding dim: %w", err)
	}
	return dim, nil
}

// Create stores a new person. Samples and review state on the struct are ignored.
func (r *PersonRepository) Create(ctx context.Context, person *database.Person) error {
	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO people (id, display_name, notes, tags, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, person.ID, person.DisplayName, person.Notes, pq.Array(nonNilTags(person.Tags)), person.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert person %s: %w", person.ID, err)
	}
	return nil
}

// Update changes display name, notes and tags.
func (r *PersonRepository) Update(ctx context.Context, person *database.Person) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE people SET display_name = $2, notes = $3, tags = $4 WHERE id = $1
	`, person.ID, person.DisplayName, person.Notes, pq.Array(nonNilTags(person.Tags)))
	if err != nil {
		return fmt.Errorf("update person %s: %w", person.ID, err)
	}
	return requireAffected(res, "person "+person.ID)
}

// Delete removes a person; samples, review state and attempts cascade.
func (r *PersonRepository) Delete(ctx context.Context, personID string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM people WHERE id = $1", personID)
	if err != nil {
		return fmt.Errorf("delete person %s: %w", personID, err)
	}
	return requireAffected(res, "person "+personID)
}

// SetProfileSample designates the quiz sample. The sample must belong to the person.
func (r *PersonRepository) SetProfileSample(ctx context.Context, personID, sampleID string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE people SET profile_sample_id = $2
		WHERE id = $1 AND EXISTS (SELECT 1 FROM face_samples WHERE id = $2 AND person_id = $1)
	`, personID, sampleID)
	if err != nil {
		return fmt.Errorf("set profile sample of %s: %w", personID, err)
	}
	return requireAffected(res, fmt.Sprintf("sample %s of person %s", sampleID, personID))
}

// SaveReview stores the review state verbatim.
func (r *PersonRepository) SaveReview(ctx context.Context, personID string, state srs.ReviewState) error {
	var last sql.NullTime
	if state.LastReviewDate != nil {
		last = sql.NullTime{Time: *state.LastReviewDate, Valid: true}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_states (person_id, ease_factor, interval_days, repetitions,
		                           next_review_at, last_review_at, total_attempts, correct_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (person_id) DO UPDATE SET
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			next_review_at = EXCLUDED.next_review_at,
			last_review_at = EXCLUDED.last_review_at,
			total_attempts = EXCLUDED.total_attempts,
			correct_attempts = EXCLUDED.correct_attempts
	`, personID, state.EaseFactor, safeIntToInt32(state.Interval), safeIntToInt32(state.Repetitions),
		state.NextReviewDate, last, safeIntToInt32(state.TotalAttempts), safeIntToInt32(state.CorrectAttempts))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("person %s: %w", personID, database.ErrNotFound)
		}
		return fmt.Errorf("save review of %s: %w", personID, err)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// requireAffected returns ErrNotFound when a statement touched no rows.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, database.ErrNotFound)
	}
	return nil
}
