//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/srs"
	"github.com/kozaktomas/face-recall/internal/vector"
)

const pgvectorImage = "pgvector/pgvector:pg16"

// migratedPool starts a pgvector container, migrates it and returns a pool.
// Everything is torn down with the test. Without Docker the test is skipped.
func migratedPool(t *testing.T) *Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.Run(ctx, pgvectorImage,
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "recall",
			"POSTGRES_PASSWORD": "recall",
			"POSTGRES_DB":       "recall",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	endpoint, err := ctr.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}

	pool, err := NewPool(ctx, &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://recall:recall@%s/recall?sslmode=disable", endpoint),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("NewPool() error: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := pool.Migrate(ctx, nil); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return pool
}

func embedding(dim int, offset float32) []float32 {
	emb := make([]float32, dim)
	for i := range emb {
		emb[i] = float32(i)/float32(dim) + offset
	}
	return emb
}

func TestStore_PeopleAndSamples(t *testing.T) {
	pool := migratedPool(t)

	ctx := context.Background()
	store := NewStore(pool)
	created := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	alice := &database.Person{ID: "alice", DisplayName: "Alice", Tags: []string{"work"}, CreatedAt: created}
	bob := &database.Person{ID: "bob", DisplayName: "Bob", CreatedAt: created.Add(time.Minute)}
	for _, p := range []*database.Person{alice, bob} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error: %v", p.ID, err)
		}
	}

	t.Run("AddAndGetSamples", func(t *testing.T) {
		for i := range 2 {
			s := &database.FaceSample{
				ID:         fmt.Sprintf("alice-%d", i),
				PersonID:   "alice",
				Embedding:  embedding(128, float32(i)),
				CapturedAt: created.Add(time.Duration(i) * time.Hour),
			}
			if err := store.AddSample(ctx, s); err != nil {
				t.Fatalf("AddSample() error: %v", err)
			}
		}

		got, err := store.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if len(got.Samples) != 2 || got.Samples[0].ID != "alice-0" {
			t.Errorf("Samples = %+v", got.Samples)
		}
		if len(got.Samples[0].Embedding) != 128 || got.Samples[0].Dim != 128 {
			t.Errorf("Embedding dim = %d/%d, want 128", len(got.Samples[0].Embedding), got.Samples[0].Dim)
		}
		if got.Review != nil {
			t.Error("Review should be nil before the first attempt")
		}
		if !got.HasTag("work") {
			t.Errorf("Tags = %v", got.Tags)
		}
	})

	t.Run("DimensionGuard", func(t *testing.T) {
		err := store.AddSample(ctx, &database.FaceSample{ID: "bad", PersonID: "bob", Embedding: embedding(64, 0)})
		if !errors.Is(err, vector.ErrDimensionMismatch) {
			t.Errorf("AddSample(64-dim) error = %v, want ErrDimensionMismatch", err)
		}
		dim, err := store.EmbeddingDim(ctx)
		if err != nil || dim != 128 {
			t.Errorf("EmbeddingDim() = %d, %v", dim, err)
		}
	})

	t.Run("UnassignedAndAssign", func(t *testing.T) {
		if err := store.AddSample(ctx, &database.FaceSample{ID: "loose", Embedding: embedding(128, 5)}); err != nil {
			t.Fatalf("AddSample() error: %v", err)
		}
		unassigned, err := store.ListUnassigned(ctx)
		if err != nil || len(unassigned) != 1 {
			t.Fatalf("ListUnassigned() = %v, %v", unassigned, err)
		}
		if err := store.AssignSample(ctx, "loose", "bob"); err != nil {
			t.Fatalf("AssignSample() error: %v", err)
		}
		if err := store.AssignSample(ctx, "loose", "nobody"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("AssignSample(unknown person) error = %v, want ErrNotFound", err)
		}
		if err := store.SetProfileSample(ctx, "bob", "loose"); err != nil {
			t.Errorf("SetProfileSample() error: %v", err)
		}
		if err := store.SetProfileSample(ctx, "bob", "alice-0"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("SetProfileSample(foreign sample) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ReviewAndDue", func(t *testing.T) {
		now := created.AddDate(0, 0, 1)
		state, attempt := srs.Default().RecordAttempt(nil, "alice", true, now, srs.WithResponseTime(900))
		if err := store.SaveReview(ctx, "alice", state); err != nil {
			t.Fatalf("SaveReview() error: %v", err)
		}
		if err := store.Append(ctx, attempt); err != nil {
			t.Fatalf("Append() error: %v", err)
		}

		got, err := store.Get(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if got.Review == nil || got.Review.Interval != 1 || got.Review.Repetitions != 1 {
			t.Errorf("Review = %+v", got.Review)
		}
		if !got.Review.NextReviewDate.Equal(state.NextReviewDate) {
			t.Errorf("NextReviewDate = %v, want %v", got.Review.NextReviewDate, state.NextReviewDate)
		}

		due, err := store.ListDue(ctx, now)
		if err != nil {
			t.Fatal(err)
		}
		if len(due) != 1 || due[0].ID != "bob" {
			t.Errorf("ListDue(now) = %v, want only bob", due)
		}
		due, err = store.ListDue(ctx, now.AddDate(0, 0, 1))
		if err != nil {
			t.Fatal(err)
		}
		if len(due) != 2 {
			t.Errorf("ListDue(tomorrow) = %d people, want 2", len(due))
		}

		attempts, err := store.ListByPerson(ctx, "alice")
		if err != nil || len(attempts) != 1 {
			t.Fatalf("ListByPerson() = %v, %v", attempts, err)
		}
		if attempts[0].ResponseTimeMs == nil || *attempts[0].ResponseTimeMs != 900 {
			t.Errorf("ResponseTimeMs = %v", attempts[0].ResponseTimeMs)
		}
	})

	t.Run("CascadeDelete", func(t *testing.T) {
		if err := store.Delete(ctx, "alice"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := store.Get(ctx, "alice"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
		}
		if _, err := store.GetSample(ctx, "alice-0"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("GetSample(cascaded) error = %v, want ErrNotFound", err)
		}
		attempts, err := store.ListSince(ctx, time.Time{})
		if err != nil || len(attempts) != 0 {
			t.Errorf("ListSince() = %v, %v, want no attempts", attempts, err)
		}
		if err := store.Delete(ctx, "alice"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
		count, err := store.Count(ctx)
		if err != nil || count != 1 {
			t.Errorf("Count() = %d, %v", count, err)
		}
	})
}

func TestPool_MigrationsApplied(t *testing.T) {
	pool := migratedPool(t)

	ctx := context.Background()
	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("MigrationsApplied() error: %v", err)
	}
	if len(versions) != 2 || versions[0] != "001_initial.sql" {
		t.Errorf("versions = %v", versions)
	}

	// Running again is a no-op.
	if err := pool.Migrate(ctx, nil); err != nil {
		t.Errorf("second Migrate() error: %v", err)
	}
}
