package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/database/mock"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/srs"
)

func TestReviewHandler_Due(t *testing.T) {
	store := mock.NewMockStore()
	seedPerson(store, "fresh", "Never Quizzed", []float32{1, 0})
	seedPerson(store, "nosamples", "No Samples")
	store.AddPerson(database.Person{
		ID:          "overdue",
		DisplayName: "Overdue",
		Samples:     []database.FaceSample{{ID: "o1", Embedding: []float32{0, 1}, Dim: 2}},
		Review: &srs.ReviewState{
			EaseFactor:     2.5,
			Interval:       6,
			Repetitions:    2,
			NextReviewDate: testNow.AddDate(0, 0, -3),
		},
	})
	store.AddPerson(database.Person{
		ID:          "later",
		DisplayName: "Later",
		Samples:     []database.FaceSample{{ID: "l1", Embedding: []float32{1, 1}, Dim: 2}},
		Review: &srs.ReviewState{
			EaseFactor:     2.5,
			Interval:       6,
			Repetitions:    2,
			NextReviewDate: testNow.AddDate(0, 0, 4),
		},
	})
	handler := NewReviewHandler(newTestService(t, store), discardLogger())

	recorder := httptest.NewRecorder()
	handler.Due(recorder, httptest.NewRequest("GET", "/api/v1/review/due", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var due []recall.ReviewStatus
	decodeBody(t, recorder, &due)
	if len(due) != 2 {
		t.Fatalf("expected 2 due people, got %d", len(due))
	}
	if due[0].PersonID != "overdue" || due[0].DaysUntilReview != -3 {
		t.Errorf("expected the overdue person first, got %+v", due[0])
	}
	if due[1].PersonID != "fresh" || !due[1].NeedsReview {
		t.Errorf("expected the never quizzed person second, got %+v", due[1])
	}
}

func TestReviewHandler_Get(t *testing.T) {
	store := mock.NewMockStore()
	store.AddPerson(database.Person{
		ID:          "p1",
		DisplayName: "Alice",
		Samples:     []database.FaceSample{{ID: "s1", Embedding: []float32{1, 0}, Dim: 2}},
		Review: &srs.ReviewState{
			EaseFactor:      2.6,
			Interval:        6,
			Repetitions:     2,
			NextReviewDate:  testNow.Add(48 * time.Hour),
			TotalAttempts:   4,
			CorrectAttempts: 3,
		},
	})
	handler := NewReviewHandler(newTestService(t, store), discardLogger())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, requestWithChiParams(httptest.NewRequest("GET", "/api/v1/people/p1/review", nil), map[string]string{"id": "p1"}))

	assertStatusCode(t, recorder, http.StatusOK)
	var status recall.ReviewStatus
	decodeBody(t, recorder, &status)
	if status.NeedsReview {
		t.Error("expected the person not to be due")
	}
	if status.DaysUntilReview != 2 {
		t.Errorf("days until review = %d, want 2", status.DaysUntilReview)
	}
	if status.Accuracy != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", status.Accuracy)
	}

	recorder = httptest.NewRecorder()
	handler.Get(recorder, requestWithChiParams(httptest.NewRequest("GET", "/api/v1/people/nope/review", nil), map[string]string{"id": "nope"}))
	assertStatusCode(t, recorder, http.StatusNotFound)
}
