package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/database/mock"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/srs"
)

var testNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

var errTestStore = errors.New("store unavailable")

// discardLogger returns a logger that drops everything
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService builds a recall service over the given mock store with a fixed clock
func newTestService(t *testing.T, store *mock.MockStore) *recall.Service {
	t.Helper()
	m, err := facematch.NewMatcher(facematch.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return recall.New(store, database.NewSampleIndex(), m, srs.Default(), recall.Options{
		Distractors: 3,
		Now:         func() time.Time { return testNow },
		Logger:      discardLogger(),
	})
}

// seedPerson stores a person with one sample per embedding
func seedPerson(store *mock.MockStore, id, name string, embeddings ...[]float32) {
	p := database.Person{ID: id, DisplayName: name, CreatedAt: testNow}
	for i, emb := range embeddings {
		p.Samples = append(p.Samples, database.FaceSample{
			ID:         fmt.Sprintf("%s-s%d", id, i),
			PersonID:   id,
			Embedding:  emb,
			Dim:        len(emb),
			CapturedAt: testNow.Add(time.Duration(i) * time.Minute),
		})
	}
	store.AddPerson(p)
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a recorded JSON response into v
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

// assertStatusCode checks the recorded status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Errorf("expected status %d, got %d (body: %s)", want, recorder.Code, recorder.Body.String())
	}
}
