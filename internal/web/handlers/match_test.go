package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-recall/internal/database/mock"
	"github.com/kozaktomas/face-recall/internal/facematch"
)

func TestMatchHandler_Match(t *testing.T) {
	tests := []struct {
		name         string
		embedding    []float32
		assign       bool
		wantDecision facematch.Decision
		wantBest     string
		wantStored   bool
	}{
		{"accept without assign", []float32{1, 0}, false, facematch.Accept, "p1", false},
		{"accept with assign", []float32{1, 0}, true, facematch.Accept, "p1", true},
		{"review is never committed", []float32{0.6, 0.8}, true, facematch.Review, "p1", false},
		{"reject", []float32{-1, -1}, true, facematch.Reject, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := mock.NewMockStore()
			seedPerson(store, "p1", "Alice", []float32{1, 0})
			seedPerson(store, "p2", "Bob", []float32{-1, 1})
			handler := NewMatchHandler(newTestService(t, store), discardLogger())

			recorder := httptest.NewRecorder()
			body := MatchRequest{SampleRequest: SampleRequest{Embedding: tc.embedding}, Assign: tc.assign}
			handler.Match(recorder, jsonRequest(t, "POST", "/api/v1/match", body))

			assertStatusCode(t, recorder, http.StatusOK)
			var resp MatchResponse
			decodeBody(t, recorder, &resp)
			if resp.Decision != tc.wantDecision {
				t.Errorf("decision = %v, want %v (score %.3f)", resp.Decision, tc.wantDecision, resp.BestScore)
			}
			if resp.BestPersonID != tc.wantBest {
				t.Errorf("best person = %q, want %q", resp.BestPersonID, tc.wantBest)
			}
			if len(resp.Candidates) != 2 {
				t.Errorf("expected 2 candidates, got %d", len(resp.Candidates))
			}
			if got := resp.Sample != nil; got != tc.wantStored {
				t.Errorf("sample stored = %v, want %v", got, tc.wantStored)
			}

			samples, _ := store.ListSamples(t.Context())
			wantCount := 2
			if tc.wantStored {
				wantCount = 3
			}
			if len(samples) != wantCount {
				t.Errorf("store holds %d samples, want %d", len(samples), wantCount)
			}
		})
	}
}

func TestMatchHandler_EmptyStore(t *testing.T) {
	handler := NewMatchHandler(newTestService(t, mock.NewMockStore()), discardLogger())

	recorder := httptest.NewRecorder()
	handler.Match(recorder, jsonRequest(t, "POST", "/api/v1/match", MatchRequest{SampleRequest: SampleRequest{Embedding: []float32{1, 0}}}))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp MatchResponse
	decodeBody(t, recorder, &resp)
	if resp.Decision != facematch.Reject || len(resp.Candidates) != 0 {
		t.Errorf("expected Reject with no candidates, got %+v", resp.MatchResult)
	}
}

func TestMatchHandler_DimensionMismatch(t *testing.T) {
	store := mock.NewMockStore()
	seedPerson(store, "p1", "Alice", []float32{1, 0})
	handler := NewMatchHandler(newTestService(t, store), discardLogger())

	recorder := httptest.NewRecorder()
	handler.Match(recorder, jsonRequest(t, "POST", "/api/v1/match", MatchRequest{SampleRequest: SampleRequest{Embedding: []float32{1, 0, 0}}}))

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
}
