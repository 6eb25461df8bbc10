package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/quiz"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/vector"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantBody string
	}{
		{"summary", http.StatusOK, quiz.Summary{Correct: 1, Total: 2, Accuracy: 50, Tier: quiz.Good}, `"tier":"good"`},
		{"created person", http.StatusCreated, map[string]string{"id": "p1"}, `"id":"p1"`},
		{"nil body", http.StatusNoContent, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondJSON(rec, tt.status, tt.body)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRespondError_Body(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusConflict, "already answered")

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "already answered" {
		t.Errorf("expected error 'already answered', got '%s'", result["error"])
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("person p1: %w", database.ErrNotFound), http.StatusNotFound},
		{"unknown item", quiz.ErrUnknownItem, http.StatusNotFound},
		{"duplicate name", recall.ErrDuplicateName, http.StatusConflict},
		{"already answered", quiz.ErrAlreadyAnswered, http.StatusConflict},
		{"session complete", quiz.ErrSessionComplete, http.StatusConflict},
		{"dimension mismatch", fmt.Errorf("add sample: %w", vector.ErrDimensionMismatch), http.StatusUnprocessableEntity},
		{"empty embedding", recall.ErrEmptyEmbedding, http.StatusUnprocessableEntity},
		{"invalid mode", quiz.ErrInvalidMode, http.StatusUnprocessableEntity},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorStatus(tc.err); got != tc.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestRespondServiceError_HidesInternalErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/people", nil)

	respondServiceError(recorder, req, discardLogger(), "list people", errors.New("pq: password authentication failed"))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	if strings.Contains(recorder.Body.String(), "password") {
		t.Errorf("internal error leaked into response: %s", recorder.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   bool
		status int
	}{
		{"valid", `{"person_id":"p1"}`, true, http.StatusOK},
		{"malformed", `{"person_id":`, false, http.StatusBadRequest},
		{"unknown field", `{"person_id":"p1","extra":1}`, false, http.StatusBadRequest},
		{"missing required", `{}`, false, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))

			var dst AssignRequest
			if got := decodeJSON(recorder, req, &dst); got != tc.want {
				t.Fatalf("decodeJSON() = %v, want %v", got, tc.want)
			}
			if !tc.want {
				assertStatusCode(t, recorder, tc.status)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("line1\nline2\r"); got != "line1line2" {
		t.Errorf("sanitizeForLog() = %q, want %q", got, "line1line2")
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	decodeBody(t, recorder, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}
