package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/database/mock"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/recall"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.Web.AllowedOrigins = []string{"https://recall.example.com"}
	m, err := facematch.NewMatcher(cfg.Matching.Matcher())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := recall.New(mock.NewMockStore(), database.NewSampleIndex(), m, nil, recall.Options{Logger: logger})
	s := NewServer(cfg, svc, logger)
	t.Cleanup(func() { s.sessions.Stop() })
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", "GET", "/api/v1/health", "", http.StatusOK},
		{"list people", "GET", "/api/v1/people", "", http.StatusOK},
		{"create person", "POST", "/api/v1/people", `{"display_name":"Alice"}`, http.StatusCreated},
		{"missing person", "GET", "/api/v1/people/nope", "", http.StatusNotFound},
		{"unassigned samples", "GET", "/api/v1/samples/unassigned", "", http.StatusOK},
		{"due", "GET", "/api/v1/review/due", "", http.StatusOK},
		{"match", "POST", "/api/v1/match", `{"embedding":[1,0]}`, http.StatusOK},
		{"create quiz", "POST", "/api/v1/quiz/sessions", `{}`, http.StatusCreated},
		{"missing quiz", "GET", "/api/v1/quiz/sessions/nope", "", http.StatusNotFound},
		{"unknown route", "GET", "/api/v1/albums", "", http.StatusNotFound},
		{"wrong method", "DELETE", "/api/v1/match", "", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("%s %s = %d, want %d (body: %s)", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "https://recall.example.com")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://recall.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := config.Defaults()
	cfg.Web.Host, cfg.Web.Port = "127.0.0.1", 0
	m, err := facematch.NewMatcher(cfg.Matching.Matcher())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(cfg, recall.New(mock.NewMockStore(), nil, m, nil, recall.Options{Logger: logger}), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
