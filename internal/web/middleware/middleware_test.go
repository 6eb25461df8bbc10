package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS_AllowedOrigins(t *testing.T) {
	handler := CORS([]string{"https://recall.example.com/", " "})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{"whitelisted", "https://recall.example.com", "https://recall.example.com"},
		{"localhost", "http://localhost:5173", "http://localhost:5173"},
		{"loopback ip", "http://127.0.0.1:8085", "http://127.0.0.1:8085"},
		{"ipv6 loopback", "http://[::1]:3000", "http://[::1]:3000"},
		{"localhost lookalike", "http://localhost.evil.com", ""},
		{"non http scheme", "file://localhost", ""},
		{"unknown", "https://evil.example.com", ""},
		{"no origin", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/people", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/match", nil)
	req.Header.Set("Origin", "http://localhost")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if called {
		t.Error("preflight reached the next handler")
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{"ok", http.StatusOK, "request completed"},
		{"client error", http.StatusNotFound, "request completed"},
		{"server error", http.StatusInternalServerError, "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/health", nil))

			out := buf.String()
			if !strings.Contains(out, tt.wantMsg) {
				t.Errorf("log = %q, want message %q", out, tt.wantMsg)
			}
			if !strings.Contains(out, "path=/api/v1/health") {
				t.Errorf("log = %q, want path attribute", out)
			}
		})
	}
}
