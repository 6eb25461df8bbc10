package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Matching.AutoAcceptThreshold != facematch.DefaultAutoAcceptThreshold {
		t.Errorf("AutoAcceptThreshold = %v, want %v", cfg.Matching.AutoAcceptThreshold, facematch.DefaultAutoAcceptThreshold)
	}
	if cfg.Matching.ReviewFloor != facematch.DefaultReviewFloor {
		t.Errorf("ReviewFloor = %v, want %v", cfg.Matching.ReviewFloor, facematch.DefaultReviewFloor)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Quiz.Distractors != 3 {
		t.Errorf("Quiz.Distractors = %d, want 3", cfg.Quiz.Distractors)
	}
	if cfg.SRS.InitialEase != 2.5 || cfg.SRS.SecondInterval != 6 {
		t.Errorf("SRS = %+v", cfg.SRS)
	}
	if cfg.Web.SessionTTL != 2*time.Hour {
		t.Errorf("Web.SessionTTL = %v, want 2h", cfg.Web.SessionTTL)
	}
	if cfg.Matching.Index != database.DefaultIndexParams {
		t.Errorf("Matching.Index = %+v, want %+v", cfg.Matching.Index, database.DefaultIndexParams)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want INFO", cfg.Log.SlogLevel())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/recall")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "10")
	t.Setenv("MATCH_AUTO_ACCEPT_THRESHOLD", "0.9")
	t.Setenv("MATCH_REVIEW_FLOOR", "0.6")
	t.Setenv("MATCH_WORKERS", "8")
	t.Setenv("QUIZ_SESSION_SIZE", "5")
	t.Setenv("WEB_PORT", "9000")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://recall.example.com, ,https://admin.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/recall" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.Database.MaxOpenConns)
	}
	m := cfg.Matching.Matcher()
	if m.AutoAcceptThreshold != 0.9 || m.ReviewFloor != 0.6 || m.Workers != 8 {
		t.Errorf("Matcher() = %+v", m)
	}
	if cfg.Quiz.SessionSize != 5 || cfg.Web.Port != 9000 {
		t.Errorf("Quiz = %+v, Web = %+v", cfg.Quiz, cfg.Web)
	}
	if got := strings.Join(cfg.Web.AllowedOrigins, "|"); got != "https://recall.example.com|https://admin.example.com" {
		t.Errorf("AllowedOrigins = %q", got)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want DEBUG", cfg.Log.SlogLevel())
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name          string
		key, value    string
		wantThreshold bool
	}{
		{"threshold below range", "MATCH_AUTO_ACCEPT_THRESHOLD", "0.5", true},
		{"threshold above range", "MATCH_AUTO_ACCEPT_THRESHOLD", "1.2", true},
		{"threshold not a number", "MATCH_AUTO_ACCEPT_THRESHOLD", "high", false},
		{"floor above threshold", "MATCH_REVIEW_FLOOR", "0.9", false},
		{"unknown log level", "LOG_LEVEL", "verbose", false},
		{"idle above open", "DATABASE_MAX_IDLE_CONNS", "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%s should fail", tt.key, tt.value)
			}
			if got := errors.Is(err, facematch.ErrInvalidThreshold); got != tt.wantThreshold {
				t.Errorf("errors.Is(ErrInvalidThreshold) = %v, want %v (err: %v)", got, tt.wantThreshold, err)
			}
		})
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"", 7},
		{"12", 12},
		{"0", 7},
		{"-3", 7},
		{"abc", 7},
	}

	for _, tt := range tests {
		t.Setenv("FACE_RECALL_TEST_INT", tt.value)
		if got := envInt("FACE_RECALL_TEST_INT", 7); got != tt.expected {
			t.Errorf("envInt(%q) = %d, want %d", tt.value, got, tt.expected)
		}
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("sample added", "person_id", "p1")

	if !strings.Contains(stderr.String(), "sample added") {
		t.Errorf("stderr = %q, want message", stderr.String())
	}
	if strings.Contains(stderr.String(), "hidden") {
		t.Error("debug message should be filtered")
	}

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if entry["person_id"] != "p1" {
		t.Errorf("file entry = %v", entry)
	}
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error: %v", err)
	}

	logger, cleanup = SetupLogger("", slog.LevelInfo)
	if logger == nil {
		t.Fatal("SetupLogger(\"\") returned nil logger")
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup() error: %v", err)
	}
}
