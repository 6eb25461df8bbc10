package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/srs"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Matching MatchingConfig `yaml:"matching"`
	Quiz     QuizConfig     `yaml:"quiz"`
	SRS      srs.Parameters `yaml:"srs"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	URL           string `yaml:"-"`                                                      // PostgreSQL connection URL
	MaxOpenConns  int    `yaml:"max_open_conns" validate:"gte=1"`                        // Maximum open connections (default 25)
	MaxIdleConns  int    `yaml:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"` // Maximum idle connections (default 5)
	HNSWIndexPath string `yaml:"hnsw_index_path"`                                        // Path to persist sample HNSW index (optional, if empty index is rebuilt on startup)
}

type MatchingConfig struct {
	AutoAcceptThreshold float64 `yaml:"auto_accept_threshold"`
	ReviewFloor         float64 `yaml:"review_floor" validate:"gte=0,ltfield=AutoAcceptThreshold"`
	TieEpsilon          float64 `yaml:"tie_epsilon" validate:"gt=0,lt=0.01"`
	Workers             int     `yaml:"workers" validate:"gte=1,lte=256"`
	CandidateLimit      int     `yaml:"candidate_limit" validate:"gte=0"`

	Index database.IndexParams `yaml:"index"`
}

// Matcher converts the section into a facematch configuration.
func (c MatchingConfig) Matcher() facematch.Config {
	return facematch.Config{
		AutoAcceptThreshold: c.AutoAcceptThreshold,
		ReviewFloor:         c.ReviewFloor,
		TieEpsilon:          c.TieEpsilon,
		Workers:             c.Workers,
	}
}

type QuizConfig struct {
	Distractors int `yaml:"distractors" validate:"gte=0,lte=20"`
	SessionSize int `yaml:"session_size" validate:"gte=0"` // 0 = unlimited
}

type WebConfig struct {
	Host           string        `yaml:"host" validate:"required"`
	Port           int           `yaml:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string      `yaml:"allowed_origins"`                 // CORS whitelist, localhost is always allowed
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gte=1m"` // idle quiz sessions are dropped after this
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"` // JSON log file, empty logs to stderr only
}

// SlogLevel returns the configured level.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float.
// Unlike envInt an unparsable value is an error, since thresholds must not silently fall back.
func envFloat(key string, defaultVal float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the embedded defaults without environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load reads the embedded defaults, applies environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Defaults()

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.HNSWIndexPath = envString("HNSW_INDEX_PATH", cfg.Database.HNSWIndexPath)

	var err error
	if cfg.Matching.AutoAcceptThreshold, err = envFloat("MATCH_AUTO_ACCEPT_THRESHOLD", cfg.Matching.AutoAcceptThreshold); err != nil {
		return nil, err
	}
	if cfg.Matching.ReviewFloor, err = envFloat("MATCH_REVIEW_FLOOR", cfg.Matching.ReviewFloor); err != nil {
		return nil, err
	}
	cfg.Matching.Workers = envInt("MATCH_WORKERS", cfg.Matching.Workers)
	cfg.Matching.CandidateLimit = envInt("MATCH_CANDIDATE_LIMIT", cfg.Matching.CandidateLimit)

	cfg.Quiz.Distractors = envInt("QUIZ_DISTRACTORS", cfg.Quiz.Distractors)
	cfg.Quiz.SessionSize = envInt("QUIZ_SESSION_SIZE", cfg.Quiz.SessionSize)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		cfg.Web.AllowedOrigins = splitList(env)
	}

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envString("LOG_FILE", cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	if err := facematch.ValidateThreshold(c.Matching.AutoAcceptThreshold); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.SRS.Validate(); err != nil {
		return err
	}
	return nil
}
