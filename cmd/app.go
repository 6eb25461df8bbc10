package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/database/postgres"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/srs"
)

// app bundles what every command needs after startup.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *recall.Service
	close  func()
}

// indexMode selects how setupApp prepares the sample index.
type indexMode int

const (
	indexOnDemand  indexMode = iota // built only when candidate preselection is enabled
	indexPersisted                  // loaded from HNSW_INDEX_PATH, rebuilt when missing
)

// setupApp loads configuration, connects to PostgreSQL and builds the recall service.
func setupApp(ctx context.Context, mode indexMode) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, closeLog := config.SetupLogger(cfg.Log.File, cfg.Log.SlogLevel())
	slog.SetDefault(logger)

	if cfg.Database.URL == "" {
		closeLog()
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(ctx, &cfg.Database, logger); err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	store, err := database.GetStore()
	if err != nil {
		closeLog()
		return nil, err
	}

	matcher, err := facematch.NewMatcher(cfg.Matching.Matcher())
	if err != nil {
		closeLog()
		return nil, err
	}
	scheduler, err := srs.NewScheduler(cfg.SRS)
	if err != nil {
		closeLog()
		return nil, err
	}

	index := database.NewSampleIndexWithParams(cfg.Matching.Index)
	svc := recall.New(store, index, matcher, scheduler, recall.Options{
		CandidateLimit: cfg.Matching.CandidateLimit,
		Distractors:    cfg.Quiz.Distractors,
		SessionSize:    cfg.Quiz.SessionSize,
		Logger:         logger,
	})
	switch {
	case mode == indexPersisted:
		initSampleIndex(ctx, svc, cfg.Database.HNSWIndexPath, logger)
	case cfg.Matching.CandidateLimit > 0:
		initSampleIndex(ctx, svc, "", logger)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		svc:    svc,
		close: func() {
			if pool := postgres.ActivePool(); pool != nil {
				pool.Close()
			}
			closeLog()
		},
	}, nil
}

// initSampleIndex loads the persisted index or rebuilds it from stored samples.
func initSampleIndex(ctx context.Context, svc *recall.Service, indexPath string, logger *slog.Logger) {
	index := svc.Index()
	if indexPath != "" {
		fmt.Printf("Loading sample HNSW index from %s...\n", indexPath)
		err := index.Load(indexPath)
		if err == nil && !index.IsEmpty() {
			fmt.Printf("Sample HNSW index ready with %d samples (persisted to %s)\n", index.Count(), indexPath)
			return
		}
		if err != nil {
			logger.Warn("failed to load sample index, rebuilding", "path", indexPath, "error", err)
		}
	}
	n, err := svc.RebuildIndex(ctx)
	if err != nil {
		logger.Warn("failed to build sample index, matching scores every person", "error", err)
		return
	}
	logger.Debug("sample index built", "samples", n)
	if indexPath != "" {
		fmt.Printf("Sample HNSW index built with %d samples\n", n)
	}
}

// saveSampleIndex persists the index when a path is configured.
func (a *app) saveSampleIndex() {
	path := a.cfg.Database.HNSWIndexPath
	if path == "" {
		return
	}
	if err := a.svc.Index().Save(path); err != nil {
		fmt.Printf("Warning: failed to save sample HNSW index: %v\n", err)
		return
	}
	fmt.Println("Sample HNSW index saved to disk")
}

// outputJSON prints data as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
