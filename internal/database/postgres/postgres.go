// Package postgres stores people, face samples, review states and the quiz
// attempt log in PostgreSQL with pgvector embeddings.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database"
)

const (
	pingTimeout     = 10 * time.Second
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

// Pool wraps the sql.DB shared by all repositories.
type Pool struct {
	db *sql.DB
}

var (
	activePool *Pool
	activeMu   sync.RWMutex
)

// NewPool opens a connection pool and verifies the server is reachable.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{db: db}, nil
}

// Close releases every connection.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// QueryRow runs a query expected to return at most one row.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Query runs a query returning rows. The caller closes them.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// Exec runs a statement without result rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}

// inTx runs fn in a transaction, committing when fn returns nil.
func (p *Pool) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// activate makes p the pool behind database.GetStore.
func activate(p *Pool) {
	activeMu.Lock()
	defer activeMu.Unlock()
	activePool = p
	database.RegisterPostgresBackend(func() database.Store {
		return NewStore(p)
	})
}

// ActivePool returns the pool registered by Initialize, nil before.
func ActivePool() *Pool {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return activePool
}

// Initialize connects, applies pending migrations and registers the store.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) error {
	if cfg == nil || cfg.URL == "" {
		return errors.New("database URL is required")
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	if err := pool.Migrate(ctx, logger); err != nil {
		_ = pool.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	activate(pool)
	return nil
}
