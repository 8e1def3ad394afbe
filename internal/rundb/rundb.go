// Package rundb persists solve runs (their options, final cost and stats)
// to SQLite, adapted from the teacher's internal/database repository
// pattern: a single DB wrapping *sql.DB plus a typed repository, schema
// applied via embedded SQL on New, WAL mode for concurrent readers.
package rundb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aryanbinazir/vrpsolve/internal/ils"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

//go:embed schema.sql
var schemaSQL string

// DefaultDBFileName is where vrpserver keeps its run history when no path
// is configured.
const DefaultDBFileName = "runs.db"

// DB wraps the run-history connection.
type DB struct {
	conn *sql.DB
	Runs RunRepository
}

// New opens (creating if absent) the SQLite database at dbPath, applies
// WAL-mode pragmas and the embedded schema, and returns a ready DB.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("rundb: create directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("rundb: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("rundb: set pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("rundb: apply schema: %w", err)
	}

	return &DB{
		conn: conn,
		Runs: &runRepository{db: conn},
	}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// HealthCheck verifies the connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Run is one persisted solve: the options it ran with and the stats it
// produced, keyed by an opaque id the caller mints (vrpserver uses a
// uuid).
type Run struct {
	ID            string
	ProblemName   string
	Seed          uint64
	MaxIterations int
	NumIterations int
	Improvements  int
	Restarts      int
	InitialCost   float64
	FinalCost     float64
	Feasible      bool
	NumRoutes     int
	NumUnassigned int
	CreatedAt     time.Time
	DurationMS    int64
}

// RunRepository persists and retrieves Run records.
type RunRepository interface {
	Insert(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

type runRepository struct {
	db *sql.DB
}

func (r *runRepository) Insert(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, problem_name, seed, max_iterations, num_iterations,
			improvements, restarts, initial_cost, final_cost, feasible,
			num_routes, num_unassigned, created_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProblemName, run.Seed, run.MaxIterations, run.NumIterations,
		run.Improvements, run.Restarts, run.InitialCost, run.FinalCost, run.Feasible,
		run.NumRoutes, run.NumUnassigned, run.CreatedAt.UTC().Format(time.RFC3339), run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("rundb: insert run: %w", err)
	}
	return nil
}

func (r *runRepository) Get(ctx context.Context, id string) (Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, problem_name, seed, max_iterations, num_iterations,
			improvements, restarts, initial_cost, final_cost, feasible,
			num_routes, num_unassigned, created_at, duration_ms
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

func (r *runRepository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, problem_name, seed, max_iterations, num_iterations,
			improvements, restarts, initial_cost, final_cost, feasible,
			num_routes, num_unassigned, created_at, duration_ms
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("rundb: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt string
	err := row.Scan(
		&run.ID, &run.ProblemName, &run.Seed, &run.MaxIterations, &run.NumIterations,
		&run.Improvements, &run.Restarts, &run.InitialCost, &run.FinalCost, &run.Feasible,
		&run.NumRoutes, &run.NumUnassigned, &createdAt, &run.DurationMS,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("rundb: scan run: %w", err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("rundb: parse created_at: %w", err)
	}
	return run, nil
}

// FromStats builds a Run record from a completed solve, ready for Insert.
func FromStats(id, problemName string, seed uint64, stats ils.Stats, sol *vrpcore.Solution, elapsed time.Duration) Run {
	return Run{
		ID:            id,
		ProblemName:   problemName,
		Seed:          seed,
		NumIterations: stats.NumIterations,
		Improvements:  stats.Improvements,
		Restarts:      stats.Restarts,
		InitialCost:   float64(stats.InitialCost),
		FinalCost:     float64(stats.FinalCost),
		Feasible:      sol.IsFeasible(),
		NumRoutes:     sol.NumRoutes,
		NumUnassigned: len(sol.Unassigned),
		CreatedAt:     time.Now(),
		DurationMS:    elapsed.Milliseconds(),
	}
}
