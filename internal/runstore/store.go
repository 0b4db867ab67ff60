package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one benchmark invocation: the input cloud it sampled and the
// engine configuration it ran with, serialized as JSON.
type Run struct {
	RunID     string          `json:"run_id"`
	Dataset   string          `json:"dataset"`
	BatchSize int             `json:"batch_size"`
	NumPoints int             `json:"num_points"`
	Config    json.RawMessage `json:"config,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Metric is one measured sampling variant within a run.
type Metric struct {
	ID            int64   `json:"id"`
	RunID         string  `json:"run_id"`
	Variant       string  `json:"variant"`
	NumSamples    int     `json:"num_samples"`
	NeighborLimit int     `json:"neighbor_limit"`
	Coverage      float64 `json:"coverage"`
	ElapsedMS     float64 `json:"elapsed_ms"`
}

// NewRun builds a Run with a fresh ID and creation timestamp.
func NewRun(dataset string, batchSize, numPoints int, config json.RawMessage, notes string) Run {
	return Run{
		RunID:     uuid.NewString(),
		Dataset:   dataset,
		BatchSize: batchSize,
		NumPoints: numPoints,
		Config:    config,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
}

// Store provides persistence for benchmark runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and brings
// its schema up to the latest embedded migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run database %s: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun records a new benchmark run.
func (s *Store) InsertRun(run Run) error {
	query := `
		INSERT INTO sampling_runs (run_id, dataset, batch_size, num_points, config_json, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			run.RunID,
			run.Dataset,
			run.BatchSize,
			run.NumPoints,
			nullJSON(run.Config),
			nullStr(run.Notes),
			run.CreatedAt.UTC().Format(time.RFC3339),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// InsertMetric records one variant measurement for an existing run.
func (s *Store) InsertMetric(m Metric) error {
	query := `
		INSERT INTO sampling_metrics (run_id, variant, num_samples, neighbor_limit, coverage, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query, m.RunID, m.Variant, m.NumSamples, m.NeighborLimit, m.Coverage, m.ElapsedMS)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting %s metric for run %s: %w", m.Variant, m.RunID, err)
	}
	return nil
}

// GetRun returns a run by ID, or nil when no such run exists.
func (s *Store) GetRun(runID string) (*Run, error) {
	query := `
		SELECT run_id, dataset, batch_size, num_points, config_json, notes, created_at
		FROM sampling_runs
		WHERE run_id = ?
	`
	var run Run
	var config, notes sql.NullString
	var createdAt string
	err := s.db.QueryRow(query, runID).Scan(
		&run.RunID, &run.Dataset, &run.BatchSize, &run.NumPoints,
		&config, &notes, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	run.Config = jsonOrNil(config)
	if notes.Valid {
		run.Notes = notes.String
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for run %s: %w", runID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query := `
		SELECT run_id, dataset, batch_size, num_points, config_json, notes, created_at
		FROM sampling_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var config, notes sql.NullString
		var createdAt string
		if err := rows.Scan(&run.RunID, &run.Dataset, &run.BatchSize, &run.NumPoints, &config, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		run.Config = jsonOrNil(config)
		if notes.Valid {
			run.Notes = notes.String
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for run row: %w", err)
		}
		run.CreatedAt = t
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MetricsForRun returns a run's metrics in insertion order.
func (s *Store) MetricsForRun(runID string) ([]Metric, error) {
	query := `
		SELECT id, run_id, variant, num_samples, neighbor_limit, coverage, elapsed_ms
		FROM sampling_metrics
		WHERE run_id = ?
		ORDER BY id
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("listing metrics for run %s: %w", runID, err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.ID, &m.RunID, &m.Variant, &m.NumSamples, &m.NeighborLimit, &m.Coverage, &m.ElapsedMS); err != nil {
			return nil, fmt.Errorf("scanning metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// DeleteRun removes a run and its metrics.
func (s *Store) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		if _, err := s.db.Exec(`DELETE FROM sampling_metrics WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("deleting metrics for run %s: %w", runID, err)
		}
		result, err := s.db.Exec(`DELETE FROM sampling_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("deleting run %s: %w", runID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// nullStr returns nil for empty strings so they store as NULL.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON treats empty JSON payloads as NULL.
func nullJSON(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

// jsonOrNil converts a scanned NULLable column back to raw JSON.
func jsonOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
