package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, input_file, output_file, status, client, error, created_at, started_at, completed_at`

// CreateRun records a pending run and returns its ID
func (db *DB) CreateRun(ctx context.Context, inputFile, outputFile string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO proposal_runs (id, input_file, output_file, status)
		 VALUES ($1, $2, $3, $4)`,
		id, inputFile, outputFile, StatusPending,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// MarkRunning moves a run to running
func (db *DB) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	return db.updateRun(ctx,
		`UPDATE proposal_runs SET status = $2, started_at = NOW() WHERE id = $1`,
		runID, StatusRunning)
}

// MarkCompleted moves a run to completed and records the client name
func (db *DB) MarkCompleted(ctx context.Context, runID uuid.UUID, client string) error {
	return db.updateRun(ctx,
		`UPDATE proposal_runs SET status = $2, client = $3, completed_at = NOW() WHERE id = $1`,
		runID, StatusCompleted, client)
}

// MarkFailed moves a run to failed and records the cause
func (db *DB) MarkFailed(ctx context.Context, runID uuid.UUID, cause string) error {
	return db.updateRun(ctx,
		`UPDATE proposal_runs SET status = $2, error = $3, completed_at = NOW() WHERE id = $1`,
		runID, StatusFailed, cause)
}

func (db *DB) updateRun(ctx context.Context, query string, args ...any) error {
	result, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %v", ErrRunNotFound, args[0])
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when no run exists.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	return db.queryRun(ctx,
		`SELECT `+runColumns+` FROM proposal_runs WHERE id = $1`, runID)
}

// GetRunByOutput retrieves the most recent run writing outputFile. It
// returns nil, nil when no run exists.
func (db *DB) GetRunByOutput(ctx context.Context, outputFile string) (*Run, error) {
	return db.queryRun(ctx,
		`SELECT `+runColumns+` FROM proposal_runs
		 WHERE output_file = $1 ORDER BY created_at DESC LIMIT 1`, outputFile)
}

func (db *DB) queryRun(ctx context.Context, query string, arg any) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&run.ID, &run.InputFile, &run.OutputFile, &run.Status, &run.Client, &run.Error,
		&run.CreatedAt, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// SaveArtifact stores a JSON artifact for a run, replacing any earlier
// artifact of the same step.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, category, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = $3, content = $4, created_at = NOW()`,
		runID, step, category, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step. It returns
// nil, nil when the artifact does not exist.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}
