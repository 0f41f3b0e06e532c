package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when updating a run that does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run represents one proposal generation request
type Run struct {
	ID          uuid.UUID  `json:"id"`
	InputFile   string     `json:"input_file"`
	OutputFile  string     `json:"output_file"`
	Status      string     `json:"status"`
	Client      string     `json:"client,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Finished reports whether the run reached a terminal status.
func (r *Run) Finished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// RunStore tracks run status so downloads can tell an unfinished run from
// one that never started. Lookups by output file return the most recent run.
type RunStore interface {
	CreateRun(ctx context.Context, inputFile, outputFile string) (uuid.UUID, error)
	MarkRunning(ctx context.Context, runID uuid.UUID) error
	MarkCompleted(ctx context.Context, runID uuid.UUID, client string) error
	MarkFailed(ctx context.Context, runID uuid.UUID, cause string) error
	GetRun(ctx context.Context, runID uuid.UUID) (*Run, error)
	GetRunByOutput(ctx context.Context, outputFile string) (*Run, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
}

var (
	_ RunStore = (*DB)(nil)
	_ RunStore = (*MemoryStore)(nil)
)
