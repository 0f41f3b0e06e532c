package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a RunStore kept in process memory, used when no database
// is configured. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[uuid.UUID]*Run
	artifacts map[uuid.UUID]map[string][]byte
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[uuid.UUID]*Run),
		artifacts: make(map[uuid.UUID]map[string][]byte),
		now:       time.Now,
	}
}

// CreateRun implements RunStore
func (s *MemoryStore) CreateRun(_ context.Context, inputFile, outputFile string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.runs[id] = &Run{
		ID:         id,
		InputFile:  inputFile,
		OutputFile: outputFile,
		Status:     StatusPending,
		CreatedAt:  s.now(),
	}
	return id, nil
}

// MarkRunning implements RunStore
func (s *MemoryStore) MarkRunning(_ context.Context, runID uuid.UUID) error {
	return s.update(runID, func(r *Run, now time.Time) {
		r.Status = StatusRunning
		r.StartedAt = &now
	})
}

// MarkCompleted implements RunStore
func (s *MemoryStore) MarkCompleted(_ context.Context, runID uuid.UUID, client string) error {
	return s.update(runID, func(r *Run, now time.Time) {
		r.Status = StatusCompleted
		r.Client = client
		r.CompletedAt = &now
	})
}

// MarkFailed implements RunStore
func (s *MemoryStore) MarkFailed(_ context.Context, runID uuid.UUID, cause string) error {
	return s.update(runID, func(r *Run, now time.Time) {
		r.Status = StatusFailed
		r.Error = cause
		r.CompletedAt = &now
	})
}

func (s *MemoryStore) update(runID uuid.UUID, apply func(r *Run, now time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	apply(run, s.now())
	return nil
}

// GetRun implements RunStore. The returned Run is a copy.
func (s *MemoryStore) GetRun(_ context.Context, runID uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

// GetRunByOutput implements RunStore. The returned Run is a copy.
func (s *MemoryStore) GetRunByOutput(_ context.Context, outputFile string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Run
	for _, run := range s.runs {
		if run.OutputFile != outputFile {
			continue
		}
		if latest == nil || run.CreatedAt.After(latest.CreatedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// SaveArtifact implements RunStore
func (s *MemoryStore) SaveArtifact(_ context.Context, runID uuid.UUID, step, _ string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if s.artifacts[runID] == nil {
		s.artifacts[runID] = make(map[string][]byte)
	}
	s.artifacts[runID][step] = jsonBytes
	return nil
}

// GetArtifact implements RunStore
func (s *MemoryStore) GetArtifact(_ context.Context, runID uuid.UUID, step string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifacts[runID][step], nil
}
