package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-builder/internal/db"
	"github.com/jonathan/proposal-builder/internal/pipeline"
	"github.com/jonathan/proposal-builder/internal/pipeline/steps"
)

// OutputPrefix is prepended to an upload's name to form its proposal's name.
const OutputPrefix = "proposal_"

// UploadResponse represents the response for /upload
type UploadResponse struct {
	Filename string `json:"filename"`
}

// GenerateResponse represents the response for /generate
type GenerateResponse struct {
	Message    string `json:"message"`
	OutputFile string `json:"output_file"`
	RunID      string `json:"run_id"`
}

// PendingResponse is returned by /download while a run is unfinished.
type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// sanitizeFilename reduces a client supplied name to a bare file name.
func sanitizeFilename(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", &ErrValidation{Field: "filename", Message: "A file name is required."}
	}
	return name, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// handleUpload stores a multipart "file" field under a sanitized name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, &ErrValidation{Field: "file", Message: "Invalid multipart upload."})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "file", Message: "No file uploaded."})
		return
	}
	defer file.Close() //nolint:errcheck

	name, err := sanitizeFilename(header.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !isPDF(name) {
		s.writeError(w, &ErrValidation{Field: "file", Message: "Only PDF files are allowed."})
		return
	}

	if err := saveUpload(file, filepath.Join(s.uploadDir, name)); err != nil {
		s.writeError(w, fmt.Errorf("saving upload %s: %w", name, err))
		return
	}

	s.logger.Info().Str("filename", name).Msg("RFP uploaded")
	s.jsonResponse(w, http.StatusOK, UploadResponse{Filename: name})
}

// saveUpload copies src to a temp file next to path and renames it into place.
func saveUpload(src io.Reader, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// resolveUpload validates the filename query parameter and checks that the
// upload exists.
func (s *Server) resolveUpload(r *http.Request) (name, path string, err error) {
	name, err = sanitizeFilename(r.URL.Query().Get("filename"))
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(s.uploadDir, name)
	if info, statErr := os.Stat(path); statErr != nil || info.IsDir() {
		return "", "", &ErrNotFound{Resource: "upload", Message: "File not found."}
	}
	return name, path, nil
}

// handleGenerate starts a background run for a previously uploaded RFP.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name, inputPath, err := s.resolveUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outputFile := OutputPrefix + name
	runID, err := s.store.CreateRun(r.Context(), name, outputFile)
	if err != nil {
		s.writeError(w, fmt.Errorf("creating run: %w", err))
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.execute(s.runCtx, runID, inputPath, outputFile, nil)
	}()

	s.jsonResponse(w, http.StatusOK, GenerateResponse{
		Message:    "Proposal generation started.",
		OutputFile: outputFile,
		RunID:      runID.String(),
	})
}

// handleGenerateStream runs the pipeline within the request and streams
// progress events.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	name, inputPath, err := s.resolveUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Streaming not supported.")
		return
	}

	outputFile := OutputPrefix + name
	runID, err := s.store.CreateRun(r.Context(), name, outputFile)
	if err != nil {
		s.logger.Error().Err(err).Msg("Creating run failed")
		sse.WriteError("Could not start proposal generation.")
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		event.Content = nil
		if err := sse.WriteEvent("progress", event); err != nil {
			s.logger.Debug().Err(err).Msg("Client stopped reading progress stream")
		}
	}

	status := s.execute(r.Context(), runID, inputPath, outputFile, onProgress)
	sse.WriteComplete(runID.String(), status, outputFile)
}

// execute runs the generator and records the run's lifecycle in the store.
// It returns the final run status.
func (s *Server) execute(ctx context.Context, runID uuid.UUID, inputPath, outputFile string, onProgress pipeline.ProgressCallback) string {
	logger := s.logger.With().Str("run_id", runID.String()).Str("output_file", outputFile).Logger()

	if err := s.store.MarkRunning(ctx, runID); err != nil {
		logger.Warn().Err(err).Msg("Could not mark run as running")
	}

	progress := func(event pipeline.ProgressEvent) {
		if event.Content != nil {
			if err := s.store.SaveArtifact(ctx, runID, event.Step, event.Category, event.Content); err != nil {
				logger.Warn().Err(err).Str("step", event.Step).Msg("Could not save artifact")
			}
		}
		if onProgress != nil {
			onProgress(event)
		}
	}

	proposal, err := s.generator.RunAndExport(ctx, inputPath, filepath.Join(s.outputDir, outputFile),
		pipeline.WithRunID(runID.String()),
		pipeline.WithProgress(progress),
	)
	// The request context may already be cancelled; record the outcome regardless.
	recordCtx := context.WithoutCancel(ctx)
	if proposal != nil {
		if saveErr := s.store.SaveArtifact(recordCtx, runID, steps.StepRender, steps.CategoryOutput, proposal); saveErr != nil {
			logger.Warn().Err(saveErr).Msg("Could not save proposal")
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg("Proposal generation failed")
		if markErr := s.store.MarkFailed(recordCtx, runID, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Msg("Could not mark run as failed")
		}
		return db.StatusFailed
	}

	if markErr := s.store.MarkCompleted(recordCtx, runID, proposal.Client); markErr != nil {
		logger.Error().Err(markErr).Msg("Could not mark run as completed")
	}
	logger.Info().Str("client", proposal.Client).Msg("Proposal generated")
	return db.StatusCompleted
}

// handleDownload serves a finished proposal, or reports why it is unavailable.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	outputFile, err := sanitizeFilename(r.PathValue("output_file"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.store.GetRunByOutput(r.Context(), outputFile)
	if err != nil {
		s.writeError(w, fmt.Errorf("looking up run for %s: %w", outputFile, err))
		return
	}

	path := filepath.Join(s.outputDir, outputFile)
	if run != nil {
		switch run.Status {
		case db.StatusPending, db.StatusRunning:
			s.jsonResponse(w, http.StatusAccepted, PendingResponse{
				Status:  run.Status,
				Message: "Proposal is still being generated.",
			})
			return
		case db.StatusFailed:
			s.errorResponse(w, http.StatusInternalServerError, "Proposal generation failed: "+run.Error)
			return
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.errorResponse(w, http.StatusNotFound, "Proposal not ready yet.")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputFile))
	http.ServeFile(w, r, path)
}

// handleStatus returns the latest run for an output file.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	outputFile, err := sanitizeFilename(r.PathValue("output_file"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.store.GetRunByOutput(r.Context(), outputFile)
	if err != nil {
		s.writeError(w, fmt.Errorf("looking up run for %s: %w", outputFile, err))
		return
	}
	if run == nil {
		s.writeError(w, &ErrNotFound{Resource: "run", Message: "No run found for " + outputFile + "."})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleArtifact returns the stored JSON output of one pipeline step.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("run_id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "run_id", Message: "Invalid run ID."})
		return
	}
	step := r.PathValue("step")
	if _, ok := steps.StepRegistry[step]; !ok {
		s.writeError(w, &ErrValidation{Field: "step", Message: "Unknown step: " + step})
		return
	}

	content, err := s.store.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.writeError(w, fmt.Errorf("loading artifact %s: %w", step, err))
		return
	}
	if content == nil {
		s.writeError(w, &ErrNotFound{Resource: "artifact", Message: "No artifact for step " + step + "."})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(content) //nolint:errcheck
}
