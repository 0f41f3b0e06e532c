package pipeline

import "github.com/jonathan/proposal-builder/internal/pipeline/steps"

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// runConfig holds per-run settings assembled from RunOptions.
type runConfig struct {
	runID      string
	sourceName string
	onProgress ProgressCallback
}

// RunOption configures a single run
type RunOption func(*runConfig)

// WithProgress registers a callback for progress events.
func WithProgress(cb ProgressCallback) RunOption {
	return func(c *runConfig) {
		c.onProgress = cb
	}
}

// WithRunID tags progress events and log lines with id.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithSourceName records the name of the source document on the proposal.
func WithSourceName(name string) RunOption {
	return func(c *runConfig) {
		c.sourceName = name
	}
}

func newRunConfig(opts []RunOption) *runConfig {
	c := &runConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// emitProgress calls the progress callback if configured
func (c *runConfig) emitProgress(step, message string, content any) {
	if c.onProgress == nil {
		return
	}
	c.onProgress(ProgressEvent{
		Step:     step,
		Category: steps.CategoryOf(step),
		Message:  message,
		RunID:    c.runID,
		Content:  content,
	})
}

// Reporter emits progress events for a run configured by RunOptions. It lets
// alternative generators honour the same options as the Orchestrator.
type Reporter struct {
	config *runConfig
}

// NewReporter applies opts and returns a Reporter for them.
func NewReporter(opts ...RunOption) Reporter {
	return Reporter{config: newRunConfig(opts)}
}

// RunID returns the run ID set with WithRunID.
func (r Reporter) RunID() string {
	return r.config.runID
}

// Emit sends a progress event for step, if a callback is configured.
func (r Reporter) Emit(step, message string, content any) {
	r.config.emitProgress(step, message, content)
}
