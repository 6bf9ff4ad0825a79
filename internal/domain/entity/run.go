package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run is one execution of the pipeline over a list of videos.
type Run struct {
	ID           uuid.UUID
	PipelineName string
	Videos       []VideoReference
	Status       RunStatus
	Attempt      int
	MaxAttempts  int
	FailedTasks  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

func NewRun(id uuid.UUID, pipelineName string, videos []VideoReference, maxAttempts int) *Run {
	now := time.Now().UTC()
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Run{
		ID:           id,
		PipelineName: pipelineName,
		Videos:       videos,
		Status:       RunStatusPending,
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *Run) MarkRunning() {
	r.Status = RunStatusRunning
	r.Attempt++
	r.FailedTasks = 0
	r.ErrorMessage = ""
	r.UpdatedAt = time.Now().UTC()
}

// MarkFinished closes the run. A run with failed tasks is FAILED even though
// its other branches may have loaded rows.
func (r *Run) MarkFinished(failedTasks int) {
	now := time.Now().UTC()
	r.FailedTasks = failedTasks
	r.Status = RunStatusSucceeded
	if failedTasks > 0 {
		r.Status = RunStatusFailed
	}
	r.UpdatedAt = now
	r.FinishedAt = &now
}

func (r *Run) MarkFailed(errMsg string) {
	r.Status = RunStatusFailed
	r.ErrorMessage = errMsg
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) CanRetry() bool {
	return r.Attempt < r.MaxAttempts
}
