package entity

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusSkipped   TaskStatus = "SKIPPED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusSkipped, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskKind tells analyzer steps from loader steps.
type TaskKind string

const (
	TaskKindAnalyze TaskKind = "ANALYZE"
	TaskKindLoad    TaskKind = "LOAD"
)

// TaskRun is one node instance of a run: a single task for a single video.
type TaskRun struct {
	RunID        uuid.UUID
	Iteration    int
	Video        VideoReference
	Task         string
	Component    string
	Kind         TaskKind
	Status       TaskStatus
	ErrorMessage string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

type VideoState string

const (
	VideoStatePending   VideoState = "PENDING"
	VideoStateAnalyzing VideoState = "ANALYZING"
	VideoStateLoading   VideoState = "LOADING"
	VideoStateDone      VideoState = "DONE"
)

// VideoStateOf derives the state of one video from its task runs. The video
// is DONE only when every task reached a terminal status, LOADING once any
// loader has started, ANALYZING once any analyzer has started.
func VideoStateOf(tasks []TaskRun) VideoState {
	if len(tasks) == 0 {
		return VideoStatePending
	}

	allTerminal := true
	started := false
	loading := false
	for _, t := range tasks {
		if !t.Status.Terminal() {
			allTerminal = false
		}
		if t.Status == TaskStatusPending {
			continue
		}
		started = true
		if t.Kind == TaskKindLoad && t.Status != TaskStatusSkipped && t.Status != TaskStatusCancelled {
			loading = true
		}
	}

	switch {
	case allTerminal:
		return VideoStateDone
	case loading:
		return VideoStateLoading
	case started:
		return VideoStateAnalyzing
	default:
		return VideoStatePending
	}
}
