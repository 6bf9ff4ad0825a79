package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyze(s TaskStatus) TaskRun { return TaskRun{Kind: TaskKindAnalyze, Status: s} }
func load(s TaskStatus) TaskRun    { return TaskRun{Kind: TaskKindLoad, Status: s} }

func TestTaskStatusTerminal(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusSucceeded, TaskStatusFailed, TaskStatusSkipped, TaskStatusCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, TaskStatusPending.Terminal())
	assert.False(t, TaskStatusRunning.Terminal())
}

func TestVideoStateOf(t *testing.T) {
	cases := []struct {
		name  string
		tasks []TaskRun
		want  VideoState
	}{
		{"no tasks", nil, VideoStatePending},
		{"nothing started", []TaskRun{analyze(TaskStatusPending), load(TaskStatusPending)}, VideoStatePending},
		{"analyzer running", []TaskRun{analyze(TaskStatusRunning), load(TaskStatusPending)}, VideoStateAnalyzing},
		{"analyzer done, loader waiting", []TaskRun{
			analyze(TaskStatusSucceeded), load(TaskStatusPending),
			analyze(TaskStatusRunning), load(TaskStatusPending),
		}, VideoStateAnalyzing},
		{"loader running", []TaskRun{
			analyze(TaskStatusSucceeded), load(TaskStatusRunning),
			analyze(TaskStatusRunning), load(TaskStatusPending),
		}, VideoStateLoading},
		{"skipped loader is not loading", []TaskRun{
			analyze(TaskStatusFailed), load(TaskStatusSkipped),
			analyze(TaskStatusRunning), load(TaskStatusPending),
		}, VideoStateAnalyzing},
		{"all branches terminal", []TaskRun{
			analyze(TaskStatusSucceeded), load(TaskStatusSucceeded),
			analyze(TaskStatusFailed), load(TaskStatusSkipped),
			analyze(TaskStatusSucceeded), load(TaskStatusSucceeded),
		}, VideoStateDone},
		{"cancelled", []TaskRun{analyze(TaskStatusCancelled), load(TaskStatusCancelled)}, VideoStateDone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VideoStateOf(tc.tasks))
		})
	}
}
