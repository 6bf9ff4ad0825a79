package entity

import "github.com/google/uuid"

// RunSubmissionMessage is the inbound message from the pipeline.runs queue.
type RunSubmissionMessage struct {
	RunID  uuid.UUID `json:"run_id"`
	Videos []string  `json:"videos"`
}

// TaskStatusMessage is the outbound message published for every finished task.
type TaskStatusMessage struct {
	RunID        uuid.UUID  `json:"run_id"`
	Iteration    int        `json:"iteration"`
	Video        string     `json:"video"`
	Task         string     `json:"task"`
	Status       TaskStatus `json:"status"`
	VideoState   VideoState `json:"video_state"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempt      int        `json:"attempt"`
}
