package models

import (
	"time"
)

// Job lifecycle states persisted in the record store.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether a status is absorbing.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Job is one video-generation request tracked in the record store.
// VideoURL and ErrorMessage are mutually exclusive; CompletedAt is set
// exactly when the status is terminal.
type Job struct {
	ID           string     `json:"job_id"`
	EmployeeID   string     `json:"employee_id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	VideoURL     string     `json:"video_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// JobDescriptor is what travels on the work queue: the job identity plus
// everything a worker needs to process it without another lookup.
type JobDescriptor struct {
	JobID    string   `json:"job_id"`
	Employee Employee `json:"employee"`
}
