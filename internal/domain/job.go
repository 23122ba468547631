package domain

import "time"

// JobStatus enumerates background job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is an ephemeral progress tracker decoupled from Preview so that UI
// polling never needs to see internal preview fields. A failed job is
// terminal; retries happen by creating a new job, not by reopening one.
type Job struct {
	ID           string
	TargetID     string
	Status       JobStatus
	Progress     int
	CurrentStep  string
	ErrorMessage string
	Attempts     int
	MaxAttempts  int
	ResultJSON   []byte
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
