package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// MaxErrorDetailLen bounds the diagnostic text stored on a failed job.
const MaxErrorDetailLen = 500

// Job is the work order for one uploaded interview recording. The audio
// key is immutable after creation; status transitions follow
// pending -> queued -> processing -> completed|failed.
type Job struct {
	ID            string
	OwnerID       string
	InterviewerID string
	AudioKey      string
	Status        JobStatus
	ErrorDetail   string
	AnalysisID    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal reports whether no further transition is allowed out of s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the five defined states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// TruncateErrorDetail bounds a diagnostic message before persistence.
func TruncateErrorDetail(msg string) string {
	if len(msg) > MaxErrorDetailLen {
		return msg[:MaxErrorDetailLen]
	}
	return msg
}
