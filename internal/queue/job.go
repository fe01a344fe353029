package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeTagStats recomputes a user's hashtag statistics
	JobTypeTagStats JobType = "tag_stats"
)

// Job represents a unit of background work
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	Owner      uuid.UUID  `json:"owner"`
	NotBefore  *time.Time `json:"not_before,omitempty"` // Earliest time to process (nil = immediate)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, owner uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Owner:      owner,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	if j.NotBefore != nil && time.Now().Before(*j.NotBefore) {
		return false
	}
	return true
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
