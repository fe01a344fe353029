package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	job := NewJob(JobTypeTagStats, owner)

	if job.ID == uuid.Nil {
		t.Error("expected job ID to be assigned")
	}
	if job.Type != JobTypeTagStats {
		t.Errorf("expected type %q, got %q", JobTypeTagStats, job.Type)
	}
	if job.Owner != owner {
		t.Errorf("expected owner %s, got %s", owner, job.Owner)
	}
	if job.RetryCount != 0 {
		t.Errorf("expected retry count 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", job.MaxRetries)
	}
	if job.NotBefore != nil {
		t.Error("expected NotBefore to be nil for a fresh job")
	}
}

func TestJobShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		notBefore *time.Time
		want      bool
	}{
		{name: "no delay", notBefore: nil, want: true},
		{name: "delay elapsed", notBefore: &past, want: true},
		{name: "delay pending", notBefore: &future, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := NewJob(JobTypeTagStats, uuid.New())
			job.NotBefore = tt.notBefore
			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobRetries(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeTagStats, uuid.New())

	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("expected CanRetry() at retry count %d", job.RetryCount)
		}
		job.IncrementRetry()
	}

	if job.CanRetry() {
		t.Errorf("expected CanRetry() false at retry count %d", job.RetryCount)
	}
}
