package models

import (
	"time"

	"github.com/google/uuid"
)

// TagCount holds aggregated counts for a single hashtag
type TagCount struct {
	Total      int `json:"total"`
	Complete   int `json:"complete"`
	Incomplete int `json:"incomplete"`
}

// TagStatistics holds per-user hashtag usage, recomputed asynchronously by the
// worker whenever the user's tasks change
type TagStatistics struct {
	Owner          uuid.UUID           `json:"owner"`
	Tags           map[string]TagCount `json:"tags"`
	TaskCount      int                 `json:"task_count"`
	LastAnalyzedAt *time.Time          `json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
