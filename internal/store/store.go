package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/models"
)

// ErrNotFound is returned when a record does not exist remotely
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
var ErrDuplicate = errors.New("record already exists")

// TaskStore is the persistence contract consumed by the synchronization engine.
// Implementations assign record ids; callers never generate them.
type TaskStore interface {
	// ListByOwner returns all tasks owned by the given user
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Task, error)

	// Insert persists a new task and returns the store-assigned id
	Insert(ctx context.Context, task models.Task) (uuid.UUID, error)

	// Replace overwrites the full set of mutable fields of an existing task.
	// Returns ErrNotFound if the id does not exist remotely.
	Replace(ctx context.Context, id uuid.UUID, task models.Task) error

	// Delete removes a task. Deleting an id that is already absent remotely
	// is treated as success.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagStatisticsStore is the persistence contract for aggregated hashtag counts
type TagStatisticsStore interface {
	GetByOwner(ctx context.Context, owner uuid.UUID) (*models.TagStatistics, error)
	Upsert(ctx context.Context, stats *models.TagStatistics) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskStore          = (*TaskRepository)(nil)
	_ TagStatisticsStore = (*TagStatisticsRepository)(nil)
)
