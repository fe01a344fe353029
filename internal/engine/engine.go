// Package engine owns the canonical in-memory task list for one active user
// and keeps it consistent with the remote store under asynchronous,
// possibly-failing operations. Writes are confirmed: the canonical list only
// changes after the store acknowledges, so a failed call never leaves a
// partial mutation behind.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/store"
	"go.uber.org/zap"
)

// Draft is the caller-supplied shape of a task before the store assigns an id
type Draft struct {
	Title       string
	DueDateKind models.DueDateKind
	DueDate     string
	Hashtags    string
}

// Engine maintains the canonical task list for exactly one active user at a
// time. It is not safe for concurrent use; callers serialize operations (the
// Manager does this for the HTTP layer). The last update call to complete
// wins when callers race anyway.
type Engine struct {
	store   store.TaskStore
	logger  *zap.Logger
	now     func() time.Time
	owner   uuid.UUID
	tasks   []models.Task
	filters FilterState
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the engine's clock, used by due-date derivation and filtering
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine in the "no user" state
func New(st store.TaskStore, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		logger:  zap.NewNop(),
		now:     time.Now,
		filters: DefaultFilters(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ActiveUser returns the identifier of the active user, or uuid.Nil when none
func (e *Engine) ActiveUser() uuid.UUID { return e.owner }

// SetActiveUser clears the canonical list and resets filters to defaults,
// then loads the new user's tasks. A nil user leaves the engine empty.
func (e *Engine) SetActiveUser(ctx context.Context, userID uuid.UUID) error {
	e.owner = userID
	e.tasks = nil
	e.filters = DefaultFilters()

	if userID == uuid.Nil {
		return nil
	}
	return e.LoadAll(ctx, userID)
}

// LoadAll replaces the canonical list with the store's current records for
// userID. On failure the previous canonical list is untouched; there is no
// partial merge.
func (e *Engine) LoadAll(ctx context.Context, userID uuid.UUID) error {
	tasks, err := e.store.ListByOwner(ctx, userID)
	if err != nil {
		e.logger.Warn("task_load_failed",
			zap.String("owner", userID.String()),
			zap.Error(err),
		)
		return &LoadError{Err: err}
	}

	e.owner = userID
	e.tasks = tasks
	e.logger.Debug("task_list_loaded",
		zap.String("owner", userID.String()),
		zap.Int("count", len(tasks)),
	)
	return nil
}

// Create validates a draft, persists it, and appends the store-assigned
// record to the canonical list. On any failure the canonical list is not
// mutated and the draft never enters it; retry is a fresh Create call.
func (e *Engine) Create(ctx context.Context, draft Draft) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if e.owner == uuid.Nil {
		return models.Task{}, &ValidationError{Field: "owner", Reason: "no active user"}
	}

	kind := draft.DueDateKind
	if kind == "" {
		kind = models.DueDateNone
	}
	now := e.now()
	dueDate, err := models.ResolveDueDate(kind, draft.DueDate, now)
	if err != nil {
		return models.Task{}, &ValidationError{Field: "due_date", Reason: err.Error()}
	}

	task := models.Task{
		Owner:        e.owner,
		Title:        draft.Title,
		Status:       models.TaskStatusIncomplete,
		CreatedLabel: now.Format(models.CreatedLabelLayout),
		DueDateKind:  kind,
		DueDate:      dueDate,
		Hashtags:     draft.Hashtags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := e.store.Insert(ctx, task)
	if err != nil {
		return models.Task{}, &PersistenceError{Op: "insert", Err: err}
	}

	task.ID = id
	e.tasks = append(e.tasks, task)
	e.logger.Info("task_created",
		zap.String("task_id", id.String()),
		zap.String("owner", e.owner.String()),
	)
	return task, nil
}

// Update replaces the full set of mutable fields of a task already in the
// canonical list. The matching entry is swapped in place, position preserved.
// On store failure the canonical list is left as it was before the call.
func (e *Engine) Update(ctx context.Context, task models.Task) error {
	idx := e.indexOf(task.ID)
	if idx < 0 {
		return &NotFoundError{ID: task.ID}
	}
	if strings.TrimSpace(task.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	// Identity fields never change on update.
	prev := e.tasks[idx]
	task.Owner = prev.Owner
	task.CreatedLabel = prev.CreatedLabel
	task.CreatedAt = prev.CreatedAt
	task.UpdatedAt = e.now()

	if err := e.store.Replace(ctx, task.ID, task); err != nil {
		return &PersistenceError{Op: "replace", Err: err}
	}

	e.tasks[idx] = task
	e.logger.Info("task_updated", zap.String("task_id", task.ID.String()))
	return nil
}

// Remove deletes a task from the store and the canonical list. Deletion is
// permanent and immediate; on store failure the list is unchanged.
func (e *Engine) Remove(ctx context.Context, id uuid.UUID) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}

	e.tasks = append(e.tasks[:idx], e.tasks[idx+1:]...)
	e.logger.Info("task_removed", zap.String("task_id", id.String()))
	return nil
}

// Tasks returns a copy of the canonical list
func (e *Engine) Tasks() []models.Task {
	out := make([]models.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Get returns the canonical entry for an id
func (e *Engine) Get(id uuid.UUID) (models.Task, bool) {
	idx := e.indexOf(id)
	if idx < 0 {
		return models.Task{}, false
	}
	return e.tasks[idx], true
}

// Filters returns the current filter state
func (e *Engine) Filters() FilterState { return e.filters }

// SetFilters replaces the filter state
func (e *Engine) SetFilters(f FilterState) { e.filters = f }

// SetStatusFilter sets the status dimension
func (e *Engine) SetStatusFilter(f StatusFilter) { e.filters.Status = f }

// SetDueDateFilter sets the due-date dimension
func (e *Engine) SetDueDateFilter(f DueDateFilter) { e.filters.DueDate = f }

// SetHashtagFilter sets the hashtag dimension; empty means no hashtag filter
func (e *Engine) SetHashtagFilter(tag string) { e.filters.Hashtag = tag }

// Visible derives the filtered, ordered view of the canonical list from the
// current filter state
func (e *Engine) Visible() []models.Task {
	return Visible(e.tasks, e.filters, e.now())
}

func (e *Engine) indexOf(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
