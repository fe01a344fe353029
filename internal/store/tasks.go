package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/models"
)

// TaskRepository handles task persistence against Postgres
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByOwner retrieves all tasks for an owner, newest first
func (r *TaskRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	query := `
		SELECT id, owner, title, status, created_label, due_date_kind, due_date, hashtags, created_at, updated_at
		FROM tasks
		WHERE owner = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Insert persists a new task and returns the assigned id
func (r *TaskRepository) Insert(ctx context.Context, task models.Task) (uuid.UUID, error) {
	query := `
		INSERT INTO tasks (owner, title, status, created_label, due_date_kind, due_date, hashtags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query,
		task.Owner,
		task.Title,
		task.Status,
		task.CreatedLabel,
		task.DueDateKind,
		nullDate(task.DueDate),
		task.Hashtags,
		now,
		now,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return id, nil
}

// Replace overwrites the mutable fields of an existing task
func (r *TaskRepository) Replace(ctx context.Context, id uuid.UUID, task models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, status = $3, due_date_kind = $4, due_date = $5, hashtags = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		task.Title,
		task.Status,
		task.DueDateKind,
		nullDate(task.DueDate),
		task.Hashtags,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	return nil
}

// Delete removes a task. Absent ids are treated as success so deletes stay idempotent.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// GetByID retrieves a single task
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `
		SELECT id, owner, title, status, created_label, due_date_kind, due_date, hashtags, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// CountByOwner returns task counts keyed by owner, used by the admin listing
func (r *TaskRepository) CountByOwner(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `SELECT owner, COUNT(*) FROM tasks GROUP BY owner`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var owner uuid.UUID
		var count int
		if err := rows.Scan(&owner, &count); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[owner] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task counts: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Owner,
		&task.Title,
		&task.Status,
		&task.CreatedLabel,
		&task.DueDateKind,
		&dueDate,
		&task.Hashtags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	if dueDate.Valid {
		d := models.DateOnly(dueDate.Time)
		task.DueDate = &d
	}

	return task, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
