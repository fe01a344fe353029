package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/models"
)

// TagStatisticsRepository handles aggregated hashtag counts
type TagStatisticsRepository struct {
	db *DB
}

// NewTagStatisticsRepository creates a new tag statistics repository
func NewTagStatisticsRepository(db *DB) *TagStatisticsRepository {
	return &TagStatisticsRepository{db: db}
}

// GetByOwner retrieves tag statistics for a user, or ErrNotFound if none exist yet
func (r *TagStatisticsRepository) GetByOwner(ctx context.Context, owner uuid.UUID) (*models.TagStatistics, error) {
	query := `
		SELECT owner, tags, task_count, last_analyzed_at, created_at, updated_at
		FROM tag_statistics
		WHERE owner = $1
	`

	stats := &models.TagStatistics{}
	var tagsJSON []byte
	var lastAnalyzedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, owner).Scan(
		&stats.Owner,
		&tagsJSON,
		&stats.TaskCount,
		&lastAnalyzedAt,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag statistics for %s: %w", owner, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag statistics: %w", err)
	}

	if err := json.Unmarshal(tagsJSON, &stats.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag statistics: %w", err)
	}

	if lastAnalyzedAt.Valid {
		stats.LastAnalyzedAt = &lastAnalyzedAt.Time
	}

	return stats, nil
}

// Upsert writes tag statistics for a user, replacing any previous row
func (r *TagStatisticsRepository) Upsert(ctx context.Context, stats *models.TagStatistics) error {
	query := `
		INSERT INTO tag_statistics (owner, tags, task_count, last_analyzed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (owner) DO UPDATE
		SET tags = EXCLUDED.tags,
		    task_count = EXCLUDED.task_count,
		    last_analyzed_at = EXCLUDED.last_analyzed_at,
		    updated_at = EXCLUDED.updated_at
	`

	tagsJSON, err := json.Marshal(stats.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tag statistics: %w", err)
	}

	var lastAnalyzedAt sql.NullTime
	if stats.LastAnalyzedAt != nil {
		lastAnalyzedAt = sql.NullTime{Time: *stats.LastAnalyzedAt, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		stats.Owner,
		tagsJSON,
		stats.TaskCount,
		lastAnalyzedAt,
		time.Now(),
	); err != nil {
		return fmt.Errorf("failed to upsert tag statistics: %w", err)
	}

	return nil
}
