package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/queue"
	"github.com/rowanhart/tasknest/internal/store"
)

// TagAnalyzer processes tag statistics jobs. Each job recomputes the full
// hashtag breakdown for one user from their current task list.
type TagAnalyzer struct {
	tasks  store.TaskStore
	stats  store.TagStatisticsStore
	logger *zap.Logger
}

// NewTagAnalyzer creates a new tag analyzer
func NewTagAnalyzer(tasks store.TaskStore, stats store.TagStatisticsStore, logger *zap.Logger) *TagAnalyzer {
	return &TagAnalyzer{
		tasks:  tasks,
		stats:  stats,
		logger: logger,
	}
}

// ProcessTagStatsJob recomputes and persists the tag statistics for the
// job's owner.
func (a *TagAnalyzer) ProcessTagStatsJob(ctx context.Context, job *queue.Job) error {
	if job.Owner == uuid.Nil {
		return fmt.Errorf("owner is required for tag stats job")
	}

	a.logger.Info("processing_tag_stats_job",
		zap.String("job_id", job.ID.String()),
		zap.String("owner", job.Owner.String()),
	)

	tasks, err := a.tasks.ListByOwner(ctx, job.Owner)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	tags, taggedCount := aggregateTagCounts(tasks)

	now := time.Now()
	stats := &models.TagStatistics{
		Owner:          job.Owner,
		Tags:           tags,
		TaskCount:      taggedCount,
		LastAnalyzedAt: &now,
	}
	if err := a.stats.Upsert(ctx, stats); err != nil {
		return fmt.Errorf("failed to upsert tag statistics: %w", err)
	}

	a.logger.Info("analyzed_tags",
		zap.String("owner", job.Owner.String()),
		zap.Int("tagged_tasks", taggedCount),
		zap.Int("unique_tags", len(tags)),
	)
	return nil
}

// aggregateTagCounts builds the per-tag totals from a task list. Tag keys
// are hashtag tokens with the leading `#` stripped; a task counts once per
// distinct tag.
func aggregateTagCounts(tasks []models.Task) (map[string]models.TagCount, int) {
	tags := make(map[string]models.TagCount)
	tagged := 0
	for _, task := range tasks {
		tokens := task.HashtagTokens()
		if len(tokens) == 0 {
			continue
		}
		tagged++
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			tag := strings.TrimPrefix(tok, "#")
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tc := tags[tag]
			tc.Total++
			if task.Status == models.TaskStatusComplete {
				tc.Complete++
			} else {
				tc.Incomplete++
			}
			tags[tag] = tc
		}
	}
	return tags, tagged
}

// ProcessJob processes a job based on its type
func (a *TagAnalyzer) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Debounced jobs carry a NotBefore a few seconds out; wait it out
	// rather than requeueing
	if !job.ShouldProcess() {
		a.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		select {
		case <-ctx.Done():
			if nackErr := msg.Nack(true); nackErr != nil {
				a.logger.Warn("failed_to_requeue_delayed_job",
					zap.String("job_id", job.ID.String()),
					zap.Error(nackErr),
				)
			}
			return ctx.Err()
		case <-time.After(time.Until(*job.NotBefore)):
		}
	}

	switch job.Type {
	case queue.JobTypeTagStats:
		if err := a.ProcessTagStatsJob(ctx, job); err != nil {
			return a.handleJobError(msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			a.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Error(nackErr),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (a *TagAnalyzer) handleJobError(msg *queue.Message, job *queue.Job, err error) error {
	if job.CanRetry() {
		job.IncrementRetry()
		a.logger.Warn("tag_stats_job_failed",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			a.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	a.logger.Error("tag_stats_job_exhausted_retries",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		a.logger.Warn("failed_to_nack_job_to_dlq", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
