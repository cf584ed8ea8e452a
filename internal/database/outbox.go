package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventnest/internal/models"
)

func (t *Tx) CreateOutboxTask(ctx context.Context, task *models.OutboxTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	query := `INSERT INTO outbox (task_type, user_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query,
		task.TaskType, task.UserID, task.Payload, task.Status, task.RetryCount, task.LastError, now, timePtr(task.NextRetryAt))
	if err != nil {
		return fmt.Errorf("create outbox task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("outbox last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingOutboxTasks picks up due tasks oldest first.
func (t *Tx) GetPendingOutboxTasks(ctx context.Context, limit int) ([]*models.OutboxTask, error) {
	if limit <= 0 {
		limit = models.DefaultOutboxBatchSize
	}
	query := `SELECT id, task_type, user_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM outbox
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := t.q.QueryContext(ctx, query, models.TaskStatusPending, models.TaskStatusRetry, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending outbox tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.OutboxTask
	for rows.Next() {
		var task models.OutboxTask
		var lastError sql.NullString
		var processedAt, nextRetryAt sql.NullTime
		err := rows.Scan(&task.ID, &task.TaskType, &task.UserID, &task.Payload, &task.Status,
			&task.RetryCount, &lastError, &task.CreatedAt, &processedAt, &nextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox task: %w", err)
		}
		task.LastError = lastError.String
		if processedAt.Valid {
			task.ProcessedAt = &processedAt.Time
		}
		if nextRetryAt.Valid {
			task.NextRetryAt = &nextRetryAt.Time
		}
		out = append(out, &task)
	}
	return out, rows.Err()
}

func (t *Tx) MarkOutboxTaskDone(ctx context.Context, id int64) error {
	query := `UPDATE outbox SET status = ?, processed_at = ? WHERE id = ?`
	if _, err := t.q.ExecContext(ctx, query, models.TaskStatusDone, time.Now(), id); err != nil {
		return fmt.Errorf("mark outbox task done: %w", err)
	}
	return nil
}

// MarkOutboxTaskRetry schedules another attempt and records the failure.
func (t *Tx) MarkOutboxTaskRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	query := `UPDATE outbox SET status = ?, retry_count = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
	if _, err := t.q.ExecContext(ctx, query, models.TaskStatusRetry, retryCount, lastError, nextRetryAt, id); err != nil {
		return fmt.Errorf("mark outbox task retry: %w", err)
	}
	return nil
}

// MarkOutboxTaskFailed dead-letters a task after exhausting retries.
func (t *Tx) MarkOutboxTaskFailed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE outbox SET status = ?, last_error = ?, processed_at = ? WHERE id = ?`
	if _, err := t.q.ExecContext(ctx, query, models.TaskStatusFailed, lastError, time.Now(), id); err != nil {
		return fmt.Errorf("mark outbox task failed: %w", err)
	}
	return nil
}
