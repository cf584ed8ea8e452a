package models

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxTask is a persisted delivery task for the notification worker.
type OutboxTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"` // notify, email
	UserID      int64      `json:"user_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, done, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Outbox task types.
const (
	TaskNotify = "notify"
	TaskEmail  = "email"
)

// Outbox task statuses.
const (
	TaskStatusPending = "pending"
	TaskStatusRetry   = "retry"
	TaskStatusDone    = "done"
	TaskStatusFailed  = "failed"
)
