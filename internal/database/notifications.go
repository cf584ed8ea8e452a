package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventnest/internal/models"
)

func (t *Tx) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (user_id, type, title, body, link, is_read, created_at)
              VALUES (?, ?, ?, ?, ?, 0, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, n.UserID, n.Type, n.Title, n.Body, n.Link, now)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

func (t *Tx) ListNotifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, type, title, body, link, is_read, created_at
              FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := t.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var body, link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &body, &link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Body = body.String
		n.Link = link.String
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (t *Tx) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`
	if err := t.q.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationsRead marks all of a user's notifications read.
func (t *Tx) MarkNotificationsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`
	if _, err := t.q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
