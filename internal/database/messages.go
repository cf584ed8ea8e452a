package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventnest/internal/models"
)

// CreateMessage appends to a conversation's timeline. Messages are never
// updated or deleted.
func (t *Tx) CreateMessage(ctx context.Context, m *models.Message) error {
	if m.Kind == "" {
		m.Kind = models.MessageText
	}
	query := `INSERT INTO messages (conversation_id, sender_id, body, kind, quote_id, attachment_url, attachment_name, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	var quoteID any
	if m.QuoteID != nil {
		quoteID = *m.QuoteID
	}
	res, err := t.q.ExecContext(ctx, query,
		m.ConversationID, m.SenderID, m.Body, m.Kind, quoteID,
		nullString(m.AttachmentURL), nullString(m.AttachmentName), now)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("message last insert id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

// ListMessages returns a conversation's timeline in append order.
func (t *Tx) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, conversation_id, sender_id, body, kind, quote_id, attachment_url, attachment_name, created_at
              FROM messages WHERE conversation_id = ? ORDER BY created_at, id LIMIT ?`
	rows, err := t.q.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var m models.Message
		var quoteID sql.NullInt64
		var attURL, attName sql.NullString
		err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Kind,
			&quoteID, &attURL, &attName, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if quoteID.Valid {
			m.QuoteID = &quoteID.Int64
		}
		m.AttachmentURL = attURL.String
		m.AttachmentName = attName.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
