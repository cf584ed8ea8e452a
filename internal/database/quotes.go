package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/models"
)

const quoteColumns = `id, conversation_id, vendor_id, customer_id, booking_id, title, description,
       price, features, event_date, status, created_at`

func scanQuote(row interface{ Scan(...any) error }) (*models.Quote, error) {
	var q models.Quote
	var bookingID sql.NullInt64
	var description, features sql.NullString
	var eventDate sql.NullTime
	err := row.Scan(&q.ID, &q.ConversationID, &q.VendorID, &q.CustomerID, &bookingID,
		&q.Title, &description, &q.Price, &features, &eventDate, &q.Status, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	if bookingID.Valid {
		q.BookingID = &bookingID.Int64
	}
	q.Description = description.String
	if eventDate.Valid {
		q.EventDate = &eventDate.Time
	}
	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &q.Features); err != nil {
			return nil, fmt.Errorf("decode quote features: %w", err)
		}
	}
	return &q, nil
}

func (t *Tx) CreateQuote(ctx context.Context, q *models.Quote) error {
	if q.Status == "" {
		q.Status = models.QuoteStatusPending
	}
	features, err := json.Marshal(q.Features)
	if err != nil {
		return fmt.Errorf("encode quote features: %w", err)
	}

	query := `INSERT INTO quotes (conversation_id, vendor_id, customer_id, booking_id, title, description,
                price, features, event_date, status, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query,
		q.ConversationID, q.VendorID, q.CustomerID, nil, q.Title, q.Description,
		q.Price, string(features), timePtr(q.EventDate), q.Status, now)
	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("quote last insert id: %w", err)
	}
	q.ID = id
	q.CreatedAt = now
	return nil
}

func (t *Tx) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	q, err := scanQuote(t.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// ResolveQuote moves a pending quote to accepted or declined. The status guard
// is part of the UPDATE itself: of two racing resolutions exactly one sees
// pending, the other gets ErrAlreadyResolved.
func (t *Tx) ResolveQuote(ctx context.Context, id int64, status string) error {
	if status != models.QuoteStatusAccepted && status != models.QuoteStatusDeclined {
		return fmt.Errorf("%w: bad quote resolution %q", ErrValidation, status)
	}
	query := `UPDATE quotes SET status = ? WHERE id = ? AND status = ?`
	res, err := t.q.ExecContext(ctx, query, status, id, models.QuoteStatusPending)
	if err != nil {
		return fmt.Errorf("resolve quote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// BindQuoteBooking records the booking an accepted quote produced.
func (t *Tx) BindQuoteBooking(ctx context.Context, id, bookingID int64) error {
	query := `UPDATE quotes SET booking_id = ? WHERE id = ?`
	if _, err := t.q.ExecContext(ctx, query, bookingID, id); err != nil {
		return fmt.Errorf("bind quote booking: %w", err)
	}
	return nil
}

// ListQuotesForConversation returns the conversation's quotes, newest first.
func (t *Tx) ListQuotesForConversation(ctx context.Context, conversationID int64) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE conversation_id = ? ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var out []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
