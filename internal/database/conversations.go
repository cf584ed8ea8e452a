package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/models"
)

const conversationColumns = `id, vendor_id, customer_id, booking_id, last_message_at, unread_vendor, unread_customer, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*models.Conversation, error) {
	var c models.Conversation
	var bookingID sql.NullInt64
	err := row.Scan(&c.ID, &c.VendorID, &c.CustomerID, &bookingID,
		&c.LastMessageAt, &c.UnreadVendor, &c.UnreadCustomer, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if bookingID.Valid {
		c.BookingID = &bookingID.Int64
	}
	return &c, nil
}

// GetOrCreateConversation returns the single conversation for a
// (vendor, customer) pair, creating it when absent. The insert is a no-op
// when another caller won the race; the follow-up select observes whichever
// row exists.
func (t *Tx) GetOrCreateConversation(ctx context.Context, vendorID, customerID int64) (*models.Conversation, error) {
	query := `INSERT INTO conversations (vendor_id, customer_id, last_message_at, created_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(vendor_id, customer_id) DO NOTHING`
	now := time.Now()
	if _, err := t.q.ExecContext(ctx, query, vendorID, customerID, now, now); err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}
	return t.GetConversationByPair(ctx, vendorID, customerID)
}

func (t *Tx) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	c, err := scanConversation(t.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (t *Tx) GetConversationByPair(ctx context.Context, vendorID, customerID int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE vendor_id = ? AND customer_id = ?`
	c, err := scanConversation(t.q.QueryRowContext(ctx, query, vendorID, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation by pair: %w", err)
	}
	return c, nil
}

// RecordActivity bumps last_message_at and increments the unread counter of
// the given party by exactly one.
func (t *Tx) RecordActivity(ctx context.Context, conversationID int64, party string) error {
	var column string
	switch party {
	case models.PartyVendor:
		column = "unread_vendor"
	case models.PartyCustomer:
		column = "unread_customer"
	default:
		return fmt.Errorf("%w: unknown party %q", ErrValidation, party)
	}

	query := `UPDATE conversations SET last_message_at = ?, ` + column + ` = ` + column + ` + 1 WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query, time.Now(), conversationID)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkConversationRead resets the unread counter of the given party.
func (t *Tx) MarkConversationRead(ctx context.Context, conversationID int64, party string) error {
	var column string
	switch party {
	case models.PartyVendor:
		column = "unread_vendor"
	case models.PartyCustomer:
		column = "unread_customer"
	default:
		return fmt.Errorf("%w: unknown party %q", ErrValidation, party)
	}

	query := `UPDATE conversations SET ` + column + ` = 0 WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query, conversationID)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkBooking points the conversation at its active booking.
func (t *Tx) LinkBooking(ctx context.Context, conversationID, bookingID int64) error {
	query := `UPDATE conversations SET booking_id = ? WHERE id = ?`
	if _, err := t.q.ExecContext(ctx, query, bookingID, conversationID); err != nil {
		return fmt.Errorf("link booking: %w", err)
	}
	return nil
}

// ListConversationsForUser returns a user's threads, most recent activity first.
func (t *Tx) ListConversationsForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
              WHERE vendor_id = ? OR customer_id = ?
              ORDER BY last_message_at DESC`
	rows, err := t.q.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
