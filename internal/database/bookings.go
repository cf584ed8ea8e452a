package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/models"
)

const bookingColumns = `id, vendor_id, customer_id, status, event_date, proposal_state, proposed_date,
       total_price, vendor_fee, customer_fee, confirmed_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var eventDate, proposedDate, confirmedAt sql.NullTime
	err := row.Scan(&b.ID, &b.VendorID, &b.CustomerID, &b.Status, &eventDate, &b.ProposalState,
		&proposedDate, &b.TotalPrice, &b.VendorFee, &b.CustomerFee, &confirmedAt,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if eventDate.Valid {
		b.EventDate = &eventDate.Time
	}
	if proposedDate.Valid {
		b.ProposedDate = &proposedDate.Time
	}
	if confirmedAt.Valid {
		b.ConfirmedAt = &confirmedAt.Time
	}
	return &b, nil
}

func (t *Tx) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.Status == "" {
		b.Status = models.StatusNewInquiry
	}
	if b.ProposalState == "" {
		b.ProposalState = models.ProposalNone
	}
	query := `INSERT INTO bookings (vendor_id, customer_id, status, event_date, proposal_state, proposed_date,
                total_price, vendor_fee, customer_fee, confirmed_at, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query,
		b.VendorID, b.CustomerID, b.Status, timePtr(b.EventDate), b.ProposalState, timePtr(b.ProposedDate),
		b.TotalPrice, b.VendorFee, b.CustomerFee, timePtr(b.ConfirmedAt), now, now)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("booking last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (t *Tx) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(t.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// UpdateBookingQuote overwrites price, fees and event date in place. Status is
// untouched; a second quote on the same conversation updates the existing
// booking instead of creating a duplicate.
func (t *Tx) UpdateBookingQuote(ctx context.Context, id int64, price float64, eventDate time.Time) error {
	query := `UPDATE bookings SET total_price = ?, vendor_fee = ?, customer_fee = ?, event_date = ?, updated_at = ?
              WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query,
		price, models.Round2(price*models.VendorFeeRate), models.Round2(price*models.CustomerFeeRate),
		eventDate, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update booking quote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelBooking transitions to cancelled, but only from a cancellable status.
// The guard runs inside the same statement that mutates, so a racing transition
// cannot slip through.
func (t *Tx) CancelBooking(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`
	res, err := t.q.ExecContext(ctx, query, models.StatusCancelled, time.Now(), id,
		models.StatusNewInquiry, models.StatusPending)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	return nil
}

// ConfirmBooking sets status confirmed, stamps confirmed_at and recomputes
// fees from the accepted price.
func (t *Tx) ConfirmBooking(ctx context.Context, id int64, price float64) error {
	now := time.Now()
	query := `UPDATE bookings SET status = ?, confirmed_at = ?, total_price = ?, vendor_fee = ?, customer_fee = ?, updated_at = ?
              WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query, models.StatusConfirmed, now,
		price, models.Round2(price*models.VendorFeeRate), models.Round2(price*models.CustomerFeeRate), now, id)
	if err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkBookingPending moves a fresh inquiry into active negotiation.
func (t *Tx) MarkBookingPending(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	if _, err := t.q.ExecContext(ctx, query, models.StatusPending, time.Now(), id, models.StatusNewInquiry); err != nil {
		return fmt.Errorf("mark booking pending: %w", err)
	}
	return nil
}

// CompleteBooking transitions a confirmed booking to completed.
func (t *Tx) CompleteBooking(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := t.q.ExecContext(ctx, query, models.StatusCompleted, time.Now(), id, models.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	return nil
}

// ProposeDate stores a candidate date and flips the proposal to pending.
// Re-proposing after a decline is allowed.
func (t *Tx) ProposeDate(ctx context.Context, id int64, candidate time.Time) error {
	query := `UPDATE bookings SET proposal_state = ?, proposed_date = ?, updated_at = ? WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query, models.ProposalPending, candidate, time.Now(), id)
	if err != nil {
		return fmt.Errorf("propose date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptProposedDate promotes the proposed date to the event date. The
// pending-state guard makes a second resolution fail.
func (t *Tx) AcceptProposedDate(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET event_date = proposed_date, proposed_date = NULL, proposal_state = ?, updated_at = ?
              WHERE id = ? AND proposal_state = ?`
	res, err := t.q.ExecContext(ctx, query, models.ProposalAccepted, time.Now(), id, models.ProposalPending)
	if err != nil {
		return fmt.Errorf("accept proposed date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoPendingProposal
	}
	return nil
}

// DeclineProposedDate clears the candidate, leaving the event date untouched.
func (t *Tx) DeclineProposedDate(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET proposed_date = NULL, proposal_state = ?, updated_at = ?
              WHERE id = ? AND proposal_state = ?`
	res, err := t.q.ExecContext(ctx, query, models.ProposalDeclined, time.Now(), id, models.ProposalPending)
	if err != nil {
		return fmt.Errorf("decline proposed date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoPendingProposal
	}
	return nil
}

// ListBookingsForUser returns bookings where the user is either side.
func (t *Tx) ListBookingsForUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE vendor_id = ? OR customer_id = ?
              ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBookings returns every booking, newest first. Admin export surface.
func (t *Tx) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all bookings: %w", err)
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
