package database

import (
	"context"
	"testing"
	"time"

	"eventnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T, db *DB, status string) *models.Booking {
	t.Helper()
	vendor := createTestVendor(t, db, true)
	customer := createTestUser(t, db, models.RoleCustomer)
	b := &models.Booking{VendorID: vendor.ID, CustomerID: customer.ID, Status: status}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestCreateBooking_Defaults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	vendor := createTestVendor(t, db, true)
	customer := createTestUser(t, db, models.RoleCustomer)

	b := &models.Booking{VendorID: vendor.ID, CustomerID: customer.ID}
	require.NoError(t, db.CreateBooking(ctx, b))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNewInquiry, got.Status)
	assert.Equal(t, models.ProposalNone, got.ProposalState)
	assert.Nil(t, got.EventDate)
	assert.Nil(t, got.ConfirmedAt)
}

func TestCancelBooking_Guards(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for _, status := range []string{models.StatusNewInquiry, models.StatusPending} {
		b := createTestBooking(t, db, status)
		require.NoError(t, db.CancelBooking(ctx, b.ID))

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	}

	for _, status := range []string{models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled} {
		b := createTestBooking(t, db, status)
		assert.ErrorIs(t, db.CancelBooking(ctx, b.ID), ErrInvalidState, "status %s", status)
	}
}

func TestConfirmBooking_RecomputesFees(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusPending)

	require.NoError(t, db.ConfirmBooking(ctx, b.ID, 1500))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, 1500.0, got.TotalPrice)
	assert.Equal(t, 150.0, got.VendorFee)
	assert.Equal(t, 30.0, got.CustomerFee)
	require.NotNil(t, got.ConfirmedAt)
}

func TestCompleteBooking_OnlyFromConfirmed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := createTestBooking(t, db, models.StatusConfirmed)
	require.NoError(t, db.CompleteBooking(ctx, b.ID))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	// Second completion and non-confirmed bookings both fail.
	assert.ErrorIs(t, db.CompleteBooking(ctx, b.ID), ErrInvalidState)
	pending := createTestBooking(t, db, models.StatusPending)
	assert.ErrorIs(t, db.CompleteBooking(ctx, pending.ID), ErrInvalidState)
}

func TestMarkBookingPending(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusNewInquiry)

	require.NoError(t, db.MarkBookingPending(ctx, b.ID))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	// No-op on any other status.
	require.NoError(t, db.MarkBookingPending(ctx, b.ID))
	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestDateProposalLifecycle_Accept(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusPending)
	candidate := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.ProposeDate(ctx, b.ID, candidate))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalPending, got.ProposalState)
	require.NotNil(t, got.ProposedDate)

	require.NoError(t, db.AcceptProposedDate(ctx, b.ID))

	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalAccepted, got.ProposalState)
	require.NotNil(t, got.EventDate)
	assert.Equal(t, candidate.Format("2006-01-02"), got.EventDate.Format("2006-01-02"))
	assert.Nil(t, got.ProposedDate)

	// Resolving twice fails.
	assert.ErrorIs(t, db.AcceptProposedDate(ctx, b.ID), ErrNoPendingProposal)
	assert.ErrorIs(t, db.DeclineProposedDate(ctx, b.ID), ErrNoPendingProposal)
}

func TestDateProposalLifecycle_Decline(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusPending)
	original := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	b.EventDate = &original
	require.NoError(t, db.UpdateBookingQuote(ctx, b.ID, 100, original))

	candidate := original.AddDate(0, 0, 7)
	require.NoError(t, db.ProposeDate(ctx, b.ID, candidate))
	require.NoError(t, db.DeclineProposedDate(ctx, b.ID))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalDeclined, got.ProposalState)
	assert.Nil(t, got.ProposedDate)
	// Declining leaves the original event date in place.
	require.NotNil(t, got.EventDate)
	assert.Equal(t, original.Format("2006-01-02"), got.EventDate.Format("2006-01-02"))

	// A re-proposal after decline is allowed.
	require.NoError(t, db.ProposeDate(ctx, b.ID, candidate.AddDate(0, 0, 1)))
	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalPending, got.ProposalState)
}

func TestListBookingsForUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	vendor := createTestVendor(t, db, true)
	customer := createTestUser(t, db, models.RoleCustomer)
	other := createTestUser(t, db, models.RoleCustomer)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateBooking(ctx, &models.Booking{VendorID: vendor.ID, CustomerID: customer.ID}))
	}
	require.NoError(t, db.CreateBooking(ctx, &models.Booking{VendorID: vendor.ID, CustomerID: other.ID}))

	mine, err := db.ListBookingsForUser(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	vendors, err := db.ListBookingsForUser(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Len(t, vendors, 4)

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
