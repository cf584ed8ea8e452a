package database

import (
	"context"
	"testing"

	"eventnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReview_OnePerBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusCompleted)

	review := &models.Review{BookingID: b.ID, VendorID: b.VendorID, CustomerID: b.CustomerID, Rating: 5, Body: "great"}
	require.NoError(t, db.CreateReview(ctx, review))

	dup := &models.Review{BookingID: b.ID, VendorID: b.VendorID, CustomerID: b.CustomerID, Rating: 1}
	assert.ErrorIs(t, db.CreateReview(ctx, dup), ErrConflict)
}

func TestRecomputeVendorAggregate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	vendor := createTestVendor(t, db, true)
	customer := createTestUser(t, db, models.RoleCustomer)

	addReview := func(rating int) *models.Review {
		b := &models.Booking{VendorID: vendor.ID, CustomerID: customer.ID, Status: models.StatusCompleted}
		require.NoError(t, db.CreateBooking(ctx, b))
		r := &models.Review{BookingID: b.ID, VendorID: vendor.ID, CustomerID: customer.ID, Rating: rating}
		require.NoError(t, db.CreateReview(ctx, r))
		require.NoError(t, db.RecomputeVendorAggregate(ctx, vendor.ID))
		return r
	}

	addReview(5)
	addReview(4)
	last := addReview(4)

	profile, err := db.GetVendorProfile(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.TotalReviews)
	// (5+4+4)/3 = 4.333..., rounded to one decimal.
	assert.Equal(t, 4.3, profile.AverageRating)

	// Deleting a review and recomputing keeps the cache in step.
	require.NoError(t, db.DeleteReview(ctx, last.ID))
	require.NoError(t, db.RecomputeVendorAggregate(ctx, vendor.ID))

	profile, err = db.GetVendorProfile(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.TotalReviews)
	assert.Equal(t, 4.5, profile.AverageRating)
}

func TestRecomputeVendorAggregate_NoReviews(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	vendor := createTestVendor(t, db, true)

	require.NoError(t, db.RecomputeVendorAggregate(ctx, vendor.ID))

	profile, err := db.GetVendorProfile(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.TotalReviews)
	assert.Equal(t, 0.0, profile.AverageRating)
}

func TestCreateReviewReply_SingleReply(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	b := createTestBooking(t, db, models.StatusCompleted)

	review := &models.Review{BookingID: b.ID, VendorID: b.VendorID, CustomerID: b.CustomerID, Rating: 4}
	require.NoError(t, db.CreateReview(ctx, review))

	reply := &models.ReviewReply{ReviewID: review.ID, VendorID: b.VendorID, Body: "thanks"}
	require.NoError(t, db.CreateReviewReply(ctx, reply))

	second := &models.ReviewReply{ReviewID: review.ID, VendorID: b.VendorID, Body: "again"}
	assert.ErrorIs(t, db.CreateReviewReply(ctx, second), ErrConflict)
}

func TestListVendorReviews(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	vendor := createTestVendor(t, db, true)
	customer := createTestUser(t, db, models.RoleCustomer)

	for _, rating := range []int{5, 3} {
		b := &models.Booking{VendorID: vendor.ID, CustomerID: customer.ID, Status: models.StatusCompleted}
		require.NoError(t, db.CreateBooking(ctx, b))
		require.NoError(t, db.CreateReview(ctx, &models.Review{
			BookingID: b.ID, VendorID: vendor.ID, CustomerID: customer.ID, Rating: rating,
			Photos: []string{"a.jpg"},
		}))
	}

	reviews, err := db.ListVendorReviews(ctx, vendor.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, []string{"a.jpg"}, reviews[0].Photos)
}
