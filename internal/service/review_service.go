package service

import (
	"context"
	"fmt"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/events"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// ReviewService handles customer reviews of completed bookings and vendor
// replies. The vendor's rating aggregate is recomputed from a full scan inside
// the same transaction as the review write, so the cache can never drift.
type ReviewService struct {
	db       *database.DB
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReviewService(db *database.DB, notifier domain.Notifier, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{db: db, notifier: notifier, eventBus: eventBus, logger: logger}
}

// CreateReview validates ownership and booking state, writes the review and
// recomputes the vendor aggregate atomically. A second review of the same
// booking hits the unique constraint and fails with ErrConflict.
func (s *ReviewService) CreateReview(ctx context.Context, customerCallerID int64, in domain.CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", database.ErrValidation)
	}

	var review *models.Review
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		booking, err := tx.GetBooking(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if booking.CustomerID != customerCallerID {
			return database.ErrForbidden
		}
		if booking.Status != models.StatusCompleted {
			return database.ErrInvalidState
		}

		review = &models.Review{
			BookingID:  in.BookingID,
			VendorID:   booking.VendorID,
			CustomerID: customerCallerID,
			Rating:     in.Rating,
			Body:       in.Body,
			Photos:     in.Photos,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		return tx.RecomputeVendorAggregate(ctx, booking.VendorID)
	})
	if err != nil {
		metrics.IncWorkflow("create_review", "error")
		return nil, err
	}
	metrics.IncWorkflow("create_review", "ok")

	s.notifier.Notify(ctx, review.VendorID, models.NotifNewReview,
		"New review", fmt.Sprintf("You received a %d-star review.", review.Rating),
		fmt.Sprintf("/reviews/%d", review.ID))
	s.publish(events.EventReviewCreated, events.LifecyclePayload{
		BookingID: review.BookingID, VendorID: review.VendorID, CustomerID: review.CustomerID,
	})
	return review, nil
}

// DeleteReview removes a review during moderation and recomputes the vendor
// aggregate in the same transaction.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID int64) error {
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		review, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if err := tx.DeleteReview(ctx, reviewID); err != nil {
			return err
		}
		return tx.RecomputeVendorAggregate(ctx, review.VendorID)
	})
	if err != nil {
		metrics.IncWorkflow("delete_review", "error")
		return err
	}
	metrics.IncWorkflow("delete_review", "ok")
	return nil
}

// CreateReply posts the single vendor reply a review allows.
func (s *ReviewService) CreateReply(ctx context.Context, reviewID, vendorCallerID int64, body string) (*models.ReviewReply, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: reply body is required", database.ErrValidation)
	}

	var reply *models.ReviewReply
	var review *models.Review
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var err error
		review, err = tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.VendorID != vendorCallerID {
			return database.ErrForbidden
		}
		reply = &models.ReviewReply{ReviewID: reviewID, VendorID: vendorCallerID, Body: body}
		return tx.CreateReviewReply(ctx, reply)
	})
	if err != nil {
		metrics.IncWorkflow("create_reply", "error")
		return nil, err
	}
	metrics.IncWorkflow("create_reply", "ok")

	s.notifier.Notify(ctx, review.CustomerID, models.NotifReviewReply,
		"Vendor replied to your review", truncate(body, 120),
		fmt.Sprintf("/reviews/%d", reviewID))
	return reply, nil
}

func (s *ReviewService) ListVendorReviews(ctx context.Context, vendorID int64) ([]*models.Review, error) {
	return s.db.ListVendorReviews(ctx, vendorID)
}

func (s *ReviewService) publish(eventType string, payload events.LifecyclePayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

var _ domain.ReviewWorkflow = (*ReviewService)(nil)
