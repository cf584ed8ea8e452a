package service

import (
	"context"
	"fmt"
	"time"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/events"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// BookingService is the booking lifecycle engine. Transitions triggered by
// quotes and date negotiation run through the tx-scoped helpers; Cancel and
// Complete are standalone workflows.
type BookingService struct {
	db       *database.DB
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(db *database.DB, notifier domain.Notifier, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{db: db, notifier: notifier, eventBus: eventBus, logger: logger}
}

// applyQuote creates the conversation's booking when none exists, or
// overwrites price and event date in place. Status is untouched either way; a
// fresh booking starts as a new inquiry. Returns the booking id.
func applyQuote(ctx context.Context, tx *database.Tx, conv *models.Conversation, price float64, eventDate time.Time) (int64, error) {
	if conv.BookingID != nil {
		if err := tx.UpdateBookingQuote(ctx, *conv.BookingID, price, eventDate); err != nil {
			return 0, err
		}
		return *conv.BookingID, nil
	}

	b := &models.Booking{
		VendorID:   conv.VendorID,
		CustomerID: conv.CustomerID,
		Status:     models.StatusNewInquiry,
		EventDate:  &eventDate,
	}
	b.SetPrice(price)
	if err := tx.CreateBooking(ctx, b); err != nil {
		return 0, err
	}
	if err := tx.LinkBooking(ctx, conv.ID, b.ID); err != nil {
		return 0, err
	}
	return b.ID, nil
}

// Cancel handles a customer cancelling an inquiry or a pending booking.
// Confirmed and completed bookings cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID, customerCallerID int64) error {
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.CustomerID != customerCallerID {
			return database.ErrForbidden
		}
		return tx.CancelBooking(ctx, bookingID)
	})
	if err != nil {
		metrics.IncWorkflow("cancel_booking", "error")
		return err
	}
	metrics.IncWorkflow("cancel_booking", "ok")

	s.notifier.Notify(ctx, booking.VendorID, models.NotifBookingCancelled,
		"Booking cancelled", "The customer cancelled the booking request.",
		fmt.Sprintf("/bookings/%d", bookingID))
	s.publish(events.EventBookingCancelled, events.LifecyclePayload{
		BookingID: bookingID, VendorID: booking.VendorID, CustomerID: booking.CustomerID,
		Status: models.StatusCancelled,
	})
	return nil
}

// Complete marks a confirmed booking as completed, opening it up for review.
// Allowed for the booking's vendor and for admins (checked by the caller).
func (s *BookingService) Complete(ctx context.Context, bookingID, callerID int64) error {
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, callerID)
		if err != nil {
			return err
		}
		if booking.VendorID != callerID && !user.IsAdmin() {
			return database.ErrForbidden
		}
		return tx.CompleteBooking(ctx, bookingID)
	})
	if err != nil {
		metrics.IncWorkflow("complete_booking", "error")
		return err
	}
	metrics.IncWorkflow("complete_booking", "ok")

	s.notifier.Notify(ctx, booking.CustomerID, models.NotifBookingCompleted,
		"Booking completed", "Your event is done. You can now leave a review.",
		fmt.Sprintf("/bookings/%d", bookingID))
	s.publish(events.EventBookingCompleted, events.LifecyclePayload{
		BookingID: bookingID, VendorID: booking.VendorID, CustomerID: booking.CustomerID,
		Status: models.StatusCompleted,
	})
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.db.GetBooking(ctx, id)
}

func (s *BookingService) ListBookingsForUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.db.ListBookingsForUser(ctx, userID)
}

func (s *BookingService) publish(eventType string, payload events.LifecyclePayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

var _ domain.BookingEngine = (*BookingService)(nil)
