package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/events"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// proposalDateFormat is the human-readable form carried by date messages.
const proposalDateFormat = "Monday, 02 January 2006"

// DateService negotiates candidate event dates on an existing booking.
type DateService struct {
	db       *database.DB
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewDateService(db *database.DB, notifier domain.Notifier, eventBus domain.EventPublisher, logger *zerolog.Logger) *DateService {
	return &DateService{db: db, notifier: notifier, eventBus: eventBus, logger: logger}
}

// Propose stores a candidate date on the booking and posts the proposal into
// the conversation. Re-proposing after a decline is allowed; the event date is
// untouched until the customer accepts.
func (s *DateService) Propose(ctx context.Context, bookingID, vendorCallerID int64, candidate time.Time) (*models.Message, error) {
	if candidate.IsZero() {
		return nil, fmt.Errorf("%w: candidate date is required", database.ErrValidation)
	}

	var msg *models.Message
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.VendorID != vendorCallerID {
			return database.ErrForbidden
		}

		conv, err := s.conversationForBooking(ctx, tx, booking)
		if err != nil {
			return err
		}

		if err := tx.ProposeDate(ctx, bookingID, candidate); err != nil {
			return err
		}

		msg = &models.Message{
			ConversationID: conv.ID,
			SenderID:       vendorCallerID,
			Body:           fmt.Sprintf("Proposed a new event date: %s", candidate.Format(proposalDateFormat)),
			Kind:           models.MessageDateProposal,
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return tx.RecordActivity(ctx, conv.ID, models.PartyCustomer)
	})
	if err != nil {
		metrics.IncWorkflow("propose_date", "error")
		return nil, err
	}
	metrics.IncWorkflow("propose_date", "ok")

	s.notifier.Notify(ctx, booking.CustomerID, models.NotifDateProposed,
		"New date proposed", candidate.Format(proposalDateFormat),
		fmt.Sprintf("/conversations/%d", msg.ConversationID))
	s.publish(events.EventDateProposed, events.LifecyclePayload{
		BookingID: bookingID, VendorID: booking.VendorID, CustomerID: booking.CustomerID,
		EventDate: &candidate,
	})
	return msg, nil
}

// Respond resolves the pending proposal: accept promotes the candidate to the
// event date, decline only clears it.
func (s *DateService) Respond(ctx context.Context, bookingID, customerCallerID int64, action string) error {
	if action != "accept" && action != "decline" {
		return fmt.Errorf("%w: action must be accept or decline", database.ErrValidation)
	}

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
		if action == "accept" {
			return tx.AcceptProposedDate(ctx, bookingID)
		}
		return tx.DeclineProposedDate(ctx, bookingID)
	})
	if err != nil {
		metrics.IncWorkflow("respond_date", "error")
		return err
	}
	metrics.IncWorkflow("respond_date", "ok")

	title, body := "Date declined", "The customer declined the proposed date."
	notifType := models.NotifDateDeclined
	if action == "accept" {
		title, body = "Date accepted", "The customer accepted the proposed date."
		notifType = models.NotifDateAccepted
	}

	link := fmt.Sprintf("/bookings/%d", bookingID)
	if conv, err := s.db.GetConversationByPair(ctx, booking.VendorID, booking.CustomerID); err == nil {
		link = fmt.Sprintf("/conversations/%d", conv.ID)
	}
	s.notifier.Notify(ctx, booking.VendorID, notifType, title, body, link)
	s.publish(events.EventDateResolved, events.LifecyclePayload{
		BookingID: bookingID, VendorID: booking.VendorID, CustomerID: booking.CustomerID,
		Action: action,
	})
	return nil
}

// conversationForBooking resolves the booking's thread, falling back to the
// (vendor, customer) pair when the booking is not directly linked.
func (s *DateService) conversationForBooking(ctx context.Context, tx *database.Tx, booking *models.Booking) (*models.Conversation, error) {
	conv, err := tx.GetConversationByPair(ctx, booking.VendorID, booking.CustomerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (s *DateService) publish(eventType string, payload events.LifecyclePayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

var _ domain.DateNegotiation = (*DateService)(nil)
