package service

import (
	"context"
	"errors"
	"fmt"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/events"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// QuoteService creates vendor quotes and resolves customer accept/decline
// actions. Every workflow is one transaction spanning quote, message,
// conversation counters and booking; notifications and email go out only
// after the commit.
type QuoteService struct {
	db       *database.DB
	notifier domain.Notifier
	mailer   domain.Mailer
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewQuoteService(db *database.DB, notifier domain.Notifier, mailer domain.Mailer, eventBus domain.EventPublisher, logger *zerolog.Logger) *QuoteService {
	return &QuoteService{db: db, notifier: notifier, mailer: mailer, eventBus: eventBus, logger: logger}
}

// CreateQuote validates the payload, then atomically creates the quote,
// appends the quote message, bumps the customer's unread counter and applies
// the price to the conversation's booking (creating one when missing).
func (s *QuoteService) CreateQuote(ctx context.Context, vendorCallerID int64, in domain.CreateQuoteInput) (*models.Quote, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", database.ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", database.ErrValidation)
	}
	if in.EventDate.IsZero() {
		return nil, fmt.Errorf("%w: event date is required", database.ErrValidation)
	}

	var quote *models.Quote
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		conv, err := tx.GetConversation(ctx, in.ConversationID)
		if err != nil {
			return err
		}
		if conv.VendorID != vendorCallerID {
			return database.ErrForbidden
		}
		vendor, err := tx.GetVendorProfile(ctx, vendorCallerID)
		if err != nil {
			return err
		}
		if !vendor.Approved {
			return database.ErrForbidden
		}

		eventDate := in.EventDate
		quote = &models.Quote{
			ConversationID: conv.ID,
			VendorID:       conv.VendorID,
			CustomerID:     conv.CustomerID,
			Title:          in.Title,
			Description:    in.Description,
			Price:          in.Price,
			Features:       in.Features,
			EventDate:      &eventDate,
			Status:         models.QuoteStatusPending,
		}
		if err := tx.CreateQuote(ctx, quote); err != nil {
			return err
		}

		msg := &models.Message{
			ConversationID: conv.ID,
			SenderID:       vendorCallerID,
			Body:           fmt.Sprintf("Quote: %s — %.2f", in.Title, in.Price),
			Kind:           models.MessageQuote,
			QuoteID:        &quote.ID,
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		if err := tx.RecordActivity(ctx, conv.ID, models.PartyCustomer); err != nil {
			return err
		}

		if _, err := applyQuote(ctx, tx, conv, in.Price, in.EventDate); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		metrics.IncWorkflow("create_quote", "error")
		return nil, err
	}
	metrics.IncWorkflow("create_quote", "ok")

	s.notifier.Notify(ctx, quote.CustomerID, models.NotifQuoteReceived,
		"New quote received", fmt.Sprintf("%s — %.2f", quote.Title, quote.Price),
		fmt.Sprintf("/conversations/%d", quote.ConversationID))
	s.mailer.SendQuoteReceived(ctx, quote.CustomerID, quote)
	s.publish(events.EventQuoteCreated, events.LifecyclePayload{
		QuoteID: quote.ID, ConversationID: quote.ConversationID,
		VendorID: quote.VendorID, CustomerID: quote.CustomerID, Price: quote.Price,
	})
	return quote, nil
}

// ResolveQuote applies the customer's accept or decline. The pending-status
// guard runs inside the transaction; of two racing resolutions exactly one
// wins, the other gets ErrAlreadyResolved with nothing changed.
func (s *QuoteService) ResolveQuote(ctx context.Context, quoteID, customerCallerID int64, action string) (*domain.QuoteResolution, error) {
	if action != "accept" && action != "decline" {
		return nil, fmt.Errorf("%w: action must be accept or decline", database.ErrValidation)
	}

	var quote *models.Quote
	var bookingID int64
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var err error
		quote, err = tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.CustomerID != customerCallerID {
			return database.ErrForbidden
		}

		conv, err := tx.GetConversation(ctx, quote.ConversationID)
		if err != nil {
			return err
		}

		if action == "decline" {
			if err := tx.ResolveQuote(ctx, quoteID, models.QuoteStatusDeclined); err != nil {
				return err
			}
			if conv.BookingID != nil {
				// A booking already past the cancellable statuses stays as it
				// is; declining the quote must still succeed.
				if err := tx.CancelBooking(ctx, *conv.BookingID); err != nil && !errors.Is(err, database.ErrInvalidState) {
					return err
				}
			}
			msg := &models.Message{
				ConversationID: conv.ID,
				SenderID:       customerCallerID,
				Body:           fmt.Sprintf("Declined the quote: %s", quote.Title),
			}
			if err := tx.CreateMessage(ctx, msg); err != nil {
				return err
			}
			return tx.RecordActivity(ctx, conv.ID, models.PartyVendor)
		}

		// accept
		if err := tx.ResolveQuote(ctx, quoteID, models.QuoteStatusAccepted); err != nil {
			return err
		}
		if conv.BookingID != nil {
			bookingID = *conv.BookingID
		} else {
			b := &models.Booking{
				VendorID:   quote.VendorID,
				CustomerID: quote.CustomerID,
				Status:     models.StatusPending,
				EventDate:  quote.EventDate,
			}
			b.SetPrice(quote.Price)
			if err := tx.CreateBooking(ctx, b); err != nil {
				return err
			}
			if err := tx.LinkBooking(ctx, conv.ID, b.ID); err != nil {
				return err
			}
			bookingID = b.ID
		}
		if err := tx.ConfirmBooking(ctx, bookingID, quote.Price); err != nil {
			return err
		}
		if err := tx.BindQuoteBooking(ctx, quoteID, bookingID); err != nil {
			return err
		}

		msg := &models.Message{
			ConversationID: conv.ID,
			SenderID:       customerCallerID,
			Body:           fmt.Sprintf("Accepted the quote: %s", quote.Title),
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return tx.RecordActivity(ctx, conv.ID, models.PartyVendor)
	})
	if err != nil {
		metrics.IncWorkflow("resolve_quote", "error")
		return nil, err
	}
	metrics.IncWorkflow("resolve_quote", "ok")

	link := fmt.Sprintf("/conversations/%d", quote.ConversationID)
	if action == "accept" {
		s.notifier.Notify(ctx, quote.VendorID, models.NotifQuoteAccepted,
			"Quote accepted", fmt.Sprintf("%s was accepted.", quote.Title), link)
		s.mailer.SendQuoteAccepted(ctx, quote.VendorID, quote)
		s.publish(events.EventQuoteAccepted, events.LifecyclePayload{
			QuoteID: quote.ID, BookingID: bookingID, ConversationID: quote.ConversationID,
			VendorID: quote.VendorID, CustomerID: quote.CustomerID,
			Price: quote.Price, Status: models.QuoteStatusAccepted,
		})
		return &domain.QuoteResolution{Action: action, Status: models.QuoteStatusAccepted, BookingID: bookingID}, nil
	}

	s.notifier.Notify(ctx, quote.VendorID, models.NotifQuoteDeclined,
		"Quote declined", fmt.Sprintf("%s was declined.", quote.Title), link)
	s.mailer.SendQuoteDeclined(ctx, quote.VendorID, quote)
	s.publish(events.EventQuoteDeclined, events.LifecyclePayload{
		QuoteID: quote.ID, ConversationID: quote.ConversationID,
		VendorID: quote.VendorID, CustomerID: quote.CustomerID,
		Status: models.QuoteStatusDeclined,
	})
	return &domain.QuoteResolution{Action: action, Status: models.QuoteStatusDeclined}, nil
}

func (s *QuoteService) publish(eventType string, payload events.LifecyclePayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

var _ domain.QuoteWorkflow = (*QuoteService)(nil)
