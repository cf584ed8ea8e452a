package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/events"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
)

// ConversationService owns the single thread per (vendor, customer) pair and
// the unread accounting around it.
type ConversationService struct {
	db       *database.DB
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewConversationService(db *database.DB, notifier domain.Notifier, eventBus domain.EventPublisher, logger *zerolog.Logger) *ConversationService {
	return &ConversationService{db: db, notifier: notifier, eventBus: eventBus, logger: logger}
}

// SendMessage appends a text message to the pair's conversation. A customer's
// first contact creates the thread lazily; a vendor can only write into an
// existing one. A customer reply moves a fresh inquiry into negotiation.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, vendorID, customerID int64, body string) (*models.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", database.ErrValidation)
	}
	if senderID != vendorID && senderID != customerID {
		return nil, database.ErrForbidden
	}

	var msg *models.Message
	var recipientID int64
	err := s.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		var conv *models.Conversation
		var err error
		if senderID == customerID {
			vendor, err := tx.GetVendorProfile(ctx, vendorID)
			if err != nil {
				return err
			}
			if !vendor.Approved {
				return database.ErrForbidden
			}
			conv, err = tx.GetOrCreateConversation(ctx, vendorID, customerID)
			if err != nil {
				return err
			}
		} else {
			conv, err = tx.GetConversationByPair(ctx, vendorID, customerID)
			if err != nil {
				return err
			}
		}

		msg = &models.Message{
			ConversationID: conv.ID,
			SenderID:       senderID,
			Body:           body,
			Kind:           models.MessageText,
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}

		party := models.PartyCustomer
		recipientID = customerID
		if senderID == customerID {
			party = models.PartyVendor
			recipientID = vendorID
		}
		if err := tx.RecordActivity(ctx, conv.ID, party); err != nil {
			return err
		}

		// A customer replying to an inquiry starts the negotiation.
		if senderID == customerID && conv.BookingID != nil {
			if err := tx.MarkBookingPending(ctx, *conv.BookingID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.IncWorkflow("send_message", "error")
		return nil, err
	}
	metrics.IncWorkflow("send_message", "ok")

	s.notifier.Notify(ctx, recipientID, models.NotifNewMessage, "New message",
		truncate(body, 120), fmt.Sprintf("/conversations/%d", msg.ConversationID))
	s.publish(events.EventMessageSent, events.LifecyclePayload{
		ConversationID: msg.ConversationID, VendorID: vendorID, CustomerID: customerID,
	})
	return msg, nil
}

// MarkRead resets the caller's unread counter on the conversation.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, callerID int64) error {
	conv, err := s.db.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	switch callerID {
	case conv.VendorID:
		return s.db.MarkConversationRead(ctx, conversationID, models.PartyVendor)
	case conv.CustomerID:
		return s.db.MarkConversationRead(ctx, conversationID, models.PartyCustomer)
	default:
		return database.ErrForbidden
	}
}

// ListForUser returns the caller's inbox, most recent first.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	return s.db.ListConversationsForUser(ctx, userID)
}

// ListMessages returns a conversation's timeline for one of its members.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, callerID int64, limit int) ([]*models.Message, error) {
	conv, err := s.db.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if callerID != conv.VendorID && callerID != conv.CustomerID {
		// Membership is not leaked: outsiders see the same error as a
		// missing conversation.
		return nil, database.ErrNotFound
	}
	return s.db.ListMessages(ctx, conversationID, limit)
}

func (s *ConversationService) publish(eventType string, payload events.LifecyclePayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}

var _ domain.ConversationWorkflow = (*ConversationService)(nil)
