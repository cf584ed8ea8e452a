package domain

import (
	"context"
	"time"

	"eventnest/internal/models"
)

// Notifier records a notification for a user and hands delivery to the
// outbox. Implementations must never fail the caller's workflow: errors are
// logged and swallowed.
type Notifier interface {
	Notify(ctx context.Context, userID int64, notifType, title, body, link string)
}

// Mailer sends transactional quote emails. Fire-and-forget; failures never
// propagate to the triggering workflow.
type Mailer interface {
	SendQuoteReceived(ctx context.Context, customerID int64, quote *models.Quote)
	SendQuoteAccepted(ctx context.Context, vendorID int64, quote *models.Quote)
	SendQuoteDeclined(ctx context.Context, vendorID int64, quote *models.Quote)
}

// EventPublisher emits lifecycle events for in-process consumers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// OutboxEnqueuer schedules a persisted delivery task for the worker.
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, task *models.OutboxTask) error
}

// QuoteWorkflow is the vendor-quote surface consumed by the request layer.
type QuoteWorkflow interface {
	CreateQuote(ctx context.Context, vendorCallerID int64, in CreateQuoteInput) (*models.Quote, error)
	ResolveQuote(ctx context.Context, quoteID, customerCallerID int64, action string) (*QuoteResolution, error)
}

// CreateQuoteInput is the payload a vendor supplies for a new quote.
type CreateQuoteInput struct {
	ConversationID int64
	Title          string
	Description    string
	Price          float64
	Features       []string
	EventDate      time.Time
}

// QuoteResolution reports the outcome of an accept/decline.
type QuoteResolution struct {
	Action    string `json:"action"`
	Status    string `json:"status"`
	BookingID int64  `json:"booking_id,omitempty"`
}

// BookingEngine owns the booking state machine.
type BookingEngine interface {
	Cancel(ctx context.Context, bookingID, customerCallerID int64) error
	Complete(ctx context.Context, bookingID, callerID int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookingsForUser(ctx context.Context, userID int64) ([]*models.Booking, error)
}

// DateNegotiation proposes and resolves candidate event dates on a booking.
type DateNegotiation interface {
	Propose(ctx context.Context, bookingID, vendorCallerID int64, candidate time.Time) (*models.Message, error)
	Respond(ctx context.Context, bookingID, customerCallerID int64, action string) error
}

// ReviewWorkflow covers review submission and vendor replies.
type ReviewWorkflow interface {
	CreateReview(ctx context.Context, customerCallerID int64, in CreateReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
	CreateReply(ctx context.Context, reviewID, vendorCallerID int64, body string) (*models.ReviewReply, error)
	ListVendorReviews(ctx context.Context, vendorID int64) ([]*models.Review, error)
}

// CreateReviewInput is the payload for a customer review of a completed booking.
type CreateReviewInput struct {
	BookingID int64
	Rating    int
	Body      string
	Photos    []string
}

// ConversationWorkflow is the messaging surface.
type ConversationWorkflow interface {
	SendMessage(ctx context.Context, senderID, vendorID, customerID int64, body string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, callerID int64) error
	ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID, callerID int64, limit int) ([]*models.Message, error)
}
