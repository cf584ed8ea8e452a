package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventQuoteCreated     = "quote_created"
	EventQuoteAccepted    = "quote_accepted"
	EventQuoteDeclined    = "quote_declined"
	EventDateProposed     = "date_proposed"
	EventDateResolved     = "date_resolved"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventReviewCreated    = "review_created"
	EventMessageSent      = "message_sent"
)

// LifecyclePayload is the minimal snapshot event consumers receive for
// booking/quote transitions.
type LifecyclePayload struct {
	BookingID      int64      `json:"booking_id,omitempty"`
	QuoteID        int64      `json:"quote_id,omitempty"`
	ConversationID int64      `json:"conversation_id,omitempty"`
	VendorID       int64      `json:"vendor_id"`
	CustomerID     int64      `json:"customer_id"`
	Status         string     `json:"status,omitempty"`
	Price          float64    `json:"price,omitempty"`
	EventDate      *time.Time `json:"event_date,omitempty"`
	Action         string     `json:"action,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
