package models

import "time"

// Conversation is the single messaging thread between one vendor and one
// customer. BookingID links the thread's active booking, when any.
type Conversation struct {
	ID             int64     `json:"id"`
	VendorID       int64     `json:"vendor_id"`
	CustomerID     int64     `json:"customer_id"`
	BookingID      *int64    `json:"booking_id,omitempty"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadVendor   int64     `json:"unread_vendor"`
	UnreadCustomer int64     `json:"unread_customer"`
	CreatedAt      time.Time `json:"created_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Body           string    `json:"body"`
	Kind           string    `json:"kind"` // text, quote, date_proposal, attachment
	QuoteID        *int64    `json:"quote_id,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
