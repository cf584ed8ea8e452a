package models

import "time"

type Quote struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	VendorID       int64      `json:"vendor_id"`
	CustomerID     int64      `json:"customer_id"`
	BookingID      *int64     `json:"booking_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Price          float64    `json:"price"`
	Features       []string   `json:"features,omitempty"`
	EventDate      *time.Time `json:"event_date,omitempty"`
	Status         string     `json:"status"` // pending, accepted, declined
	CreatedAt      time.Time  `json:"created_at"`
}
