package models

import "time"

// Review is unique per booking; only completed bookings are reviewable.
type Review struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	VendorID   int64     `json:"vendor_id"`
	CustomerID int64     `json:"customer_id"`
	Rating     int       `json:"rating"` // 1..5
	Body       string    `json:"body,omitempty"`
	Photos     []string  `json:"photos,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewReply is the single vendor reply allowed per review.
type ReviewReply struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	VendorID  int64     `json:"vendor_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
