package models

import (
	"math"
	"time"
)

type Booking struct {
	ID            int64      `json:"id"`
	VendorID      int64      `json:"vendor_id"`
	CustomerID    int64      `json:"customer_id"`
	Status        string     `json:"status"` // new_inquiry, pending, confirmed, cancelled, completed
	EventDate     *time.Time `json:"event_date,omitempty"`
	ProposalState string     `json:"proposal_state"` // none, pending, accepted, declined
	ProposedDate  *time.Time `json:"proposed_date,omitempty"`
	TotalPrice    float64    `json:"total_price"`
	VendorFee     float64    `json:"vendor_fee"`
	CustomerFee   float64    `json:"customer_fee"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Cancellable reports whether the customer may still cancel.
func (b *Booking) Cancellable() bool {
	return b.Status == StatusNewInquiry || b.Status == StatusPending
}

// SetPrice stores the price and recomputes both fees from it.
func (b *Booking) SetPrice(price float64) {
	b.TotalPrice = price
	b.VendorFee = Round2(price * VendorFeeRate)
	b.CustomerFee = Round2(price * CustomerFeeRate)
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
