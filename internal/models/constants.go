package models

// Booking statuses.
const (
	StatusNewInquiry = "new_inquiry"
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCancelled  = "cancelled"
	StatusCompleted  = "completed"
)

// Quote statuses.
const (
	QuoteStatusPending  = "pending"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

// Date proposal states on a booking.
const (
	ProposalNone     = "none"
	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalDeclined = "declined"
)

// Message kinds.
const (
	MessageText         = "text"
	MessageQuote        = "quote"
	MessageDateProposal = "date_proposal"
	MessageAttachment   = "attachment"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// Conversation parties for unread accounting.
const (
	PartyVendor   = "vendor"
	PartyCustomer = "customer"
)

// Notification types.
const (
	NotifQuoteReceived    = "quote_received"
	NotifQuoteAccepted    = "quote_accepted"
	NotifQuoteDeclined    = "quote_declined"
	NotifDateProposed     = "date_proposed"
	NotifDateAccepted     = "date_accepted"
	NotifDateDeclined     = "date_declined"
	NotifBookingCancelled = "booking_cancelled"
	NotifBookingCompleted = "booking_completed"
	NotifNewMessage       = "new_message"
	NotifNewReview        = "new_review"
	NotifReviewReply      = "review_reply"
)

// Fee rates applied to a booking's total price.
const (
	VendorFeeRate   = 0.10
	CustomerFeeRate = 0.02
)

const (
	// WorkerQueueSize bounds the in-memory outbox dispatch queue.
	WorkerQueueSize = 128

	// DefaultOutboxBatchSize is how many outbox tasks one poll picks up.
	DefaultOutboxBatchSize = 20
)
