package service

import (
	"context"
	"fmt"
	"testing"

	"eventnest/internal/database"
	"eventnest/internal/events"
	"eventnest/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testEnv wires every workflow service over one in-memory database. The
// notifier is the real NotificationService (without an outbox), so tests can
// assert on the persisted notification rows.
type testEnv struct {
	db            *database.DB
	notifier      *NotificationService
	quotes        *QuoteService
	bookings      *BookingService
	dates         *DateService
	reviews       *ReviewService
	conversations *ConversationService
	wishlist      *WishlistService
	mailer        *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	notifier := NewNotificationService(db, nil, &logger)
	mailer := &recordingMailer{}

	return &testEnv{
		db:            db,
		notifier:      notifier,
		quotes:        NewQuoteService(db, notifier, mailer, bus, &logger),
		bookings:      NewBookingService(db, notifier, bus, &logger),
		dates:         NewDateService(db, notifier, bus, &logger),
		reviews:       NewReviewService(db, notifier, bus, &logger),
		conversations: NewConversationService(db, notifier, bus, &logger),
		wishlist:      NewWishlistService(db),
		mailer:        mailer,
	}
}

// recordingMailer captures the template names of sent emails.
type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendQuoteReceived(_ context.Context, _ int64, _ *models.Quote) {
	m.sent = append(m.sent, "quote_received")
}

func (m *recordingMailer) SendQuoteAccepted(_ context.Context, _ int64, _ *models.Quote) {
	m.sent = append(m.sent, "quote_accepted")
}

func (m *recordingMailer) SendQuoteDeclined(_ context.Context, _ int64, _ *models.Quote) {
	m.sent = append(m.sent, "quote_declined")
}

var userSeq int

func (e *testEnv) createUser(t *testing.T, role string) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		ExternalID: fmt.Sprintf("ext-%d", userSeq),
		Email:      fmt.Sprintf("user%d@example.com", userSeq),
		Name:       "User",
		Role:       role,
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) createVendor(t *testing.T, approved bool) *models.User {
	t.Helper()
	u := e.createUser(t, models.RoleVendor)
	require.NoError(t, e.db.CreateVendorProfile(context.Background(), &models.VendorProfile{
		UserID:       u.ID,
		BusinessName: "Vendor Co",
		Category:     "photography",
		City:         "Riga",
		Approved:     approved,
	}))
	return u
}

func (e *testEnv) pair(t *testing.T) (vendor, customer *models.User, conv *models.Conversation) {
	t.Helper()
	vendor = e.createVendor(t, true)
	customer = e.createUser(t, models.RoleCustomer)
	conv, err := e.db.GetOrCreateConversation(context.Background(), vendor.ID, customer.ID)
	require.NoError(t, err)
	return vendor, customer, conv
}
