package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventnest/internal/config"
	"eventnest/internal/database"
	"eventnest/internal/events"
	"eventnest/internal/models"
	"eventnest/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vendorToken   = "vendor-token"
	customerToken = "customer-token"
	adminToken    = "admin-token"
	outsiderToken = "outsider-token"
)

type apiEnv struct {
	db       *database.DB
	handler  http.Handler
	vendor   *models.User
	customer *models.User
	admin    *models.User
	conv     *models.Conversation
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	vendor := &models.User{ExternalID: "ext-vendor", Email: "vendor@example.com", Name: "Vendor", Role: models.RoleVendor}
	require.NoError(t, db.CreateUser(ctx, vendor))
	require.NoError(t, db.CreateVendorProfile(ctx, &models.VendorProfile{
		UserID: vendor.ID, BusinessName: "Vendor Co", Category: "photography", City: "Riga", Approved: true,
	}))
	customer := &models.User{ExternalID: "ext-customer", Email: "customer@example.com", Name: "Customer", Role: models.RoleCustomer}
	require.NoError(t, db.CreateUser(ctx, customer))
	admin := &models.User{ExternalID: "ext-admin", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, db.CreateUser(ctx, admin))
	outsider := &models.User{ExternalID: "ext-outsider", Email: "outsider@example.com", Name: "Outsider", Role: models.RoleCustomer}
	require.NoError(t, db.CreateUser(ctx, outsider))

	conv, err := db.GetOrCreateConversation(ctx, vendor.ID, customer.ID)
	require.NoError(t, err)

	bus := events.NewEventBus()
	notifier := service.NewNotificationService(db, nil, &logger)
	mailer := &recordingTestMailer{}

	cfg := config.APIConfig{
		Port: 0,
		Auth: config.APIAuthConfig{Tokens: []config.APIToken{
			{Token: vendorToken, ExternalID: vendor.ExternalID},
			{Token: customerToken, ExternalID: customer.ExternalID},
			{Token: adminToken, ExternalID: admin.ExternalID},
			{Token: outsiderToken, ExternalID: outsider.ExternalID},
		}},
		RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
	}

	srv := NewHTTPServer(cfg, Deps{
		DB:            db,
		Quotes:        service.NewQuoteService(db, notifier, mailer, bus, &logger),
		Bookings:      service.NewBookingService(db, notifier, bus, &logger),
		Dates:         service.NewDateService(db, notifier, bus, &logger),
		Reviews:       service.NewReviewService(db, notifier, bus, &logger),
		Conversations: service.NewConversationService(db, notifier, bus, &logger),
		Notifications: notifier,
		Wishlist:      service.NewWishlistService(db),
		Verifier:      NewStaticTokenVerifier(cfg.Auth),
		Logger:        &logger,
	})

	return &apiEnv{db: db, handler: srv.Handler(), vendor: vendor, customer: customer, admin: admin, conv: conv}
}

type recordingTestMailer struct{}

func (m *recordingTestMailer) SendQuoteReceived(context.Context, int64, *models.Quote) {}
func (m *recordingTestMailer) SendQuoteAccepted(context.Context, int64, *models.Quote) {}
func (m *recordingTestMailer) SendQuoteDeclined(context.Context, int64, *models.Quote) {}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (e *apiEnv) createQuote(t *testing.T) *models.Quote {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/quotes", vendorToken, map[string]any{
		"conversation_id": e.conv.ID,
		"title":           "Wedding photography",
		"price":           1000,
		"features":        []string{"8 hours"},
		"event_date":      "2026-11-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quote models.Quote
	decodeBody(t, rec, &quote)
	return &quote
}

func TestAPI_Authentication(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", customerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_CreateQuote(t *testing.T) {
	env := newAPIEnv(t)

	quote := env.createQuote(t)
	assert.Equal(t, models.QuoteStatusPending, quote.Status)
	assert.Equal(t, 1000.0, quote.Price)

	// Customers cannot issue quotes on the thread.
	rec := env.do(t, http.MethodPost, "/api/v1/quotes", customerToken, map[string]any{
		"conversation_id": env.conv.ID,
		"title":           "Nope",
		"price":           10,
		"event_date":      "2026-11-01",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/quotes", vendorToken, map[string]any{
		"conversation_id": env.conv.ID,
		"title":           "Bad date",
		"price":           10,
		"event_date":      "november first",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/quotes", vendorToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_ResolveQuote(t *testing.T) {
	env := newAPIEnv(t)
	quote := env.createQuote(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resolution struct {
		Status    string `json:"status"`
		BookingID int64  `json:"booking_id"`
	}
	decodeBody(t, rec, &resolution)
	assert.Equal(t, models.QuoteStatusAccepted, resolution.Status)
	require.NotZero(t, resolution.BookingID)

	// Second resolve races into the conflict branch.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "decline"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/quotes/999999/resolve", customerToken,
		map[string]string{"action": "accept"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "shred"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_BookingVisibility(t *testing.T) {
	env := newAPIEnv(t)
	quote := env.createQuote(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolution struct {
		BookingID int64 `json:"booking_id"`
	}
	decodeBody(t, rec, &resolution)
	path := fmt.Sprintf("/api/v1/bookings/%d", resolution.BookingID)

	for token, want := range map[string]int{
		vendorToken:   http.StatusOK,
		customerToken: http.StatusOK,
		adminToken:    http.StatusOK,
		outsiderToken: http.StatusNotFound, // existence is not leaked
	} {
		rec = env.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, want, rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", customerToken, nil)
	var list struct {
		Bookings []*models.Booking `json:"bookings"`
	}
	decodeBody(t, rec, &list)
	assert.Len(t, list.Bookings, 1)
}

func TestAPI_CancelConfirmedConflict(t *testing.T) {
	env := newAPIEnv(t)
	quote := env.createQuote(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolution struct {
		BookingID int64 `json:"booking_id"`
	}
	decodeBody(t, rec, &resolution)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", resolution.BookingID), customerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_DateNegotiation(t *testing.T) {
	env := newAPIEnv(t)
	quote := env.createQuote(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolution struct {
		BookingID int64 `json:"booking_id"`
	}
	decodeBody(t, rec, &resolution)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/propose-date", resolution.BookingID), vendorToken,
		map[string]string{"date": "2026-12-05"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/respond-date", resolution.BookingID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", resolution.BookingID), customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var booking models.Booking
	decodeBody(t, rec, &booking)
	require.NotNil(t, booking.EventDate)
	assert.Equal(t, "2026-12-05", booking.EventDate.Format("2006-01-02"))

	// No pending proposal left to respond to.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/respond-date", resolution.BookingID), customerToken,
		map[string]string{"action": "decline"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_Conversations(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", customerToken, map[string]any{
		"recipient_id": env.vendor.ID,
		"body":         "Hi there",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg models.Message
	decodeBody(t, rec, &msg)
	assert.Equal(t, env.conv.ID, msg.ConversationID)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/messages", env.conv.ID), vendorToken,
		map[string]string{"body": "Hello back"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", env.conv.ID), customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Messages []*models.Message `json:"messages"`
	}
	decodeBody(t, rec, &msgs)
	assert.Len(t, msgs.Messages, 2)

	// Outsiders get a 404, not a 403, to avoid leaking thread existence.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", env.conv.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/read", env.conv.ID), vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/conversations", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var convs struct {
		Conversations []*models.Conversation `json:"conversations"`
	}
	decodeBody(t, rec, &convs)
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, int64(0), convs.Conversations[0].UnreadVendor)
}

func TestAPI_Reviews(t *testing.T) {
	env := newAPIEnv(t)
	quote := env.createQuote(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%d/resolve", quote.ID), customerToken,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolution struct {
		BookingID int64 `json:"booking_id"`
	}
	decodeBody(t, rec, &resolution)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/complete", resolution.BookingID), vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/reviews", customerToken, map[string]any{
		"booking_id": resolution.BookingID,
		"rating":     5,
		"body":       "Great photos",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review models.Review
	decodeBody(t, rec, &review)

	// One review per booking.
	rec = env.do(t, http.MethodPost, "/api/v1/reviews", customerToken, map[string]any{
		"booking_id": resolution.BookingID,
		"rating":     1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reviews/%d/reply", review.ID), vendorToken,
		map[string]string{"body": "Thank you!"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vendors/%d/reviews", env.vendor.ID), customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews struct {
		Reviews []*models.Review `json:"reviews"`
	}
	decodeBody(t, rec, &reviews)
	require.Len(t, reviews.Reviews, 1)

	// Moderation is admin-only.
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", review.ID), vendorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", review.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Notifications(t *testing.T) {
	env := newAPIEnv(t)
	env.createQuote(t)

	rec := env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		Unread int64 `json:"unread"`
	}
	decodeBody(t, rec, &count)
	assert.Equal(t, int64(1), count.Unread)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/read", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", customerToken, nil)
	decodeBody(t, rec, &count)
	assert.Equal(t, int64(0), count.Unread)
}

func TestAPI_Wishlist(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/wishlist/%d", env.vendor.ID), customerToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/wishlist", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Wishlist []*models.WishlistEntry `json:"wishlist"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Wishlist, 1)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/wishlist/%d", env.vendor.ID), customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_AdminExports(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/export/bookings.xlsx", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No exporter wired in the test environment.
	rec = env.do(t, http.MethodGet, "/api/v1/admin/export/bookings.xlsx", adminToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/export/sheets", adminToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_RateLimit(t *testing.T) {
	limiter := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 2})
	handler := limiter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limited := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.Header.Set("Authorization", "Bearer "+customerToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Greater(t, limited, 0)
}
