package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventnest/internal/config"
	"eventnest/internal/database"
	"eventnest/internal/domain"
	"eventnest/internal/models"
	"eventnest/internal/service"

	"github.com/rs/zerolog"
)

// Exporter produces admin report files on local disk.
type Exporter interface {
	ExportBookings(ctx context.Context) (string, error)
	ExportReviews(ctx context.Context) (string, error)
}

// SheetsPusher mirrors the bookings table into the operations spreadsheet.
type SheetsPusher interface {
	PushBookings(ctx context.Context, bookings []*models.Booking) error
}

// HTTPServer is the JSON API for the marketplace workflows.
type HTTPServer struct {
	cfg    config.APIConfig
	db     *database.DB
	server *http.Server
	logger *zerolog.Logger

	quotes        domain.QuoteWorkflow
	bookings      domain.BookingEngine
	dates         domain.DateNegotiation
	reviews       domain.ReviewWorkflow
	conversations domain.ConversationWorkflow
	notifications *service.NotificationService
	wishlist      *service.WishlistService
	exporter      Exporter
	sheets        SheetsPusher
}

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	DB            *database.DB
	Quotes        domain.QuoteWorkflow
	Bookings      domain.BookingEngine
	Dates         domain.DateNegotiation
	Reviews       domain.ReviewWorkflow
	Conversations domain.ConversationWorkflow
	Notifications *service.NotificationService
	Wishlist      *service.WishlistService
	Exporter      Exporter
	Sheets        SheetsPusher
	Verifier      TokenVerifier
	Logger        *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps) *HTTPServer {
	srv := &HTTPServer{
		cfg:           cfg,
		db:            deps.DB,
		logger:        deps.Logger,
		quotes:        deps.Quotes,
		bookings:      deps.Bookings,
		dates:         deps.Dates,
		reviews:       deps.Reviews,
		conversations: deps.Conversations,
		notifications: deps.Notifications,
		wishlist:      deps.Wishlist,
		exporter:      deps.Exporter,
		sheets:        deps.Sheets,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quotes", srv.handleQuotes)
	mux.HandleFunc("/api/v1/quotes/", srv.handleQuoteActions)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookingList)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingActions)
	mux.HandleFunc("/api/v1/conversations", srv.handleConversationList)
	mux.HandleFunc("/api/v1/conversations/", srv.handleConversationActions)
	mux.HandleFunc("/api/v1/reviews", srv.handleReviews)
	mux.HandleFunc("/api/v1/reviews/", srv.handleReviewActions)
	mux.HandleFunc("/api/v1/vendors/", srv.handleVendors)
	mux.HandleFunc("/api/v1/notifications", srv.handleNotifications)
	mux.HandleFunc("/api/v1/notifications/unread-count", srv.handleNotificationsUnread)
	mux.HandleFunc("/api/v1/notifications/read", srv.handleNotificationsRead)
	mux.HandleFunc("/api/v1/wishlist", srv.handleWishlistList)
	mux.HandleFunc("/api/v1/wishlist/", srv.handleWishlistEntry)
	mux.HandleFunc("/api/v1/admin/export/bookings.xlsx", srv.handleExportBookings)
	mux.HandleFunc("/api/v1/admin/export/reviews.xlsx", srv.handleExportReviews)
	mux.HandleFunc("/api/v1/admin/export/sheets", srv.handleExportSheets)

	auth := NewAuth(deps.Verifier, deps.DB)
	limiter := newRateLimiter(cfg.RateLimit)
	handler := loggingMiddleware(deps.Logger)(limiter.Wrap(auth.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps store sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, database.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrInvalidState),
		errors.Is(err, database.ErrAlreadyResolved),
		errors.Is(err, database.ErrNoPendingProposal),
		errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// pathSegments splits the URL tail after prefix into non-empty segments.
func pathSegments(path, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
