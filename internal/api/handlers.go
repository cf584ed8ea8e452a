package api

import (
	"net/http"
	"strconv"
	"time"

	"eventnest/internal/domain"
	"eventnest/internal/models"
)

const eventDateLayout = "2006-01-02"

func (s *HTTPServer) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	var body struct {
		ConversationID int64    `json:"conversation_id"`
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Price          float64  `json:"price"`
		Features       []string `json:"features"`
		EventDate      string   `json:"event_date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	eventDate, err := time.Parse(eventDateLayout, body.EventDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event_date; expected YYYY-MM-DD")
		return
	}

	quote, err := s.quotes.CreateQuote(r.Context(), caller.ID, domain.CreateQuoteInput{
		ConversationID: body.ConversationID,
		Title:          body.Title,
		Description:    body.Description,
		Price:          body.Price,
		Features:       body.Features,
		EventDate:      eventDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

// handleQuoteActions serves POST /api/v1/quotes/{id}/resolve.
func (s *HTTPServer) handleQuoteActions(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/quotes/")
	if len(segments) != 2 || segments[1] != "resolve" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	quoteID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	caller := UserFromContext(r.Context())

	var body struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resolution, err := s.quotes.ResolveQuote(r.Context(), quoteID, caller.ID, body.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (s *HTTPServer) handleBookingList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	bookings, err := s.bookings.ListBookingsForUser(r.Context(), caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleBookingActions serves GET /api/v1/bookings/{id} and the POST
// lifecycle actions: cancel, complete, propose-date, respond-date.
func (s *HTTPServer) handleBookingActions(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/bookings/")
	if len(segments) == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	bookingID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	caller := UserFromContext(r.Context())

	if len(segments) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getBooking(w, r, bookingID, caller)
		return
	}

	if len(segments) != 2 || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch segments[1] {
	case "cancel":
		if err := s.bookings.Cancel(r.Context(), bookingID, caller.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})
	case "complete":
		if err := s.bookings.Complete(r.Context(), bookingID, caller.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCompleted})
	case "propose-date":
		s.proposeDate(w, r, bookingID, caller)
	case "respond-date":
		s.respondDate(w, r, bookingID, caller)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, bookingID int64, caller *models.User) {
	booking, err := s.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if booking.VendorID != caller.ID && booking.CustomerID != caller.ID && caller.Role != models.RoleAdmin {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) proposeDate(w http.ResponseWriter, r *http.Request, bookingID int64, caller *models.User) {
	var body struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	candidate, err := time.Parse(eventDateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	msg, err := s.dates.Propose(r.Context(), bookingID, caller.ID, candidate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *HTTPServer) respondDate(w http.ResponseWriter, r *http.Request, bookingID int64, caller *models.User) {
	var body struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.dates.Respond(r.Context(), bookingID, caller.ID, body.Action); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"action": body.Action})
}

func (s *HTTPServer) handleConversationList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		caller := UserFromContext(r.Context())
		conversations, err := s.conversations.ListForUser(r.Context(), caller.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
	case http.MethodPost:
		s.sendFirstMessage(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// sendFirstMessage opens (or reuses) the thread with a recipient. Customers
// reach any approved vendor; vendors only reply to existing threads.
func (s *HTTPServer) sendFirstMessage(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r.Context())

	var body struct {
		RecipientID int64  `json:"recipient_id"`
		Body        string `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vendorID, customerID := caller.ID, body.RecipientID
	if caller.Role != models.RoleVendor {
		vendorID, customerID = body.RecipientID, caller.ID
	}

	msg, err := s.conversations.SendMessage(r.Context(), caller.ID, vendorID, customerID, body.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleConversationActions serves /api/v1/conversations/{id}/messages
// (GET list, POST send) and POST /api/v1/conversations/{id}/read.
func (s *HTTPServer) handleConversationActions(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/conversations/")
	if len(segments) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	conversationID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	caller := UserFromContext(r.Context())

	switch {
	case segments[1] == "messages" && r.Method == http.MethodGet:
		messages, err := s.conversations.ListMessages(r.Context(), conversationID, caller.ID, parseLimit(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	case segments[1] == "messages" && r.Method == http.MethodPost:
		s.sendConversationMessage(w, r, conversationID, caller)
	case segments[1] == "read" && r.Method == http.MethodPost:
		if err := s.conversations.MarkRead(r.Context(), conversationID, caller.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) sendConversationMessage(w http.ResponseWriter, r *http.Request, conversationID int64, caller *models.User) {
	var body struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conv, err := s.db.GetConversation(r.Context(), conversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if conv.VendorID != caller.ID && conv.CustomerID != caller.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	msg, err := s.conversations.SendMessage(r.Context(), caller.ID, conv.VendorID, conv.CustomerID, body.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *HTTPServer) handleReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	var body struct {
		BookingID int64    `json:"booking_id"`
		Rating    int      `json:"rating"`
		Body      string   `json:"body"`
		Photos    []string `json:"photos"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	review, err := s.reviews.CreateReview(r.Context(), caller.ID, domain.CreateReviewInput{
		BookingID: body.BookingID,
		Rating:    body.Rating,
		Body:      body.Body,
		Photos:    body.Photos,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// handleReviewActions serves POST /api/v1/reviews/{id}/reply and
// DELETE /api/v1/reviews/{id} (admin moderation).
func (s *HTTPServer) handleReviewActions(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/reviews/")
	if len(segments) == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	reviewID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}
	caller := UserFromContext(r.Context())

	if len(segments) == 1 && r.Method == http.MethodDelete {
		if caller.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := s.reviews.DeleteReview(r.Context(), reviewID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	if len(segments) != 2 || segments[1] != "reply" || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.reviews.CreateReply(r.Context(), reviewID, caller.ID, body.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// handleVendors serves GET /api/v1/vendors/{id}/reviews.
func (s *HTTPServer) handleVendors(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/vendors/")
	if len(segments) != 2 || segments[1] != "reviews" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	vendorID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}

	reviews, err := s.reviews.ListVendorReviews(r.Context(), vendorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	notifications, err := s.notifications.List(r.Context(), caller.ID, parseLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *HTTPServer) handleNotificationsUnread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	count, err := s.notifications.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *HTTPServer) handleNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	if err := s.notifications.MarkAllRead(r.Context(), caller.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *HTTPServer) handleWishlistList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller := UserFromContext(r.Context())

	entries, err := s.wishlist.List(r.Context(), caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wishlist": entries})
}

// handleWishlistEntry serves POST and DELETE /api/v1/wishlist/{vendorID}.
func (s *HTTPServer) handleWishlistEntry(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/v1/wishlist/")
	if len(segments) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	vendorID, ok := parseID(segments[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}
	caller := UserFromContext(r.Context())

	switch r.Method {
	case http.MethodPost:
		if err := s.wishlist.Add(r.Context(), caller.ID, vendorID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
	case http.MethodDelete:
		if err := s.wishlist.Remove(r.Context(), caller.ID, vendorID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, http.MethodGet) {
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	path, err := s.exporter.ExportBookings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("bookings export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleExportReviews(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, http.MethodGet) {
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	path, err := s.exporter.ExportReviews(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("reviews export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, http.MethodPost) {
		return
	}
	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets export is not configured")
		return
	}

	bookings, err := s.db.ListBookings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.sheets.PushBookings(r.Context(), bookings); err != nil {
		s.logger.Error().Err(err).Msg("sheets push failed")
		writeError(w, http.StatusInternalServerError, "sheets push failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pushed": len(bookings)})
}

func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	caller := UserFromContext(r.Context())
	if caller.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
