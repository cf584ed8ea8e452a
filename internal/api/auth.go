package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"eventnest/internal/config"
	"eventnest/internal/database"
	"eventnest/internal/logging"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenVerifier resolves a bearer token into an external identity. The
// production deployment sits behind the platform's auth service; the static
// verifier below serves local runs and tests.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (externalID string, err error)
}

// StaticTokenVerifier matches tokens against the config list using
// constant-time comparison.
type StaticTokenVerifier struct {
	tokens []config.APIToken
}

func NewStaticTokenVerifier(cfg config.APIAuthConfig) *StaticTokenVerifier {
	return &StaticTokenVerifier{tokens: cfg.Tokens}
}

func (v *StaticTokenVerifier) Verify(_ context.Context, token string) (string, error) {
	for _, t := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(t.Token), []byte(token)) == 1 {
			return t.ExternalID, nil
		}
	}
	return "", database.ErrUnauthenticated
}

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"

	requestIDHeader = "X-Request-Id"
)

// UserFromContext returns the authenticated user, or nil outside the auth
// middleware.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// Auth authenticates requests and attaches the resolved user to the context.
type Auth struct {
	verifier TokenVerifier
	db       *database.DB
}

func NewAuth(verifier TokenVerifier, db *database.DB) *Auth {
	return &Auth{verifier: verifier, db: db}
}

func (a *Auth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		externalID, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := a.db.GetUserByExternalID(r.Context(), externalID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown identity")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func loggingMiddleware(logger *zerolog.Logger) func(http.Handler) http.Handler {
	base := logging.Component(logger, "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))
			dur := time.Since(start)

			metrics.IncHTTP(endpointLabel(r.URL.Path), statusClass(recorder.status))

			base.Info().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Dur("duration", dur).
				Msg("http request")
		})
	}
}

// endpointLabel collapses paths with ids into a bounded label set.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
