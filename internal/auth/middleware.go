package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Default messages returned by the middleware.
const (
	MsgTokenMissing = "Token is missing"
	MsgTokenInvalid = "Token is invalid or expired"
)

type contextKey string

const userIDKey = contextKey("userID")

// RejectFunc writes the response for a request that failed authentication.
type RejectFunc func(w http.ResponseWriter, code int, msg string)

// Authenticator guards routes with bearer-token authentication.
type Authenticator struct {
	tokens *TokenService
	reject RejectFunc
}

// NewAuthenticator creates an Authenticator backed by tokens. A nil reject
// falls back to a plain-text http.Error.
func NewAuthenticator(tokens *TokenService, reject RejectFunc) *Authenticator {
	if reject == nil {
		reject = func(w http.ResponseWriter, code int, msg string) { http.Error(w, msg, code) }
	}
	return &Authenticator{tokens: tokens, reject: reject}
}

// Middleware rejects requests without a valid token using the default messages.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return a.Require(MsgTokenMissing, MsgTokenInvalid)(next)
}

// Require returns a middleware that answers 401 with missingMsg when no
// Authorization header is sent and with invalidMsg when the token does not
// verify. On success the user id is stored in the request context.
func (a *Authenticator) Require(missingMsg, invalidMsg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				a.reject(w, http.StatusUnauthorized, missingMsg)
				return
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")

			userID, err := a.tokens.Verify(tokenStr)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, ErrTokenExpired) {
					reason = "expired"
				}
				log.Debug().Err(err).
					Str("reason", reason).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("Rejected bearer token")
				a.reject(w, http.StatusUnauthorized, invalidMsg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}
