package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/logger"
)

const (
	SessionHeader    = "X-Session-ID"
	maxSessionIDSize = 128
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionMiddleware reads the anonymous shopper session from X-Session-ID,
// issuing a new one when the header is missing. The id is echoed back.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if len(id) > maxSessionIDSize {
			respondError(w, r, http.StatusBadRequest, "invalid_session", "session id too long")
			return
		}
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenMiddleware forwards the shopper's x-token to the backend. Tokens that
// parse as JWTs are checked for expiry only; the backend verifies them.
func TokenMiddleware(next http.Handler) http.Handler {
	parser := jwt.NewParser()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(backend.TokenHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
				respondError(w, r, http.StatusUnauthorized, "token_expired", "session expired, please sign in again")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(backend.WithToken(r.Context(), token)))
	})
}

// RequireToken rejects requests without a shopper token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if backend.TokenFrom(r.Context()) == "" {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger attaches a request scoped logger and logs each response.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("session_id", sessionFrom(r.Context())),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			l.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
