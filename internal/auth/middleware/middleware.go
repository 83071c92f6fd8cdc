package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/brizzai/auth-gateway/internal/apperr"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/brizzai/auth-gateway/internal/session"
	"github.com/brizzai/auth-gateway/internal/utils"
	"go.uber.org/zap"
)

// sessionContextKey is the key type for the context
type sessionContextKey struct{}

// RequireSession rejects requests without a valid session with a 401 carrying
// message. It only looks at the cookie, never at the request body.
func RequireSession(manager *session.Manager, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := manager.Lookup(r)
			if errors.Is(err, session.ErrNoSession) {
				logger.Debug("Request without session",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				utils.WriteAppError(w, apperr.Unauthenticated(message))
				return
			}
			if err != nil {
				logger.Error("Failed to look up session", zap.Error(err))
				utils.WriteAppError(w, apperr.Internal(err))
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session stored by RequireSession
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok && s != nil
}

// CORSWithOrigins allows credentialed requests from the listed origins.
// Requests from other origins pass through without CORS headers.
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
