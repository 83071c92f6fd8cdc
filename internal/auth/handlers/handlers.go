package handlers

import (
	"errors"
	"net/http"

	"github.com/brizzai/auth-gateway/internal/apperr"
	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/auth/middleware"
	"github.com/brizzai/auth-gateway/internal/auth/providers"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/brizzai/auth-gateway/internal/metrics"
	"github.com/brizzai/auth-gateway/internal/session"
	"github.com/brizzai/auth-gateway/internal/utils"
	"go.uber.org/zap"
)

// Handler handles the login flow of the gateway
type Handler struct {
	frontendOrigin string
	authProvider   providers.Provider
	sessions       *session.Manager
	metrics        *metrics.Metrics
}

// NewHandler creates a new Handler instance
func NewHandler(frontendOrigin string, provider providers.Provider, sessions *session.Manager, m *metrics.Metrics) *Handler {
	return &Handler{
		frontendOrigin: frontendOrigin,
		authProvider:   provider,
		sessions:       sessions,
		metrics:        m,
	}
}

// HandleLogin redirects the browser to the identity provider's consent page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	http.Redirect(w, r, h.authProvider.AuthCodeURL(), http.StatusFound)
}

// HandleCallback completes the login: code for token, token for profile,
// profile for a session. Any failure is terminal for this attempt.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	code := query.Get(constants.CodeQueryParam)
	if code == "" {
		logger.Warn("Callback without authorization code",
			zap.String("provider_error", query.Get(constants.ErrorQueryParam)),
		)
		h.metrics.ObserveCallback(metrics.CallbackMissingCode)
		utils.WriteAppError(w, apperr.MissingCode())
		return
	}

	token, err := h.authProvider.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("Failed to exchange code", zap.Error(err))
		h.metrics.ObserveCallback(metrics.CallbackTokenError)

		var exchangeErr *providers.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			utils.WriteAppError(w, apperr.TokenExchange(exchangeErr.Body, err))
			return
		}
		utils.WriteAppError(w, apperr.TokenExchange(err.Error(), err))
		return
	}

	userInfo, err := h.authProvider.FetchProfile(r.Context(), token)
	if err != nil {
		logger.Error("Failed to fetch profile", zap.Error(err))
		h.metrics.ObserveCallback(metrics.CallbackProfileError)
		utils.WriteAppError(w, apperr.ProfileFetch(err))
		return
	}

	s, err := h.sessions.Replace(r.Context(), w, r, userInfo.Profile)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		h.metrics.ObserveCallback(metrics.CallbackSessionError)
		utils.WriteAppError(w, apperr.Internal(err))
		return
	}

	logger.Info("User logged in",
		zap.String("subject", userInfo.Subject),
		zap.String("sid", s.ID),
	)
	h.metrics.ObserveCallback(metrics.CallbackSuccess)
	http.Redirect(w, r, h.frontendOrigin, http.StatusFound)
}

// HandleUserInfo returns the profile of the current session. It runs behind
// middleware.RequireSession.
func (h *Handler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		utils.WriteAppError(w, apperr.Unauthenticated(constants.NotLoggedInMessage))
		return
	}
	utils.WriteJSON(w, http.StatusOK, s.Profile)
}

// HandleLogout ends the current session, if any. It always succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		logger.Warn("Failed to destroy session", zap.Error(err))
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
