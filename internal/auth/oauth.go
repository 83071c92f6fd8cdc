package auth

import (
	"net/http"

	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/auth/handlers"
	"github.com/brizzai/auth-gateway/internal/auth/middleware"
	"github.com/brizzai/auth-gateway/internal/auth/providers"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/metrics"
	"github.com/brizzai/auth-gateway/internal/session"
	"go.uber.org/fx"
)

// Service represents the login flow of the gateway
type Service struct {
	frontend     *config.FrontendConfig
	authProvider providers.Provider
	sessions     *session.Manager
	handler      *handlers.Handler
}

// NewService creates a new auth service
func NewService(frontend *config.FrontendConfig, provider providers.Provider, sessions *session.Manager, m *metrics.Metrics) *Service {
	return &Service{
		frontend:     frontend,
		authProvider: provider,
		sessions:     sessions,
		handler:      handlers.NewHandler(frontend.Origin, provider, sessions, m),
	}
}

// RegisterRoutes registers all auth routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.LoginPath, s.handler.HandleLogin)
	mux.HandleFunc(constants.CallbackPath, s.handler.HandleCallback)
	mux.Handle(constants.UserInfoPath, s.RequireSession(constants.NotLoggedInMessage)(http.HandlerFunc(s.handler.HandleUserInfo)))
	mux.HandleFunc(constants.LogoutPath, s.handler.HandleLogout)
}

// WrapWithCors lets the front-end call the gateway with its cookie
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins([]string{s.frontend.Origin})(handler)
}

// RequireSession returns the session guard answering 401 with message
func (s *Service) RequireSession(message string) func(http.Handler) http.Handler {
	return middleware.RequireSession(s.sessions, message)
}

// GetProvider returns the configured identity provider
func (s *Service) GetProvider() providers.Provider {
	return s.authProvider
}

var Module = fx.Module("auth",
	providers.Module,
	fx.Provide(NewService),
)
