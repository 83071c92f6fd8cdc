// Package handler composes the HTTP surface of the gateway.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/auth-gateway/internal/auth"
	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/brizzai/auth-gateway/internal/metrics"
	"github.com/brizzai/auth-gateway/internal/server/upload"
	"github.com/brizzai/auth-gateway/internal/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HealthPath answers liveness probes
const HealthPath = "/healthz"

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth       *auth.Service
	upload     *upload.Handler
	metrics    *metrics.Metrics
	metricsCfg *config.MetricsConfig
}

type Params struct {
	fx.In

	Auth          *auth.Service
	Upload        *upload.Handler
	Metrics       *metrics.Metrics
	MetricsConfig *config.MetricsConfig
}

// NewHandler creates a new HTTP handler.
func NewHandler(p Params) *Handler {
	return &Handler{
		auth:       p.Auth,
		upload:     p.Upload,
		metrics:    p.Metrics,
		metricsCfg: p.MetricsConfig,
	}
}

// CreateHTTPHandler registers every route and wraps the mux with CORS,
// metrics and request logging.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered authentication routes")

	mux.Handle(upload.Path, h.auth.RequireSession(constants.UnauthorizedMessage)(h.upload))
	mux.HandleFunc(HealthPath, handleHealth)

	if h.metricsCfg != nil && h.metricsCfg.Enabled && h.metrics != nil {
		mux.Handle(h.metricsCfg.Path, h.metrics.Handler())
		logger.Info("Exposing metrics", zap.String("path", h.metricsCfg.Path))
	}

	return h.metrics.WithMetrics(withRequestLogging(h.auth.WrapWithCors(mux)))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		logger.Info("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}
