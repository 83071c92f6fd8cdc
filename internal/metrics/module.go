package metrics

import (
	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/config"
	"go.uber.org/fx"
)

// Routes are the paths reported as-is in request metrics
var Routes = []string{
	constants.LoginPath,
	constants.CallbackPath,
	constants.UserInfoPath,
	constants.LogoutPath,
	"/api/upload",
	"/healthz",
}

func newMetrics(cfg *config.MetricsConfig) *Metrics {
	routes := Routes
	if cfg.Enabled && cfg.Path != "" {
		routes = append(append([]string{}, Routes...), cfg.Path)
	}
	return New(routes...)
}

var Module = fx.Module("metrics",
	fx.Provide(newMetrics),
)
