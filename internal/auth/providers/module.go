package providers

import (
	"context"

	"github.com/brizzai/auth-gateway/internal/config"
	"go.uber.org/fx"
)

func newProvider(cfg *config.OAuthConfig) (Provider, error) {
	return NewOIDCProvider(context.Background(), cfg)
}

// Module provides the identity provider client. Discovery runs while the
// application is constructed, so an unreachable issuer fails startup.
var Module = fx.Module("providers",
	fx.Provide(newProvider),
)
