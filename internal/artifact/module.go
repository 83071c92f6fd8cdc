package artifact

import (
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

func newStore(cfg *config.UploadConfig) *Store {
	return NewStore(afero.NewOsFs(), cfg.TempDir)
}

var Module = fx.Module("artifact",
	fx.Provide(newStore),
)
