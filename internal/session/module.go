package session

import (
	"context"
	"fmt"

	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewStore builds the Store selected by cfg.Driver and closes it on shutdown
func NewStore(lc fx.Lifecycle, cfg *config.SessionConfig) (Store, error) {
	var store Store
	switch cfg.Driver {
	case "redis":
		rs, err := NewRedisStore(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = rs
	case "memory", "":
		store = NewMemoryStore(cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported session driver: %s", cfg.Driver)
	}
	logger.Info("Session store ready", zap.String("driver", cfg.Driver))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func newCodec(cfg *config.SessionConfig) (*Codec, error) {
	return NewCodec(cfg.Secret, cfg.TTL)
}

// Module provides the session store, codec and manager
var Module = fx.Module("session",
	fx.Provide(
		NewStore,
		newCodec,
		NewManager,
	),
)
