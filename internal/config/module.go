package config

import (
	"go.uber.org/fx"
)

// sections splits the loaded Config so each package only depends on its part
type sections struct {
	fx.Out

	Server     *ServerConfig
	Logging    *LoggingConfig
	OAuth      *OAuthConfig
	Frontend   *FrontendConfig
	Session    *SessionConfig
	Processing *ProcessingConfig
	Upload     *UploadConfig
	Metrics    *MetricsConfig
}

func provideSections(cfg *Config) sections {
	return sections{
		Server:     &cfg.Server,
		Logging:    &cfg.Logging,
		OAuth:      &cfg.OAuth,
		Frontend:   &cfg.Frontend,
		Session:    &cfg.Session,
		Processing: &cfg.Processing,
		Upload:     &cfg.Upload,
		Metrics:    &cfg.Metrics,
	}
}

// Module exposes the configuration sections. The *Config itself is supplied
// by the caller after Load.
var Module = fx.Module("config",
	fx.Provide(provideSections),
)
