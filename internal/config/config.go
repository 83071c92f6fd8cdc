package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("auth-gateway version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	Frontend   FrontendConfig   `mapstructure:"frontend"`
	Session    SessionConfig    `mapstructure:"session"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AuthType represents the authentication applied to calls to the processing service
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OAuthConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Issuer       string        `mapstructure:"issuer"`       // discovery document lives under <issuer>/.well-known/openid-configuration
	RedirectURL  string        `mapstructure:"redirect_url"` // must match the URI registered with the provider
	Scopes       []string      `mapstructure:"scopes"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type FrontendConfig struct {
	// Origin is used for CORS and as the redirect target after a successful login
	Origin string `mapstructure:"origin"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
	SameSite   string        `mapstructure:"same_site"`
	Domain     string        `mapstructure:"domain"`
	Driver     string        `mapstructure:"driver"` // memory | redis
	Redis      RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type ProcessingConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url"`
	Path       string            `json:"path" mapstructure:"path"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
}

// URL returns the full endpoint uploads are forwarded to
func (p ProcessingConfig) URL() string {
	return strings.TrimRight(p.BaseURL, "/") + p.Path
}

type UploadConfig struct {
	MaxMemory    int64  `mapstructure:"max_memory"`
	FieldName    string `mapstructure:"field_name"`
	ArtifactName string `mapstructure:"artifact_name"`
	ArtifactType string `mapstructure:"artifact_type"`
	TempDir      string `mapstructure:"temp_dir"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// legacyEnv maps config keys to the environment variable names used by the
// first deployment of the gateway. They are consulted after the prefixed names.
var legacyEnv = map[string]string{
	"oauth.client_id":     "CLIENT_ID",
	"oauth.client_secret": "CLIENT_SECRET",
	"oauth.redirect_url":  "REDIRECT_URI",
	"session.secret":      "SECRET_KEY",
	"frontend.origin":     "FRONTEND_ORIGIN",
}

const envPrefix = "AUTH_GATEWAY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5001)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.disable_stacktrace", false)

	v.SetDefault("oauth.issuer", "https://accounts.google.com")
	v.SetDefault("oauth.redirect_url", "http://localhost:5001/auth/callback")
	v.SetDefault("oauth.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("oauth.timeout", 10*time.Second)

	v.SetDefault("frontend.origin", "http://localhost:5174")

	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.same_site", "lax")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.domain", "")
	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.redis.addr", "127.0.0.1:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.prefix", "auth-gateway")

	v.SetDefault("processing.base_url", "http://127.0.0.1:5000")
	v.SetDefault("processing.path", "/predict-file")
	v.SetDefault("processing.timeout", 30*time.Second)
	v.SetDefault("processing.auth_type", string(AuthTypeNone))

	v.SetDefault("upload.max_memory", int64(32<<20))
	v.SetDefault("upload.field_name", "file")
	v.SetDefault("upload.artifact_name", "prediction_output.csv")
	v.SetDefault("upload.artifact_type", "text/csv")
	v.SetDefault("upload.temp_dir", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// InitFlags registers the command line flags understood by Load
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config file (defaults to ./config.yaml)")
	flags.String("host", "", "Address to bind the HTTP server to")
	flags.Int("port", 0, "Port to bind the HTTP server to")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
}

// Load builds the configuration from defaults, config files, .env, the
// environment and the given flags, in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, err
		}
	}

	configFile := ""
	if flags != nil {
		configFile, _ = flags.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/auth-gateway")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}

		//Loading additionals config files
		if _, err := os.Stat("/config/config.yaml"); err == nil {
			v.SetConfigFile("/config/config.yaml")
			if err := v.MergeInConfig(); err != nil {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if flags != nil {
		applyFlags(&config, flags)
	}

	// MICROSERVICE_URL carries the full endpoint, not a base URL
	if full := os.Getenv("MICROSERVICE_URL"); full != "" && os.Getenv(envPrefix+"_PROCESSING_BASE_URL") == "" {
		config.Processing.BaseURL = full
		config.Processing.Path = ""
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyFlags(config *Config, flags *pflag.FlagSet) {
	if flags.Changed("host") {
		config.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		config.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("log-level") {
		config.Logging.Level, _ = flags.GetString("log-level")
	}
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required, please adjust the config or set AUTH_GATEWAY_OAUTH_CLIENT_ID or CLIENT_ID")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required, please adjust the config or set AUTH_GATEWAY_OAUTH_CLIENT_SECRET or CLIENT_SECRET")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required, please adjust the config or set AUTH_GATEWAY_SESSION_SECRET or SECRET_KEY")
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session driver: %s", c.Session.Driver)
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "", "lax", "strict", "none":
	default:
		return fmt.Errorf("unsupported session.same_site: %s", c.Session.SameSite)
	}
	switch c.Processing.AuthType {
	case "", AuthTypeNone, AuthTypeBearer, AuthTypeAPIKey:
	default:
		return fmt.Errorf("unsupported processing.auth_type: %s", c.Processing.AuthType)
	}
	if c.Processing.BaseURL == "" {
		return fmt.Errorf("processing.base_url is required")
	}
	return nil
}
