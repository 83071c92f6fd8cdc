package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/auth-gateway/internal/config"
)

const defaultAPIKeyHeader = "X-API-Key"

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// HTTPAuthManager implements the AuthManager interface
type HTTPAuthManager struct {
	authType   config.AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates a new HTTPAuthManager
func NewHTTPAuthManager(cfg *config.ProcessingConfig) *HTTPAuthManager {
	return &HTTPAuthManager{
		authType:   cfg.AuthType,
		authConfig: cfg.AuthConfig,
	}
}

// ApplyAuth adds the credentials the processing service expects, if any
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case "", config.AuthTypeNone:
		return nil
	case config.AuthTypeBearer:
		token := a.authConfig["token"]
		if token == "" {
			return fmt.Errorf("bearer auth requires auth_config.token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case config.AuthTypeAPIKey:
		key := a.authConfig["key"]
		if key == "" {
			return fmt.Errorf("api_key auth requires auth_config.key")
		}
		header := a.authConfig["header"]
		if header == "" {
			header = defaultAPIKeyHeader
		}
		req.Header.Set(header, key)
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
