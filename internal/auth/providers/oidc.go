package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/auth/models"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 10 * time.Second

	// maxTokenResponse bounds how much of a token answer is kept for diagnostics
	maxTokenResponse = 64 << 10
)

// OIDCProvider talks to an OpenID Connect provider whose endpoints were
// resolved from its discovery document.
type OIDCProvider struct {
	oauth2Config *oauth2.Config
	provider     *oidc.Provider
	transport    http.RoundTripper
	timeout      time.Duration
}

// NewOIDCProvider fetches <issuer>/.well-known/openid-configuration once and
// builds the provider from it. A provider without a userinfo endpoint is rejected.
func NewOIDCProvider(ctx context.Context, cfg *config.OAuthConfig) (*OIDCProvider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p := &OIDCProvider{
		transport: http.DefaultTransport,
		timeout:   timeout,
	}

	discoveryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	provider, err := oidc.NewProvider(oidc.ClientContext(discoveryCtx, p.client()), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document for %s: %w", cfg.Issuer, err)
	}

	var discovery struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&discovery); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if discovery.UserInfoURL == "" {
		return nil, fmt.Errorf("discovery document of %s has no userinfo_endpoint", cfg.Issuer)
	}

	endpoint := provider.Endpoint()
	// client_id and client_secret travel in the form body; this also stops
	// oauth2 from retrying the exchange with a different auth style
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = constants.DefaultScopes
	}

	p.provider = provider
	p.oauth2Config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}

	logger.Info("Identity provider discovered",
		zap.String("issuer", cfg.Issuer),
		zap.String("authorization_endpoint", endpoint.AuthURL),
		zap.String("token_endpoint", endpoint.TokenURL),
		zap.String("userinfo_endpoint", discovery.UserInfoURL),
	)
	return p, nil
}

func (p *OIDCProvider) client() *http.Client {
	return &http.Client{Timeout: p.timeout, Transport: p.transport}
}

func (p *OIDCProvider) AuthCodeURL() string {
	return p.oauth2Config.AuthCodeURL("", oauth2.AccessTypeOffline)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	capture := &capturingTransport{base: p.transport}
	client := &http.Client{Timeout: p.timeout, Transport: capture}

	token, err := p.oauth2Config.Exchange(context.WithValue(ctx, oauth2.HTTPClient, client), code)
	if err != nil {
		return nil, newTokenExchangeError(err, capture.body)
	}
	if token.AccessToken == "" {
		return nil, newTokenExchangeError(errors.New("token response has no access_token"), capture.body)
	}
	return token, nil
}

func (p *OIDCProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*models.UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	bearer := &oauth2.Token{AccessToken: token.AccessToken, TokenType: constants.TokenType}
	info, err := p.provider.UserInfo(oidc.ClientContext(ctx, p.client()), oauth2.StaticTokenSource(bearer))
	if err != nil {
		logger.Error("Failed to call userinfo endpoint", zap.Error(err))
		return nil, &ProfileFetchError{Err: err}
	}

	var claims struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Picture *string `json:"picture"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, &ProfileFetchError{Err: fmt.Errorf("failed to decode userinfo response: %w", err)}
	}

	return &models.UserInfo{
		Subject: info.Subject,
		Profile: models.Profile{
			Name:    claims.Name,
			Email:   claims.Email,
			Picture: claims.Picture,
		},
	}, nil
}

// capturingTransport keeps a copy of the last response body so a failed
// exchange can report what the token endpoint actually said
type capturingTransport struct {
	base http.RoundTripper
	body []byte
}

func (t *capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if closeErr := resp.Body.Close(); closeErr != nil {
		logger.Error("Failed to close response body", zap.Error(closeErr))
	}
	if err != nil {
		return nil, err
	}
	t.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
