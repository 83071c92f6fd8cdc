package providers

import (
	"context"

	"github.com/brizzai/auth-gateway/internal/auth/models"
	"golang.org/x/oauth2"
)

// Provider defines the calls the auth controller makes to the identity provider
type Provider interface {
	// AuthCodeURL returns the URL the browser is sent to for consent
	AuthCodeURL() string

	// Exchange trades an authorization code for tokens. Failures are *TokenExchangeError.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchProfile reads the user's attributes with the access token. Failures are *ProfileFetchError.
	FetchProfile(ctx context.Context, token *oauth2.Token) (*models.UserInfo, error)
}
