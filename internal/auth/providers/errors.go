package providers

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenExchangeError means the token endpoint did not hand out an access token.
// Body is the provider's raw answer, kept for diagnostics.
type TokenExchangeError struct {
	Body string
	Err  error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// ProfileFetchError means the userinfo endpoint could not be read
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("profile fetch failed: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}

// newTokenExchangeError prefers the body the token endpoint answered with and
// falls back to the transport error when nothing was received
func newTokenExchangeError(err error, body []byte) *TokenExchangeError {
	if len(body) == 0 {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			body = retrieveErr.Body
		}
	}
	if len(body) == 0 {
		return &TokenExchangeError{Body: err.Error(), Err: err}
	}
	return &TokenExchangeError{Body: string(body), Err: err}
}
