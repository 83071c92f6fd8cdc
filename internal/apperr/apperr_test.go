package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")

	tests := []struct {
		err    *AppError
		status int
		kind   Kind
	}{
		{MissingCode(), http.StatusBadRequest, KindMissingCode},
		{TokenExchange(`{"error":"invalid_grant"}`, cause), http.StatusBadRequest, KindTokenExchange},
		{ProfileFetch(cause), http.StatusBadGateway, KindProfileFetch},
		{Unauthenticated("Unauthorized"), http.StatusUnauthorized, KindUnauthenticated},
		{MissingFile(), http.StatusBadRequest, KindMissingFile},
		{UpstreamUnreachable(cause), http.StatusBadGateway, KindUpstreamUnreachable},
		{Internal(cause), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("callback: %w", TokenExchange("body", nil))

	assert.True(t, errors.Is(err, ErrTokenExchange))
	assert.False(t, errors.Is(err, ErrProfileFetch))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("timeout")
	err := UpstreamUnreachable(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "timeout", err.Details)
}

func TestFromTreatsUnknownErrorsAsInternal(t *testing.T) {
	got := From(errors.New("boom"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "boom", got.Details)

	missing := MissingFile()
	assert.Same(t, missing, From(fmt.Errorf("wrapped: %w", missing)))
}
