// Package apperr defines the failures the gateway reports to its callers and
// the HTTP status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a failure class of the gateway
type Kind string

const (
	KindMissingCode         Kind = "missing_code"
	KindTokenExchange       Kind = "token_exchange"
	KindProfileFetch        Kind = "profile_fetch"
	KindUnauthenticated     Kind = "unauthenticated"
	KindMissingFile         Kind = "missing_file"
	KindUpstreamUnreachable Kind = "upstream_unreachable"
	KindInternal            Kind = "internal"
)

// AppError is an error that knows how it should be rendered over HTTP.
// Message is shown to the caller as "error", Details (optional) as "details".
type AppError struct {
	Kind    Kind
	Status  int
	Message string
	Details string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrUnauthenticated)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrMissingCode         = &AppError{Kind: KindMissingCode}
	ErrTokenExchange       = &AppError{Kind: KindTokenExchange}
	ErrProfileFetch        = &AppError{Kind: KindProfileFetch}
	ErrUnauthenticated     = &AppError{Kind: KindUnauthenticated}
	ErrMissingFile         = &AppError{Kind: KindMissingFile}
	ErrUpstreamUnreachable = &AppError{Kind: KindUpstreamUnreachable}
	ErrInternal            = &AppError{Kind: KindInternal}
)

func MissingCode() *AppError {
	return &AppError{Kind: KindMissingCode, Status: http.StatusBadRequest, Message: "Missing authorization code"}
}

// TokenExchange carries the identity provider's raw answer in Details
func TokenExchange(providerBody string, err error) *AppError {
	return &AppError{
		Kind:    KindTokenExchange,
		Status:  http.StatusBadRequest,
		Message: "Token error",
		Details: providerBody,
		Err:     err,
	}
}

func ProfileFetch(err error) *AppError {
	return &AppError{
		Kind:    KindProfileFetch,
		Status:  http.StatusBadGateway,
		Message: "Profile fetch failed",
		Details: errString(err),
		Err:     err,
	}
}

// Unauthenticated is returned by the session guard; message differs per route
func Unauthenticated(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Status: http.StatusUnauthorized, Message: message}
}

func MissingFile() *AppError {
	return &AppError{Kind: KindMissingFile, Status: http.StatusBadRequest, Message: "No file provided"}
}

func UpstreamUnreachable(err error) *AppError {
	return &AppError{
		Kind:    KindUpstreamUnreachable,
		Status:  http.StatusBadGateway,
		Message: "Microservice connection failed",
		Details: errString(err),
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "Server error",
		Details: errString(err),
		Err:     err,
	}
}

// From converts any error into an AppError, treating unknown errors as internal
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr
	}
	return Internal(err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
