// Package apierr defines the error taxonomy of the gateway: credential
// failures, malformed requests, database round-trip failures and third-party
// provider failures. Every error the handlers surface passes through exactly
// one of these types so the HTTP layer can map it to a status in one place.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError is a bad, missing, expired or already-consumed credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "auth: " + e.Reason }

// ValidationError is a malformed request that never reached the data layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// DataError is a database round-trip failure. NotFound distinguishes an
// empty result from a broken round-trip.
type DataError struct {
	Op       string
	Err      error
	NotFound bool
}

func (e *DataError) Error() string {
	if e.Err == nil {
		return "data: " + e.Op
	}
	return fmt.Sprintf("data: %s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// IntegrationError is a failure reported by a third-party provider.
type IntegrationError struct {
	Provider string
	Err      error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration: %s: %v", e.Provider, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

// Auth builds an AuthError.
func Auth(reason string) error { return &AuthError{Reason: reason} }

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Data builds a DataError.
func Data(op string, err error) error { return &DataError{Op: op, Err: err} }

// NotFound builds a DataError for an empty result.
func NotFound(what string) error {
	return &DataError{Op: what + " not found", NotFound: true}
}

// Integration builds an IntegrationError.
func Integration(provider string, err error) error {
	return &IntegrationError{Provider: provider, Err: err}
}

// Status maps an error to its HTTP status code. Anything outside the
// taxonomy is a generic 500.
func Status(err error) int {
	var (
		authErr        *AuthError
		validationErr  *ValidationError
		dataErr        *DataError
		integrationErr *IntegrationError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &dataErr):
		if dataErr.NotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &integrationErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing error string. Internal (non-taxonomy)
// errors are collapsed so details never leak to the caller.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
