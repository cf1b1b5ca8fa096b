package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jwt-builder/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewInternalError hides err behind a generic 500.
func NewInternalError(err error) error {
	return internalError(err)
}

func internalError(err error) *DomainError {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

var sentinels = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInvalidExpiryToken, "INVALID_EXPIRY_TOKEN", http.StatusBadRequest},
	{domain.ErrMissingRequiredField, "MISSING_REQUIRED_FIELD", http.StatusBadRequest},
	{domain.ErrMalformedToken, "MALFORMED_TOKEN", http.StatusBadRequest},
	{domain.ErrUnknownSelection, "UNKNOWN_SELECTION", http.StatusBadRequest},
	{domain.ErrInvalidSignature, "INVALID_SIGNATURE", http.StatusUnauthorized},
	{domain.ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized},
	{domain.ErrSessionNotFound, "NOT_FOUND", http.StatusNotFound},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	for _, s := range sentinels {
		if !errors.Is(err, s.err) {
			continue
		}
		de := &DomainError{Code: s.code, Message: err.Error(), HTTPStatus: s.status, Err: err}
		var fields domain.FieldErrors
		if errors.As(err, &fields) {
			de.Message = domain.ErrMissingRequiredField.Error()
			de.Details = make(map[string]any, len(fields))
			for k, v := range fields {
				de.Details[k] = v
			}
		}
		return de
	}
	return internalError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_FAILED"
	}
}
