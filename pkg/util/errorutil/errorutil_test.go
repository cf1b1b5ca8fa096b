package errorutil_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/pkg/util/errorutil"
)

func TestToDomainError_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("resolve: %w", domain.ErrInvalidExpiryToken), "INVALID_EXPIRY_TOKEN", http.StatusBadRequest},
		{fmt.Errorf("decode: %w", domain.ErrMalformedToken), "MALFORMED_TOKEN", http.StatusBadRequest},
		{domain.ErrInvalidSignature, "INVALID_SIGNATURE", http.StatusUnauthorized},
		{domain.ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized},
		{domain.ErrUnknownSelection, "UNKNOWN_SELECTION", http.StatusBadRequest},
		{domain.ErrSessionNotFound, "NOT_FOUND", http.StatusNotFound},
	}

	for _, tt := range tests {
		de := errorutil.ToDomainError(tt.err)
		require.NotNil(t, de)
		assert.Equal(t, tt.code, de.Code)
		assert.Equal(t, tt.status, de.HTTPStatus)
		assert.ErrorIs(t, de, tt.err)
	}
}

func TestToDomainError_FieldErrors(t *testing.T) {
	err := fmt.Errorf("issue: %w", domain.FieldErrors{"name": "cannot be blank"})

	de := errorutil.ToDomainError(err)

	assert.Equal(t, "MISSING_REQUIRED_FIELD", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, map[string]any{"name": "cannot be blank"}, de.Details)
}

func TestToDomainError_Passthrough(t *testing.T) {
	assert.Nil(t, errorutil.ToDomainError(nil))

	original := errorutil.NewValidationError("nope", nil)
	assert.Same(t, original, errorutil.ToDomainError(original))

	fe := errorutil.ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /x"))
	assert.Equal(t, "NOT_FOUND", fe.Code)
	assert.Equal(t, http.StatusNotFound, fe.HTTPStatus)

	internal := errorutil.ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", internal.Code)
	assert.Equal(t, "internal server error", internal.Message)
	assert.ErrorIs(t, internal, internal.Err)

	hidden := errorutil.ToDomainError(errorutil.NewInternalError(errors.New("db down")))
	assert.Equal(t, http.StatusInternalServerError, hidden.HTTPStatus)
	assert.Equal(t, "internal server error", hidden.Message)
}
