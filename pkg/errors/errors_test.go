package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("formats message with cause", func(t *testing.T) {
		// Arrange
		cause := fmt.Errorf("connection refused")
		err := NewDatabaseError("save_timeline", cause)

		// Assert
		assert.Contains(t, err.Error(), "save_timeline")
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("constructors map to HTTP statuses", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, NewValidationError("bad").HTTPStatus)
		assert.Equal(t, http.StatusNotFound, NewNotFoundError("timeline").HTTPStatus)
		assert.Equal(t, http.StatusConflict, NewConflictError("taken").HTTPStatus)
		assert.Equal(t, http.StatusForbidden, NewForbiddenError("").HTTPStatus)
		assert.Equal(t, http.StatusUnauthorized, NewUnauthorizedError("").HTTPStatus)
		assert.Equal(t, http.StatusTooManyRequests, NewRateLimitError(100, "minute").HTTPStatus)
		assert.Equal(t, http.StatusInternalServerError, NewInternalError("boom").HTTPStatus)
	})

	t.Run("type predicates see through wrapping", func(t *testing.T) {
		// Arrange
		err := fmt.Errorf("loading chronology: %w", NewNotFoundError("entry"))

		// Assert
		assert.True(t, IsNotFound(err))
		assert.False(t, IsValidation(err))
		assert.NotNil(t, GetAppError(err))
	})

	t.Run("GetAppError returns nil for plain errors", func(t *testing.T) {
		assert.Nil(t, GetAppError(fmt.Errorf("plain")))
	})
}

func TestWrap(t *testing.T) {
	t.Run("returns nil for nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("keeps AppError type and status", func(t *testing.T) {
		// Arrange
		wrapped := Wrap(NewNotFoundError("timeline"), "resolving parent")

		// Assert
		assert.True(t, IsNotFound(wrapped))
		assert.Contains(t, wrapped.Error(), "resolving parent")
	})

	t.Run("promotes plain errors to internal", func(t *testing.T) {
		// Arrange
		wrapped := Wrap(fmt.Errorf("socket closed"), "publishing events")

		// Assert
		appErr := GetAppError(wrapped)
		assert.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeInternal, appErr.Type)
		assert.Contains(t, wrapped.Error(), "publishing events")
	})
}
