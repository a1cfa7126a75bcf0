package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorTypes_HTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"invalid input", NewInvalidInputError("bad id"), http.StatusBadRequest},
		{"not found", NewNotFoundError("progress"), http.StatusNotFound},
		{"unavailable", NewUnavailableError("progress.get", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError(""), http.StatusForbidden},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
		})
	}
}

func TestWrapf(t *testing.T) {
	t.Run("plain errors become internal", func(t *testing.T) {
		cause := stderrors.New("bad layout")
		err := Wrapf(cause, "parse timestamp %q", "x")

		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeInternal, appErr.Type)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("app errors keep their type", func(t *testing.T) {
		err := Wrapf(NewNotFoundError("progress"), "lookup")
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "lookup: progress not found", GetAppError(err).Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrapf(nil, "noop"))
	})
}

func TestUnavailableKeepsCause(t *testing.T) {
	err := fmt.Errorf("library: %w", NewUnavailableError("events.query", context.DeadlineExceeded))

	assert.True(t, IsUnavailable(err))
	assert.True(t, IsDeadline(err))
}

func TestIsDeadline(t *testing.T) {
	assert.True(t, IsDeadline(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, IsDeadline(context.Canceled))
	assert.False(t, IsDeadline(stderrors.New("other")))
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps its status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/library", nil)

		h.Handle(rec, req, NewUnavailableError("library", context.DeadlineExceeded))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(ErrorTypeUnavailable), body.Type)
		assert.True(t, body.Error)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/library", nil)

		h.Handle(rec, req, stderrors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("debug mode echoes the cause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/library", nil)

		NewErrorHandler(zap.NewNop(), true).Handle(rec, req, stderrors.New("secret detail"))

		assert.Contains(t, rec.Body.String(), "secret detail")
	})
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
