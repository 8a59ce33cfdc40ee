package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "validation", err: NewValidationError("bad input", nil), code: "VALIDATION_FAILED", status: http.StatusBadRequest},
		{name: "not found", err: NewNotFound("ticket", nil), code: "NOT_FOUND", status: http.StatusNotFound},
		{name: "unauthorized", err: NewUnauthorized("no token"), code: "UNAUTHORIZED", status: http.StatusUnauthorized},
		{name: "forbidden", err: NewForbidden("staff only"), code: "FORBIDDEN", status: http.StatusForbidden},
		{name: "access denied", err: NewAccessDenied("not your ticket"), code: "ACCESS_DENIED", status: http.StatusForbidden},
		{name: "conflict", err: NewConflict("duplicate", nil), code: "CONFLICT", status: http.StatusConflict},
		{name: "no fields", err: NewNoFieldsToUpdate(), code: "NO_FIELDS_TO_UPDATE", status: http.StatusBadRequest},
		{name: "internal", err: NewInternalError(errors.New("boom")), code: "INTERNAL_ERROR", status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var domainErr *DomainError
			require.True(t, errors.As(tc.err, &domainErr))
			assert.Equal(t, tc.code, domainErr.Code)
			assert.Equal(t, tc.status, domainErr.HTTPStatus)
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("ticket", map[string]any{"id": 42})
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ticket not found", domainErr.Message)
	assert.Equal(t, 42, domainErr.Details["id"])
}

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewForbidden("nope")
	mapped := ToDomainError(original)
	assert.Equal(t, "FORBIDDEN", mapped.Code, "existing domain errors map to themselves")
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorGeneric(t *testing.T) {
	cause := errors.New("disk on fire")
	mapped := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.ErrorIs(t, mapped, cause, "the cause stays reachable for logging")
	assert.Equal(t, "internal server error", mapped.Message, "the cause never leaks into the message")
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestErrorStringIncludesCause(t *testing.T) {
	wrapped := NewInternalError(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}
