package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewInvalidTransition("bad state", nil)), CodeInvalidTransition, http.StatusConflict},
		{"pgx no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"wrapped no rows", fmt.Errorf("get ticket: %w", pgx.ErrNoRows), CodeNotFound, http.StatusNotFound},
		{"unknown error", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.code || got.HTTPStatus != tt.status {
				t.Errorf("ToDomainError(%v) = %s/%d, want %s/%d", tt.err, got.Code, got.HTTPStatus, tt.code, tt.status)
			}
		})
	}

	if ToDomainError(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewValidationError("title required", nil))
	if !IsCode(err, CodeValidationFailed) {
		t.Error("expected validation code")
	}
	if IsCode(err, CodeForbidden) {
		t.Error("unexpected forbidden code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Error("plain errors carry no code")
	}
}
