package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorsStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Tour", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("no seats"), CodeConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"internal", Internal("boom", errors.New("db down")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to persist booking", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match wrapped cause")
	}
	if got := err.Error(); got != "INTERNAL_ERROR: failed to persist booking (caused by: connection refused)" {
		t.Errorf("unexpected Error(): %s", got)
	}
}

func TestAsAppError(t *testing.T) {
	orig := Conflict("booking expired")
	if got := AsAppError(orig); got != orig {
		t.Error("AsAppError should return the same AppError unchanged")
	}

	wrapped := AsAppError(errors.New("raw"))
	if wrapped.Code != CodeInternal {
		t.Errorf("unknown errors should map to %s, got %s", CodeInternal, wrapped.Code)
	}
	if wrapped.StatusCode() != http.StatusInternalServerError {
		t.Errorf("unknown errors should be 500, got %d", wrapped.StatusCode())
	}
}

func TestNotFoundWithIDDetails(t *testing.T) {
	err := NotFoundWithID("Payment", "INV-123")
	if err.Details["resource"] != "Payment" || err.Details["id"] != "INV-123" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}
