package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad input", nil), http.StatusBadRequest},
		{"decode", NewDecodeError("bad image", nil), http.StatusBadRequest},
		{"acquisition", NewAcquisitionError("no camera", nil), http.StatusServiceUnavailable},
		{"network", NewNetworkError("fetch failed", nil), http.StatusBadGateway},
		{"processing", NewProcessingError("cannot process", nil), http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("too slow", nil), http.StatusGatewayTimeout},
		{"conflict", NewConflictError("already running", nil), http.StatusConflict},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.want {
				t.Errorf("GetStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetStatusCode_UnknownError(t *testing.T) {
	if got := GetStatusCode(errors.New("plain error")); got != http.StatusInternalServerError {
		t.Errorf("GetStatusCode() = %d, want 500 for unknown errors", got)
	}
}

func TestIsType(t *testing.T) {
	err := NewDecodeError("bad image", nil)
	if !IsType(err, ErrorTypeDecode) {
		t.Error("Expected IsType to match the decode type")
	}
	if IsType(err, ErrorTypeNetwork) {
		t.Error("Expected IsType to reject a different type")
	}
	if IsType(errors.New("plain"), ErrorTypeDecode) {
		t.Error("Expected IsType to reject non-app errors")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewNetworkError("fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the wrapped cause")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("Expected errors.As to find the AppError")
	}
	if appErr.Type != ErrorTypeNetwork {
		t.Errorf("Unwrapped type = %s, want %s", appErr.Type, ErrorTypeNetwork)
	}
}

func TestAppError_ErrorString(t *testing.T) {
	plain := NewValidationError("bad input", nil)
	if plain.Error() != "validation: bad input" {
		t.Errorf("Error() = %q", plain.Error())
	}

	caused := NewValidationError("bad input", errors.New("field missing"))
	if caused.Error() != "validation: bad input (caused by: field missing)" {
		t.Errorf("Error() = %q", caused.Error())
	}
}
