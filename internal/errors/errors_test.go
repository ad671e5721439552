package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestIsType_SeesThroughWrapping(t *testing.T) {
	base := NewAIInvocationError("generation failed after 2 attempts", context.DeadlineExceeded)
	wrapped := fmt.Errorf("extract: %w", base)

	if !IsType(wrapped, ErrorTypeAIInvocation) {
		t.Errorf("expected wrapped error to be %s", ErrorTypeAIInvocation)
	}
	if IsType(wrapped, ErrorTypeUnreadableInput) {
		t.Errorf("did not expect %s", ErrorTypeUnreadableInput)
	}
	if IsType(fmt.Errorf("plain"), ErrorTypeAIInvocation) {
		t.Errorf("plain errors carry no type")
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unreadable input", NewUnreadableInputError("unreadable image", nil), http.StatusUnprocessableEntity},
		{"ai invocation", NewAIInvocationError("no response", nil), http.StatusBadGateway},
		{"validation", NewValidationError("file not found", nil), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("resolve: %w", NewNotFoundError("missing", nil)), http.StatusNotFound},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.want {
				t.Errorf("GetStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("png: invalid format")
	err := NewUnreadableInputError("unreadable image", cause)

	want := "unreadable_input: unreadable image (caused by: png: invalid format)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() did not return the cause")
	}

	detailed := err.WithDetails("scan.png")
	if detailed.Details != "scan.png" || err.Details != "" {
		t.Errorf("WithDetails must copy, got original=%q copy=%q", err.Details, detailed.Details)
	}
}
