package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid input")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "invalid input" {
		t.Errorf("expected message='invalid input', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CodeHistoryNotFound, "prompt %s not found in history", "abc")

	if err.Code != CodeHistoryNotFound {
		t.Errorf("expected code=%s, got %s", CodeHistoryNotFound, err.Code)
	}
	if err.Message != "prompt abc not found in history" {
		t.Errorf("expected formatted message, got %s", err.Message)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeSubmissionFailed,
				Message: "engine rejected workflow",
				Op:      "engine.submit",
			},
			contains: []string{"engine.submit", "SUBMISSION_FAILED", "engine rejected workflow"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeInternal,
				Message: "wrapper",
				Err:     fmt.Errorf("underlying error"),
			},
			contains: []string{"wrapper", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrapPreservesCodeAndDetails(t *testing.T) {
	original := New(CodeUpload, "upload failed").WithDetails("item a", "item b")
	wrapped := Wrap(original, "processor.stage", "staging failed")

	if wrapped.Code != CodeUpload {
		t.Errorf("expected code to be preserved, got %s", wrapped.Code)
	}
	if len(wrapped.Details) != 2 {
		t.Errorf("expected details to be preserved, got %v", wrapped.Details)
	}
	if !Is(wrapped, original) {
		t.Error("expected wrapped error to match original by code")
	}
}

func TestWrapForeignError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("boom"), "engine.history", "history fetch failed")

	if wrapped.Code != CodeInternal {
		t.Errorf("expected foreign error to default to INTERNAL_ERROR, got %s", wrapped.Code)
	}
	if wrapped.Unwrap() == nil {
		t.Error("expected underlying error to be preserved")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("expected wrapping nil to be nil")
	}
	if WrapWithCode(nil, CodePublish, "op", "msg") != nil {
		t.Error("expected wrapping nil with code to be nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeConnectionLost, "connection closed and failed to reconnect")
	b := New(CodeConnectionLost, "different message")
	c := New(CodeEngineUnreachable, "unreachable")

	if !Is(a, b) {
		t.Error("expected errors with the same code to match")
	}
	if Is(a, c) {
		t.Error("expected errors with different codes not to match")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeMediaResolution, "bad media")); got != CodeMediaResolution {
		t.Errorf("expected MEDIA_RESOLUTION, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeInternal {
		t.Errorf("expected INTERNAL_ERROR for foreign error, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, 400},
		{CodeBadRequest, 400},
		{CodeHistoryNotFound, 404},
		{CodeEngineUnreachable, 503},
		{CodeConnectionLost, 503},
		{CodeTimeout, 504},
		{CodeInternal, 500},
		{CodeSubmissionFailed, 500},
	}

	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus(); got != tt.status {
			t.Errorf("code %s: expected status %d, got %d", tt.code, tt.status, got)
		}
	}
}
