package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
			err:  nil,
		},
		{
			name:        "wrapped field count",
			err:         parseErrorf(3, ErrFieldCount, "[expected: 2, found: 3]"),
			wantCode:    "CSV004",
			wantMessage: "A line has the wrong number of values",
		},
		{
			name:        "duplicate header",
			err:         &ParseError{Line: 1, Err: ErrDuplicateHeader},
			wantCode:    "CSV005",
			wantMessage: "The header line is invalid",
		},
		{
			name:        "record error wrapping a conversion failure",
			err:         &RecordError{Line: 2, Err: &FieldError{Line: 2, Field: "Age", Err: fmt.Errorf("%w: x", ErrConversion)}},
			wantCode:    "FLD001",
			wantMessage: "A value could not be converted",
		},
		{
			name:        "invalid configuration",
			err:         fmt.Errorf("%w:\n  - bad", ErrInvalidConfig),
			wantCode:    "CFG001",
			wantMessage: "The parse settings are invalid",
		},
		{
			name:        "busy limiter",
			err:         ErrTooManyPasses,
			wantCode:    "SRV001",
			wantMessage: "System is busy processing other files",
		},
		{
			name:        "pattern match on cancellation",
			err:         fmt.Errorf("stream: %w", context.Canceled),
			wantCode:    "SRV002",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(&ParseError{Line: 4, Err: ErrUnterminatedQuote})

	expected := "A quoted value is never closed (Code: CSV003). Check for a missing closing quote"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrEmptyLine, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
