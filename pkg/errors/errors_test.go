package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeRuleConflict, "rule %d: spacing must be positive", 3)
	if err.Code != ErrCodeRuleConflict {
		t.Errorf("Code = %s, want RULE_CONFLICT", err.Code)
	}
	if want := "rule 3: spacing must be positive"; err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if want := "RULE_CONFLICT: rule 3: spacing must be positive"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidDrawing, cause, "read drawing")

	if err.Code != ErrCodeInvalidDrawing || err.Cause != cause {
		t.Errorf("Wrap() = %s, %v", err.Code, err.Cause)
	}
	if errors.Unwrap(err) != cause || !errors.Is(err, cause) {
		t.Error("wrapped drawing error does not unwrap to its cause")
	}
	if want := "INVALID_DRAWING: read drawing: unexpected EOF"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidAlignment, "centerline has zero length"),
			code:     ErrCodeInvalidAlignment,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidAlignment, "centerline has zero length"),
			code:     ErrCodeRuleConflict,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeRuleConflict, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeRuleConflict,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("ingest: %w", New(ErrCodeInvalidAlignment, "centerline gap at (10, 0)"))
	tests := []struct {
		name string
		err  error
		code Code
		msg  string
	}{
		{"coded", New(ErrCodeInvalidConfig, "unknown keys: rule.spaceing"), ErrCodeInvalidConfig, "unknown keys: rule.spaceing"},
		{"wrapped", wrapped, ErrCodeInvalidAlignment, "centerline gap at (10, 0)"},
		{"plain", errors.New("disk full"), "", "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if got := UserMessage(tt.err); got != tt.msg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.msg)
			}
		})
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) != \"\"")
	}
}

func TestWarning(t *testing.T) {
	w := Warnf(ErrCodeConstraintViolation, "TX-1/A", "drop %.1f%% exceeds %.1f%%", 6.2, 5.0)
	want := "CONSTRAINT_VIOLATION: TX-1/A: drop 6.2% exceeds 5.0%"
	if w.String() != want {
		t.Errorf("String() = %q, want %q", w.String(), want)
	}

	w = Warning{Code: ErrCodeRuleConflict, Message: "overlap"}
	if w.String() != "RULE_CONFLICT: overlap" {
		t.Errorf("String() without subject = %q", w.String())
	}
}
