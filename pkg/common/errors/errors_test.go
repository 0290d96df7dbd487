package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrInvalidSchedule", ErrInvalidSchedule, "invalid schedule"},
		{"ErrDuplicateName", ErrDuplicateName, "duplicate name"},
		{"ErrNotFound", ErrNotFound, "entry not found"},
		{"ErrExhausted", ErrExhausted, "schedule exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("error should not be nil")
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "numeric value",
			err: &ValidationError{
				Module: "schedule",
				Field:  "repeat",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "schedule: invalid repeat=-1 (must be positive)",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "schedule",
				Field:  "cron",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "schedule: invalid cron= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := &ValidationError{
		Module: "schedule",
		Field:  "period",
		Value:  0,
		Reason: "must advance time",
	}

	if unwrapped := verr.Unwrap(); unwrapped != ErrInvalidSchedule {
		t.Errorf("Unwrap() = %v, want ErrInvalidSchedule", unwrapped)
	}

	if !errors.Is(verr, ErrInvalidSchedule) {
		t.Error("ValidationError should wrap ErrInvalidSchedule")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("module", "field", 123, "test reason")

	if err.Module != "module" {
		t.Errorf("Module = %q, want %q", err.Module, "module")
	}
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Value != 123 {
		t.Errorf("Value = %v, want %v", err.Value, 123)
	}
	if err.Reason != "test reason" {
		t.Errorf("Reason = %q, want %q", err.Reason, "test reason")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("cancel: %w", ErrNotFound), true},
		{"duplicate name", ErrDuplicateName, false},
		{"random error", errors.New("random"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid schedule", ErrInvalidSchedule, true},
		{"duplicate name", ErrDuplicateName, true},
		{"validation error", NewValidationError("schedule", "end", "t0", "before start"), true},
		{"not found", ErrNotFound, false},
		{"exhausted", ErrExhausted, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRejected(tt.err); got != tt.want {
				t.Errorf("IsRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Run("ValidationError message components", func(t *testing.T) {
		err := NewValidationError("schedule", "period", 42, "must be less than 10")

		msg := err.Error()

		expectedParts := []string{"schedule", "period", "42", "must be less than 10"}
		for _, part := range expectedParts {
			if !strings.Contains(msg, part) {
				t.Errorf("error message should contain %q, got %q", part, msg)
			}
		}
	})
}
