package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "resource not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "resource not found" {
		t.Errorf("expected message 'resource not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("exit status 1")
	ctx := map[string]interface{}{
		"command": "openstack server show",
		"id":      "vm-1",
	}

	err := WrapWithContext(ErrCodeExecutionFailed, "server show failed", cause, ctx)

	if err.Code != ErrCodeExecutionFailed {
		t.Errorf("expected code %s, got %s", ErrCodeExecutionFailed, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["command"] != "openstack server show" {
		t.Errorf("expected command to be openstack server show")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeInvalidRequest, "missing seed identifier"),
			expected: "[INVALID_REQUEST] missing seed identifier",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeWriteFailed, "cannot persist artifact", errors.New("disk full")),
			expected: "[WRITE_FAILED] cannot persist artifact: disk full",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapper", cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("expected unwrap to return cause, got %v", unwrapped)
	}
}
