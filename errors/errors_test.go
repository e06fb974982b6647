package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrNotFound, "not found"},
		{ErrInvalidArg, "invalid argument"},
		{ErrResourceExhausted, "resource exhausted"},
		{ErrWrongState, "wrong state"},
		{ErrPeerClosed, "peer closed"},
		{ErrTimedOut, "timed out"},
		{ErrInternal, "internal error"},
		{ErrorKind(999), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKernelError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *KernelError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "<nil>",
		},
		{
			name: "full error",
			err: &KernelError{
				Op:     "sys_Connect",
				Kind:   ErrTimedOut,
				Detail: "no accepter within deadline",
				Err:    fmt.Errorf("deadline exceeded"),
			},
			expected: "sys_Connect: no accepter within deadline: deadline exceeded",
		},
		{
			name: "op and kind only",
			err: &KernelError{
				Op:   "sys_Listen",
				Kind: ErrWrongState,
			},
			expected: "sys_Listen: wrong state",
		},
		{
			name: "kind only",
			err: &KernelError{
				Kind: ErrNotFound,
			},
			expected: "not found",
		},
		{
			name: "with underlying error",
			err: &KernelError{
				Op:   "sys_ThreadJoin",
				Kind: ErrInternal,
				Err:  fmt.Errorf("refcount underflow"),
			},
			expected: "sys_ThreadJoin: internal error: refcount underflow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("KernelError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKernelError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := &KernelError{Op: "test", Kind: ErrInternal, Err: underlying}

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	var nilErr *KernelError
	if got := nilErr.Unwrap(); got != nil {
		t.Errorf("nil.Unwrap() = %v, want nil", got)
	}
}

func TestKernelError_Is(t *testing.T) {
	err1 := &KernelError{Kind: ErrNotFound, Op: "test1"}
	err2 := &KernelError{Kind: ErrNotFound, Op: "test2"}
	err3 := &KernelError{Kind: ErrWrongState, Op: "test3"}

	if !err1.Is(err2) {
		t.Error("err1.Is(err2) should be true (same kind)")
	}
	if err1.Is(err3) {
		t.Error("err1.Is(err3) should be false (different kind)")
	}
	if err1.Is(fmt.Errorf("some error")) {
		t.Error("err1.Is(fmt.Errorf(...)) should be false")
	}

	var nilErr *KernelError
	if !nilErr.Is(nil) {
		t.Error("nil.Is(nil) should be true")
	}
}

func TestNew(t *testing.T) {
	err := New(ErrInvalidArg, "sys_Socket", "port out of range")

	if err.Kind != ErrInvalidArg {
		t.Errorf("Kind = %v, want %v", err.Kind, ErrInvalidArg)
	}
	if err.Op != "sys_Socket" {
		t.Errorf("Op = %q, want %q", err.Op, "sys_Socket")
	}
	if err.Detail != "port out of range" {
		t.Errorf("Detail = %q, want %q", err.Detail, "port out of range")
	}
}

func TestWrap(t *testing.T) {
	underlying := fmt.Errorf("would block forever")
	err := Wrap(underlying, ErrWrongState, "sys_Accept")

	if err.Err != underlying {
		t.Error("Wrapped error should preserve underlying error")
	}
	if err.Kind != ErrWrongState {
		t.Errorf("Kind = %v, want %v", err.Kind, ErrWrongState)
	}
	if err.Op != "sys_Accept" {
		t.Errorf("Op = %q, want %q", err.Op, "sys_Accept")
	}
}

func TestWrapWithDetail(t *testing.T) {
	underlying := fmt.Errorf("ring full")
	err := WrapWithDetail(underlying, ErrInternal, "pipe_write", "word_length invariant violated")

	if err.Detail != "word_length invariant violated" {
		t.Errorf("Detail = %q, want %q", err.Detail, "word_length invariant violated")
	}
}

func TestIsKind(t *testing.T) {
	err := &KernelError{Kind: ErrNotFound}
	wrapped := fmt.Errorf("wrapped: %w", err)

	if !IsKind(err, ErrNotFound) {
		t.Error("IsKind(err, ErrNotFound) should be true")
	}
	if !IsKind(wrapped, ErrNotFound) {
		t.Error("IsKind(wrapped, ErrNotFound) should be true")
	}
	if IsKind(err, ErrWrongState) {
		t.Error("IsKind(err, ErrWrongState) should be false")
	}
	if IsKind(fmt.Errorf("plain error"), ErrNotFound) {
		t.Error("IsKind(plain error, ErrNotFound) should be false")
	}
}

func TestGetKind(t *testing.T) {
	err := &KernelError{Kind: ErrPeerClosed}
	wrapped := fmt.Errorf("wrapped: %w", err)

	kind, ok := GetKind(err)
	if !ok || kind != ErrPeerClosed {
		t.Errorf("GetKind(err) = (%v, %v), want (%v, true)", kind, ok, ErrPeerClosed)
	}

	kind, ok = GetKind(wrapped)
	if !ok || kind != ErrPeerClosed {
		t.Errorf("GetKind(wrapped) = (%v, %v), want (%v, true)", kind, ok, ErrPeerClosed)
	}

	_, ok = GetKind(fmt.Errorf("plain error"))
	if ok {
		t.Error("GetKind(plain error) should return false")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *KernelError
		kind ErrorKind
	}{
		{"ErrNoSuchProcess", ErrNoSuchProcess, ErrNotFound},
		{"ErrNotAChild", ErrNotAChild, ErrWrongState},
		{"ErrProcessTableFull", ErrProcessTableFull, ErrResourceExhausted},
		{"ErrUnknownThread", ErrUnknownThread, ErrNotFound},
		{"ErrThreadDetached", ErrThreadDetached, ErrWrongState},
		{"ErrReaderClosed", ErrReaderClosed, ErrPeerClosed},
		{"ErrConnectTimedOut", ErrConnectTimedOut, ErrTimedOut},
		{"ErrBadPort", ErrBadPort, ErrInvalidArg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("%s.Kind = %v, want %v", tt.name, tt.err.Kind, tt.kind)
			}
			// Ensure Is() works with sentinel errors
			wrapped := Wrap(fmt.Errorf("underlying"), tt.kind, "test")
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(wrapped, %s) should be true", tt.name)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	underlying := fmt.Errorf("table full")
	err1 := Wrap(underlying, ErrResourceExhausted, "sys_Exec")
	err2 := fmt.Errorf("exec failed: %w", err1)

	if !errors.Is(err2, ErrProcessTableFull) {
		t.Error("errors.Is should find ErrProcessTableFull in chain")
	}

	var kerr *KernelError
	if !errors.As(err2, &kerr) {
		t.Error("errors.As should find KernelError in chain")
	}
	if kerr.Op != "sys_Exec" {
		t.Errorf("kerr.Op = %q, want %q", kerr.Op, "sys_Exec")
	}

	if errors.Unwrap(err1) != underlying {
		t.Error("Unwrap should return underlying error")
	}
}
