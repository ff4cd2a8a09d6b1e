package toolerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  &Error{Kind: BackendUnavailable},
			want: "BACKEND_UNAVAILABLE",
		},
		{
			name: "tool and backend",
			err:  &Error{Kind: BackendExitNonZero, Tool: "git", Backend: "winget", Message: "exit code 1"},
			want: "BACKEND_EXIT_NON_ZERO [git/winget]: exit code 1",
		},
		{
			name: "message from cause",
			err:  &Error{Kind: ProbeFailed, Tool: "go", Cause: errors.New("signal: killed")},
			want: "PROBE_FAILED [go]: signal: killed",
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

func TestKindOfWrapped(t *testing.T) {
	base := New(UnknownTarget, "nonexistent", "no tool or group named %q", "nonexistent")
	wrapped := fmt.Errorf("resolving targets: %w", base)

	if got := KindOf(wrapped); got != UnknownTarget {
		t.Errorf("KindOf() = %q, want %q", got, UnknownTarget)
	}
	if !Is(wrapped, UnknownTarget) {
		t.Error("Is(UnknownTarget) = false, want true")
	}
	if Is(errors.New("plain"), UnknownTarget) {
		t.Error("Is on plain error = true, want false")
	}
	if Is(nil, UnknownTarget) {
		t.Error("Is(nil) = true, want false")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ConfirmationFailed, "rust", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}
