package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"taskflow/internal/service"
)

func TestFailureIs(t *testing.T) {
	sentinels := []error{service.ErrTransport, service.ErrAuth, service.ErrValidation, service.ErrNotFound, service.ErrUnsupported}
	tests := []struct {
		err  error
		want error
		kind service.Kind
	}{
		{service.Transport("list", errors.New("reset")), service.ErrTransport, service.TransportFailure},
		{service.Auth("list", errors.New("expired")), service.ErrAuth, service.AuthFailure},
		{service.Validation("create", errors.New("title required")), service.ErrValidation, service.ValidationFailure},
		{service.NotFound("delete", "42"), service.ErrNotFound, service.NotFoundFailure},
		{service.Unsupported("upload avatar"), service.ErrUnsupported, service.UnsupportedFailure},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			for _, s := range sentinels {
				if got := errors.Is(tt.err, s); got != (s == tt.want) {
					t.Errorf("errors.Is(%v, %v) = %v", tt.err, s, got)
				}
			}
			if got := service.KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			wrapped := fmt.Errorf("command: %w", tt.err)
			if !errors.Is(wrapped, tt.want) || service.KindOf(wrapped) != tt.kind {
				t.Errorf("wrapping lost the kind of %v", tt.err)
			}
		})
	}
}

func TestFailureError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{service.NotFound("delete", "42"), "delete: task not found: 42"},
		{service.Unsupported("upload avatar"), "upload avatar: unsupported"},
		{service.Auth("session", errors.New("expired")), "session: expired"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFailureUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := service.Transport("list", cause)
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable")
	}
}

func TestKindOf_PlainErrorsAreTransport(t *testing.T) {
	if got := service.KindOf(errors.New("boom")); got != service.TransportFailure {
		t.Errorf("KindOf = %s", got)
	}
	if got := service.Kind(0).String(); got != "unknown" {
		t.Errorf("zero kind = %q", got)
	}
}

func TestClassify(t *testing.T) {
	if service.Classify("list", nil) != nil {
		t.Error("nil should stay nil")
	}

	auth := service.Auth("select", errors.New("expired"))
	if got := service.Classify("list", auth); got != auth {
		t.Errorf("existing failures should pass through, got %v", got)
	}

	timeout := service.Classify("list", fmt.Errorf("get tasks: %w", context.DeadlineExceeded))
	if !errors.Is(timeout, service.ErrTransport) {
		t.Errorf("a deadline should be a transport failure, got %v", timeout)
	}
	if timeout.Error() != "list: request timed out" {
		t.Errorf("Error() = %q", timeout.Error())
	}

	plain := service.Classify("list", errors.New("connection refused"))
	if service.KindOf(plain) != service.TransportFailure || plain.Error() != "list: connection refused" {
		t.Errorf("got %v", plain)
	}
}
