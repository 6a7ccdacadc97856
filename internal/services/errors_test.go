package services_test

import (
	"errors"
	"strings"
	"testing"

	"cutline/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := services.Wrap(services.ErrTransient, "acquire", "download", "fetching bytes", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected wrapped error to match marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to preserve cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "acquire: download: fetching bytes") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to become transient, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", services.Wrap(services.ErrValidation, "acquire", "validate", "bad extension", nil), false},
		{"configuration", services.ErrConfiguration, false},
		{"decode", services.Wrap(services.ErrDecode, "media", "probe", "corrupt header", nil), false},
		{"precondition", services.ErrPrecondition, false},
		{"timeout", services.Wrap(services.ErrTimeout, "acquire", "download", "attempt deadline", nil), true},
		{"transient", services.ErrTransient, true},
		{"unclassified", errors.New("socket closed"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
