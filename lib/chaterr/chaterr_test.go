// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chaterr

import (
	"errors"
	"io"
	"testing"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	t.Parallel()

	err := New(ErrProviderUnavailable, "mcpsession.CallTool", io.EOF)

	if !errors.Is(err, ErrProviderUnavailable) {
		t.Error("errors.Is(err, ErrProviderUnavailable) = false")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is(err, io.EOF) = false")
	}
	if errors.Is(err, ErrModelGateway) {
		t.Error("errors.Is(err, ErrModelGateway) = true, want false")
	}

	want := "mcpsession.CallTool: provider unavailable: EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: ErrInvalidState}, "invalid state"},
		{"with op", &Error{Kind: ErrInvalidState, Op: "transcript.Initialize"}, "transcript.Initialize: invalid state"},
		{"with cause", &Error{Kind: ErrToolExecution, Err: errors.New("boom")}, "tool execution failed: boom"},
		{"formatted", Newf(ErrMalformedArguments, "tooling", "offset %d", 3), "tooling: malformed tool arguments: offset 3"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.err.Error(); got != test.want {
				t.Errorf("Error() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("context"), New(ErrModelGateway, "", nil))
	if got := KindOf(wrapped); got != ErrModelGateway {
		t.Errorf("KindOf(wrapped) = %v, want ErrModelGateway", got)
	}
	if got := KindOf(errors.New("plain")); got != nil {
		t.Errorf("KindOf(plain) = %v, want nil", got)
	}
}
