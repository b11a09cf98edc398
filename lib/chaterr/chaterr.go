// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package chaterr defines the error kinds shared by the conversation
// packages. Each kind is a sentinel that callers test with errors.Is;
// [Error] attaches a kind to an operation name and an underlying
// cause so that both remain reachable through errors.Is and errors.As.
//
// Two kinds never escape the orchestration loop: [ErrMalformedArguments]
// and [ErrToolExecution] are converted into error tool results that the
// model sees on its next turn. The other three are fatal to the
// operation that produced them and are returned to the caller.
package chaterr

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable reports that the provider session is not
	// connected or its transport broke mid-request.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrModelGateway reports a failed chat-completion request:
	// authentication, network, rate limiting, or a rejected request.
	ErrModelGateway = errors.New("model gateway error")

	// ErrMalformedArguments reports tool-call arguments that could not
	// be decoded into a JSON object.
	ErrMalformedArguments = errors.New("malformed tool arguments")

	// ErrToolExecution reports a provider-side tool failure.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrInvalidState reports a violated invariant, such as initializing
	// a transcript twice or running the loop without a connected session.
	ErrInvalidState = errors.New("invalid state")
)

// Error carries an error kind together with the operation that failed
// and the underlying cause. Err may be nil when the kind alone says
// everything.
type Error struct {
	// Kind is one of the sentinel errors declared in this package.
	Kind error

	// Op names the failing operation, e.g. "transcript.Initialize".
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// New returns an *Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf returns an *Error of the given kind whose cause is a formatted
// message.
func Newf(kind error, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (err *Error) Error() string {
	switch {
	case err.Op != "" && err.Err != nil:
		return fmt.Sprintf("%s: %v: %v", err.Op, err.Kind, err.Err)
	case err.Op != "":
		return fmt.Sprintf("%s: %v", err.Op, err.Kind)
	case err.Err != nil:
		return fmt.Sprintf("%v: %v", err.Kind, err.Err)
	default:
		return fmt.Sprint(err.Kind)
	}
}

// Unwrap exposes both the kind and the cause.
func (err *Error) Unwrap() []error {
	if err.Err == nil {
		return []error{err.Kind}
	}
	return []error{err.Kind, err.Err}
}

// KindOf returns the sentinel kind of err, or nil when err does not
// carry one of this package's kinds.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrProviderUnavailable,
		ErrModelGateway,
		ErrMalformedArguments,
		ErrToolExecution,
		ErrInvalidState,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
