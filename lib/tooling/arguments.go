// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tooling

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/parley-dev/parley/lib/chaterr"
)

// Arguments is the normalized form of a tool call's arguments: either
// [Structured] or *[MalformedArguments].
type Arguments interface {
	normalized()
}

// Structured is a decoded argument object. Numbers are json.Number so
// that integers of any size reach the provider unchanged.
type Structured map[string]any

// MalformedArguments reports argument text that is not a JSON object.
// It is an error whose kind is chaterr.ErrMalformedArguments.
type MalformedArguments struct {
	// Raw is the argument text as the model wrote it.
	Raw string

	// Cause describes why decoding failed.
	Cause error
}

func (Structured) normalized()          {}
func (*MalformedArguments) normalized() {}

func (malformed *MalformedArguments) Error() string {
	return fmt.Sprintf("%v: %v", chaterr.ErrMalformedArguments, malformed.Cause)
}

// Unwrap exposes the error kind and the decoding failure.
func (malformed *MalformedArguments) Unwrap() []error {
	return []error{chaterr.ErrMalformedArguments, malformed.Cause}
}

// NormalizeArguments decodes raw tool-call arguments.
//
// Empty input and JSON null decode to an empty object, since models
// send either for tools that take no parameters. A JSON string whose
// content is itself an object is unwrapped once; some models
// double-encode their arguments. Anything else that is not a single
// JSON object is malformed.
func NormalizeArguments(raw json.RawMessage) Arguments {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Structured{}
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err == nil {
			innerTrimmed := bytes.TrimSpace([]byte(inner))
			if len(innerTrimmed) > 0 && innerTrimmed[0] == '{' {
				trimmed = innerTrimmed
			}
		}
	}

	object, err := decodeObject(trimmed)
	if err != nil {
		return &MalformedArguments{Raw: string(raw), Cause: err}
	}
	return object
}

func decodeObject(data []byte) (Structured, error) {
	if data[0] != '{' {
		return nil, fmt.Errorf("arguments must be a JSON object, got %s", describeJSONStart(data[0]))
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after the arguments object")
	}
	if object == nil {
		object = map[string]any{}
	}
	return Structured(object), nil
}

func describeJSONStart(first byte) string {
	switch {
	case first == '[':
		return "an array"
	case first == '"':
		return "a string"
	case first == 't' || first == 'f':
		return "a boolean"
	case first == '-' || (first >= '0' && first <= '9'):
		return "a number"
	default:
		return fmt.Sprintf("text starting with %q", first)
	}
}
