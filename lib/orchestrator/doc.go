// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator drives the model/tool cycle of one
// conversation. A [Loop] sends the transcript to a model gateway,
// dispatches the tool calls in each reply through a provider session
// in the order the model listed them, appends every result to the
// transcript, and repeats until the model answers without tool calls
// or the iteration cap is reached.
//
// The loop performs no logging. Callers that want a record of what
// happened attach an [Observer], which receives an [Event] at every
// step.
//
// Failures of a single tool call become error tool results that the
// model sees on its next turn. Gateway failures, a broken provider
// session, and cancellation end the run and are returned to the
// caller.
package orchestrator
