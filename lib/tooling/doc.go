// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package tooling adapts a provider's tools to the model API.
//
// [Directory] fetches the provider's tool list and maps it to
// llm.ToolDefinition values. [Invoker] runs one tool call and folds
// every tool-level failure into a [Result] the model can read.
// [NormalizeArguments] turns the argument text a model wrote into
// either [Structured] arguments or [MalformedArguments]; the invoker
// accepts only the normalized form, so decoding never happens inside
// dispatch.
package tooling
