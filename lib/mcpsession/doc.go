// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcpsession connects to a Model Context Protocol server and
// exposes it as a provider.Session.
//
// The usual transport is a subprocess speaking MCP over its stdin and
// stdout: [Connect] starts the command described by a [ServerSpec],
// performs the initialization handshake, and returns a [Session].
// [ConnectTransport] accepts any go-sdk transport, which tests use with
// in-memory pipes.
//
// A Session allows one outstanding request at a time. Failures of the
// transport itself (a closed pipe, an exited subprocess) are reported
// as chaterr.ErrProviderUnavailable and leave the session
// disconnected; errors the server returns for a single request, such
// as an unknown tool name, are returned as ordinary errors.
package mcpsession
