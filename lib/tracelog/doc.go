// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracelog records orchestration loop events to a file as a
// sequence of CBOR records, one per event, for offline diagnosis of a
// chat session.
//
// Records use Core Deterministic Encoding (RFC 8949 §4.2), so the same
// event always produces the same bytes. The file is optionally
// compressed as a single stream, selected by the path's extension:
// ".zst" uses zstd and ".lz4" uses the LZ4 frame format. Any other
// extension writes plain CBOR.
//
// A trace log is write-only diagnostics. [Reader] exists for tooling
// and tests; nothing replays a trace into a conversation.
package tracelog
