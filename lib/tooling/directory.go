// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tooling

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/provider"
)

// Directory holds the most recently fetched tool list of a provider.
// Every Refresh refetches; nothing is cached across conversation turns.
type Directory struct {
	source provider.Tools

	mutex       sync.Mutex
	tools       []provider.ToolDescriptor
	fingerprint Fingerprint
	changed     bool
	refreshed   bool
}

// NewDirectory returns an empty directory backed by source.
func NewDirectory(source provider.Tools) *Directory {
	return &Directory{source: source}
}

// Refresh fetches the current tool list. It fails with
// chaterr.ErrProviderUnavailable when the session is not connected.
// When the provider lists a name more than once, the first entry wins.
func (directory *Directory) Refresh(ctx context.Context) ([]provider.ToolDescriptor, error) {
	if directory.source == nil || !directory.source.Connected() {
		return nil, chaterr.Newf(chaterr.ErrProviderUnavailable, "tooling.Refresh", "session not connected")
	}

	listed, err := directory.source.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("tooling: listing tools: %w", err)
	}

	seen := make(map[string]bool, len(listed))
	tools := make([]provider.ToolDescriptor, 0, len(listed))
	for _, tool := range listed {
		if seen[tool.Name] {
			continue
		}
		seen[tool.Name] = true
		tools = append(tools, tool)
	}
	fingerprint := CatalogFingerprint(tools)

	directory.mutex.Lock()
	defer directory.mutex.Unlock()
	directory.changed = directory.refreshed && fingerprint != directory.fingerprint
	directory.refreshed = true
	directory.tools = tools
	directory.fingerprint = fingerprint

	return append([]provider.ToolDescriptor(nil), tools...), nil
}

// Tools returns the tool list from the last Refresh.
func (directory *Directory) Tools() []provider.ToolDescriptor {
	directory.mutex.Lock()
	defer directory.mutex.Unlock()
	return append([]provider.ToolDescriptor(nil), directory.tools...)
}

// ToModelSchema maps the tool list from the last Refresh to model
// tool definitions. It returns nil when the directory is empty.
func (directory *Directory) ToModelSchema() []llm.ToolDefinition {
	directory.mutex.Lock()
	defer directory.mutex.Unlock()
	return ToModelSchema(directory.tools)
}

// Fingerprint identifies the tool list from the last Refresh.
func (directory *Directory) Fingerprint() Fingerprint {
	directory.mutex.Lock()
	defer directory.mutex.Unlock()
	return directory.fingerprint
}

// Changed reports whether the last Refresh returned a different tool
// list than the one before it. The first Refresh never counts as a
// change.
func (directory *Directory) Changed() bool {
	directory.mutex.Lock()
	defer directory.mutex.Unlock()
	return directory.changed
}

// ToModelSchema maps descriptors to model tool definitions, passing
// each input schema through verbatim. It returns nil, not an empty
// slice, for an empty input so the request omits its tools field.
func ToModelSchema(tools []provider.ToolDescriptor) []llm.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	definitions := make([]llm.ToolDefinition, len(tools))
	for index, tool := range tools {
		definitions[index] = llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}
	return definitions
}

// Fingerprint is a BLAKE3 digest of a tool catalog.
type Fingerprint [32]byte

// String returns the full hex digest.
func (fingerprint Fingerprint) String() string {
	return hex.EncodeToString(fingerprint[:])
}

// Short returns the first 12 hex characters, enough to tell catalogs
// apart in logs.
func (fingerprint Fingerprint) Short() string {
	return fingerprint.String()[:12]
}

// IsZero reports whether the fingerprint was never computed.
func (fingerprint Fingerprint) IsZero() bool {
	return fingerprint == Fingerprint{}
}

// catalogKey separates catalog fingerprints from any other BLAKE3 use
// of the same bytes. It is a fixed constant; changing it changes every
// fingerprint.
var catalogKey = [32]byte{
	'p', 'a', 'r', 'l', 'e', 'y', '.', 't', 'o', 'o', 'l', '.', 'c', 'a', 't', 'a',
	'l', 'o', 'g', '.', 'v', '1', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// CatalogFingerprint hashes the names, descriptions, and schemas of
// tools in order. Each field is length-prefixed so that no two
// distinct catalogs share an encoding.
func CatalogFingerprint(tools []provider.ToolDescriptor) Fingerprint {
	hasher, err := blake3.NewKeyed(catalogKey[:])
	if err != nil {
		panic("tooling: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var length [8]byte
	writeField := func(data []byte) {
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		hasher.Write(length[:])
		hasher.Write(data)
	}

	for _, tool := range tools {
		writeField([]byte(tool.Name))
		writeField([]byte(tool.Description))
		writeField(tool.InputSchema)
	}

	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}
