// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tracelog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/parley-dev/parley/lib/orchestrator"
)

// Writer appends event records to a trace file. It implements
// [orchestrator.Observer] and is safe for concurrent use.
//
// Observe cannot return an error, so the first write failure is kept
// and reported by [Writer.Err] and [Writer.Close]. Events after a
// failure are dropped.
type Writer struct {
	mutex      sync.Mutex
	session    string
	file       io.Closer
	compressor io.WriteCloser
	encoder    *cbor.Encoder
	err        error
	closed     bool
}

var _ orchestrator.Observer = (*Writer)(nil)

// Create creates (or truncates) the trace file at path, compressed
// according to [CompressionFor].
func Create(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("tracelog: creating %s: %w", path, err)
	}
	writer, err := newWriter(file, file, CompressionFor(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

// NewWriter writes records to destination with the given compression.
// Close flushes the compressed stream but leaves destination open.
func NewWriter(destination io.Writer, compression Compression) (*Writer, error) {
	return newWriter(destination, nil, compression)
}

func newWriter(destination io.Writer, file io.Closer, compression Compression) (*Writer, error) {
	stream, err := compressor(destination, compression)
	if err != nil {
		return nil, err
	}
	return &Writer{
		session:    uuid.NewString(),
		file:       file,
		compressor: stream,
		encoder:    encMode.NewEncoder(stream),
	}, nil
}

// Session returns the identifier stamped on every record.
func (writer *Writer) Session() string {
	return writer.session
}

// Observe appends a record for event.
func (writer *Writer) Observe(event orchestrator.Event) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed || writer.err != nil {
		return
	}
	if err := writer.encoder.Encode(newRecord(writer.session, event)); err != nil {
		writer.err = fmt.Errorf("tracelog: writing %s record: %w", event.Kind, err)
	}
}

// Err returns the first write failure, if any.
func (writer *Writer) Err() error {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	return writer.err
}

// Close flushes the stream and closes the file opened by [Create]. It
// returns the first write failure, or the close failure. Closing twice
// is a no-op.
func (writer *Writer) Close() error {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed {
		return writer.err
	}
	writer.closed = true

	errs := []error{writer.err}
	if err := writer.compressor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tracelog: flushing: %w", err))
	}
	if writer.file != nil {
		if err := writer.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tracelog: closing: %w", err))
		}
	}
	writer.err = errors.Join(errs...)
	return writer.err
}
