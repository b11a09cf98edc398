// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tracelog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Reader decodes the records of a trace file in order.
type Reader struct {
	file    io.Closer
	release func()
	decoder *cbor.Decoder
}

// Open opens the trace file at path, decompressing according to
// [CompressionFor].
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracelog: opening %s: %w", path, err)
	}
	reader, err := newReader(file, file, CompressionFor(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	return reader, nil
}

// NewReader decodes records from source with the given compression.
func NewReader(source io.Reader, compression Compression) (*Reader, error) {
	return newReader(source, nil, compression)
}

func newReader(source io.Reader, file io.Closer, compression Compression) (*Reader, error) {
	stream, release, err := decompressor(source, compression)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    file,
		release: release,
		decoder: decMode.NewDecoder(stream),
	}, nil
}

// Next returns the next record. It returns io.EOF after the last
// record, and io.ErrUnexpectedEOF for a truncated one.
func (reader *Reader) Next() (Record, error) {
	var record Record
	if err := reader.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("tracelog: decoding record: %w", err)
	}
	return record, nil
}

// All reads every remaining record.
func (reader *Reader) All() ([]Record, error) {
	var records []Record
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// Close releases the decoder and closes the file opened by [Open].
func (reader *Reader) Close() error {
	reader.release()
	if reader.file != nil {
		return reader.file.Close()
	}
	return nil
}
