// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tracelog

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression of a trace file.
type Compression uint8

const (
	// CompressionNone writes plain CBOR records.
	CompressionNone Compression = iota

	// CompressionZstd compresses the record stream with zstd at the
	// default level. Trace records are mostly text and compress well.
	CompressionZstd

	// CompressionLZ4 compresses the record stream with the LZ4 frame
	// format, trading ratio for speed.
	CompressionLZ4
)

// String returns the human-readable name of a compression.
func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", compression)
	}
}

// CompressionFor returns the compression selected by the extension
// of path.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// nopWriteCloser flushes nothing; the caller owns the underlying writer.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressor wraps destination in the compressing writer for
// compression. Closing the result flushes the stream but does not
// close destination.
func compressor(destination io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{destination}, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("tracelog: zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(destination), nil
	default:
		return nil, fmt.Errorf("tracelog: unsupported compression %s", compression)
	}
}

// decompressor wraps source in the matching decompressing reader. The
// returned release function frees decoder resources.
func decompressor(source io.Reader, compression Compression) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone:
		return source, func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return nil, nil, fmt.Errorf("tracelog: zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(source), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("tracelog: unsupported compression %s", compression)
	}
}
