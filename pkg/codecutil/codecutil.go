// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codecutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompress compresses src into dst.
func ZstdCompress(dst io.Writer, src io.Reader) error {
	encoder, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush zstd encoder: %w", err)
	}
	return nil
}

// ErrTooLarge is returned when decompressed data exceeds its limit.
var ErrTooLarge = errors.New("decompressed data exceeds limit")

// limitWriter passes at most n bytes to w and fails with ErrTooLarge after.
type limitWriter struct {
	w io.Writer
	n uint64
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if uint64(len(p)) > l.n {
		n, err := l.w.Write(p[:l.n])
		l.n -= uint64(n)
		if err == nil {
			err = ErrTooLarge
		}
		return n, err
	}
	n, err := l.w.Write(p)
	l.n -= uint64(n)
	return n, err
}

// ZstdDecompress decompresses src into dst. At most limit decompressed
// bytes are written when limit is positive; past that it returns an error
// wrapping ErrTooLarge.
func ZstdDecompress(dst io.Writer, src io.Reader, limit uint64) error {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if limit > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(limit))
	}
	decoder, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	if err := decoder.Reset(src); err != nil {
		return fmt.Errorf("failed to reset decoder: %w", err)
	}
	if limit > 0 {
		dst = &limitWriter{w: dst, n: limit}
	}

	if _, err := decoder.WriteTo(dst); err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return fmt.Errorf("failed to decompress: %w: %w", ErrTooLarge, err)
		}
		return fmt.Errorf("failed to decompress: %w", err)
	}
	return nil
}

// ZstdCompressBytes returns bs compressed.
func ZstdCompressBytes(bs []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := ZstdCompress(&buf, bytes.NewReader(bs)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ZstdDecompressBytes returns bs decompressed.
func ZstdDecompressBytes(bs []byte, limit uint64) ([]byte, error) {
	var buf bytes.Buffer
	if err := ZstdDecompress(&buf, bytes.NewReader(bs), limit); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
