// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
codec.go - Artifact Codec

This file implements the reversible transform between container JSON and the
artifact text: UTF-8 bytes → gzip → standard base64, and back.

Streaming:
Encode and Decode work on io.Reader/io.Writer pairs and copy in fixed-size
chunks, so an artifact is never held both compressed and decompressed in one
buffer. Compress and Decompress are string conveniences on top.

Decompression Bomb Protection:
Decoded output is capped at MaxDecodedBytes (1 GiB by default). Exceeding the
cap is a CodecError, like bad base64 or a truncated gzip stream.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultMaxDecodedBytes caps decompressed artifacts at 1 GiB.
	DefaultMaxDecodedBytes = 1 << 30

	// codecChunkSize is the copy buffer size for Encode and Decode.
	codecChunkSize = 32 * 1024
)

// ErrDecodedTooLarge is wrapped in a CodecError when output exceeds the cap.
var ErrDecodedTooLarge = errors.New("decoded artifact exceeds size limit")

// Codec compresses and encodes artifact text.
type Codec struct {
	// MaxDecodedBytes caps Decode output. Zero means DefaultMaxDecodedBytes.
	MaxDecodedBytes int64

	// Level is the gzip compression level. Zero means gzip.DefaultCompression.
	Level int
}

// DefaultCodec is the codec used when none is configured.
var DefaultCodec = &Codec{}

func (c *Codec) maxDecoded() int64 {
	if c == nil || c.MaxDecodedBytes <= 0 {
		return DefaultMaxDecodedBytes
	}
	return c.MaxDecodedBytes
}

func (c *Codec) level() int {
	if c == nil || c.Level == 0 {
		return gzip.DefaultCompression
	}
	return c.Level
}

// Encode reads plain bytes from r and writes base64(gzip(r)) to w.
func (c *Codec) Encode(w io.Writer, r io.Reader) error {
	b64 := base64.NewEncoder(base64.StdEncoding, w)

	gz, err := gzip.NewWriterLevel(b64, c.level())
	if err != nil {
		return &CodecError{Op: "encode", Err: err}
	}

	buf := make([]byte, codecChunkSize)
	if _, err := io.CopyBuffer(gz, r, buf); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	if err := gz.Close(); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	// Flushes the final partial base64 quantum and padding.
	if err := b64.Close(); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	return nil
}

// Decode reads base64(gzip(data)) from r and writes data to w.
// Line breaks in the base64 text are ignored.
func (c *Codec) Decode(w io.Writer, r io.Reader) error {
	gz, err := gzip.NewReader(base64.NewDecoder(base64.StdEncoding, r))
	if err != nil {
		return &CodecError{Op: "decode", Err: fmt.Errorf("read gzip header: %w", err)}
	}
	defer gz.Close()

	limit := c.maxDecoded()
	buf := make([]byte, codecChunkSize)
	n, err := io.CopyBuffer(w, io.LimitReader(gz, limit+1), buf)
	if err != nil {
		return &CodecError{Op: "decode", Err: err}
	}
	if n > limit {
		return &CodecError{Op: "decode", Err: fmt.Errorf("%w (%d bytes)", ErrDecodedTooLarge, limit)}
	}
	return nil
}

// Compress returns the artifact text for s.
func (c *Codec) Compress(s string) (string, error) {
	var out strings.Builder
	if err := c.Encode(&out, strings.NewReader(s)); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Decompress is the inverse of Compress. Surrounding whitespace is ignored.
func (c *Codec) Decompress(text string) (string, error) {
	var out bytes.Buffer
	if err := c.Decode(&out, strings.NewReader(strings.TrimSpace(text))); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Compress encodes s with DefaultCodec.
func Compress(s string) (string, error) {
	return DefaultCodec.Compress(s)
}

// Decompress decodes text with DefaultCodec.
func Decompress(text string) (string, error) {
	return DefaultCodec.Decompress(text)
}
