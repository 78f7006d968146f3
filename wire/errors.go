// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the error taxonomy of the postcard encoding.
//
// Every failure surfaced by the codec wraps exactly one of the
// sentinel errors below, so callers discriminate kinds with
// [errors.Is] regardless of how much context was layered on top:
//
//	if errors.Is(err, wire.ErrVarintOverflow) { ... }
//
// The taxonomy is part of the format contract: a new sentinel is a
// minor version, a changed meaning is a major one.
package wire

import "errors"

// Encoding errors.
var (
	// ErrOutputFull is returned when a storage flavor cannot accept
	// more bytes (a caller-supplied slice is exhausted, or an
	// underlying writer refused the data).
	ErrOutputFull = errors.New("postcard: output buffer full")
)

// Decoding errors.
var (
	// ErrInputExhausted is returned when the byte source cannot
	// supply a byte the schema requires.
	ErrInputExhausted = errors.New("postcard: input unexpectedly exhausted")

	// ErrVarintOverflow is returned when a varint exceeds its byte
	// budget or encodes a value outside the target type's range.
	ErrVarintOverflow = errors.New("postcard: varint overflows target type")

	// ErrInvalidBool is returned when a boolean byte is neither 0x00
	// nor 0x01.
	ErrInvalidBool = errors.New("postcard: invalid boolean byte")

	// ErrInvalidOptionTag is returned when an option tag byte is
	// neither 0x00 nor 0x01.
	ErrInvalidOptionTag = errors.New("postcard: invalid option tag")

	// ErrInvalidUTF8 is returned when string payload bytes are not
	// valid UTF-8.
	ErrInvalidUTF8 = errors.New("postcard: string is not valid UTF-8")

	// ErrInvalidChar is returned when a char payload does not decode
	// to exactly one Unicode scalar value.
	ErrInvalidChar = errors.New("postcard: invalid char")

	// ErrBadVariant is returned when a tagged-union discriminant is
	// not known to the caller's schema.
	ErrBadVariant = errors.New("postcard: unknown variant discriminant")

	// ErrCannotBorrow is returned when a zero-copy view is requested
	// from a source that cannot yield a contiguous borrowed run.
	ErrCannotBorrow = errors.New("postcard: source cannot lend a contiguous view")

	// ErrTrailingBytes is returned by strict decodes that complete
	// with unconsumed payload remaining.
	ErrTrailingBytes = errors.New("postcard: trailing bytes after decode")
)

// Framing and integrity errors.
var (
	// ErrBadCOBSFrame is returned when COBS frame decoding fails or
	// an accumulator discarded an over-long frame.
	ErrBadCOBSFrame = errors.New("postcard: malformed COBS frame")

	// ErrCRCMismatch is returned when a CRC trailer does not match
	// the received payload.
	ErrCRCMismatch = errors.New("postcard: CRC mismatch")

	// ErrDigestMismatch is returned when a digest trailer does not
	// match the received payload.
	ErrDigestMismatch = errors.New("postcard: digest mismatch")
)

// ErrFramework marks an error raised by the caller's walk rather than
// the codec; the schema package uses it for values that do not fit
// their schema. The codec does not add it to errors a walk returns:
// those are passed through unchanged.
var ErrFramework = errors.New("postcard: caller error")
