// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package de implements the deserialization half of the postcard
// codec: the flavor pipeline (byte sources and modifiers) and the
// Deserializer, a pull-driven element supplier.
//
// The caller's schema walk asks for one element at a time; the
// Deserializer performs no lookahead and holds no buffer beyond what
// its source flavor requires. On error the cursor position is
// defined (just past the last consumed byte) but any partially
// decoded value must be discarded.
package de

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"unicode/utf8"

	"github.com/bureau-foundation/postcard/ints"
	"github.com/bureau-foundation/postcard/varint"
	"github.com/bureau-foundation/postcard/wire"
)

// Deserializer decodes data-model elements from a flavor stack.
type Deserializer struct {
	flavor  Flavor
	scratch [8]byte
}

// New creates a Deserializer reading from the given flavor stack.
func New(f Flavor) *Deserializer {
	return &Deserializer{flavor: f}
}

// Finalize completes the flavor stack and returns the unconsumed
// remainder. Integrity modifiers (CRC, digest) run their checks
// here.
func (d *Deserializer) Finalize() ([]byte, error) {
	return d.flavor.Finalize()
}

// uvarint decodes an unsigned varint bounded by the given bit width.
func (d *Deserializer) uvarint(width uint) (uint64, error) {
	maxLen := int(width+6) / 7
	var out uint64
	for i := 0; i < maxLen; i++ {
		b, err := d.flavor.Pop()
		if err != nil {
			return 0, err
		}
		out |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			if i == maxLen-1 && b > varint.LastByteMax(width) {
				return 0, fmt.Errorf("final varint byte 0x%02x exceeds %d-bit range: %w", b, width, wire.ErrVarintOverflow)
			}
			return out, nil
		}
	}
	return 0, fmt.Errorf("varint continues past %d-byte budget: %w", maxLen, wire.ErrVarintOverflow)
}

// Bool decodes a boolean byte; only 0x00 and 0x01 are accepted.
func (d *Deserializer) Bool() (bool, error) {
	b, err := d.flavor.Pop()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("byte 0x%02x: %w", b, wire.ErrInvalidBool)
	}
}

// U8 decodes a u8.
func (d *Deserializer) U8() (uint8, error) { return d.flavor.Pop() }

// U16 decodes a u16 varint.
func (d *Deserializer) U16() (uint16, error) {
	v, err := d.uvarint(16)
	return uint16(v), err
}

// U32 decodes a u32 varint.
func (d *Deserializer) U32() (uint32, error) {
	v, err := d.uvarint(32)
	return uint32(v), err
}

// U64 decodes a u64 varint.
func (d *Deserializer) U64() (uint64, error) { return d.uvarint(64) }

// U128 decodes a u128 varint.
func (d *Deserializer) U128() (ints.Uint128, error) {
	var out ints.Uint128
	for i := 0; i < varint.MaxLen128; i++ {
		b, err := d.flavor.Pop()
		if err != nil {
			return ints.Uint128{}, err
		}
		carry := uint64(b & 0x7F)
		shift := 7 * i
		switch {
		case shift < 64:
			out.Lo |= carry << shift
			if shift+7 > 64 {
				out.Hi |= carry >> (64 - shift)
			}
		default:
			out.Hi |= carry << (shift - 64)
		}
		if b&0x80 == 0 {
			if i == varint.MaxLen128-1 && b > varint.LastByteMax(128) {
				return ints.Uint128{}, fmt.Errorf("final varint byte 0x%02x exceeds 128-bit range: %w", b, wire.ErrVarintOverflow)
			}
			return out, nil
		}
	}
	return ints.Uint128{}, fmt.Errorf("varint continues past %d-byte budget: %w", varint.MaxLen128, wire.ErrVarintOverflow)
}

// Usize decodes a platform-sized unsigned integer. Values exceeding
// this build's pointer width are rejected, so a 64-bit sender cannot
// smuggle an oversized length to a 32-bit receiver.
func (d *Deserializer) Usize() (uint, error) {
	v, err := d.uvarint(uint(bits.UintSize))
	return uint(v), err
}

// I8 decodes an i8.
func (d *Deserializer) I8() (int8, error) {
	b, err := d.flavor.Pop()
	return int8(b), err
}

// I16 decodes an i16 zigzag varint.
func (d *Deserializer) I16() (int16, error) {
	v, err := d.uvarint(16)
	return int16(varint.Unzigzag(v)), err
}

// I32 decodes an i32 zigzag varint.
func (d *Deserializer) I32() (int32, error) {
	v, err := d.uvarint(32)
	return int32(varint.Unzigzag(v)), err
}

// I64 decodes an i64 zigzag varint.
func (d *Deserializer) I64() (int64, error) {
	v, err := d.uvarint(64)
	return varint.Unzigzag(v), err
}

// I128 decodes an i128 zigzag varint.
func (d *Deserializer) I128() (ints.Int128, error) {
	v, err := d.U128()
	return v.Unzigzag(), err
}

// Isize decodes a platform-sized signed integer.
func (d *Deserializer) Isize() (int, error) {
	v, err := d.uvarint(uint(bits.UintSize))
	return int(varint.Unzigzag(v)), err
}

// F32 decodes four little-endian bytes into a float32.
func (d *Deserializer) F32() (float32, error) {
	if err := d.ReadFull(d.scratch[:4]); err != nil {
		return 0, err
	}
	v := uint32(d.scratch[0]) | uint32(d.scratch[1])<<8 |
		uint32(d.scratch[2])<<16 | uint32(d.scratch[3])<<24
	return math.Float32frombits(v), nil
}

// F64 decodes eight little-endian bytes into a float64.
func (d *Deserializer) F64() (float64, error) {
	if err := d.ReadFull(d.scratch[:8]); err != nil {
		return 0, err
	}
	var v uint64
	for i, b := range d.scratch {
		v |= uint64(b) << (8 * i)
	}
	return math.Float64frombits(v), nil
}

// Char decodes a length-prefixed UTF-8 sequence that must form
// exactly one Unicode scalar value.
func (d *Deserializer) Char() (rune, error) {
	n, err := d.Len()
	if err != nil {
		return 0, err
	}
	if n == 0 || n > utf8.UTFMax {
		return 0, fmt.Errorf("char of %d bytes: %w", n, wire.ErrInvalidChar)
	}
	buf := d.scratch[:n]
	if err := d.ReadFull(buf); err != nil {
		return 0, err
	}
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 || size != n {
		return 0, fmt.Errorf("bytes % x: %w", buf, wire.ErrInvalidChar)
	}
	return r, nil
}

// Len decodes the platform-sized varint length that prefixes
// strings, byte arrays, sequences, and maps. Exposed separately so
// callers can pre-allocate destination buffers before taking the
// payload.
func (d *Deserializer) Len() (int, error) {
	v, err := d.uvarint(uint(bits.UintSize))
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt {
		return 0, fmt.Errorf("length %d: %w", v, wire.ErrVarintOverflow)
	}
	return int(v), nil
}

// SeqLen decodes a sequence length prefix.
func (d *Deserializer) SeqLen() (int, error) { return d.Len() }

// MapLen decodes a map entry-count prefix.
func (d *Deserializer) MapLen() (int, error) { return d.Len() }

// Option decodes an option tag: false for empty. When true, the
// caller decodes the inner value next.
func (d *Deserializer) Option() (bool, error) {
	b, err := d.flavor.Pop()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("tag 0x%02x: %w", b, wire.ErrInvalidOptionTag)
	}
}

// Variant decodes a tagged-union discriminant (u32 varint). Mapping
// the discriminant to a variant is the caller's job; report an
// unknown one with [wire.ErrBadVariant].
func (d *Deserializer) Variant() (uint32, error) {
	v, err := d.uvarint(32)
	return uint32(v), err
}

// TakeN returns the next n payload bytes as a view borrowed from the
// source. Fails with [wire.ErrCannotBorrow] when the source cannot
// lend contiguous runs; use [Deserializer.ReadFull] then.
func (d *Deserializer) TakeN(n int) ([]byte, error) {
	return d.flavor.TryTakeN(n)
}

// ReadFull fills dst with the next len(dst) payload bytes, copying
// through whatever path the source supports.
func (d *Deserializer) ReadFull(dst []byte) error {
	run, err := d.flavor.TryTakeN(len(dst))
	if err == nil {
		copy(dst, run)
		return nil
	}
	if !errors.Is(err, wire.ErrCannotBorrow) {
		return err
	}
	for i := range dst {
		b, err := d.flavor.Pop()
		if err != nil {
			return err
		}
		dst[i] = b
	}
	return nil
}

// TakeBytes decodes a byte array as a zero-copy view of the source.
func (d *Deserializer) TakeBytes() ([]byte, error) {
	n, err := d.Len()
	if err != nil {
		return nil, err
	}
	return d.TakeN(n)
}

// Bytes decodes a byte array into freshly allocated memory. Works on
// any source.
func (d *Deserializer) Bytes() ([]byte, error) {
	n, err := d.Len()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := d.ReadFull(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TakeStr decodes a string as a zero-copy view of the source,
// validated as UTF-8.
func (d *Deserializer) TakeStr() ([]byte, error) {
	v, err := d.TakeBytes()
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(v) {
		return nil, fmt.Errorf("%d-byte string: %w", len(v), wire.ErrInvalidUTF8)
	}
	return v, nil
}

// Str decodes a string, validated as UTF-8. Works on any source.
func (d *Deserializer) Str() (string, error) {
	v, err := d.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v) {
		return "", fmt.Errorf("%d-byte string: %w", len(v), wire.ErrInvalidUTF8)
	}
	return string(v), nil
}
