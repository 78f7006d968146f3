// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ser implements the serialization half of the postcard
// codec: the flavor pipeline (storage and modifier byte sinks) and
// the Serializer, which maps data-model elements onto wire bytes.
//
// The Serializer is driven by the caller's walk over its data: one
// method call per element, in schema order. It holds no state beyond
// the flavor stack it writes into, so any error leaves nothing to
// unwind — the partial output is simply invalid.
package ser

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/bureau-foundation/postcard/ints"
	"github.com/bureau-foundation/postcard/varint"
	"github.com/bureau-foundation/postcard/wire"
)

// Serializer encodes data-model elements into a flavor stack.
type Serializer struct {
	flavor  Flavor
	scratch [varint.MaxLen128]byte
}

// New creates a Serializer writing into the given flavor stack.
func New(f Flavor) *Serializer {
	return &Serializer{flavor: f}
}

// Finalize completes the flavor stack. The caller reads the finished
// output from its storage flavor afterwards.
func (s *Serializer) Finalize() error {
	return s.flavor.Finalize()
}

func (s *Serializer) varint(v uint64) error {
	return s.flavor.TryExtend(varint.Append(s.scratch[:0], v))
}

// Bool encodes a boolean as a single 0x00 or 0x01 byte.
func (s *Serializer) Bool(v bool) error {
	if v {
		return s.flavor.Push(1)
	}
	return s.flavor.Push(0)
}

// U8 encodes a u8 as one raw byte.
func (s *Serializer) U8(v uint8) error { return s.flavor.Push(v) }

// U16 encodes a u16 as a varint.
func (s *Serializer) U16(v uint16) error { return s.varint(uint64(v)) }

// U32 encodes a u32 as a varint.
func (s *Serializer) U32(v uint32) error { return s.varint(uint64(v)) }

// U64 encodes a u64 as a varint.
func (s *Serializer) U64(v uint64) error { return s.varint(v) }

// U128 encodes a u128 as a varint.
func (s *Serializer) U128(v ints.Uint128) error {
	return s.flavor.TryExtend(varint.Append128(s.scratch[:0], v))
}

// Usize encodes a platform-sized unsigned integer as a varint. The
// wire form is identical across platforms; only decode-side
// acceptance depends on the receiver's pointer width.
func (s *Serializer) Usize(v uint) error { return s.varint(uint64(v)) }

// I8 encodes an i8 as one raw byte (two's complement).
func (s *Serializer) I8(v int8) error { return s.flavor.Push(uint8(v)) }

// I16 encodes an i16 as a zigzag varint.
func (s *Serializer) I16(v int16) error { return s.varint(varint.Zigzag(int64(v))) }

// I32 encodes an i32 as a zigzag varint.
func (s *Serializer) I32(v int32) error { return s.varint(varint.Zigzag(int64(v))) }

// I64 encodes an i64 as a zigzag varint.
func (s *Serializer) I64(v int64) error { return s.varint(varint.Zigzag(v)) }

// I128 encodes an i128 as a zigzag varint.
func (s *Serializer) I128(v ints.Int128) error {
	return s.flavor.TryExtend(varint.Append128(s.scratch[:0], v.Zigzag()))
}

// Isize encodes a platform-sized signed integer as a zigzag varint.
func (s *Serializer) Isize(v int) error { return s.varint(varint.Zigzag(int64(v))) }

// F32 encodes an f32 as four little-endian bytes of its IEEE 754
// bit pattern. Floats never use varints.
func (s *Serializer) F32(v float32) error {
	bits := math.Float32bits(v)
	buf := s.scratch[:4]
	buf[0] = byte(bits)
	buf[1] = byte(bits >> 8)
	buf[2] = byte(bits >> 16)
	buf[3] = byte(bits >> 24)
	return s.flavor.TryExtend(buf)
}

// F64 encodes an f64 as eight little-endian bytes of its IEEE 754
// bit pattern.
func (s *Serializer) F64(v float64) error {
	bits := math.Float64bits(v)
	buf := s.scratch[:8]
	for i := range buf {
		buf[i] = byte(bits >> (8 * i))
	}
	return s.flavor.TryExtend(buf)
}

// Char encodes a Unicode scalar value as its UTF-8 bytes, length
// prefixed exactly like a one-character string.
func (s *Serializer) Char(r rune) error {
	if !utf8.ValidRune(r) {
		return fmt.Errorf("rune %#x: %w", r, wire.ErrInvalidChar)
	}
	enc := utf8.AppendRune(s.scratch[:1], r)
	enc[0] = byte(len(enc) - 1)
	return s.flavor.TryExtend(enc)
}

// Str encodes a string as a varint byte length followed by its UTF-8
// bytes.
func (s *Serializer) Str(v string) error {
	if err := s.varint(uint64(len(v))); err != nil {
		return err
	}
	return s.flavor.TryExtend([]byte(v))
}

// Bytes encodes a byte array as a varint length followed by the raw
// bytes.
func (s *Serializer) Bytes(v []byte) error {
	if err := s.varint(uint64(len(v))); err != nil {
		return err
	}
	return s.flavor.TryExtend(v)
}

// None encodes the empty option as a single 0x00 byte.
func (s *Serializer) None() error { return s.flavor.Push(0) }

// Some encodes the occupied option tag, a single 0x01 byte. The
// caller encodes the inner value immediately after.
func (s *Serializer) Some() error { return s.flavor.Push(1) }

// Unit encodes a unit or unit struct: zero bytes. Present so a
// schema walk has one call per element.
func (s *Serializer) Unit() error { return nil }

// SeqLen begins a sequence of n elements: a platform-sized varint
// length. The caller encodes the n elements after. Tuples, structs,
// and tuple structs carry no length and need no call here.
func (s *Serializer) SeqLen(n int) error { return s.varint(uint64(n)) }

// MapLen begins a map of n entries: a platform-sized varint length.
// The caller encodes n (key, value) pairs after.
func (s *Serializer) MapLen(n int) error { return s.varint(uint64(n)) }

// Variant encodes a tagged-union discriminant as a u32 varint. For
// newtype, tuple, and struct variants the caller encodes the payload
// after; unit variants are the discriminant alone.
func (s *Serializer) Variant(discriminant uint32) error {
	return s.varint(uint64(discriminant))
}

// Raw emits bytes with no prefix or transformation. Fixed-layout
// extensions (the fixint package) build on this.
func (s *Serializer) Raw(p []byte) error { return s.flavor.TryExtend(p) }
