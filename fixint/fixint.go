// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fixint encodes integer fields as raw fixed-width bytes
// instead of varints. It is a per-field schema option: both sides
// must agree out of band on which fields opt out, exactly as they
// agree on the schema itself.
//
// Fixed-width fields give maximally predictable sizes for streaming
// headers, and a choice of byte order for zero-copy interop with
// layouts the peer dictates. Platform-sized integers are
// deliberately unsupported: a raw usize is not portable between
// pointer widths.
package fixint

import (
	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
)

// PutU16LE writes v as two little-endian bytes.
func PutU16LE(s *ser.Serializer, v uint16) error {
	return s.Raw([]byte{byte(v), byte(v >> 8)})
}

// PutU32LE writes v as four little-endian bytes.
func PutU32LE(s *ser.Serializer, v uint32) error {
	return s.Raw([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// PutU64LE writes v as eight little-endian bytes.
func PutU64LE(s *ser.Serializer, v uint64) error {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	return s.Raw(buf)
}

// PutU16BE writes v as two big-endian bytes.
func PutU16BE(s *ser.Serializer, v uint16) error {
	return s.Raw([]byte{byte(v >> 8), byte(v)})
}

// PutU32BE writes v as four big-endian bytes.
func PutU32BE(s *ser.Serializer, v uint32) error {
	return s.Raw([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// PutU64BE writes v as eight big-endian bytes.
func PutU64BE(s *ser.Serializer, v uint64) error {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = byte(v >> (8 * (7 - i)))
	}
	return s.Raw(buf)
}

// PutI16LE writes v as two little-endian two's-complement bytes.
func PutI16LE(s *ser.Serializer, v int16) error { return PutU16LE(s, uint16(v)) }

// PutI32LE writes v as four little-endian two's-complement bytes.
func PutI32LE(s *ser.Serializer, v int32) error { return PutU32LE(s, uint32(v)) }

// PutI64LE writes v as eight little-endian two's-complement bytes.
func PutI64LE(s *ser.Serializer, v int64) error { return PutU64LE(s, uint64(v)) }

// PutI16BE writes v as two big-endian two's-complement bytes.
func PutI16BE(s *ser.Serializer, v int16) error { return PutU16BE(s, uint16(v)) }

// PutI32BE writes v as four big-endian two's-complement bytes.
func PutI32BE(s *ser.Serializer, v int32) error { return PutU32BE(s, uint32(v)) }

// PutI64BE writes v as eight big-endian two's-complement bytes.
func PutI64BE(s *ser.Serializer, v int64) error { return PutU64BE(s, uint64(v)) }

func take(d *de.Deserializer, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := d.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// U16LE reads two little-endian bytes.
func U16LE(d *de.Deserializer) (uint16, error) {
	b, err := take(d, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// U32LE reads four little-endian bytes.
func U32LE(d *de.Deserializer) (uint32, error) {
	b, err := take(d, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// U64LE reads eight little-endian bytes.
func U64LE(d *de.Deserializer) (uint64, error) {
	b, err := take(d, 8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v, nil
}

// U16BE reads two big-endian bytes.
func U16BE(d *de.Deserializer) (uint16, error) {
	b, err := take(d, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// U32BE reads four big-endian bytes.
func U32BE(d *de.Deserializer) (uint32, error) {
	b, err := take(d, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// U64BE reads eight big-endian bytes.
func U64BE(d *de.Deserializer) (uint64, error) {
	b, err := take(d, 8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * (7 - i))
	}
	return v, nil
}

// I16LE reads two little-endian two's-complement bytes.
func I16LE(d *de.Deserializer) (int16, error) {
	v, err := U16LE(d)
	return int16(v), err
}

// I32LE reads four little-endian two's-complement bytes.
func I32LE(d *de.Deserializer) (int32, error) {
	v, err := U32LE(d)
	return int32(v), err
}

// I64LE reads eight little-endian two's-complement bytes.
func I64LE(d *de.Deserializer) (int64, error) {
	v, err := U64LE(d)
	return int64(v), err
}

// I16BE reads two big-endian two's-complement bytes.
func I16BE(d *de.Deserializer) (int16, error) {
	v, err := U16BE(d)
	return int16(v), err
}

// I32BE reads four big-endian two's-complement bytes.
func I32BE(d *de.Deserializer) (int32, error) {
	v, err := U32BE(d)
	return int32(v), err
}

// I64BE reads eight big-endian two's-complement bytes.
func I64BE(d *de.Deserializer) (int64, error) {
	v, err := U64BE(d)
	return int64(v), err
}
