// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package postcard

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/postcard/cobs"
	"github.com/bureau-foundation/postcard/crcmod"
	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/digest"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

// Sentinel errors, re-exported from the wire package so callers can
// discriminate kinds without an extra import.
var (
	ErrOutputFull       = wire.ErrOutputFull
	ErrInputExhausted   = wire.ErrInputExhausted
	ErrVarintOverflow   = wire.ErrVarintOverflow
	ErrInvalidBool      = wire.ErrInvalidBool
	ErrInvalidOptionTag = wire.ErrInvalidOptionTag
	ErrInvalidUTF8      = wire.ErrInvalidUTF8
	ErrInvalidChar      = wire.ErrInvalidChar
	ErrBadVariant       = wire.ErrBadVariant
	ErrCannotBorrow     = wire.ErrCannotBorrow
	ErrTrailingBytes    = wire.ErrTrailingBytes
	ErrBadCOBSFrame     = wire.ErrBadCOBSFrame
	ErrCRCMismatch      = wire.ErrCRCMismatch
	ErrDigestMismatch   = wire.ErrDigestMismatch
	ErrFramework        = wire.ErrFramework
)

// EncodeFunc walks a value against a Serializer, one call per
// data-model element in schema order.
type EncodeFunc func(*ser.Serializer) error

// DecodeFunc performs the mirror-image walk against a Deserializer.
type DecodeFunc func(*de.Deserializer) error

func encode(f ser.Flavor, fn EncodeFunc) error {
	s := ser.New(f)
	if err := fn(s); err != nil {
		return err
	}
	return s.Finalize()
}

// ToSlice encodes into the caller's buffer and returns the written
// prefix. Fails with [ErrOutputFull] when buf is too small.
func ToSlice(buf []byte, fn EncodeFunc) ([]byte, error) {
	storage := ser.NewSlice(buf)
	if err := encode(storage, fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToBytes encodes into a growing buffer.
func ToBytes(fn EncodeFunc) ([]byte, error) {
	storage := ser.NewBuf()
	if err := encode(storage, fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToWriter encodes directly to w.
func ToWriter(w io.Writer, fn EncodeFunc) error {
	return encode(ser.NewWriter(w), fn)
}

// SizeOf returns the exact encoded size of a value without producing
// output, by running the walk against a counting sink. It agrees
// byte-for-byte with ToSlice and ToBytes for every value.
func SizeOf(fn EncodeFunc) (int, error) {
	storage := ser.NewCount()
	if err := encode(storage, fn); err != nil {
		return 0, err
	}
	return storage.Len(), nil
}

// ToSliceCOBS encodes as a single COBS frame (terminating 0x00
// included) into the caller's buffer.
func ToSliceCOBS(buf []byte, fn EncodeFunc) ([]byte, error) {
	storage := ser.NewSlice(buf)
	if err := encode(cobs.NewEncoder(storage), fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToBytesCOBS encodes as a single COBS frame into a growing buffer.
func ToBytesCOBS(fn EncodeFunc) ([]byte, error) {
	storage := ser.NewBuf()
	if err := encode(cobs.NewEncoder(storage), fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToSliceCRC encodes with a trailing CRC into the caller's buffer.
func ToSliceCRC(buf []byte, d crcmod.Digest, fn EncodeFunc) ([]byte, error) {
	storage := ser.NewSlice(buf)
	if err := encode(crcmod.NewSer(storage, d), fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToBytesCRC encodes with a trailing CRC into a growing buffer.
func ToBytesCRC(d crcmod.Digest, fn EncodeFunc) ([]byte, error) {
	storage := ser.NewBuf()
	if err := encode(crcmod.NewSer(storage, d), fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// ToBytesDigest encodes with a trailing BLAKE3 digest into a growing
// buffer.
func ToBytesDigest(fn EncodeFunc) ([]byte, error) {
	storage := ser.NewBuf()
	if err := encode(digest.NewSer(storage), fn); err != nil {
		return nil, err
	}
	return storage.Bytes(), nil
}

// FromBytes decodes a value from data. The decode is strict: any
// unconsumed payload fails with [ErrTrailingBytes]. Views returned
// by the walk borrow data.
func FromBytes(data []byte, fn DecodeFunc) error {
	remainder, err := decodeFlavor(de.NewSlice(data), fn)
	if err != nil {
		return err
	}
	if len(remainder) != 0 {
		return fmt.Errorf("%d bytes remain: %w", len(remainder), wire.ErrTrailingBytes)
	}
	return nil
}

// TakeFromBytes decodes a value from the front of data and returns
// the unconsumed remainder, for callers that pack multiple messages
// back to back.
func TakeFromBytes(data []byte, fn DecodeFunc) ([]byte, error) {
	return decodeFlavor(de.NewSlice(data), fn)
}

// FromReader decodes a value from r. Borrowed views are unavailable
// on a stream; the walk must use the copying element forms.
func FromReader(r io.Reader, fn DecodeFunc) error {
	_, err := decodeFlavor(de.NewReader(r), fn)
	return err
}

// FromBytesCOBS decodes a single COBS frame (with or without its
// terminating 0x00) and then strictly decodes the payload. Views
// borrow the unstuffed copy, which the caller may discard after the
// walk extracts what it needs.
func FromBytesCOBS(data []byte, fn DecodeFunc) error {
	payload, err := cobs.AppendDecode(nil, data)
	if err != nil {
		return err
	}
	return FromBytes(payload, fn)
}

// FromBytesCRC verifies and peels a trailing CRC, then strictly
// decodes the payload.
func FromBytesCRC(data []byte, d crcmod.Digest, fn DecodeFunc) error {
	flavor, err := crcmod.NewDe(data, d)
	if err != nil {
		return err
	}
	remainder, err := decodeFlavor(flavor, fn)
	if err != nil {
		return err
	}
	if len(remainder) != 0 {
		return fmt.Errorf("%d bytes remain: %w", len(remainder), wire.ErrTrailingBytes)
	}
	return nil
}

// FromBytesDigest verifies and peels a trailing BLAKE3 digest, then
// strictly decodes the payload.
func FromBytesDigest(data []byte, fn DecodeFunc) error {
	flavor, err := digest.NewDe(data)
	if err != nil {
		return err
	}
	remainder, err := decodeFlavor(flavor, fn)
	if err != nil {
		return err
	}
	if len(remainder) != 0 {
		return fmt.Errorf("%d bytes remain: %w", len(remainder), wire.ErrTrailingBytes)
	}
	return nil
}

func decodeFlavor(f de.Flavor, fn DecodeFunc) ([]byte, error) {
	d := de.New(f)
	if err := fn(d); err != nil {
		return nil, err
	}
	return d.Finalize()
}
