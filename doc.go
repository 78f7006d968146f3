// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package postcard implements the postcard wire format: a compact,
// non-self-describing binary codec for constrained environments
// interoperating with capable hosts.
//
// Producer and consumer share a schema out of band; the wire carries
// no field names, type tags, or inferable lengths. Integers ride a
// little-endian base-128 varint (signed ones through zigzag), floats
// are fixed little-endian IEEE 754, and aggregates are concatenated
// in schema order with varint lengths only where the schema cannot
// supply them.
//
// Encoding and decoding run through "flavor" stacks: the innermost
// flavor owns the storage (caller slice, growing buffer, counter,
// io.Writer/Reader), outer modifiers transform bytes en route (COBS
// framing, CRC or BLAKE3 trailers). This package wires the common
// stacks; the ser, de, cobs, crcmod, and digest packages expose the
// pieces for custom composition.
//
// A value is encoded by walking it element by element against a
// [ser.Serializer], and decoded by the mirror-image walk against a
// [de.Deserializer]:
//
//	raw, err := postcard.ToBytes(func(s *ser.Serializer) error {
//	    if err := s.Bytes(msg.Payload); err != nil {
//	        return err
//	    }
//	    return s.Str(msg.Note)
//	})
//
// The schema package drives the same walk from a runtime schema for
// dynamic tooling; the stream package carries framed messages over
// byte streams; the cobs package reassembles frames from chunked
// transports.
//
// Every error the codec raises wraps one of the sentinel kinds
// re-exported here from the wire package; discriminate with
// [errors.Is]. An error returned by the caller's own walk is passed
// through unchanged, without a sentinel added.
package postcard
