// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cobs implements Consistent Overhead Byte Stuffing framing
// for postcard messages: encode/decode of single frames, modifier
// flavors for both pipeline directions, and the Accumulator that
// reassembles frames from arbitrarily chunked byte streams.
//
// A COBS frame contains no interior 0x00 bytes; a single 0x00
// terminates it. Each block starts with a length byte naming the
// offset to the next stuffed zero, or 0xFF for a full 254-byte run
// with no zero.
package cobs

import (
	"fmt"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

// maxBlock is the longest run a single length byte can describe
// (0xFF encodes 254 data bytes with no implicit zero).
const maxBlock = 254

// AppendEncode appends the COBS encoding of payload to dst,
// including the terminating 0x00, and returns the extended slice.
func AppendEncode(dst, payload []byte) []byte {
	code := byte(1)
	mark := len(dst)
	dst = append(dst, 0) // length byte, patched below
	for _, b := range payload {
		if b == 0 {
			dst[mark] = code
			mark = len(dst)
			dst = append(dst, 0)
			code = 1
			continue
		}
		dst = append(dst, b)
		code++
		if code == 0xFF {
			dst[mark] = code
			mark = len(dst)
			dst = append(dst, 0)
			code = 1
		}
	}
	dst[mark] = code
	return append(dst, 0)
}

// AppendDecode appends the payload of a single COBS frame to dst.
// The frame may carry its terminating 0x00; anything after the first
// delimiter is ignored. Malformed frames (interior zeros inside a
// run, truncated runs) fail with [wire.ErrBadCOBSFrame].
func AppendDecode(dst, frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame: %w", wire.ErrBadCOBSFrame)
	}
	i := 0
	first := true
	for i < len(frame) {
		code := frame[i]
		if code == 0 {
			if first {
				return nil, fmt.Errorf("empty frame: %w", wire.ErrBadCOBSFrame)
			}
			return dst, nil
		}
		if !first {
			dst = append(dst, 0)
		}
		i++
		run := int(code) - 1
		if i+run > len(frame) {
			return nil, fmt.Errorf("run of %d bytes truncated: %w", run, wire.ErrBadCOBSFrame)
		}
		for _, b := range frame[i : i+run] {
			if b == 0 {
				return nil, fmt.Errorf("zero inside run: %w", wire.ErrBadCOBSFrame)
			}
			dst = append(dst, b)
		}
		i += run
		first = code == 0xFF
	}
	// Frame ended without a delimiter: accept, the caller stripped it.
	return dst, nil
}

// Encoder is a serialization modifier flavor that COBS-encodes every
// byte pushed through it. Finalize flushes the final block, emits
// the terminating 0x00, and finalizes the inner flavor.
type Encoder struct {
	inner ser.Flavor
	block [maxBlock]byte
	fill  int
}

var _ ser.Flavor = (*Encoder)(nil)

// NewEncoder wraps inner with COBS framing.
func NewEncoder(inner ser.Flavor) *Encoder {
	return &Encoder{inner: inner}
}

func (e *Encoder) Push(b byte) error {
	if b == 0 {
		return e.flush(false)
	}
	e.block[e.fill] = b
	e.fill++
	if e.fill == maxBlock {
		return e.flush(true)
	}
	return nil
}

func (e *Encoder) TryExtend(data []byte) error {
	for _, b := range data {
		if err := e.Push(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) Finalize() error {
	if err := e.flush(false); err != nil {
		return err
	}
	if err := e.inner.Push(0); err != nil {
		return err
	}
	return e.inner.Finalize()
}

// flush emits the buffered block behind its length byte. A full
// block takes code 0xFF and implies no stuffed zero.
func (e *Encoder) flush(full bool) error {
	code := byte(e.fill + 1)
	if full {
		code = 0xFF
	}
	if err := e.inner.Push(code); err != nil {
		return err
	}
	if err := e.inner.TryExtend(e.block[:e.fill]); err != nil {
		return err
	}
	e.fill = 0
	return nil
}

// Decoder is a deserialization modifier flavor that decodes one COBS
// frame from its inner source. Bytes are unstuffed on the way
// through; the frame's terminating 0x00 ends the supply. Finalize
// verifies that the delimiter was reached and no payload remains
// inside the frame.
type Decoder struct {
	inner de.Flavor
	run   int  // bytes left in the current block
	pend  bool // a stuffed zero follows the current block
	done  bool // delimiter consumed
}

var _ de.Flavor = (*Decoder)(nil)

// NewDecoder wraps inner with COBS frame decoding.
func NewDecoder(inner de.Flavor) *Decoder {
	return &Decoder{inner: inner}
}

func (d *Decoder) Pop() (byte, error) {
	for {
		if d.done {
			return 0, fmt.Errorf("frame ended: %w", wire.ErrInputExhausted)
		}
		if d.run > 0 {
			b, err := d.inner.Pop()
			if err != nil {
				return 0, err
			}
			if b == 0 {
				return 0, fmt.Errorf("delimiter inside run: %w", wire.ErrBadCOBSFrame)
			}
			d.run--
			return b, nil
		}
		code, err := d.inner.Pop()
		if err != nil {
			return 0, err
		}
		if code == 0 {
			d.done = true
			continue
		}
		d.run = int(code) - 1
		zero := d.pend
		d.pend = code != 0xFF
		if zero {
			return 0, nil
		}
	}
}

// TryTakeN cannot lend views: unstuffing transforms the stream.
func (d *Decoder) TryTakeN(n int) ([]byte, error) {
	return nil, fmt.Errorf("COBS decoder: %w", wire.ErrCannotBorrow)
}

func (d *Decoder) Finalize() ([]byte, error) {
	if d.run > 0 {
		return nil, fmt.Errorf("%d payload bytes left in frame: %w", d.run, wire.ErrBadCOBSFrame)
	}
	if !d.done {
		// The delimiter has not been read yet; it must be next.
		code, err := d.inner.Pop()
		if err != nil {
			return nil, err
		}
		if code != 0 {
			return nil, fmt.Errorf("payload after decoded message: %w", wire.ErrBadCOBSFrame)
		}
	}
	return d.inner.Finalize()
}
