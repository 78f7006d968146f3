// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides BLAKE3 trailer flavors, the
// stronger-than-CRC integrity option for host-to-host links. The
// shape mirrors the CRC flavors: encode appends a truncated BLAKE3
// digest of the payload, decode withholds and verifies it.
//
// The trailer is the first 16 bytes of the BLAKE3 hash. This is an
// integrity check against corruption, not authentication: there is
// no key, and anyone can recompute the digest.
package digest

import (
	"crypto/subtle"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

// Size is the trailer width in bytes.
const Size = 16

// Ser is a serialization modifier appending a BLAKE3 trailer.
type Ser struct {
	inner ser.Flavor
	h     *blake3.Hasher
	one   [1]byte
}

var _ ser.Flavor = (*Ser)(nil)

// NewSer wraps inner with a BLAKE3 trailer.
func NewSer(inner ser.Flavor) *Ser {
	return &Ser{inner: inner, h: blake3.New()}
}

func (s *Ser) Push(b byte) error {
	s.one[0] = b
	s.h.Write(s.one[:])
	return s.inner.Push(b)
}

func (s *Ser) TryExtend(data []byte) error {
	s.h.Write(data)
	return s.inner.TryExtend(data)
}

func (s *Ser) Finalize() error {
	sum := s.h.Sum(nil)
	if err := s.inner.TryExtend(sum[:Size]); err != nil {
		return err
	}
	return s.inner.Finalize()
}

// De is a deserialization modifier verifying a trailing BLAKE3
// digest at Finalize. The digest covers the whole payload, consumed
// or not.
type De struct {
	payload *de.Slice
	trailer []byte
	h       *blake3.Hasher
	one     [1]byte
}

var _ de.Flavor = (*De)(nil)

// NewDe creates a digest-checking source over data. The final 16
// bytes are the expected trailer; the rest is payload.
func NewDe(data []byte) (*De, error) {
	if len(data) < Size {
		return nil, fmt.Errorf("input of %d bytes shorter than %d-byte digest trailer: %w", len(data), Size, wire.ErrInputExhausted)
	}
	split := len(data) - Size
	return &De{
		payload: de.NewSlice(data[:split]),
		trailer: data[split:],
		h:       blake3.New(),
	}, nil
}

func (d *De) Pop() (byte, error) {
	b, err := d.payload.Pop()
	if err != nil {
		return 0, err
	}
	d.one[0] = b
	d.h.Write(d.one[:])
	return b, nil
}

func (d *De) TryTakeN(n int) ([]byte, error) {
	run, err := d.payload.TryTakeN(n)
	if err != nil {
		return nil, err
	}
	d.h.Write(run)
	return run, nil
}

func (d *De) Finalize() ([]byte, error) {
	remainder, err := d.payload.Finalize()
	if err != nil {
		return nil, err
	}
	d.h.Write(remainder)
	sum := d.h.Sum(nil)
	if subtle.ConstantTimeCompare(sum[:Size], d.trailer) != 1 {
		return nil, fmt.Errorf("trailer % x: %w", d.trailer, wire.ErrDigestMismatch)
	}
	return remainder, nil
}
