// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package crcmod provides CRC trailer flavors for the postcard
// pipelines: on encode a running CRC over every byte passed through,
// appended little-endian at finalization; on decode the trailing CRC
// is withheld from the element decoder, recomputed, and verified.
//
// The algorithm is configurable by width and parameter set: CRC-32
// via hash/crc32 tables, CRC-16 and CRC-8 via the sigurn parameter
// catalogs. Trailer width follows the algorithm (4, 2, or 1 bytes).
package crcmod

import (
	"fmt"
	"hash/crc32"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

// Digest is a running checksum with a fixed trailer width. Sum may
// be called at any point without disturbing the running state.
type Digest interface {
	Update(p []byte)
	Sum() uint64
	Size() int
}

// NewCRC32 creates a CRC-32 digest over the given table, e.g.
// crc32.MakeTable(crc32.Castagnoli) for CRC-32/ISCSI or
// crc32.IEEETable for the IEEE polynomial.
func NewCRC32(tab *crc32.Table) Digest {
	return &crc32Digest{tab: tab}
}

type crc32Digest struct {
	tab *crc32.Table
	crc uint32
}

func (d *crc32Digest) Update(p []byte) { d.crc = crc32.Update(d.crc, d.tab, p) }
func (d *crc32Digest) Sum() uint64     { return uint64(d.crc) }
func (d *crc32Digest) Size() int       { return 4 }

// NewCRC16 creates a CRC-16 digest from a sigurn parameter set, e.g.
// crc16.CRC16_ARC or crc16.CRC16_CCITT_FALSE.
func NewCRC16(params crc16.Params) Digest {
	tab := crc16.MakeTable(params)
	return &crc16Digest{tab: tab, crc: crc16.Init(tab)}
}

type crc16Digest struct {
	tab *crc16.Table
	crc uint16
}

func (d *crc16Digest) Update(p []byte) { d.crc = crc16.Update(d.crc, p, d.tab) }
func (d *crc16Digest) Sum() uint64     { return uint64(crc16.Complete(d.crc, d.tab)) }
func (d *crc16Digest) Size() int       { return 2 }

// NewCRC8 creates a CRC-8 digest from a sigurn parameter set, e.g.
// crc8.CRC8 or crc8.CRC8_MAXIM.
func NewCRC8(params crc8.Params) Digest {
	tab := crc8.MakeTable(params)
	return &crc8Digest{tab: tab, crc: crc8.Init(tab)}
}

type crc8Digest struct {
	tab *crc8.Table
	crc uint8
}

func (d *crc8Digest) Update(p []byte) { d.crc = crc8.Update(d.crc, p, d.tab) }
func (d *crc8Digest) Sum() uint64     { return uint64(crc8.Complete(d.crc, d.tab)) }
func (d *crc8Digest) Size() int       { return 1 }

// Trailer returns the little-endian trailer bytes of d's current
// sum.
func Trailer(d Digest) []byte {
	out := make([]byte, d.Size())
	sum := d.Sum()
	for i := range out {
		out[i] = byte(sum >> (8 * i))
	}
	return out
}

// Ser is a serialization modifier appending a CRC trailer. Bytes
// pass through unchanged; Finalize emits the trailer to the inner
// flavor before finalizing it.
type Ser struct {
	inner  ser.Flavor
	digest Digest
	one    [1]byte
}

var _ ser.Flavor = (*Ser)(nil)

// NewSer wraps inner with a CRC trailer using the given digest.
func NewSer(inner ser.Flavor, d Digest) *Ser {
	return &Ser{inner: inner, digest: d}
}

func (s *Ser) Push(b byte) error {
	s.one[0] = b
	s.digest.Update(s.one[:])
	return s.inner.Push(b)
}

func (s *Ser) TryExtend(data []byte) error {
	s.digest.Update(data)
	return s.inner.TryExtend(data)
}

func (s *Ser) Finalize() error {
	if err := s.inner.TryExtend(Trailer(s.digest)); err != nil {
		return err
	}
	return s.inner.Finalize()
}

// De is a deserialization modifier that withholds the trailing CRC
// bytes from the element decoder and verifies them at Finalize. The
// CRC covers the whole payload: bytes the decoder never consumed are
// still checked.
type De struct {
	payload *de.Slice
	trailer []byte
	digest  Digest
	one     [1]byte
}

var _ de.Flavor = (*De)(nil)

// NewDe creates a CRC-checking source over data. The final
// digest-width bytes are the expected trailer; the rest is payload.
func NewDe(data []byte, d Digest) (*De, error) {
	k := d.Size()
	if len(data) < k {
		return nil, fmt.Errorf("input of %d bytes shorter than %d-byte CRC trailer: %w", len(data), k, wire.ErrInputExhausted)
	}
	split := len(data) - k
	return &De{
		payload: de.NewSlice(data[:split]),
		trailer: data[split:],
		digest:  d,
	}, nil
}

func (c *De) Pop() (byte, error) {
	b, err := c.payload.Pop()
	if err != nil {
		return 0, err
	}
	c.one[0] = b
	c.digest.Update(c.one[:])
	return b, nil
}

func (c *De) TryTakeN(n int) ([]byte, error) {
	run, err := c.payload.TryTakeN(n)
	if err != nil {
		return nil, err
	}
	c.digest.Update(run)
	return run, nil
}

func (c *De) Finalize() ([]byte, error) {
	remainder, err := c.payload.Finalize()
	if err != nil {
		return nil, err
	}
	c.digest.Update(remainder)
	sum := c.digest.Sum()
	var got uint64
	for i, b := range c.trailer {
		got |= uint64(b) << (8 * i)
	}
	if got != sum {
		return nil, fmt.Errorf("trailer 0x%x, computed 0x%x: %w", got, sum, wire.ErrCRCMismatch)
	}
	return remainder, nil
}
