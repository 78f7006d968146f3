// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package de

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/postcard/wire"
)

// Flavor is a byte source in the deserialization pipeline. The
// innermost flavor of a stack supplies bytes (from a borrowed slice
// or a reader); outer modifier flavors pre-process bytes before they
// reach the element decoder (COBS frame decode, integrity trailer
// peel).
type Flavor interface {
	// Pop returns the next byte.
	Pop() (byte, error)

	// TryTakeN returns the next n bytes as a contiguous run borrowed
	// from the underlying input. Sources that cannot lend a view
	// return [wire.ErrCannotBorrow]; callers then fall back to
	// byte-wise copying.
	TryTakeN(n int) ([]byte, error)

	// Finalize completes the stack and returns the unconsumed tail,
	// after any integrity checks the stack performs.
	Finalize() ([]byte, error)
}

// Compile-time interface checks.
var (
	_ Flavor = (*Slice)(nil)
	_ Flavor = (*Reader)(nil)
)

// Slice is a source flavor over a borrowed input buffer. TryTakeN
// returns subslices of the input, so decoded views alias the
// caller's buffer and live as long as it does.
type Slice struct {
	data []byte
	idx  int
}

// NewSlice creates a source over data. The slice is borrowed, not
// copied.
func NewSlice(data []byte) *Slice {
	return &Slice{data: data}
}

func (s *Slice) Pop() (byte, error) {
	if s.idx >= len(s.data) {
		return 0, fmt.Errorf("source empty at offset %d: %w", s.idx, wire.ErrInputExhausted)
	}
	b := s.data[s.idx]
	s.idx++
	return b, nil
}

func (s *Slice) TryTakeN(n int) ([]byte, error) {
	if len(s.data)-s.idx < n {
		return nil, fmt.Errorf("need %d bytes, %d remain: %w", n, len(s.data)-s.idx, wire.ErrInputExhausted)
	}
	out := s.data[s.idx : s.idx+n : s.idx+n]
	s.idx += n
	return out, nil
}

func (s *Slice) Finalize() ([]byte, error) {
	return s.data[s.idx:], nil
}

// Reader is a source flavor pulling bytes from an io.Reader. It
// cannot lend borrowed views: TryTakeN always fails with
// [wire.ErrCannotBorrow] and decoders fall back to copying. Reader
// failures are lifted into the taxonomy as [wire.ErrInputExhausted]
// with the underlying error wrapped alongside.
type Reader struct {
	r   io.Reader
	one [1]byte
}

// NewReader creates a source over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) Pop() (byte, error) {
	if _, err := io.ReadFull(r.r, r.one[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("reader drained: %w", wire.ErrInputExhausted)
		}
		return 0, fmt.Errorf("read: %w: %w", wire.ErrInputExhausted, err)
	}
	return r.one[0], nil
}

func (r *Reader) TryTakeN(n int) ([]byte, error) {
	return nil, fmt.Errorf("reader source: %w", wire.ErrCannotBorrow)
}

// Finalize reports no remainder: a stream has no borrowed tail to
// hand back.
func (r *Reader) Finalize() ([]byte, error) {
	return nil, nil
}
