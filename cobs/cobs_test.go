// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cobs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

func TestAppendEncodeVectors(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    []byte
	}{
		{"empty", []byte{}, []byte{0x01, 0x00}},
		{"single zero", []byte{0x00}, []byte{0x01, 0x01, 0x00}},
		{"no zeros", []byte{0x11, 0x22}, []byte{0x03, 0x11, 0x22, 0x00}},
		{"interior zero", []byte{0x11, 0x00, 0x22}, []byte{0x02, 0x11, 0x02, 0x22, 0x00}},
		{"trailing zero", []byte{0x11, 0x00}, []byte{0x02, 0x11, 0x01, 0x00}},
		{"reference frame", []byte{0x04, 0x01, 0x00, 0x20, 0x30}, []byte{0x03, 0x04, 0x01, 0x03, 0x20, 0x30, 0x00}},
	}
	for _, c := range cases {
		got := AppendEncode(nil, c.payload)
		if !bytes.Equal(got, c.want) {
			t.Errorf("%s: encoded %x, want %x", c.name, got, c.want)
		}
	}
}

func TestEncodedFramesHaveSingleZero(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00, 0x00, 0x00},
		bytes.Repeat([]byte{0xAB}, 300),
		append(bytes.Repeat([]byte{0x01}, 254), 0x00),
	}
	for i, payload := range payloads {
		frame := AppendEncode(nil, payload)
		if n := bytes.Count(frame, []byte{0}); n != 1 {
			t.Errorf("payload %d: %d zeros in frame %x", i, n, frame)
		}
		if frame[len(frame)-1] != 0 {
			t.Errorf("payload %d: frame does not end with delimiter", i)
		}
		decoded, err := AppendDecode(nil, frame)
		if err != nil {
			t.Fatalf("payload %d: %v", i, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("payload %d: roundtrip %x != %x", i, decoded, payload)
		}
	}
}

func TestStuffingBoundaries(t *testing.T) {
	// 254 bytes: one full 0xFF block, then an empty terminal block.
	// 255 bytes: full block plus a one-byte block.
	for _, n := range []int{253, 254, 255, 508, 509} {
		payload := bytes.Repeat([]byte{0x42}, n)
		frame := AppendEncode(nil, payload)
		decoded, err := AppendDecode(nil, frame)
		if err != nil {
			t.Fatalf("%d bytes: %v", n, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("%d bytes: roundtrip mismatch", n)
		}
	}
}

func TestAppendDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"bare delimiter", []byte{0x00}},
		{"truncated run", []byte{0x05, 0x11, 0x22}},
		{"zero inside run", []byte{0x03, 0x11, 0x00, 0x22}},
	}
	for _, c := range cases {
		if _, err := AppendDecode(nil, c.frame); !errors.Is(err, wire.ErrBadCOBSFrame) {
			t.Errorf("%s: got %v, want ErrBadCOBSFrame", c.name, err)
		}
	}
}

func TestEncoderFlavor(t *testing.T) {
	storage := ser.NewBuf()
	enc := NewEncoder(storage)
	for _, b := range []byte{0x04, 0x01, 0x00, 0x20, 0x30} {
		if err := enc.Push(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Finalize(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x03, 0x04, 0x01, 0x03, 0x20, 0x30, 0x00}
	if !bytes.Equal(storage.Bytes(), want) {
		t.Errorf("encoded %x, want %x", storage.Bytes(), want)
	}
}

func TestDecoderFlavor(t *testing.T) {
	frame := []byte{0x03, 0x04, 0x01, 0x03, 0x20, 0x30, 0x00}
	dec := NewDecoder(de.NewSlice(frame))
	var got []byte
	for range 5 {
		b, err := dec.Pop()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	if !bytes.Equal(got, []byte{0x04, 0x01, 0x00, 0x20, 0x30}) {
		t.Fatalf("unstuffed %x", got)
	}
	if _, err := dec.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestDecoderFlavorTrailingPayload(t *testing.T) {
	// Stop reading one byte early; Finalize must object.
	frame := []byte{0x03, 0x04, 0x01, 0x03, 0x20, 0x30, 0x00}
	dec := NewDecoder(de.NewSlice(frame))
	for range 4 {
		if _, err := dec.Pop(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := dec.Finalize(); !errors.Is(err, wire.ErrBadCOBSFrame) {
		t.Errorf("got %v, want ErrBadCOBSFrame", err)
	}
}

func TestAccumulatorSingleChunk(t *testing.T) {
	acc := NewAccumulator(64)
	result := acc.Feed([]byte{0x03, 0x04, 0x01, 0x03, 0x20, 0x30, 0x00})
	if result.State != FeedFrame {
		t.Fatalf("state %v", result.State)
	}
	if !bytes.Equal(result.Payload, []byte{0x04, 0x01, 0x00, 0x20, 0x30}) {
		t.Errorf("payload %x", result.Payload)
	}
	if len(result.Remaining) != 0 {
		t.Errorf("remaining %x", result.Remaining)
	}
}

func TestAccumulatorChunked(t *testing.T) {
	chunks := [][]byte{
		{0x03, 0x04},
		{0x01, 0x03, 0x20},
		{0x30, 0x00},
	}
	acc := NewAccumulator(64)
	var payload []byte
	for i, chunk := range chunks {
		result := acc.Feed(chunk)
		if i < len(chunks)-1 {
			if result.State != FeedConsumed {
				t.Fatalf("chunk %d: state %v", i, result.State)
			}
			continue
		}
		if result.State != FeedFrame {
			t.Fatalf("final chunk: state %v", result.State)
		}
		payload = result.Payload
	}
	if !bytes.Equal(payload, []byte{0x04, 0x01, 0x00, 0x20, 0x30}) {
		t.Errorf("payload %x", payload)
	}
}

func TestAccumulatorAllPartitions(t *testing.T) {
	frame := AppendEncode(nil, []byte{0x10, 0x00, 0x20, 0x00, 0x30})
	want := []byte{0x10, 0x00, 0x20, 0x00, 0x30}

	// Every two-way split must decode identically to one chunk.
	for cut := 0; cut <= len(frame); cut++ {
		acc := NewAccumulator(64)
		first := acc.Feed(frame[:cut])
		var result FeedResult
		if first.State == FeedFrame {
			result = first
		} else {
			if first.State != FeedConsumed {
				t.Fatalf("cut %d: state %v", cut, first.State)
			}
			result = acc.Feed(frame[cut:])
		}
		if result.State != FeedFrame || !bytes.Equal(result.Payload, want) {
			t.Errorf("cut %d: state %v payload %x", cut, result.State, result.Payload)
		}
	}
}

func TestAccumulatorBackToBackFrames(t *testing.T) {
	var stream []byte
	stream = AppendEncode(stream, []byte{0x01, 0x02})
	stream = AppendEncode(stream, []byte{0x03, 0x00, 0x04})

	acc := NewAccumulator(64)
	first := acc.Feed(stream)
	if first.State != FeedFrame || !bytes.Equal(first.Payload, []byte{0x01, 0x02}) {
		t.Fatalf("first: %v %x", first.State, first.Payload)
	}
	second := acc.Feed(first.Remaining)
	if second.State != FeedFrame || !bytes.Equal(second.Payload, []byte{0x03, 0x00, 0x04}) {
		t.Fatalf("second: %v %x", second.State, second.Payload)
	}
	if len(second.Remaining) != 0 {
		t.Errorf("remaining %x", second.Remaining)
	}
}

func TestAccumulatorOverflow(t *testing.T) {
	acc := NewAccumulator(8)
	frame := AppendEncode(nil, bytes.Repeat([]byte{0x55}, 32))

	var result FeedResult
	input := frame
	for {
		result = acc.Feed(input)
		if result.State != FeedConsumed {
			break
		}
		if len(input) == 0 {
			t.Fatal("stream ended without an overflow report")
		}
		input = nil
	}
	if result.State != FeedOverFull {
		t.Fatalf("state %v, want FeedOverFull", result.State)
	}

	// The accumulator recovers: the next frame decodes normally.
	next := acc.Feed(AppendEncode(nil, []byte{0xAA}))
	if next.State != FeedFrame || !bytes.Equal(next.Payload, []byte{0xAA}) {
		t.Errorf("after overflow: %v %x", next.State, next.Payload)
	}
}

func TestAccumulatorBadFrame(t *testing.T) {
	acc := NewAccumulator(64)
	// Length byte claims a five-byte run but the delimiter arrives
	// first.
	result := acc.Feed([]byte{0x06, 0x11, 0x22, 0x00, 0xAA})
	if result.State != FeedBadFrame {
		t.Fatalf("state %v, want FeedBadFrame", result.State)
	}
	if !bytes.Equal(result.Remaining, []byte{0xAA}) {
		t.Errorf("remaining %x", result.Remaining)
	}
}
