// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cobs

import "fmt"

// FeedState classifies the outcome of feeding a chunk to an
// Accumulator.
type FeedState int

const (
	// FeedConsumed: the whole chunk was absorbed; no frame finished.
	FeedConsumed FeedState = iota

	// FeedOverFull: a frame outgrew the accumulator's buffer and was
	// discarded. Remaining holds the unconsumed tail.
	FeedOverFull

	// FeedBadFrame: a delimiter arrived but the accumulated frame
	// failed COBS decoding. Remaining holds the unconsumed tail.
	FeedBadFrame

	// FeedFrame: a complete frame was decoded. Payload holds the
	// unstuffed bytes, Remaining the unconsumed tail.
	FeedFrame
)

// String returns the state name for diagnostics.
func (s FeedState) String() string {
	switch s {
	case FeedConsumed:
		return "consumed"
	case FeedOverFull:
		return "overfull"
	case FeedBadFrame:
		return "bad-frame"
	case FeedFrame:
		return "frame"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// FeedResult is the outcome of one Feed call. When State is
// FeedFrame, Payload is valid until the next Feed or Reset.
// Remaining is the tail of the input chunk that was not consumed;
// the caller re-feeds it to pick up the next frame. No input byte is
// ever lost.
type FeedResult struct {
	State     FeedState
	Payload   []byte
	Remaining []byte
}

// Accumulator reassembles COBS frames from a byte stream delivered
// in arbitrary chunks. It owns a fixed-capacity buffer; frames
// larger than the buffer are discarded up to their delimiter and
// reported as FeedOverFull.
//
// One accumulator serves one logical stream. It is not safe for
// concurrent use.
type Accumulator struct {
	buf      []byte
	fill     int
	overflow bool
	payload  []byte
}

// NewAccumulator creates an accumulator holding frames of up to
// capacity encoded bytes (delimiter included).
func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{
		buf:     make([]byte, capacity),
		payload: make([]byte, 0, capacity),
	}
}

// Reset discards any partial frame, returning to the idle state.
func (a *Accumulator) Reset() {
	a.fill = 0
	a.overflow = false
}

// Feed consumes input up to and including the first frame delimiter.
// Call it in a loop, re-feeding Remaining, until it reports
// FeedConsumed.
func (a *Accumulator) Feed(input []byte) FeedResult {
	if len(input) == 0 {
		return FeedResult{State: FeedConsumed}
	}

	zero := -1
	for i, b := range input {
		if b == 0 {
			zero = i
			break
		}
	}

	if zero < 0 {
		// No delimiter in this chunk: absorb or overflow.
		if a.overflow {
			return FeedResult{State: FeedConsumed}
		}
		if a.fill+len(input) > len(a.buf) {
			a.fill = 0
			a.overflow = true
			return FeedResult{State: FeedConsumed}
		}
		copy(a.buf[a.fill:], input)
		a.fill += len(input)
		return FeedResult{State: FeedConsumed}
	}

	take, release := input[:zero+1], input[zero+1:]

	if a.overflow {
		// The oversized frame ends here; resynchronize.
		a.overflow = false
		a.fill = 0
		return FeedResult{State: FeedOverFull, Remaining: release}
	}

	if a.fill+len(take) > len(a.buf) {
		a.fill = 0
		return FeedResult{State: FeedOverFull, Remaining: release}
	}
	copy(a.buf[a.fill:], take)
	a.fill += len(take)

	payload, err := AppendDecode(a.payload[:0], a.buf[:a.fill])
	a.fill = 0
	a.payload = payload[:0:cap(payload)]
	if err != nil {
		return FeedResult{State: FeedBadFrame, Remaining: release}
	}
	return FeedResult{State: FeedFrame, Payload: payload, Remaining: release}
}
