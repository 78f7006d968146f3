// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream carries COBS-framed postcard messages over byte
// streams. A Writer encodes each message as one frame and flushes it
// so message boundaries survive transport buffering; a Reader
// reassembles frames with a COBS accumulator, so it tolerates
// arbitrary chunking and resynchronizes after a corrupt frame at the
// next delimiter.
//
// The stream may be LZ4- or zstd-compressed underneath the framing.
// The compression algorithm is recorded in a small stream header so
// the reader needs no out-of-band configuration beyond the schema
// itself.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/postcard"
	"github.com/bureau-foundation/postcard/cobs"
	"github.com/bureau-foundation/postcard/wire"
)

// Compression identifies the stream compression algorithm. The tag
// byte is part of the stream header; changing values breaks stream
// compatibility.
type Compression uint8

const (
	// None: frames are written raw. Right for short links and for
	// payloads that are already dense.
	None Compression = 0

	// LZ4 block-stream compression. Fast default for mixed binary
	// telemetry.
	LZ4 Compression = 1

	// Zstd compression at the default level. Better ratios for
	// text-heavy payloads.
	Zstd Compression = 2
)

// String returns the human-readable name of a compression tag.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression tag from its string form.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// header is the stream prologue: magic, format version, compression
// tag.
var headerMagic = [3]byte{'P', 'C', 'S'}

const headerVersion = 1

// Writer writes framed messages to an underlying stream.
type Writer struct {
	out   io.Writer // compression layer (or the raw stream)
	flush func() error
	close func() error
}

// NewWriter writes the stream header to w and returns a Writer. The
// caller must Close it to flush compressor tails.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	header := []byte{headerMagic[0], headerMagic[1], headerMagic[2], headerVersion, byte(c)}
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write stream header: %w", err)
	}
	sw := &Writer{flush: func() error { return nil }, close: func() error { return nil }}
	switch c {
	case None:
		sw.out = w
	case LZ4:
		zw := lz4.NewWriter(w)
		sw.out = zw
		sw.flush = zw.Flush
		sw.close = zw.Close
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		sw.out = zw
		sw.flush = zw.Flush
		sw.close = zw.Close
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
	return sw, nil
}

// WriteMessage encodes one message as a COBS frame and flushes it
// through the compression layer.
func (w *Writer) WriteMessage(fn postcard.EncodeFunc) error {
	frame, err := postcard.ToBytesCOBS(fn)
	if err != nil {
		return err
	}
	if _, err := w.out.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return w.flush()
}

// Close flushes and closes the compression layer. It does not close
// the underlying stream.
func (w *Writer) Close() error {
	return w.close()
}

// Reader reads framed messages from an underlying stream.
type Reader struct {
	in    io.Reader
	acc   *cobs.Accumulator
	chunk []byte
	tail  []byte
}

// NewReader reads and checks the stream header of r and returns a
// Reader whose accumulator accepts frames up to frameCapacity
// encoded bytes.
func NewReader(r io.Reader, frameCapacity int) (*Reader, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read stream header: %w", err)
	}
	if header[0] != headerMagic[0] || header[1] != headerMagic[1] || header[2] != headerMagic[2] {
		return nil, fmt.Errorf("bad stream magic % x", header[:3])
	}
	if header[3] != headerVersion {
		return nil, fmt.Errorf("unsupported stream version %d", header[3])
	}
	sr := &Reader{
		acc:   cobs.NewAccumulator(frameCapacity),
		chunk: make([]byte, 4096),
	}
	switch Compression(header[4]) {
	case None:
		sr.in = r
	case LZ4:
		sr.in = lz4.NewReader(r)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		sr.in = zr.IOReadCloser()
	default:
		return nil, fmt.Errorf("unknown compression %d", header[4])
	}
	return sr, nil
}

// NextFrame returns the payload of the next complete frame. The
// payload is valid until the following NextFrame or ReadMessage
// call. Corrupt and oversized frames surface as
// [wire.ErrBadCOBSFrame]; the stream stays usable and resumes at the
// next delimiter. At end of stream it returns [io.EOF].
func (r *Reader) NextFrame() ([]byte, error) {
	for {
		if len(r.tail) == 0 {
			n, err := r.in.Read(r.chunk)
			if n == 0 {
				if err == nil {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("read stream: %w", err)
			}
			r.tail = r.chunk[:n]
		}
		result := r.acc.Feed(r.tail)
		r.tail = result.Remaining
		switch result.State {
		case cobs.FeedConsumed:
			continue
		case cobs.FeedFrame:
			return result.Payload, nil
		case cobs.FeedOverFull:
			return nil, fmt.Errorf("frame exceeded accumulator capacity: %w", wire.ErrBadCOBSFrame)
		default:
			return nil, fmt.Errorf("frame failed COBS decode: %w", wire.ErrBadCOBSFrame)
		}
	}
}

// ReadMessage reads the next frame and strictly decodes one message
// from it.
func (r *Reader) ReadMessage(fn postcard.DecodeFunc) error {
	payload, err := r.NextFrame()
	if err != nil {
		return err
	}
	return postcard.FromBytes(payload, fn)
}
