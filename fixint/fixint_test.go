// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fixint

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
)

func TestLayouts(t *testing.T) {
	cases := []struct {
		name string
		walk func(*ser.Serializer) error
		want []byte
	}{
		{"u16 le", func(s *ser.Serializer) error { return PutU16LE(s, 0x1234) }, []byte{0x34, 0x12}},
		{"u16 be", func(s *ser.Serializer) error { return PutU16BE(s, 0x1234) }, []byte{0x12, 0x34}},
		{"u32 le", func(s *ser.Serializer) error { return PutU32LE(s, 0xDEADBEEF) }, []byte{0xEF, 0xBE, 0xAD, 0xDE}},
		{"u32 be", func(s *ser.Serializer) error { return PutU32BE(s, 0xDEADBEEF) }, []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{"u64 le", func(s *ser.Serializer) error { return PutU64LE(s, 0x0102030405060708) },
			[]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
		{"u64 be", func(s *ser.Serializer) error { return PutU64BE(s, 0x0102030405060708) },
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}},
		{"i16 le negative", func(s *ser.Serializer) error { return PutI16LE(s, -2) }, []byte{0xFE, 0xFF}},
		{"i32 be negative", func(s *ser.Serializer) error { return PutI32BE(s, -1) }, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, c := range cases {
		storage := ser.NewBuf()
		s := ser.New(storage)
		if err := c.walk(s); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !bytes.Equal(storage.Bytes(), c.want) {
			t.Errorf("%s: encoded %x, want %x", c.name, storage.Bytes(), c.want)
		}
	}
}

func TestRoundtrip(t *testing.T) {
	storage := ser.NewBuf()
	s := ser.New(storage)
	for _, err := range []error{
		PutU16LE(s, 0xBEEF),
		PutU32BE(s, 0x01020304),
		PutI64LE(s, -42),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	d := de.New(de.NewSlice(storage.Bytes()))
	if v, err := U16LE(d); err != nil || v != 0xBEEF {
		t.Errorf("U16LE: %#x, %v", v, err)
	}
	if v, err := U32BE(d); err != nil || v != 0x01020304 {
		t.Errorf("U32BE: %#x, %v", v, err)
	}
	if v, err := I64LE(d); err != nil || v != -42 {
		t.Errorf("I64LE: %d, %v", v, err)
	}
}
