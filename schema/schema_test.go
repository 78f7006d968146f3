// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

const demoSchema = `
kind: struct
fields:
  - name: payload
    type: bytes
  - name: note
    type: string
  - name: count
    type: u16
  - name: ratio
    type: f32
  - name: tag
    type:
      kind: option
      elem: u8
`

func encodeValue(t *testing.T, sc *Schema, value any) []byte {
	t.Helper()
	storage := ser.NewBuf()
	s := ser.New(storage)
	if err := Encode(s, sc, value); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	return storage.Bytes()
}

func decodeValue(t *testing.T, sc *Schema, data []byte) any {
	t.Helper()
	d := de.New(de.NewSlice(data))
	value, err := Decode(d, sc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	remainder, err := d.Finalize()
	if err != nil || len(remainder) != 0 {
		t.Fatalf("Finalize: %x, %v", remainder, err)
	}
	return value
}

func TestParseShorthandAndMapping(t *testing.T) {
	sc, err := Parse([]byte(demoSchema))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Kind != Struct || len(sc.Fields) != 5 {
		t.Fatalf("parsed %+v", sc)
	}
	if sc.Fields[0].Type.Kind != Bytes {
		t.Errorf("field 0 kind %q", sc.Fields[0].Type.Kind)
	}
	if sc.Fields[4].Type.Kind != Option || sc.Fields[4].Type.Elem.Kind != U8 {
		t.Errorf("field 4 = %+v", sc.Fields[4].Type)
	}
}

func TestStructWireLayout(t *testing.T) {
	sc, err := Parse([]byte(demoSchema))
	if err != nil {
		t.Fatal(err)
	}
	value := map[string]any{
		"payload": []byte{0x01, 0x10},
		"note":    "hi",
		"count":   float64(300), // as a JSON document delivers it
		"ratio":   float64(0),
		"tag":     nil,
	}
	got := encodeValue(t, sc, value)
	want := []byte{
		0x02, 0x01, 0x10, // payload
		0x02, 'h', 'i', // note
		0xAC, 0x02, // count varint
		0x00, 0x00, 0x00, 0x00, // ratio
		0x00, // tag none
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded %x, want %x", got, want)
	}

	decoded := decodeValue(t, sc, got).(map[string]any)
	if decoded["note"] != "hi" || decoded["count"] != uint64(300) {
		t.Errorf("decoded %+v", decoded)
	}
	if decoded["tag"] != nil {
		t.Errorf("tag = %v, want nil", decoded["tag"])
	}
}

func TestEnumRoundtrip(t *testing.T) {
	doc := `
kind: enum
variants:
  - name: idle
  - name: running
    type:
      kind: struct
      fields:
        - name: pid
          type: u32
  - name: failed
    type: string
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	// Unit variant: discriminant alone.
	got := encodeValue(t, sc, "idle")
	if !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("idle encoded %x", got)
	}
	if decoded := decodeValue(t, sc, got); decoded != "idle" {
		t.Errorf("decoded %v", decoded)
	}

	// Struct variant: discriminant then payload.
	got = encodeValue(t, sc, map[string]any{"running": map[string]any{"pid": 300}})
	if !bytes.Equal(got, []byte{0x01, 0xAC, 0x02}) {
		t.Fatalf("running encoded %x", got)
	}
	decoded := decodeValue(t, sc, got)
	want := map[string]any{"running": map[string]any{"pid": uint64(300)}}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("decoded %+v", decoded)
	}

	// Unknown variant names and discriminants are ErrBadVariant.
	s := ser.New(ser.NewBuf())
	if err := Encode(s, sc, "zombie"); !errors.Is(err, wire.ErrBadVariant) {
		t.Errorf("encode unknown: %v", err)
	}
	d := de.New(de.NewSlice([]byte{0x07}))
	if _, err := Decode(d, sc); !errors.Is(err, wire.ErrBadVariant) {
		t.Errorf("decode unknown: %v", err)
	}
}

func TestSeqAndMapRoundtrip(t *testing.T) {
	doc := `
kind: map
key: string
value:
  kind: seq
  elem: i32
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	value := map[string]any{
		"a": []any{int64(-1), int64(2)},
		"b": []any{},
	}
	decoded := decodeValue(t, sc, encodeValue(t, sc, value)).(map[string]any)
	want := map[string]any{
		"a": []any{int64(-1), int64(2)},
		"b": []any{},
	}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("decoded %#v", decoded)
	}
}

func TestFixintAnnotation(t *testing.T) {
	doc := `
kind: struct
fields:
  - name: magic
    type:
      kind: u32
      fixint: be
  - name: length
    type:
      kind: u16
      fixint: le
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	value := map[string]any{"magic": uint64(0xCAFEF00D), "length": uint64(0x0102)}
	got := encodeValue(t, sc, value)
	want := []byte{0xCA, 0xFE, 0xF0, 0x0D, 0x02, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded %x, want %x", got, want)
	}
	decoded := decodeValue(t, sc, got).(map[string]any)
	if decoded["magic"] != uint64(0xCAFEF00D) || decoded["length"] != uint64(0x0102) {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"unknown kind", `kind: u24`},
		{"fixint on string", "kind: string\nfixint: le"},
		{"fixint on u8", "kind: u8\nfixint: le"},
		{"enum without variants", `kind: enum`},
		{"seq without elem", `kind: seq`},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.doc)); err == nil {
			t.Errorf("%s: parsed without error", c.name)
		}
	}
}

func TestRangeChecks(t *testing.T) {
	s := ser.New(ser.NewBuf())
	if err := Encode(s, &Schema{Kind: U8}, float64(256)); !errors.Is(err, wire.ErrFramework) {
		t.Errorf("u8 256: %v", err)
	}
	if err := Encode(s, &Schema{Kind: I8}, int64(-200)); !errors.Is(err, wire.ErrFramework) {
		t.Errorf("i8 -200: %v", err)
	}
	if err := Encode(s, &Schema{Kind: U16}, int64(-1)); !errors.Is(err, wire.ErrFramework) {
		t.Errorf("u16 -1: %v", err)
	}
}

func TestMaxSize(t *testing.T) {
	cases := []struct {
		doc     string
		want    int
		bounded bool
	}{
		{`kind: bool`, 1, true},
		{`kind: u16`, 3, true},
		{`kind: u64`, 10, true},
		{"kind: u32\nfixint: le", 4, true},
		{`kind: string`, 0, false},
		{"kind: option\nelem: u32", 6, true},
		{"kind: struct\nfields:\n  - name: a\n    type: u8\n  - name: b\n    type: f64", 9, true},
		{"kind: enum\nvariants:\n  - name: x\n  - name: y\n    type: u64", 15, true},
		{"kind: seq\nelem: u8", 0, false},
	}
	for _, c := range cases {
		sc, err := Parse([]byte(c.doc))
		if err != nil {
			t.Fatalf("%q: %v", c.doc, err)
		}
		got, bounded := sc.MaxSize()
		if got != c.want || bounded != c.bounded {
			t.Errorf("%q: MaxSize = %d,%v, want %d,%v", c.doc, got, bounded, c.want, c.bounded)
		}
	}
}
