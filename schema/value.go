// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/fixint"
	"github.com/bureau-foundation/postcard/ints"
	"github.com/bureau-foundation/postcard/ser"
	"github.com/bureau-foundation/postcard/wire"
)

// Dynamic values use a small set of canonical Go types:
//
//	bool            bool
//	u8..u64, usize  uint64
//	u128            ints.Uint128
//	i8..i64, isize  int64
//	i128            ints.Int128
//	f32, f64        float64
//	char            string holding one rune
//	string          string
//	bytes           []byte
//	unit            nil
//	option          nil for none, the inner value for some
//	newtype         the inner value
//	seq, tuple      []any
//	struct          map[string]any keyed by field name (or []any in
//	                wire order)
//	map             map[string]any for string keys, else []any of
//	                two-element []any pairs
//	enum            variant name string for unit variants, else a
//	                single-entry map[string]any{name: payload}
//
// Encode additionally coerces the integer and float types a JSON or
// JSONC document produces (float64, int) with range checks.

// Encode walks v against s according to the schema node sc.
func Encode(s *ser.Serializer, sc *Schema, v any) error {
	switch sc.Kind {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return typeErr(sc, v)
		}
		return s.Bool(b)

	case U8, U16, U32, U64, Usize:
		n, err := asUint(sc, v)
		if err != nil {
			return err
		}
		return encodeUint(s, sc, n)

	case U128:
		switch n := v.(type) {
		case ints.Uint128:
			return s.U128(n)
		default:
			u, err := asUint(sc, v)
			if err != nil {
				return err
			}
			return s.U128(ints.Uint128From64(u))
		}

	case I8, I16, I32, I64, Isize:
		n, err := asInt(sc, v)
		if err != nil {
			return err
		}
		return encodeInt(s, sc, n)

	case I128:
		switch n := v.(type) {
		case ints.Int128:
			return s.I128(n)
		default:
			i, err := asInt(sc, v)
			if err != nil {
				return err
			}
			return s.I128(ints.Int128From64(i))
		}

	case F32:
		f, err := asFloat(sc, v)
		if err != nil {
			return err
		}
		return s.F32(float32(f))

	case F64:
		f, err := asFloat(sc, v)
		if err != nil {
			return err
		}
		return s.F64(f)

	case Char:
		str, ok := v.(string)
		if !ok {
			return typeErr(sc, v)
		}
		r, size := utf8.DecodeRuneInString(str)
		if size == 0 || size != len(str) || r == utf8.RuneError && size == 1 {
			return fmt.Errorf("char needs exactly one rune, got %q: %w", str, wire.ErrFramework)
		}
		return s.Char(r)

	case String:
		str, ok := v.(string)
		if !ok {
			return typeErr(sc, v)
		}
		return s.Str(str)

	case Bytes:
		switch b := v.(type) {
		case []byte:
			return s.Bytes(b)
		case string:
			return s.Bytes([]byte(b))
		case []any:
			// JSON documents spell byte arrays as number arrays.
			raw := make([]byte, len(b))
			for i, item := range b {
				n, err := asUint(&Schema{Kind: U8}, item)
				if err != nil {
					return fmt.Errorf("byte %d: %w", i, err)
				}
				raw[i] = byte(n)
			}
			return s.Bytes(raw)
		default:
			return typeErr(sc, v)
		}

	case Unit:
		if v != nil {
			return typeErr(sc, v)
		}
		return s.Unit()

	case Option:
		if v == nil {
			return s.None()
		}
		if err := s.Some(); err != nil {
			return err
		}
		return Encode(s, sc.Elem, v)

	case Newtype:
		return Encode(s, sc.Elem, v)

	case Seq:
		items, ok := v.([]any)
		if !ok {
			return typeErr(sc, v)
		}
		if err := s.SeqLen(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := Encode(s, sc.Elem, item); err != nil {
				return err
			}
		}
		return nil

	case Map:
		return encodeMap(s, sc, v)

	case Tuple, Struct:
		return encodeFields(s, sc, v)

	case Enum:
		return encodeEnum(s, sc, v)

	default:
		return fmt.Errorf("kind %q: %w", sc.Kind, wire.ErrFramework)
	}
}

func encodeUint(s *ser.Serializer, sc *Schema, n uint64) error {
	switch sc.Fixint {
	case "le":
		switch sc.Kind {
		case U16:
			return fixint.PutU16LE(s, uint16(n))
		case U32:
			return fixint.PutU32LE(s, uint32(n))
		default:
			return fixint.PutU64LE(s, n)
		}
	case "be":
		switch sc.Kind {
		case U16:
			return fixint.PutU16BE(s, uint16(n))
		case U32:
			return fixint.PutU32BE(s, uint32(n))
		default:
			return fixint.PutU64BE(s, n)
		}
	}
	switch sc.Kind {
	case U8:
		return s.U8(uint8(n))
	case U16:
		return s.U16(uint16(n))
	case U32:
		return s.U32(uint32(n))
	case U64:
		return s.U64(n)
	default:
		return s.Usize(uint(n))
	}
}

func encodeInt(s *ser.Serializer, sc *Schema, n int64) error {
	switch sc.Fixint {
	case "le":
		switch sc.Kind {
		case I16:
			return fixint.PutI16LE(s, int16(n))
		case I32:
			return fixint.PutI32LE(s, int32(n))
		default:
			return fixint.PutI64LE(s, n)
		}
	case "be":
		switch sc.Kind {
		case I16:
			return fixint.PutI16BE(s, int16(n))
		case I32:
			return fixint.PutI32BE(s, int32(n))
		default:
			return fixint.PutI64BE(s, n)
		}
	}
	switch sc.Kind {
	case I8:
		return s.I8(int8(n))
	case I16:
		return s.I16(int16(n))
	case I32:
		return s.I32(int32(n))
	case I64:
		return s.I64(n)
	default:
		return s.Isize(int(n))
	}
}

func encodeMap(s *ser.Serializer, sc *Schema, v any) error {
	switch m := v.(type) {
	case map[string]any:
		if sc.Key.Kind != String {
			return typeErr(sc, v)
		}
		if err := s.MapLen(len(m)); err != nil {
			return err
		}
		for _, key := range sortedKeys(m) {
			if err := s.Str(key); err != nil {
				return err
			}
			if err := Encode(s, sc.Value, m[key]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if err := s.MapLen(len(m)); err != nil {
			return err
		}
		for _, entry := range m {
			pair, ok := entry.([]any)
			if !ok || len(pair) != 2 {
				return fmt.Errorf("map entry must be a [key, value] pair: %w", wire.ErrFramework)
			}
			if err := Encode(s, sc.Key, pair[0]); err != nil {
				return err
			}
			if err := Encode(s, sc.Value, pair[1]); err != nil {
				return err
			}
		}
		return nil
	default:
		return typeErr(sc, v)
	}
}

func encodeFields(s *ser.Serializer, sc *Schema, v any) error {
	switch fields := v.(type) {
	case []any:
		if len(fields) != len(sc.Fields) {
			return fmt.Errorf("%s of %d fields, value has %d: %w", sc.Kind, len(sc.Fields), len(fields), wire.ErrFramework)
		}
		for i, f := range sc.Fields {
			if err := Encode(s, f.Type, fields[i]); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, f := range sc.Fields {
			fv, ok := fields[f.Name]
			if !ok && f.Type.Kind != Option && f.Type.Kind != Unit {
				return fmt.Errorf("missing field %q: %w", f.Name, wire.ErrFramework)
			}
			if err := Encode(s, f.Type, fv); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		return nil
	default:
		return typeErr(sc, v)
	}
}

func encodeEnum(s *ser.Serializer, sc *Schema, v any) error {
	name := ""
	var payload any
	hasPayload := false
	switch e := v.(type) {
	case string:
		name = e
	case map[string]any:
		if len(e) != 1 {
			return fmt.Errorf("enum value must have exactly one entry: %w", wire.ErrFramework)
		}
		for k, p := range e {
			name, payload, hasPayload = k, p, true
		}
	default:
		return typeErr(sc, v)
	}
	for i, variant := range sc.Variants {
		if variant.Name != name {
			continue
		}
		if err := s.Variant(uint32(i)); err != nil {
			return err
		}
		if variant.Type == nil {
			if hasPayload && payload != nil {
				return fmt.Errorf("unit variant %q given a payload: %w", name, wire.ErrFramework)
			}
			return nil
		}
		return Encode(s, variant.Type, payload)
	}
	return fmt.Errorf("variant %q: %w", name, wire.ErrBadVariant)
}

// Decode walks one value of schema sc out of d, producing the
// canonical dynamic form.
func Decode(d *de.Deserializer, sc *Schema) (any, error) {
	switch sc.Kind {
	case Bool:
		return d.Bool()

	case U8, U16, U32, U64, Usize:
		return decodeUint(d, sc)

	case U128:
		return d.U128()

	case I8, I16, I32, I64, Isize:
		return decodeInt(d, sc)

	case I128:
		return d.I128()

	case F32:
		f, err := d.F32()
		return float64(f), err

	case F64:
		return d.F64()

	case Char:
		r, err := d.Char()
		if err != nil {
			return nil, err
		}
		return string(r), nil

	case String:
		return d.Str()

	case Bytes:
		return d.Bytes()

	case Unit:
		return nil, nil

	case Option:
		some, err := d.Option()
		if err != nil || !some {
			return nil, err
		}
		return Decode(d, sc.Elem)

	case Newtype:
		return Decode(d, sc.Elem)

	case Seq:
		n, err := d.SeqLen()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, min(n, 4096))
		for range n {
			item, err := Decode(d, sc.Elem)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case Map:
		return decodeMap(d, sc)

	case Tuple:
		items := make([]any, 0, len(sc.Fields))
		for _, f := range sc.Fields {
			item, err := Decode(d, f.Type)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case Struct:
		out := make(map[string]any, len(sc.Fields))
		for _, f := range sc.Fields {
			fv, err := Decode(d, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = fv
		}
		return out, nil

	case Enum:
		disc, err := d.Variant()
		if err != nil {
			return nil, err
		}
		if int(disc) >= len(sc.Variants) {
			return nil, fmt.Errorf("discriminant %d of %d variants: %w", disc, len(sc.Variants), wire.ErrBadVariant)
		}
		variant := sc.Variants[disc]
		if variant.Type == nil {
			return variant.Name, nil
		}
		payload, err := Decode(d, variant.Type)
		if err != nil {
			return nil, err
		}
		return map[string]any{variant.Name: payload}, nil

	default:
		return nil, fmt.Errorf("kind %q: %w", sc.Kind, wire.ErrFramework)
	}
}

func decodeUint(d *de.Deserializer, sc *Schema) (uint64, error) {
	switch sc.Fixint {
	case "le":
		switch sc.Kind {
		case U16:
			v, err := fixint.U16LE(d)
			return uint64(v), err
		case U32:
			v, err := fixint.U32LE(d)
			return uint64(v), err
		default:
			return fixint.U64LE(d)
		}
	case "be":
		switch sc.Kind {
		case U16:
			v, err := fixint.U16BE(d)
			return uint64(v), err
		case U32:
			v, err := fixint.U32BE(d)
			return uint64(v), err
		default:
			return fixint.U64BE(d)
		}
	}
	switch sc.Kind {
	case U8:
		v, err := d.U8()
		return uint64(v), err
	case U16:
		v, err := d.U16()
		return uint64(v), err
	case U32:
		v, err := d.U32()
		return uint64(v), err
	case U64:
		return d.U64()
	default:
		v, err := d.Usize()
		return uint64(v), err
	}
}

func decodeInt(d *de.Deserializer, sc *Schema) (int64, error) {
	switch sc.Fixint {
	case "le":
		switch sc.Kind {
		case I16:
			v, err := fixint.I16LE(d)
			return int64(v), err
		case I32:
			v, err := fixint.I32LE(d)
			return int64(v), err
		default:
			return fixint.I64LE(d)
		}
	case "be":
		switch sc.Kind {
		case I16:
			v, err := fixint.I16BE(d)
			return int64(v), err
		case I32:
			v, err := fixint.I32BE(d)
			return int64(v), err
		default:
			return fixint.I64BE(d)
		}
	}
	switch sc.Kind {
	case I8:
		v, err := d.I8()
		return int64(v), err
	case I16:
		v, err := d.I16()
		return int64(v), err
	case I32:
		v, err := d.I32()
		return int64(v), err
	case I64:
		return d.I64()
	default:
		v, err := d.Isize()
		return int64(v), err
	}
}

func decodeMap(d *de.Deserializer, sc *Schema) (any, error) {
	n, err := d.MapLen()
	if err != nil {
		return nil, err
	}
	if sc.Key.Kind == String {
		out := make(map[string]any, min(n, 4096))
		for range n {
			key, err := d.Str()
			if err != nil {
				return nil, err
			}
			value, err := Decode(d, sc.Value)
			if err != nil {
				return nil, err
			}
			out[key] = value
		}
		return out, nil
	}
	out := make([]any, 0, min(n, 4096))
	for range n {
		key, err := Decode(d, sc.Key)
		if err != nil {
			return nil, err
		}
		value, err := Decode(d, sc.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, []any{key, value})
	}
	return out, nil
}

func typeErr(sc *Schema, v any) error {
	return fmt.Errorf("cannot encode %T as %s: %w", v, sc.Kind, wire.ErrFramework)
}

func asUint(sc *Schema, v any) (uint64, error) {
	var n uint64
	switch x := v.(type) {
	case uint64:
		n = x
	case uint:
		n = uint64(x)
	case int:
		if x < 0 {
			return 0, rangeErr(sc, v)
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return 0, rangeErr(sc, v)
		}
		n = uint64(x)
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxUint64 {
			return 0, rangeErr(sc, v)
		}
		n = uint64(x)
	default:
		return 0, typeErr(sc, v)
	}
	if max, ok := uintMax(sc.Kind); ok && n > max {
		return 0, rangeErr(sc, v)
	}
	return n, nil
}

func asInt(sc *Schema, v any) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case uint64:
		if x > math.MaxInt64 {
			return 0, rangeErr(sc, v)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return 0, rangeErr(sc, v)
		}
		n = int64(x)
	default:
		return 0, typeErr(sc, v)
	}
	if lo, hi, ok := intRange(sc.Kind); ok && (n < lo || n > hi) {
		return 0, rangeErr(sc, v)
	}
	return n, nil
}

func asFloat(sc *Schema, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, typeErr(sc, v)
	}
}

func rangeErr(sc *Schema, v any) error {
	return fmt.Errorf("value %v out of range for %s: %w", v, sc.Kind, wire.ErrFramework)
}

func uintMax(k Kind) (uint64, bool) {
	switch k {
	case U8:
		return math.MaxUint8, true
	case U16:
		return math.MaxUint16, true
	case U32:
		return math.MaxUint32, true
	default:
		return 0, false
	}
}

func intRange(k Kind) (int64, int64, bool) {
	switch k {
	case I8:
		return math.MinInt8, math.MaxInt8, true
	case I16:
		return math.MinInt16, math.MaxInt16, true
	case I32:
		return math.MinInt32, math.MaxInt32, true
	default:
		return 0, 0, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
