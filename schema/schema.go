// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema provides a runtime description of postcard's data
// model and a dynamic value codec driven by it. This is the host
// side of the out-of-band schema: tooling that must encode or decode
// postcard wire data without generated code (inspectors, test rigs,
// gateways re-encoding for capable hosts) loads the schema from a
// YAML document and walks values dynamically.
//
// Wire bytes produced by this package are identical to those from a
// hand-written walk; the schema only replaces compile-time knowledge,
// never the encoding.
package schema

import (
	"fmt"
	"math/bits"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/postcard/varint"
)

// Kind names a data-model element. The set is fixed by the wire
// format.
type Kind string

const (
	Bool   Kind = "bool"
	U8     Kind = "u8"
	U16    Kind = "u16"
	U32    Kind = "u32"
	U64    Kind = "u64"
	U128   Kind = "u128"
	Usize  Kind = "usize"
	I8     Kind = "i8"
	I16    Kind = "i16"
	I32    Kind = "i32"
	I64    Kind = "i64"
	I128   Kind = "i128"
	Isize  Kind = "isize"
	F32    Kind = "f32"
	F64    Kind = "f64"
	Char   Kind = "char"
	String Kind = "string"
	Bytes  Kind = "bytes"
	Unit   Kind = "unit"
	Option Kind = "option"
	// Newtype is a transparent wrapper: the inner element alone.
	Newtype Kind = "newtype"
	Seq     Kind = "seq"
	Map     Kind = "map"
	// Tuple covers tuples and tuple structs: elements in order, no
	// length prefix.
	Tuple Kind = "tuple"
	// Struct is a tuple with named fields; the names never reach the
	// wire.
	Struct Kind = "struct"
	// Enum is a tagged union: u32 varint discriminant, then the
	// chosen variant's payload.
	Enum Kind = "enum"
)

// Schema is one node of a schema tree.
//
// In YAML a node is either a bare kind name ("u32") or a mapping:
//
//	kind: struct
//	fields:
//	  - name: payload
//	    type: bytes
//	  - name: note
//	    type: string
type Schema struct {
	Kind Kind `yaml:"kind"`

	// Elem is the payload of option, newtype, and seq nodes.
	Elem *Schema `yaml:"elem,omitempty"`

	// Key and Value describe map entries.
	Key   *Schema `yaml:"key,omitempty"`
	Value *Schema `yaml:"value,omitempty"`

	// Fields describe struct fields in wire order. For Tuple nodes
	// the names are optional labels.
	Fields []Field `yaml:"fields,omitempty"`

	// Variants describe enum variants; the discriminant is the
	// index.
	Variants []Variant `yaml:"variants,omitempty"`

	// Fixint opts an integer node out of varint encoding: "le" or
	// "be". Only meaningful on u16..u64 and i16..i64.
	Fixint string `yaml:"fixint,omitempty"`
}

// Field is a named struct member.
type Field struct {
	Name string  `yaml:"name"`
	Type *Schema `yaml:"type"`
}

// Variant is one arm of an enum. A nil Type is a unit variant;
// newtype, tuple, and struct variants carry the corresponding node.
type Variant struct {
	Name string  `yaml:"name"`
	Type *Schema `yaml:"type,omitempty"`
}

// UnmarshalYAML accepts either the bare-kind scalar shorthand or the
// full mapping form.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var kind string
		if err := node.Decode(&kind); err != nil {
			return err
		}
		s.Kind = Kind(kind)
		return nil
	}
	type plain Schema
	return node.Decode((*plain)(s))
}

// Parse loads and validates a schema from a YAML document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the tree is structurally complete: every
// composite node carries the children its kind requires, every
// fixint annotation sits on a fixed-width integer.
func (s *Schema) Validate() error {
	return s.validate("$")
}

func (s *Schema) validate(path string) error {
	if s == nil {
		return fmt.Errorf("%s: missing schema node", path)
	}
	if s.Fixint != "" {
		switch s.Kind {
		case U16, U32, U64, I16, I32, I64:
		default:
			return fmt.Errorf("%s: fixint on %q (fixed-width integers only)", path, s.Kind)
		}
		if s.Fixint != "le" && s.Fixint != "be" {
			return fmt.Errorf("%s: fixint must be \"le\" or \"be\", got %q", path, s.Fixint)
		}
	}
	switch s.Kind {
	case Bool, U8, U16, U32, U64, U128, Usize,
		I8, I16, I32, I64, I128, Isize,
		F32, F64, Char, String, Bytes, Unit:
		return nil
	case Option, Newtype, Seq:
		return s.Elem.validate(path + "." + string(s.Kind))
	case Map:
		if err := s.Key.validate(path + ".key"); err != nil {
			return err
		}
		return s.Value.validate(path + ".value")
	case Tuple, Struct:
		if s.Kind == Struct && len(s.Fields) == 0 {
			return fmt.Errorf("%s: struct with no fields (use unit)", path)
		}
		for i, f := range s.Fields {
			label := f.Name
			if label == "" {
				label = fmt.Sprintf("%d", i)
			}
			if err := f.Type.validate(path + "." + label); err != nil {
				return err
			}
		}
		return nil
	case Enum:
		if len(s.Variants) == 0 {
			return fmt.Errorf("%s: enum with no variants", path)
		}
		for i, v := range s.Variants {
			if v.Name == "" {
				return fmt.Errorf("%s: variant %d unnamed", path, i)
			}
			if v.Type != nil {
				if err := v.Type.validate(path + "." + v.Name); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown kind %q", path, s.Kind)
	}
}

// MaxSize returns the worst-case encoded size of a value of this
// schema in bytes. The second result is false when no finite bound
// exists (the tree contains a string, bytes, seq, or map).
func (s *Schema) MaxSize() (int, bool) {
	switch s.Kind {
	case Bool, U8, I8:
		return 1, true
	case U16, I16:
		return s.fixintOr(2, varint.MaxLen16), true
	case U32, I32:
		return s.fixintOr(4, varint.MaxLen32), true
	case U64, I64:
		return s.fixintOr(8, varint.MaxLen64), true
	case U128, I128:
		return varint.MaxLen128, true
	case Usize, Isize:
		return varint.MaxLenUsize, true
	case F32:
		return 4, true
	case F64:
		return 8, true
	case Char:
		// One length byte plus up to four UTF-8 bytes.
		return 5, true
	case Unit:
		return 0, true
	case Option:
		n, ok := s.Elem.MaxSize()
		return 1 + n, ok
	case Newtype:
		return s.Elem.MaxSize()
	case Tuple, Struct:
		total := 0
		for _, f := range s.Fields {
			n, ok := f.Type.MaxSize()
			if !ok {
				return 0, false
			}
			total += n
		}
		return total, true
	case Enum:
		worst := 0
		for _, v := range s.Variants {
			n := 0
			if v.Type != nil {
				var ok bool
				if n, ok = v.Type.MaxSize(); !ok {
					return 0, false
				}
			}
			if n > worst {
				worst = n
			}
		}
		return varint.MaxLen32 + worst, true
	default:
		// String, Bytes, Seq, Map: length is value-dependent.
		return 0, false
	}
}

func (s *Schema) fixintOr(fixed, varied int) int {
	if s.Fixint != "" {
		return fixed
	}
	return varied
}

// UsizeWidth is the pointer width this build decodes platform-sized
// integers with.
const UsizeWidth = bits.UintSize
