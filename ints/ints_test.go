// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ints

import "testing"

func TestConstructors(t *testing.T) {
	if v := Uint128From64(42); v.Hi != 0 || v.Lo != 42 {
		t.Errorf("Uint128From64 = %+v", v)
	}
	if v := Int128From64(-1); v.Hi != 0xFFFFFFFFFFFFFFFF || v.Lo != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("Int128From64(-1) = %+v", v)
	}
	if !U128(0, 0).IsZero() || U128(1, 0).IsZero() {
		t.Error("IsZero misclassifies")
	}
	if !Int128From64(-5).IsNeg() || Int128From64(5).IsNeg() {
		t.Error("IsNeg misclassifies")
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		value interface{ String() string }
		want  string
	}{
		{U128(0, 0xBEEF), "0xbeef"},
		{U128(1, 0), "0x10000000000000000"},
		{Int128From64(-256), "-0x100"},
		{Int128From64(256), "0x100"},
	}
	for _, c := range cases {
		if got := c.value.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestZigzagRoundtripExtremes(t *testing.T) {
	values := []Int128{
		Int128From64(0),
		Int128From64(1),
		Int128From64(-1),
		I128(0x7FFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF), // i128 max
		I128(0x8000000000000000, 0),                  // i128 min
	}
	for _, v := range values {
		if got := v.Zigzag().Unzigzag(); got != v {
			t.Errorf("roundtrip %v → %v", v, got)
		}
	}
}
