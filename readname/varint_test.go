// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package readname

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, -64, 64, -65, 1000000, -1000000, 2147483647, -2147483648}
	for _, v := range values {
		buf := AppendVarint(nil, v)
		got, n := GetVarint(buf)
		if n != len(buf) {
			t.Fatalf("value %d: consumed %d bytes, want %d", v, n, len(buf))
		}
		if got != v {
			t.Fatalf("value %d: got %d", v, got)
		}
	}
}

func TestVarintSmallMagnitudesAreShort(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 10, -10} {
		buf := AppendVarint(nil, v)
		if len(buf) != 1 {
			t.Fatalf("value %d: expected 1-byte encoding, got %d bytes", v, len(buf))
		}
	}
}

func TestVarintMultipleValuesSequential(t *testing.T) {
	var buf []byte
	want := []int32{5, -5, 300, -300, 0}
	for _, v := range want {
		buf = AppendVarint(buf, v)
	}
	rest := buf
	for _, w := range want {
		v, n := GetVarint(rest)
		if n == 0 {
			t.Fatalf("decode failed at value %d", w)
		}
		if v != w {
			t.Fatalf("got %d, want %d", v, w)
		}
		rest = rest[n:]
	}
	if len(rest) != 0 {
		t.Fatalf("leftover bytes: %d", len(rest))
	}
}

func TestVarintTruncatedReturnsZero(t *testing.T) {
	buf := AppendVarint(nil, 1000000)
	v, n := GetVarint(buf[:1])
	if n != 0 || v != 0 {
		t.Fatalf("expected (0, 0) for truncated input, got (%d, %d)", v, n)
	}
}

func TestUvarintNonNegative(t *testing.T) {
	for _, n := range []int{0, 1, 127, 128, 300, 70000} {
		buf := AppendUvarint(nil, n)
		got, k := GetUvarint(buf)
		if k != len(buf) || got != n {
			t.Fatalf("n=%d: got %d (consumed %d of %d)", n, got, k, len(buf))
		}
	}
}
