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

func TestCoordinateEncoderRoundTrip(t *testing.T) {
	enc := NewCoordinateEncoder()
	dec := NewCoordinateEncoder()

	coords := [][3]uint32{
		{100, 200, 5},
		{110, 190, 5},
		{50, 500, 6},
	}
	for _, c := range coords {
		d := enc.Encode(c[0], c[1], uint16(c[2]))
		x, y, tile := dec.Decode(d)
		if x != c[0] || y != c[1] || uint32(tile) != c[2] {
			t.Fatalf("round trip mismatch: got (%d,%d,%d), want (%d,%d,%d)", x, y, tile, c[0], c[1], c[2])
		}
	}
}

func TestCoordinateEncoderClampsLargeDeltas(t *testing.T) {
	enc := NewCoordinateEncoder()
	d := enc.Encode(4294967295, 4294967295, 65535)
	if d.XDelta != 32767 || d.YDelta != 32767 || d.TileDelta != 32767 {
		t.Fatalf("expected clamped deltas of 32767, got %+v", d)
	}
}

func TestCoordinateEncoderReset(t *testing.T) {
	enc := NewCoordinateEncoder()
	enc.Encode(1000, 2000, 3)
	enc.Reset()
	d := enc.Encode(5, 5, 1)
	if d.XDelta != 5 || d.YDelta != 5 || d.TileDelta != 1 {
		t.Fatalf("expected deltas from zero baseline after reset, got %+v", d)
	}
}

func TestCoordinateEncoderNegativeDeltaClampsToZeroOnDecode(t *testing.T) {
	dec := NewCoordinateEncoder()
	// A very negative delta must not underflow uint32 on decode.
	x, y, tile := dec.Decode(CoordinateDeltas{XDelta: -32768, YDelta: -32768, TileDelta: -32768})
	if x != 0 || y != 0 || tile != 0 {
		t.Fatalf("expected clamp to zero, got (%d,%d,%d)", x, y, tile)
	}
}
