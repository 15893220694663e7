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

// clampToI16 clamps v into the signed 16-bit range.
func clampToI16(v int64) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

// CoordinateDeltas holds a clamped (x, y, tile) delta triple produced by
// CoordinateEncoder.
type CoordinateDeltas struct {
	XDelta    int16
	YDelta    int16
	TileDelta int16
}

// CoordinateEncoder is a stateful, lossy delta coder for (x, y, tile)
// triples. It clamps deltas into the signed-16-bit range but always
// advances its running state to the true input values, so values that
// overflow the clamp are not recoverable from the delta stream alone.
//
// This is a separate utility from the i32 coordinate delta stream used
// by the post-tokenization codec (see postcodec.go); it exists for
// legacy callers that need a compact, bounded-width delta representation
// and accept the associated precision loss.
type CoordinateEncoder struct {
	lastX, lastY uint32
	lastTile     uint16
}

// NewCoordinateEncoder returns a CoordinateEncoder with a zero baseline.
func NewCoordinateEncoder() *CoordinateEncoder {
	return &CoordinateEncoder{}
}

// Encode returns the clamped deltas from the encoder's running state to
// (x, y, tile), then advances the running state to the true (unclamped)
// input values.
func (c *CoordinateEncoder) Encode(x, y uint32, tile uint16) CoordinateDeltas {
	d := CoordinateDeltas{
		XDelta:    clampToI16(int64(x) - int64(c.lastX)),
		YDelta:    clampToI16(int64(y) - int64(c.lastY)),
		TileDelta: clampToI16(int64(tile) - int64(c.lastTile)),
	}
	c.lastX, c.lastY, c.lastTile = x, y, tile
	return d
}

// Decode reconstructs (x, y, tile) by adding d to the encoder's running
// state, clamping negative results to 0, then advances the state to the
// reconstruction.
func (c *CoordinateEncoder) Decode(d CoordinateDeltas) (x, y uint32, tile uint16) {
	nx := int64(c.lastX) + int64(d.XDelta)
	ny := int64(c.lastY) + int64(d.YDelta)
	nt := int64(c.lastTile) + int64(d.TileDelta)
	if nx < 0 {
		nx = 0
	}
	if ny < 0 {
		ny = 0
	}
	if nt < 0 {
		nt = 0
	}
	c.lastX, c.lastY, c.lastTile = uint32(nx), uint32(ny), uint16(nt)
	return c.lastX, c.lastY, c.lastTile
}

// Reset zeroes the encoder's running state.
func (c *CoordinateEncoder) Reset() {
	c.lastX, c.lastY, c.lastTile = 0, 0, 0
}
