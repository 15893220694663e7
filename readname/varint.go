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

// AppendVarint zig-zag encodes v (i32 range) and appends its LEB128
// representation to dst, returning the extended slice. The zig-zag
// rotation maps small magnitudes of either sign to short codes, which
// matches the delta distributions produced elsewhere in this package.
func AppendVarint(dst []byte, v int32) []byte {
	u := uint32(v<<1) ^ uint32(v>>31)
	for u >= 0x80 {
		dst = append(dst, byte(u&0x7f)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// GetVarint decodes a single zig-zag LEB128 value from the front of src,
// returning the value and the number of bytes consumed. It returns
// (0, 0) if src does not contain a complete, well-formed varint.
func GetVarint(src []byte) (int32, int) {
	var u uint32
	var shift uint
	for i, b := range src {
		if shift >= 32 {
			return 0, 0
		}
		u |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			v := int32(u>>1) ^ -int32(u&1)
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// AppendUvarint appends the LEB128 encoding of a non-negative length n.
// Lengths in this package's block framing are always representable as
// i32 (spec: lengths bounded by SIZE_LIMIT, far below i32::MAX), so this
// is a thin wrapper around AppendVarint's zig-zag encoding restricted to
// non-negative inputs — used wherever a raw byte-count is framed rather
// than a signed delta.
func AppendUvarint(dst []byte, n int) []byte {
	return AppendVarint(dst, int32(n))
}

// GetUvarint is the inverse of AppendUvarint.
func GetUvarint(src []byte) (int, int) {
	v, n := GetVarint(src)
	return int(v), n
}
