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

package codec

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

const (
	lz4Compressed byte = 0
	lz4Stored     byte = 1
)

// lz4 block-mode frames are not self-describing: we prefix the
// uncompressed length and a stored/compressed flag so Decompress can size
// its destination buffer and handle the incompressible case, the same
// convention the reference pipeline's block-mode wrapper uses.
func compressLz4(src []byte) ([]byte, error) {
	body := make([]byte, lz4.CompressBlockBound(len(src)))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, body)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, 5, 5+len(src))
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))
	if n == 0 {
		// incompressible input: CompressBlock returns n == 0 rather
		// than an expanded block.
		dst[4] = lz4Stored
		return append(dst, src...), nil
	}
	dst[4] = lz4Compressed
	return append(dst, body[:n]...), nil
}

func decompressLz4(src []byte) ([]byte, error) {
	if len(src) < 5 {
		return nil, errShortLz4
	}
	n := binary.LittleEndian.Uint32(src)
	flag := src[4]
	body := src[5:]
	if flag == lz4Stored {
		dst := make([]byte, n)
		copy(dst, body)
		return dst, nil
	}
	dst := make([]byte, n)
	m, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		return nil, err
	}
	return dst[:m], nil
}

var errShortLz4 = shortInputError("lz4")

type shortInputError string

func (e shortInputError) Error() string { return "codec: " + string(e) + ": input too short" }
