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

// Package codec wraps the general-purpose byte compressors used as the
// fallback path for every block column, and as the outer layer applied to
// the read-name fallback envelope: identity, Gzip, Lz4, Brotli, Xz and
// Zstd, dispatched by a single Algorithm enumeration.
package codec

import "fmt"

// Algorithm identifies one of the general-purpose codecs. The zero value,
// NoCompression, is a valid identity codec.
type Algorithm int

const (
	NoCompression Algorithm = iota
	Gzip
	Lz4
	Brotli
	Xz
	Zstd
)

func (a Algorithm) String() string {
	switch a {
	case NoCompression:
		return "none"
	case Gzip:
		return "gzip"
	case Lz4:
		return "lz4"
	case Brotli:
		return "brotli"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Compress dispatches src to the codec named by a and returns the
// compressed bytes. Codec-library errors are returned rather than
// panicking; callers that treat general-codec failure as fatal (per the
// fallback chain) should wrap the call accordingly.
func Compress(a Algorithm, src []byte) ([]byte, error) {
	switch a {
	case NoCompression:
		return compressNone(src), nil
	case Gzip:
		return compressGzip(src)
	case Lz4:
		return compressLz4(src)
	case Brotli:
		return compressBrotli(src)
	case Xz:
		return compressXz(src)
	case Zstd:
		return compressZstd(src)
	default:
		return nil, fmt.Errorf("codec: unknown algorithm %v", a)
	}
}

// Decompress is the inverse of Compress.
func Decompress(a Algorithm, src []byte) ([]byte, error) {
	switch a {
	case NoCompression:
		return decompressNone(src), nil
	case Gzip:
		return decompressGzip(src)
	case Lz4:
		return decompressLz4(src)
	case Brotli:
		return decompressBrotli(src)
	case Xz:
		return decompressXz(src)
	case Zstd:
		return decompressZstd(src)
	default:
		return nil, fmt.Errorf("codec: unknown algorithm %v", a)
	}
}

func compressNone(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

func decompressNone(src []byte) []byte {
	return compressNone(src)
}
