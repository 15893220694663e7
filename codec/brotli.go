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
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliWindowBits and brotliQuality are the fixed encoder parameters:
// window bits 22, quality 8. brotliBufferSize is the size of the copy
// buffer used when decompressing; the encoder takes no buffer-size option.
const (
	brotliWindowBits = 22
	brotliQuality    = 8
	brotliBufferSize = 4096
)

func compressBrotli(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: brotliQuality,
		LGWin:   brotliWindowBits,
	})
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBrotli(src []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	if _, err := io.CopyBuffer(&out, r, make([]byte, brotliBufferSize)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
