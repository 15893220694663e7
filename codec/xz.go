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

	"github.com/ulikunitz/xz"
)

// xzPreset6DictCap approximates LZMA2 preset 6 (the reference pipeline's
// fixed preset): an 8 MiB dictionary, matching xz's own preset table for
// level 6.
const xzPreset6DictCap = 8 << 20

func compressXz(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := xz.WriterConfig{
		DictCap: xzPreset6DictCap,
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressXz(src []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
