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

import (
	"bytes"
	"testing"
)

func TestRLERoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{1},
		bytes.Repeat([]byte{7}, 50),
		append(bytes.Repeat([]byte{1}, 10), bytes.Repeat([]byte{2}, 5)...),
		{1, 2, 3, 4, 5},
	}
	for _, data := range cases {
		encoded := rleEncode(data)
		decoded, err := rleDecode(encoded)
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round trip mismatch: got %v, want %v", decoded, data)
		}
	}
}

func TestRLEBenefitLowForShortInput(t *testing.T) {
	if rleBenefit([]byte{1, 2, 3}) != 0 {
		t.Fatal("expected zero benefit for input shorter than 10 bytes")
	}
}

func TestRLEBenefitHighForRepeatedRuns(t *testing.T) {
	data := bytes.Repeat([]byte{9}, 100)
	if b := rleBenefit(data); b < 0.5 {
		t.Fatalf("expected high benefit for fully repeated data, got %f", b)
	}
}

func TestRLEBenefitLowForAlternatingBytes(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i % 2)
	}
	if b := rleBenefit(data); b != 0 {
		t.Fatalf("expected zero benefit for alternating bytes with no runs >= 3, got %f", b)
	}
}

func TestRLEDecodeTruncated(t *testing.T) {
	if _, err := rleDecode([]byte{5}); err == nil {
		t.Fatal("expected error for truncated RLE stream")
	}
}
