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

func TestTokenizeModernIllumina(t *testing.T) {
	tok := NewTokenizer()
	rec, err := tok.TokenizeSingle([]byte("NB501234:12:HXXXXBGXY:1:11101:10000:2000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RunID != 12 || rec.Lane != 1 || rec.Tile != 11101 || rec.X != 10000 || rec.Y != 2000 {
		t.Fatalf("unexpected fields: %+v", rec)
	}
	name, err := tok.Detokenize(rec)
	if err != nil {
		t.Fatalf("detokenize error: %v", err)
	}
	if string(name) != "NB501234:12:HXXXXBGXY:1:11101:10000:2000" {
		t.Fatalf("detokenize mismatch: %q", name)
	}
}

func TestTokenizeModernIlluminaWithAllOptionalFields(t *testing.T) {
	tok := NewTokenizer()
	name := []byte("NB501234:12:HXXXXBGXY:1:11101:10000:2000:AGCTAGCT:2:Y:TAGGCATG")
	rec, err := tok.TokenizeSingle(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.HasUMI || !rec.HasIndex || rec.ReadNum != 2 || rec.Flags&1 == 0 {
		t.Fatalf("unexpected fields: %+v", rec)
	}
	got, err := tok.Detokenize(rec)
	if err != nil {
		t.Fatalf("detokenize error: %v", err)
	}
	if string(got) != string(name) {
		t.Fatalf("detokenize mismatch: got %q want %q", got, name)
	}
}

func TestTokenizeLegacyIllumina(t *testing.T) {
	tok := NewTokenizer()
	rec, err := tok.TokenizeSingle([]byte("HWUSI-EAS566_0007:2:30:18804:9636#0|AGC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FlowcellID != 0 || rec.Lane != 2 || rec.Tile != 30 || rec.X != 18804 || rec.Y != 9636 {
		t.Fatalf("unexpected fields: %+v", rec)
	}
	if !rec.HasIndex || !rec.HasUMI {
		t.Fatal("expected both index and UMI to be present")
	}
	name, err := tok.Detokenize(rec)
	if err != nil {
		t.Fatalf("detokenize error: %v", err)
	}
	if string(name) != "HWUSI-EAS566_0007:2:30:18804:9636#0|AGC" {
		t.Fatalf("detokenize mismatch: %q", name)
	}
}

func TestTokenizeLegacyIlluminaIndexOnly(t *testing.T) {
	tok := NewTokenizer()
	rec, err := tok.TokenizeSingle([]byte("HWUSI-EAS566_0007:2:30:18804:9636#AGCTT"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.HasIndex || rec.HasUMI {
		t.Fatalf("expected index-only, got %+v", rec)
	}
}

func TestTokenizeRejectsUnrecognizedFormat(t *testing.T) {
	tok := NewTokenizer()
	if _, err := tok.TokenizeSingle([]byte("not a read name at all")); err == nil {
		t.Fatal("expected error")
	} else if terr, ok := err.(*Error); !ok || terr.Kind != InvalidFormat {
		t.Fatalf("expected InvalidFormat error, got %v", err)
	}
}

func TestTokenizeBatchAllOrNothing(t *testing.T) {
	tok := NewTokenizer()
	names := [][]byte{
		[]byte("NB501234:12:HXXXXBGXY:1:11101:10000:2000"),
		[]byte("garbage"),
		[]byte("NB501234:12:HXXXXBGXY:1:11102:10001:2001"),
	}
	_, err := tok.TokenizeBatch(names)
	if err == nil {
		t.Fatal("expected batch failure")
	}
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.Index != 1 {
		t.Fatalf("expected failure at index 1, got %d", terr.Index)
	}
	if !bytes.Contains([]byte(terr.Error()), []byte("garbage")) {
		t.Fatalf("expected offending name in error message, got %q", terr.Error())
	}
}

func TestTokenizeBatchSuccess(t *testing.T) {
	tok := NewTokenizer()
	names := make([][]byte, 20)
	for i := range names {
		names[i] = []byte("NB501234:12:HXXXXBGXY:1:11101:10000:2000")
	}
	records, err := tok.TokenizeBatch(names)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 20 {
		t.Fatalf("expected 20 records, got %d", len(records))
	}
	// Repeated identical names should all dedup to the same dictionary ids.
	for _, r := range records[1:] {
		if r.InstrumentID != records[0].InstrumentID || r.FlowcellID != records[0].FlowcellID {
			t.Fatal("expected identical names to share dictionary ids")
		}
	}
}

func TestDetokenizeUnknownInstrumentFails(t *testing.T) {
	tok := NewTokenizer()
	_, err := tok.Detokenize(TokenizedReadName{InstrumentID: 200})
	if err == nil {
		t.Fatal("expected error for unresolved instrument id")
	}
}

func TestLossyStringReplacesInvalidUTF8(t *testing.T) {
	s := lossyString([]byte{'a', 0xff, 'b'})
	if !bytes.ContainsRune([]byte(s), '�') {
		t.Fatalf("expected replacement character in %q", s)
	}
}
