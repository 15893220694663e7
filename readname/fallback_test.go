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

func TestFallbackEnvelopeRoundTrip(t *testing.T) {
	dict := NewDictionary()
	instr := dict.AddInstrument([]byte("NB501234"))
	fc := dict.AddFlowcell([]byte("HXXXXBGXY"))
	umi := dict.AddUMI([]byte("AGCTAGCT"))
	idx := dict.AddIndex([]byte("TAGGCATG"))

	records := []TokenizedReadName{
		{InstrumentID: instr, RunID: 12, FlowcellID: fc, Lane: 1, Tile: 11101, X: 10000, Y: 2000, ReadNum: 1, HasReadNum: true, HasFlags: true},
		{InstrumentID: instr, RunID: 12, FlowcellID: fc, Lane: 1, Tile: 11101, X: 10005, Y: 2010,
			UMIID: umi, HasUMI: true, ReadNum: 2, HasReadNum: true, Flags: 1, HasFlags: true},
		{InstrumentID: instr, RunID: 12, FlowcellID: fc, Lane: 2, Tile: 11102, X: 9000, Y: 1500,
			IndexID: idx, HasIndex: true, ReadNum: 1, HasReadNum: true, HasFlags: true},
		// Legacy-format record: FlowcellID 0 is the reserved placeholder.
		{InstrumentID: instr, RunID: 99, FlowcellID: 0, Lane: 3, Tile: 30, X: 18804, Y: 9636, ReadNum: 1, HasReadNum: true, HasFlags: true},
	}

	envelope := EncodeFallbackEnvelope(records, dict)
	gotRecords, gotDict, err := DecodeFallbackEnvelope(envelope)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gotRecords) != len(records) {
		t.Fatalf("length mismatch: got %d, want %d", len(gotRecords), len(records))
	}
	for i, want := range records {
		if gotRecords[i] != want {
			t.Fatalf("record %d mismatch: got %+v, want %+v", i, gotRecords[i], want)
		}
	}
	gotInstr, ok := gotDict.Instrument(instr)
	if !ok || string(gotInstr) != "NB501234" {
		t.Fatalf("dictionary instrument mismatch: %q", gotInstr)
	}
}

func TestFallbackEnvelopeEmptyBatch(t *testing.T) {
	dict := NewDictionary()
	envelope := EncodeFallbackEnvelope(nil, dict)
	records, _, err := DecodeFallbackEnvelope(envelope)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestFallbackEnvelopeUMIAbsentSentinelDoesNotCollideWithRealID(t *testing.T) {
	dict := NewDictionary()
	// Encode one record with a real UMI id and one with HasUMI unset, to
	// ensure HasUMI, not the raw id value, decides what is written.
	var lastID uint16
	for i := 0; i < 5; i++ {
		lastID = dict.AddUMI([]byte{byte(i), byte(i + 1)})
	}
	records := []TokenizedReadName{
		{UMIID: lastID, HasUMI: true},
		{HasUMI: false},
	}
	envelope := EncodeFallbackEnvelope(records, dict)
	got, _, err := DecodeFallbackEnvelope(envelope)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got[0].HasUMI || got[0].UMIID != lastID {
		t.Fatalf("expected UMI present with id %d, got %+v", lastID, got[0])
	}
	if got[1].HasUMI {
		t.Fatalf("expected UMI absent, got %+v", got[1])
	}
}

func TestDecodeFallbackEnvelopeTruncated(t *testing.T) {
	if _, _, err := DecodeFallbackEnvelope([]byte{1, 2}); err == nil {
		t.Fatal("expected error for truncated envelope")
	}
}

func TestDecodeFallbackEnvelopeTruncatedRecordArray(t *testing.T) {
	dict := NewDictionary()
	envelope := EncodeFallbackEnvelope([]TokenizedReadName{{}}, dict)
	truncated := envelope[:len(envelope)-1]
	if _, _, err := DecodeFallbackEnvelope(truncated); err == nil {
		t.Fatal("expected error for truncated record array")
	}
}
