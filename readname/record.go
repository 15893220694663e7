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

// TokenizedReadName is the fixed-schema typed record produced by parsing
// a single read name. umi_id and index_id are dictionary indices and are
// only meaningful when present (the pointer-free optionality is carried
// by the Has* flags below rather than Go pointers, since these records
// are produced and consumed in bulk).
type TokenizedReadName struct {
	InstrumentID uint8
	RunID        uint32
	FlowcellID   uint8 // 0 means absent (legacy format)
	Lane         uint8
	Tile         uint16
	X            uint32
	Y            uint32

	UMIID    uint16
	HasUMI   bool
	IndexID  uint8
	HasIndex bool

	ReadNum    uint8 // default 1
	HasReadNum bool  // whether the optional read-num suffix field occurred in the source name
	Flags      uint8 // bit 0 = filtered Y/N
	HasFlags   bool  // whether the optional filter-flag suffix field occurred in the source name
}

// TokenizedStreams is the column-store form of a tokenized batch: N
// parallel sequences, one per schema field, with sparse columns (UMI,
// index) retaining per-row optionality via a presence slice.
type TokenizedStreams struct {
	InstrumentIDs []uint8
	RunIDs        []uint32
	FlowcellIDs   []uint8
	Lanes         []uint8
	Tiles         []uint16
	XCoords       []uint32
	YCoords       []uint32
	UMIIDs        []uint16
	UMIPresent    []bool
	ReadNums      []uint8
	Flags         []uint8
	IndexIDs      []uint8
	IndexPresent  []bool
}

// ToStreams transposes a batch of tokenized records into column-store
// form.
func ToStreams(records []TokenizedReadName) TokenizedStreams {
	n := len(records)
	s := TokenizedStreams{
		InstrumentIDs: make([]uint8, n),
		RunIDs:        make([]uint32, n),
		FlowcellIDs:   make([]uint8, n),
		Lanes:         make([]uint8, n),
		Tiles:         make([]uint16, n),
		XCoords:       make([]uint32, n),
		YCoords:       make([]uint32, n),
		UMIIDs:        make([]uint16, n),
		UMIPresent:    make([]bool, n),
		ReadNums:      make([]uint8, n),
		Flags:         make([]uint8, n),
		IndexIDs:      make([]uint8, n),
		IndexPresent:  make([]bool, n),
	}
	for i, r := range records {
		s.InstrumentIDs[i] = r.InstrumentID
		s.RunIDs[i] = r.RunID
		s.FlowcellIDs[i] = r.FlowcellID
		s.Lanes[i] = r.Lane
		s.Tiles[i] = r.Tile
		s.XCoords[i] = r.X
		s.YCoords[i] = r.Y
		s.UMIIDs[i] = r.UMIID
		s.UMIPresent[i] = r.HasUMI
		s.ReadNums[i] = r.ReadNum
		s.Flags[i] = r.Flags
		s.IndexIDs[i] = r.IndexID
		s.IndexPresent[i] = r.HasIndex
	}
	return s
}

// FromStreams is the inverse of ToStreams. ReadNums and Flags have no
// presence column in the stream layout (they are dense, not sparse), so
// every reconstructed record comes back with HasReadNum and HasFlags set:
// a record that goes through the column-store block format loses the
// distinction between "read-num field absent" and "read-num field equal
// to its default value."
func FromStreams(s TokenizedStreams) []TokenizedReadName {
	n := len(s.InstrumentIDs)
	records := make([]TokenizedReadName, n)
	for i := range records {
		records[i] = TokenizedReadName{
			InstrumentID: s.InstrumentIDs[i],
			RunID:        s.RunIDs[i],
			FlowcellID:   s.FlowcellIDs[i],
			Lane:         s.Lanes[i],
			Tile:         s.Tiles[i],
			X:            s.XCoords[i],
			Y:            s.YCoords[i],
			UMIID:        s.UMIIDs[i],
			HasUMI:       s.UMIPresent[i],
			ReadNum:      s.ReadNums[i],
			HasReadNum:   true,
			Flags:        s.Flags[i],
			HasFlags:     true,
			IndexID:      s.IndexIDs[i],
			HasIndex:     s.IndexPresent[i],
		}
	}
	return records
}
