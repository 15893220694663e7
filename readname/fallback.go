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

import "encoding/binary"

const (
	umiAbsentSentinel   = 0xFFFF
	indexAbsentSentinel = 0xFF
)

// fallbackRecordSize is the fixed byte width of one record in the
// fallback envelope: instrument_id(1) + run_id(4) + flowcell_id(1) +
// lane(1) + tile(2) + x(4) + y(4) + umi_id(2) + read_num(1) + flags(1) +
// index_id(1).
const fallbackRecordSize = 1 + 4 + 1 + 1 + 2 + 4 + 4 + 2 + 1 + 1 + 1

// EncodeFallbackEnvelope serializes records and dict into the hand-rolled
// envelope used when the post-tokenization codec fails: a length-prefixed
// dictionary section followed by a fixed-width record array. The general
// codec (§4.7) is applied to the result by the caller, not here.
func EncodeFallbackEnvelope(records []TokenizedReadName, dict *Dictionary) []byte {
	dictBytes := serializeDictionaryFixedWidth(dict)

	out := make([]byte, 0, 4+len(dictBytes)+4+len(records)*fallbackRecordSize)
	out = appendU32LE(out, uint32(len(dictBytes)))
	out = append(out, dictBytes...)
	out = appendU32LE(out, uint32(len(records)))
	for _, r := range records {
		out = appendRecordFixedWidth(out, r)
	}
	return out
}

// DecodeFallbackEnvelope is the inverse of EncodeFallbackEnvelope.
func DecodeFallbackEnvelope(envelope []byte) ([]TokenizedReadName, *Dictionary, error) {
	if len(envelope) < 4 {
		return nil, nil, newErr(InvalidFormat, "fallback envelope truncated before dict size")
	}
	dictSize := binary.LittleEndian.Uint32(envelope)
	envelope = envelope[4:]
	if uint32(len(envelope)) < dictSize {
		return nil, nil, newErr(InvalidFormat, "fallback envelope truncated dict section")
	}
	dict, err := deserializeDictionaryFixedWidth(envelope[:dictSize])
	if err != nil {
		return nil, nil, err
	}
	envelope = envelope[dictSize:]

	if len(envelope) < 4 {
		return nil, nil, newErr(InvalidFormat, "fallback envelope truncated before record count")
	}
	n := binary.LittleEndian.Uint32(envelope)
	envelope = envelope[4:]
	if uint64(len(envelope)) < uint64(n)*fallbackRecordSize {
		return nil, nil, newErr(InvalidFormat, "fallback envelope truncated record array")
	}

	records := make([]TokenizedReadName, n)
	for i := range records {
		rec, err := readRecordFixedWidth(envelope[i*fallbackRecordSize:])
		if err != nil {
			return nil, nil, err
		}
		records[i] = rec
	}
	return records, dict, nil
}

func appendU32LE(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendU16LE(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func serializeDictionaryFixedWidth(dict *Dictionary) []byte {
	var out []byte
	for _, t := range []*table{&dict.instruments, &dict.flowcells, &dict.umis, &dict.indices} {
		out = appendU32LE(out, uint32(len(t.entries)))
		for _, e := range t.entries {
			out = appendU32LE(out, uint32(len(e)))
			out = append(out, e...)
		}
	}
	return out
}

func deserializeDictionaryFixedWidth(data []byte) (*Dictionary, error) {
	dict := NewDictionary()
	tables := []*table{&dict.instruments, &dict.flowcells, &dict.umis, &dict.indices}
	rest := data
	for _, t := range tables {
		if len(rest) < 4 {
			return nil, newErr(InvalidFormat, "truncated fallback dictionary section count")
		}
		count := binary.LittleEndian.Uint32(rest)
		rest = rest[4:]
		for i := uint32(0); i < count; i++ {
			if len(rest) < 4 {
				return nil, newErr(InvalidFormat, "truncated fallback dictionary entry length")
			}
			n := binary.LittleEndian.Uint32(rest)
			rest = rest[4:]
			if uint32(len(rest)) < n {
				return nil, newErr(InvalidFormat, "truncated fallback dictionary entry bytes")
			}
			t.add(rest[:n])
			rest = rest[n:]
		}
	}
	return dict, nil
}

func appendRecordFixedWidth(dst []byte, r TokenizedReadName) []byte {
	dst = append(dst, r.InstrumentID)
	dst = appendU32LE(dst, r.RunID)
	dst = append(dst, r.FlowcellID)
	dst = append(dst, r.Lane)
	dst = appendU16LE(dst, r.Tile)
	dst = appendU32LE(dst, r.X)
	dst = appendU32LE(dst, r.Y)
	umi := uint16(umiAbsentSentinel)
	if r.HasUMI {
		umi = r.UMIID
	}
	dst = appendU16LE(dst, umi)
	dst = append(dst, r.ReadNum)
	dst = append(dst, r.Flags)
	index := uint8(indexAbsentSentinel)
	if r.HasIndex {
		index = r.IndexID
	}
	dst = append(dst, index)
	return dst
}

func readRecordFixedWidth(b []byte) (TokenizedReadName, error) {
	if len(b) < fallbackRecordSize {
		return TokenizedReadName{}, newErr(InvalidFormat, "truncated fallback record")
	}
	r := TokenizedReadName{}
	r.InstrumentID = b[0]
	r.RunID = binary.LittleEndian.Uint32(b[1:5])
	r.FlowcellID = b[5]
	r.Lane = b[6]
	r.Tile = binary.LittleEndian.Uint16(b[7:9])
	r.X = binary.LittleEndian.Uint32(b[9:13])
	r.Y = binary.LittleEndian.Uint32(b[13:17])
	umi := binary.LittleEndian.Uint16(b[17:19])
	if umi != umiAbsentSentinel {
		r.UMIID = umi
		r.HasUMI = true
	}
	r.ReadNum = b[19]
	r.HasReadNum = true
	r.Flags = b[20]
	r.HasFlags = true
	index := b[21]
	if index != indexAbsentSentinel {
		r.IndexID = index
		r.HasIndex = true
	}
	return r, nil
}
