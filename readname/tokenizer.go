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
	"strconv"
	"strings"
)

// lossyString renders b as a string, substituting the Unicode
// replacement character for any invalid UTF-8 sequences.
func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// Tokenizer parses Illumina-family read names into TokenizedReadName
// records, interning string components into an owned Dictionary. A
// Tokenizer (and its Dictionary) is scoped to a single block: there is
// no cross-block sharing, so each worker in the parallel pipeline
// constructs its own.
type Tokenizer struct {
	dict *Dictionary
}

// NewTokenizer returns a Tokenizer backed by a fresh, empty Dictionary.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{dict: NewDictionary()}
}

// Dictionary returns the tokenizer's backing Dictionary.
func (t *Tokenizer) Dictionary() *Dictionary { return t.dict }

// TokenizeBatch tokenizes every name in names, in order. It is
// all-or-nothing: the first failure aborts the whole batch and returns
// an *Error carrying the offending index, a lossy UTF-8 rendering of the
// offending name, and the underlying error kind.
func (t *Tokenizer) TokenizeBatch(names [][]byte) ([]TokenizedReadName, error) {
	out := make([]TokenizedReadName, 0, len(names))
	for i, name := range names {
		rec, err := t.TokenizeSingle(name)
		if err != nil {
			return nil, &Error{
				Kind:  ParseError,
				Msg:   "failed to tokenize read " + strconv.Itoa(i) + " (" + lossyString(name) + "): " + err.Error(),
				Index: i,
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// TokenizeSingle tokenizes a single read name, trying the modern
// Illumina grammar first and falling back to the legacy grammar.
func (t *Tokenizer) TokenizeSingle(name []byte) (TokenizedReadName, error) {
	if rec, err := t.parseModern(name); err == nil {
		return rec, nil
	}
	if rec, err := t.parseLegacy(name); err == nil {
		return rec, nil
	}
	return TokenizedReadName{}, newErr(InvalidFormat, "unrecognized Illumina format: %s", name)
}

func isColonOrSpace(c byte) bool { return c == ':' || c == ' ' }

func splitColonSpace(name []byte) [][]byte {
	var parts [][]byte
	start := 0
	for i, c := range name {
		if isColonOrSpace(c) {
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	parts = append(parts, name[start:])
	return parts
}

func parseU8(b []byte) (uint8, error) {
	v, err := strconv.ParseUint(string(b), 10, 8)
	return uint8(v), err
}

func parseU16(b []byte) (uint16, error) {
	v, err := strconv.ParseUint(string(b), 10, 16)
	return uint16(v), err
}

func parseU32(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(b), 10, 32)
	return uint32(v), err
}

// parseModern parses the modern Illumina grammar:
//
//	INSTRUMENT:RUN:FLOWCELL:LANE:TILE:X:Y[:UMI[:READNUM[:FLAGS[:INDEX]]]]
func (t *Tokenizer) parseModern(name []byte) (TokenizedReadName, error) {
	parts := splitColonSpace(name)
	if len(parts) < 7 {
		return TokenizedReadName{}, newErr(InvalidFormat, "not modern Illumina format")
	}

	runID, err := parseU32(parts[1])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "run id: %v", err)
	}
	lane, err := parseU8(parts[3])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "lane: %v", err)
	}
	tile, err := parseU16(parts[4])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "tile: %v", err)
	}
	x, err := parseU32(parts[5])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "x: %v", err)
	}
	y, err := parseU32(parts[6])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "y: %v", err)
	}

	rec := TokenizedReadName{
		InstrumentID: t.dict.AddInstrument(parts[0]),
		RunID:        runID,
		FlowcellID:   t.dict.AddFlowcell(parts[2]),
		Lane:         lane,
		Tile:         tile,
		X:            x,
		Y:            y,
		ReadNum:      1,
	}

	if len(parts) > 7 && len(parts[7]) > 0 {
		rec.UMIID = t.dict.AddUMI(parts[7])
		rec.HasUMI = true
	}
	if len(parts) > 8 {
		rec.HasReadNum = true
		if v, err := parseU8(parts[8]); err == nil {
			rec.ReadNum = v
		}
	}
	if len(parts) > 9 {
		rec.HasFlags = true
		rec.Flags = parseFlags(parts[9])
	}
	if len(parts) > 10 && len(parts[10]) > 0 {
		rec.IndexID = t.dict.AddIndex(parts[10])
		rec.HasIndex = true
	}
	return rec, nil
}

func parseFlags(b []byte) uint8 {
	switch string(b) {
	case "Y":
		return 1
	case "N":
		return 0
	default:
		v, err := parseU8(b)
		if err != nil {
			return 0
		}
		return v
	}
}

// parseLegacy parses the legacy Illumina grammar:
//
//	INSTRUMENT_RUN:LANE:TILE:X:Y[#INDEX[|UMI]]
func (t *Tokenizer) parseLegacy(name []byte) (TokenizedReadName, error) {
	mainParts := splitOnce(name, '#')
	coordPart := mainParts[0]

	parts := make([][]byte, 0, 5)
	start := 0
	for i, c := range coordPart {
		if c == ':' {
			parts = append(parts, coordPart[start:i])
			start = i + 1
		}
	}
	parts = append(parts, coordPart[start:])
	if len(parts) != 5 {
		return TokenizedReadName{}, newErr(InvalidFormat, "legacy format should have 5 colon-separated parts, got %d", len(parts))
	}

	instrumentRun := parts[0]
	lane, err := parseU8(parts[1])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "lane: %v", err)
	}
	tile, err := parseU16(parts[2])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "tile: %v", err)
	}
	x, err := parseU32(parts[3])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "x: %v", err)
	}
	y, err := parseU32(parts[4])
	if err != nil {
		return TokenizedReadName{}, newErr(ParseError, "y: %v", err)
	}

	rec := TokenizedReadName{
		InstrumentID: t.dict.AddInstrument(instrumentRun),
		RunID:        hashString(instrumentRun),
		FlowcellID:   0,
		Lane:         lane,
		Tile:         tile,
		X:            x,
		Y:            y,
		ReadNum:      1,
	}

	if len(mainParts) > 1 {
		suffix := mainParts[1]
		if pipe := indexOf(suffix, '|'); pipe >= 0 {
			indexPart, umiPart := suffix[:pipe], suffix[pipe+1:]
			if len(indexPart) > 0 {
				rec.IndexID = t.dict.AddIndex(indexPart)
				rec.HasIndex = true
			}
			if len(umiPart) > 0 {
				rec.UMIID = t.dict.AddUMI(umiPart)
				rec.HasUMI = true
			}
		} else if len(suffix) > 0 {
			rec.IndexID = t.dict.AddIndex(suffix)
			rec.HasIndex = true
		}
	}
	return rec, nil
}

// splitOnce splits b on the first occurrence of c, returning one
// element if c is not present.
func splitOnce(b []byte, c byte) [][]byte {
	if i := indexOf(b, c); i >= 0 {
		return [][]byte{b[:i], b[i+1:]}
	}
	return [][]byte{b}
}

func indexOf(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// hashString is a 32-bit multiplicative string hash with wrapping
// arithmetic: h <- h*31 + byte.
func hashString(b []byte) uint32 {
	var h uint32
	for _, c := range b {
		h = h*31 + uint32(c)
	}
	return h
}

// Detokenize reconstructs the original read-name bytes from a tokenized
// record, dispatching on FlowcellID == 0 for the legacy shape. The modern
// suffix fields (UMI, read-num, flags, index) are each emitted only when
// their Has* bit is set, so a name with no optional suffix round-trips
// back to exactly its original bytes.
func (t *Tokenizer) Detokenize(rec TokenizedReadName) ([]byte, error) {
	instrument, ok := t.dict.Instrument(rec.InstrumentID)
	if !ok {
		return nil, newErr(InvalidDictionary, "instrument id %d not found", rec.InstrumentID)
	}

	var name []byte
	name = append(name, instrument...)

	if rec.FlowcellID == 0 {
		name = append(name, ':')
		name = strconv.AppendUint(name, uint64(rec.Lane), 10)
		name = append(name, ':')
		name = strconv.AppendUint(name, uint64(rec.Tile), 10)
		name = append(name, ':')
		name = strconv.AppendUint(name, uint64(rec.X), 10)
		name = append(name, ':')
		name = strconv.AppendUint(name, uint64(rec.Y), 10)

		if rec.HasIndex || rec.HasUMI {
			name = append(name, '#')
			if rec.HasIndex {
				if idx, ok := t.dict.Index(rec.IndexID); ok {
					name = append(name, idx...)
				}
			}
			if rec.HasUMI {
				if umi, ok := t.dict.UMI(rec.UMIID); ok {
					name = append(name, '|')
					name = append(name, umi...)
				}
			}
		}
		return name, nil
	}

	name = append(name, ':')
	name = strconv.AppendUint(name, uint64(rec.RunID), 10)

	if flowcell, ok := t.dict.Flowcell(rec.FlowcellID); ok {
		name = append(name, ':')
		name = append(name, flowcell...)
	}
	name = append(name, ':')
	name = strconv.AppendUint(name, uint64(rec.Lane), 10)
	name = append(name, ':')
	name = strconv.AppendUint(name, uint64(rec.Tile), 10)
	name = append(name, ':')
	name = strconv.AppendUint(name, uint64(rec.X), 10)
	name = append(name, ':')
	name = strconv.AppendUint(name, uint64(rec.Y), 10)

	if rec.HasUMI {
		if umi, ok := t.dict.UMI(rec.UMIID); ok {
			name = append(name, ':')
			name = append(name, umi...)
		}
	}

	if rec.HasReadNum {
		name = append(name, ':')
		name = strconv.AppendUint(name, uint64(rec.ReadNum), 10)
	}

	if rec.HasFlags {
		name = append(name, ':')
		if rec.Flags&0x01 != 0 {
			name = append(name, 'Y')
		} else {
			name = append(name, 'N')
		}
	}

	if rec.HasIndex {
		if idx, ok := t.dict.Index(rec.IndexID); ok {
			name = append(name, ':')
			name = append(name, idx...)
		}
	}
	return name, nil
}
