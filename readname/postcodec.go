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

	"github.com/klauspost/compress/zlib"
)

// PostTokenizationConfig toggles the optional stages of the per-stream
// compression pipeline. The Huffman stage is currently a documented
// pass-through in this implementation (see DESIGN.md); the toggle is
// kept so that fact is visible and controllable rather than silently
// inlined away.
type PostTokenizationConfig struct {
	UseRLE           bool
	UseHuffman       bool
	UseDeltaEncoding bool
	UseDeflate       bool
	RLEThreshold     float64
}

// DefaultPostTokenizationConfig matches the reference pipeline: every
// stage enabled, RLE benefit threshold 0.2.
func DefaultPostTokenizationConfig() PostTokenizationConfig {
	return PostTokenizationConfig{
		UseRLE:           true,
		UseHuffman:       true,
		UseDeltaEncoding: true,
		UseDeflate:       true,
		RLEThreshold:     0.2,
	}
}

// PostTokenizationCodec implements the column-store, stream-wise entropy
// pipeline described in spec.md §4.6: one DEFLATE pass over a serialized
// Dictionary plus one pass per typed stream (categorical RLE+DEFLATE,
// numeric delta+varint+DEFLATE, joint coordinate delta+varint+DEFLATE,
// sparse bitmap+values).
type PostTokenizationCodec struct {
	cfg PostTokenizationConfig
}

// NewPostTokenizationCodec returns a codec configured with cfg.
func NewPostTokenizationCodec(cfg PostTokenizationConfig) *PostTokenizationCodec {
	return &PostTokenizationCodec{cfg: cfg}
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// should_use_huffman in the reference pipeline; kept for parity with
// the config surface even though the Huffman stage itself is a
// pass-through (see huffmanEncode).
func shouldUseHuffman(data []byte) bool {
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	distinct := 0
	for _, c := range freq {
		if c > 0 {
			distinct++
		}
	}
	return distinct < len(data)/2 && distinct > 1 && len(data) > 20
}

// huffmanEncode is a documented pass-through: the reference
// implementation this is ported from reserves this stage for a future
// canonical Huffman coder but currently returns its input unchanged
// (see DESIGN.md Open Question on the Huffman stage).
func huffmanEncode(data []byte) []byte { return data }

const (
	categoricalPlain byte = 0
	categoricalRLE   byte = 1
)

// compressCategorical prefixes a one-byte tag recording whether RLE was
// applied, since the RLE run format is not otherwise self-describing:
// without it a plain byte stream that happens to parse as valid RLE runs
// of the same decoded length would silently decode to the wrong bytes.
func (c *PostTokenizationCodec) compressCategorical(data []byte) ([]byte, error) {
	working := data
	tag := categoricalPlain
	if c.cfg.UseRLE && rleBenefit(data) > c.cfg.RLEThreshold {
		working = rleEncode(working)
		tag = categoricalRLE
	}
	if c.cfg.UseHuffman && shouldUseHuffman(working) {
		working = huffmanEncode(working)
	}
	tagged := append([]byte{tag}, working...)
	if c.cfg.UseDeflate {
		return deflate(tagged)
	}
	return tagged, nil
}

func directVarintEncode(data []uint32) []byte {
	var out []byte
	for _, v := range data {
		out = AppendVarint(out, int32(v))
	}
	return out
}

func deltaVarintEncode(data []uint32) []byte {
	var out []byte
	out = AppendVarint(out, int32(data[0]))
	for i := 1; i < len(data); i++ {
		out = AppendVarint(out, int32(data[i])-int32(data[i-1]))
	}
	return out
}

func (c *PostTokenizationCodec) compressNumeric(data []uint32) ([]byte, error) {
	var encoded []byte
	if c.cfg.UseDeltaEncoding && len(data) > 1 {
		encoded = deltaVarintEncode(data)
	} else {
		encoded = directVarintEncode(data)
	}
	if c.cfg.UseDeflate {
		return deflate(encoded)
	}
	return encoded, nil
}

// compressCoordinates jointly delta-codes (x, y, tile) against a rolling
// (0,0,0) baseline using i32 deltas (not the clamped i16 CoordinateEncoder
// — see DESIGN.md), then interleaves zig-zag varints per record.
func (c *PostTokenizationCodec) compressCoordinates(x, y []uint32, tile []uint16) ([]byte, error) {
	var out []byte
	var lastX, lastY int64
	var lastTile int64
	for i := range x {
		dx := int32(int64(x[i]) - lastX)
		dy := int32(int64(y[i]) - lastY)
		dt := int32(int64(tile[i]) - lastTile)
		out = AppendVarint(out, dx)
		out = AppendVarint(out, dy)
		out = AppendVarint(out, dt)
		lastX, lastY, lastTile = int64(x[i]), int64(y[i]), int64(tile[i])
	}
	if c.cfg.UseDeflate {
		return deflate(out)
	}
	return out, nil
}

// compressSparse emits a presence bitmap (LSB-first within a byte) and a
// dense zig-zag-varint value stream for the present entries, DEFLATEing
// each independently and framing as
// varint(|bitmap|)|bitmap|varint(|values|)|values.
func (c *PostTokenizationCodec) compressSparse(values []uint16, present []bool) ([]byte, error) {
	n := len(present)
	bitmap := make([]byte, (n+7)/8)
	var valueBytes []byte
	for i, ok := range present {
		if ok {
			bitmap[i/8] |= 1 << uint(i%8)
			valueBytes = AppendVarint(valueBytes, int32(values[i]))
		}
	}
	cbitmap, cvalues := bitmap, valueBytes
	var err error
	if c.cfg.UseDeflate {
		cbitmap, err = deflate(bitmap)
		if err != nil {
			return nil, err
		}
		cvalues, err = deflate(valueBytes)
		if err != nil {
			return nil, err
		}
	}
	out := AppendUvarint(nil, len(cbitmap))
	out = append(out, cbitmap...)
	out = AppendUvarint(out, len(cvalues))
	out = append(out, cvalues...)
	return out, nil
}

func serializeDictionarySections(dict *Dictionary) []byte {
	var out []byte
	for _, t := range []*table{&dict.instruments, &dict.flowcells, &dict.umis, &dict.indices} {
		out = AppendUvarint(out, len(t.entries))
		for _, e := range t.entries {
			out = AppendUvarint(out, len(e))
			out = append(out, e...)
		}
	}
	return out
}

func (c *PostTokenizationCodec) compressDictionary(dict *Dictionary) ([]byte, error) {
	serialized := serializeDictionarySections(dict)
	if c.cfg.UseDeflate {
		return deflate(serialized)
	}
	return serialized, nil
}

func appendFramed(dst, payload []byte) []byte {
	dst = AppendUvarint(dst, len(payload))
	return append(dst, payload...)
}

// Encode produces a single self-contained byte block from a tokenized
// batch and the dictionary that produced it, per the bit-exact layout in
// spec.md §6.
func (c *PostTokenizationCodec) Encode(records []TokenizedReadName, dict *Dictionary) ([]byte, error) {
	streams := ToStreams(records)

	compDict, err := c.compressDictionary(dict)
	if err != nil {
		return nil, err
	}
	instr, err := c.compressCategorical(streams.InstrumentIDs)
	if err != nil {
		return nil, err
	}
	runIDs, err := c.compressNumeric(streams.RunIDs)
	if err != nil {
		return nil, err
	}
	flowcells, err := c.compressCategorical(streams.FlowcellIDs)
	if err != nil {
		return nil, err
	}
	lanes, err := c.compressCategorical(streams.Lanes)
	if err != nil {
		return nil, err
	}
	readNums, err := c.compressCategorical(streams.ReadNums)
	if err != nil {
		return nil, err
	}
	flags, err := c.compressCategorical(streams.Flags)
	if err != nil {
		return nil, err
	}
	coords, err := c.compressCoordinates(streams.XCoords, streams.YCoords, streams.Tiles)
	if err != nil {
		return nil, err
	}
	umis, err := c.compressSparse(streams.UMIIDs, streams.UMIPresent)
	if err != nil {
		return nil, err
	}
	indexU16 := make([]uint16, len(streams.IndexIDs))
	for i, v := range streams.IndexIDs {
		indexU16[i] = uint16(v)
	}
	indices, err := c.compressSparse(indexU16, streams.IndexPresent)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = appendFramed(out, compDict)
	out = appendFramed(out, instr)
	out = appendFramed(out, runIDs)
	out = appendFramed(out, flowcells)
	out = appendFramed(out, lanes)
	out = appendFramed(out, readNums)
	out = appendFramed(out, flags)
	out = appendFramed(out, coords)
	out = appendFramed(out, umis)
	out = appendFramed(out, indices)
	return out, nil
}

// takeFramed reads one varint(len)|data section from the front of src,
// returning the payload and the unconsumed remainder.
func takeFramed(src []byte) (payload, rest []byte, err error) {
	n, k := GetUvarint(src)
	if k == 0 || n < 0 || k+n > len(src) {
		return nil, nil, newErr(InvalidFormat, "truncated framed section")
	}
	return src[k : k+n], src[k+n:], nil
}

func (c *PostTokenizationCodec) decompressCategorical(data []byte, n int) ([]byte, error) {
	working := data
	if c.cfg.UseDeflate {
		var err error
		working, err = inflate(working)
		if err != nil {
			return nil, err
		}
	}
	// huffmanEncode is a pass-through, so there is no inverse stage to run.
	if len(working) == 0 {
		return working, nil
	}
	tag, body := working[0], working[1:]
	if tag == categoricalRLE {
		return rleDecode(body)
	}
	return body, nil
}

func (c *PostTokenizationCodec) decompressNumeric(data []byte, n int) ([]uint32, error) {
	working := data
	if c.cfg.UseDeflate {
		var err error
		working, err = inflate(working)
		if err != nil {
			return nil, err
		}
	}
	out := make([]uint32, 0, n)
	rest := working
	for len(out) < n {
		v, k := GetVarint(rest)
		if k == 0 {
			return nil, newErr(InvalidFormat, "truncated numeric stream")
		}
		rest = rest[k:]
		out = append(out, uint32(v))
	}
	if c.cfg.UseDeltaEncoding && n > 1 {
		for i := 1; i < len(out); i++ {
			out[i] = uint32(int32(out[i]) + int32(out[i-1]))
		}
	}
	return out, nil
}

func (c *PostTokenizationCodec) decompressCoordinates(data []byte, n int) (x, y []uint32, tile []uint16, err error) {
	working := data
	if c.cfg.UseDeflate {
		working, err = inflate(working)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	x = make([]uint32, n)
	y = make([]uint32, n)
	tile = make([]uint16, n)
	var lastX, lastY, lastTile int64
	rest := working
	for i := 0; i < n; i++ {
		dx, k1 := GetVarint(rest)
		if k1 == 0 {
			return nil, nil, nil, newErr(InvalidFormat, "truncated coordinate stream")
		}
		rest = rest[k1:]
		dy, k2 := GetVarint(rest)
		if k2 == 0 {
			return nil, nil, nil, newErr(InvalidFormat, "truncated coordinate stream")
		}
		rest = rest[k2:]
		dt, k3 := GetVarint(rest)
		if k3 == 0 {
			return nil, nil, nil, newErr(InvalidFormat, "truncated coordinate stream")
		}
		rest = rest[k3:]
		lastX += int64(dx)
		lastY += int64(dy)
		lastTile += int64(dt)
		x[i] = uint32(lastX)
		y[i] = uint32(lastY)
		tile[i] = uint16(lastTile)
	}
	return x, y, tile, nil
}

func (c *PostTokenizationCodec) decompressSparse(data []byte, n int) (values []uint16, present []bool, err error) {
	cbitmap, rest, err := takeFramed(data)
	if err != nil {
		return nil, nil, err
	}
	cvalues, _, err := takeFramed(rest)
	if err != nil {
		return nil, nil, err
	}
	bitmap, vbytes := cbitmap, cvalues
	if c.cfg.UseDeflate {
		bitmap, err = inflate(cbitmap)
		if err != nil {
			return nil, nil, err
		}
		vbytes, err = inflate(cvalues)
		if err != nil {
			return nil, nil, err
		}
	}
	present = make([]bool, n)
	values = make([]uint16, n)
	vrest := vbytes
	for i := 0; i < n; i++ {
		if bitmap[i/8]&(1<<uint(i%8)) == 0 {
			continue
		}
		present[i] = true
		v, k := GetVarint(vrest)
		if k == 0 {
			return nil, nil, newErr(InvalidFormat, "truncated sparse value stream")
		}
		vrest = vrest[k:]
		values[i] = uint16(v)
	}
	return values, present, nil
}

func deserializeDictionarySections(data []byte) (*Dictionary, error) {
	dict := NewDictionary()
	tables := []*table{&dict.instruments, &dict.flowcells, &dict.umis, &dict.indices}
	rest := data
	for _, t := range tables {
		count, k := GetUvarint(rest)
		if k == 0 {
			return nil, newErr(InvalidFormat, "truncated dictionary section count")
		}
		rest = rest[k:]
		for i := 0; i < count; i++ {
			entry, remainder, err := takeFramed(rest)
			if err != nil {
				return nil, err
			}
			rest = remainder
			t.add(entry)
		}
	}
	return dict, nil
}

func (c *PostTokenizationCodec) decompressDictionary(data []byte) (*Dictionary, error) {
	working := data
	if c.cfg.UseDeflate {
		var err error
		working, err = inflate(working)
		if err != nil {
			return nil, err
		}
	}
	return deserializeDictionarySections(working)
}

// Decode is the inverse of Encode: it reconstructs the dictionary and the
// tokenized batch (as column streams) from a previously encoded block. The
// caller supplies n, the record count, since it is carried alongside the
// block rather than inside it (see spec.md §6).
func (c *PostTokenizationCodec) Decode(block []byte, n int) (TokenizedStreams, *Dictionary, error) {
	var s TokenizedStreams
	compDict, rest, err := takeFramed(block)
	if err != nil {
		return s, nil, err
	}
	dict, err := c.decompressDictionary(compDict)
	if err != nil {
		return s, nil, err
	}

	instr, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	instrBytes, err := c.decompressCategorical(instr, n)
	if err != nil {
		return s, nil, err
	}

	runIDsRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	runIDs, err := c.decompressNumeric(runIDsRaw, n)
	if err != nil {
		return s, nil, err
	}

	flowcellsRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	flowcellBytes, err := c.decompressCategorical(flowcellsRaw, n)
	if err != nil {
		return s, nil, err
	}

	lanesRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	laneBytes, err := c.decompressCategorical(lanesRaw, n)
	if err != nil {
		return s, nil, err
	}

	readNumsRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	readNumBytes, err := c.decompressCategorical(readNumsRaw, n)
	if err != nil {
		return s, nil, err
	}

	flagsRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	flagBytes, err := c.decompressCategorical(flagsRaw, n)
	if err != nil {
		return s, nil, err
	}

	coordsRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	x, y, tile, err := c.decompressCoordinates(coordsRaw, n)
	if err != nil {
		return s, nil, err
	}

	umisRaw, rest, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	umiIDs, umiPresent, err := c.decompressSparse(umisRaw, n)
	if err != nil {
		return s, nil, err
	}

	indicesRaw, _, err := takeFramed(rest)
	if err != nil {
		return s, nil, err
	}
	indexVals, indexPresent, err := c.decompressSparse(indicesRaw, n)
	if err != nil {
		return s, nil, err
	}
	indexIDs := make([]uint8, n)
	for i, v := range indexVals {
		indexIDs[i] = uint8(v)
	}

	s = TokenizedStreams{
		InstrumentIDs: instrBytes,
		RunIDs:        runIDs,
		FlowcellIDs:   flowcellBytes,
		Lanes:         laneBytes,
		Tiles:         tile,
		XCoords:       x,
		YCoords:       y,
		UMIIDs:        umiIDs,
		UMIPresent:    umiPresent,
		ReadNums:      readNumBytes,
		Flags:         flagBytes,
		IndexIDs:      indexIDs,
		IndexPresent:  indexPresent,
	}
	return s, dict, nil
}
