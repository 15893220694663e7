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

// Package readname implements the tokenizing codec for the read-name
// column of a columnar sequencing-alignment container.
//
// It parses Illumina-family read identifiers into a fixed-schema typed
// record (TokenizedReadName), interns their rare-value components in a
// per-block Dictionary, and runs a column-store, stream-wise entropy
// pipeline (run-length, delta, zig-zag varint, DEFLATE) over the result.
// Every block is self-describing: there is no cross-block dictionary
// sharing, and a Dictionary and its Tokenizer live exactly as long as the
// block being compressed.
package readname
