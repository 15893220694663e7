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

import "fmt"

// Kind classifies the way a tokenization operation failed.
type Kind int

const (
	// InvalidFormat means the input does not match any known
	// read-name grammar.
	InvalidFormat Kind = iota
	// ParseError means a field matched the grammar positionally but
	// failed to parse as the expected integer type.
	ParseError
	// InvalidDictionary means a dictionary index referenced during
	// detokenization or decoding could not be resolved.
	InvalidDictionary
	// UnsupportedPattern means the analyzer classified the batch as a
	// pattern the tokenizer does not know how to parse.
	UnsupportedPattern
)

func (k Kind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case ParseError:
		return "parse error"
	case InvalidDictionary:
		return "invalid dictionary"
	case UnsupportedPattern:
		return "unsupported pattern"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned by tokenization and detokenization.
type Error struct {
	Kind Kind
	Msg  string
	// Index is the offending item's position in a batch, or -1 if the
	// error is not associated with a particular batch entry.
	Index int
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("readname: %s at index %d: %s", e.Kind, e.Index, e.Msg)
	}
	return fmt.Sprintf("readname: %s: %s", e.Kind, e.Msg)
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Index: -1}
}
