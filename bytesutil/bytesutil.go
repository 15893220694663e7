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

// Package bytesutil provides small allocation-light helpers over raw byte
// slices used by the read-name pattern analyzer. Split allocates only its
// result slice; the other helpers allocate nothing on success.
package bytesutil

import "fmt"

// Split splits b on delim, retaining an empty trailing segment when the
// delimiter is the last byte of b. The returned slices alias b.
func Split(b []byte, delim byte) [][]byte {
	var parts [][]byte
	start := 0
	for i, c := range b {
		if c == delim {
			parts = append(parts, b[start:i])
			start = i + 1
		}
	}
	parts = append(parts, b[start:])
	return parts
}

// Count returns the number of occurrences of c in b.
func Count(b []byte, c byte) int {
	n := 0
	for _, x := range b {
		if x == c {
			n++
		}
	}
	return n
}

// CommonPrefixLen returns the length of the longest common prefix of a and b.
func CommonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// ParseUint parses the decimal digits in b into a uint64, failing on any
// non-digit byte or an empty slice.
func ParseUint(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("bytesutil: empty integer")
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("bytesutil: invalid digit %q in %q", c, b)
		}
		v = v*10 + uint64(c-'0')
	}
	return v, nil
}

// Redundancy computes r = 1 - |distinct bytes| / total bytes across data.
// It returns 0 when data contains no bytes at all.
func Redundancy(data [][]byte) float64 {
	total := 0
	var seen [256]bool
	distinct := 0
	for _, s := range data {
		total += len(s)
		for _, c := range s {
			if !seen[c] {
				seen[c] = true
				distinct++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 1 - float64(distinct)/float64(total)
}
