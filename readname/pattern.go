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

import "github.com/gbamio/blockcomp/bytesutil"

// Pattern classifies the structural shape of a batch of read names.
type Pattern int

const (
	Unstructured Pattern = iota
	Illumina
	PacBio
	Custom
)

func (p Pattern) String() string {
	switch p {
	case Illumina:
		return "Illumina"
	case PacBio:
		return "PacBio"
	case Custom:
		return "Custom"
	default:
		return "Unstructured"
	}
}

const (
	illuminaMinColons = 6
	illuminaMinParts  = 7
)

func isIllumina(name []byte) bool {
	return bytesutil.Count(name, ':') >= illuminaMinColons &&
		len(bytesutil.Split(name, ':')) >= illuminaMinParts
}

func isPacBio(name []byte) bool {
	return bytesutil.Count(name, '/') == 2
}

func hasCustomPattern(names [][]byte) bool {
	if len(names) < 2 {
		return false
	}
	first := names[0]
	minPrefix := -1
	for _, n := range names {
		l := bytesutil.CommonPrefixLen(first, n)
		if minPrefix < 0 || l < minPrefix {
			minPrefix = l
		}
	}
	return minPrefix > len(first)/3
}

// DetectPattern classifies names into one of {Illumina, PacBio, Custom,
// Unstructured}, in that priority order.
func DetectPattern(names [][]byte) Pattern {
	if len(names) == 0 {
		return Unstructured
	}
	total := len(names)
	illuminaCount, pacbioCount := 0, 0
	for _, n := range names {
		if isIllumina(n) {
			illuminaCount++
		}
		if isPacBio(n) {
			pacbioCount++
		}
	}
	if float64(illuminaCount)/float64(total) > 0.8 {
		return Illumina
	}
	if float64(pacbioCount)/float64(total) > 0.8 {
		return PacBio
	}
	if hasCustomPattern(names) {
		return Custom
	}
	return Unstructured
}

// ShouldTokenize reports whether a batch of names is large enough and
// structured enough for tokenization to be worthwhile. It always returns
// false for batches smaller than 10.
func ShouldTokenize(names [][]byte) bool {
	if len(names) < 10 {
		return false
	}
	switch DetectPattern(names) {
	case Illumina, PacBio:
		return true
	case Custom:
		return bytesutil.Redundancy(names) > 0.3
	default:
		return false
	}
}
