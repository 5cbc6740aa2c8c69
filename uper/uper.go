// Package uper implements the Unaligned Packed Encoding Rules of
// ITU-T X.691 on top of the bitio bit buffers.
//
// Writer and Reader implement the codec.Writer and codec.Reader
// contracts; emitted types drive them with one call per field. All
// primitives are bit-exact per X.691 chapters 11-19: constrained,
// semi-constrained and unconstrained whole numbers, length determinants
// with 16-KiB fragmentation, normally-small numbers, extensibility
// bits, optional-presence bitmaps and open-type wrapping.
package uper

import (
	"math"

	"github.com/asn1go/asn1go/codec"
)

// the UPER driver implements the full codec contract
var (
	_ codec.Writer = (*Writer)(nil)
	_ codec.Reader = (*Reader)(nil)
)

const (
	// fragmentUnit is the 16-KiB item unit of fragmented length
	// determinants (X.691 11.9.3.8).
	fragmentUnit = 16 * 1024

	// maxFragments caps one fragment determinant at 4 units
	// (X.691 11.9.3.8 NOTE).
	maxFragments = 4

	maxFragmentSize = fragmentUnit * maxFragments

	// length determinant form boundaries (X.691 11.9.3.6-8)
	lengthMaxShort    = 127
	lengthMaxTwoOctet = fragmentUnit - 1

	// constrained length determinants switch to the unconstrained
	// forms once the upper bound reaches 64 KiB (X.691 11.9.4)
	length64K = 64 * 1024
)

// noUpperBound stands in for an absent upper bound in range
// calculations, mirroring the i64::MAX convention of length
// determinants.
const noUpperBound = uint64(math.MaxInt64)

// bitWidth returns the number of bits needed for a non-negative binary
// integer covering [0, rangeMax]: zero when the range is empty,
// otherwise the position of the highest set bit.
func bitWidth(rangeMax uint64) int {
	width := 0
	for rangeMax > 0 {
		width++
		rangeMax >>= 1
	}
	return width
}

// minOctetsUnsigned returns the minimum number of octets holding v.
func minOctetsUnsigned(v uint64) int {
	octets := 1
	for v > 0xFF {
		octets++
		v >>= 8
	}
	return octets
}

// minOctetsSigned returns the minimum number of octets holding v in
// two's complement (X.691 11.4.6).
func minOctetsSigned(v int64) int {
	octets := 1
	for v > 0x7F || v < -0x80 {
		octets++
		v >>= 8
	}
	return octets
}
