package uper

import (
	"encoding/binary"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/asn1go/asn1go/bitio"
	"github.com/asn1go/asn1go/codec"
)

// Writer encodes values into a growing bit buffer.
// The zero value is not usable; create writers with NewWriter.
type Writer struct {
	buf    *bitio.Writer
	frames []*optFrame

	descriptive bool
	path        []string
}

// optFrame holds the reserved presence-bit positions of one enclosing
// SEQUENCE or SET, consumed in order by WriteOpt.
type optFrame struct {
	positions []int
	next      int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDescriptiveErrors enriches codec errors with the field path
// traversed up to the failure. Adds bookkeeping on every visitor call;
// off by default.
func WithDescriptiveErrors() WriterOption {
	return func(w *Writer) { w.descriptive = true }
}

// NewWriter returns an empty UPER writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{buf: bitio.NewWriter()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Bytes returns the encoded content, the final octet zero-padded.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// BitLen returns the exact number of bits written.
func (w *Writer) BitLen() int {
	return w.buf.BitLen()
}

// Field implements the descriptive-error path bookkeeping.
func (w *Writer) Field(name string, f func() error) error {
	if !w.descriptive {
		return f()
	}
	w.path = append(w.path, name)
	err := f()
	w.path = w.path[:len(w.path)-1]
	if err != nil {
		if _, wrapped := err.(*codec.PathError); !wrapped {
			return &codec.PathError{Path: append(slices.Clone(w.path), name), Err: err}
		}
	}
	return err
}

// === X.691 11.3-11.9 primitives ===

// writeNonNegBinaryInteger encodes v-lb per X.691 11.3: a bit-field of
// the width of the range when a bound is known, else a length
// determinant followed by the minimum number of octets.
func (w *Writer) writeNonNegBinaryInteger(lb, ub *uint64, v uint64) error {
	if lb == nil && ub == nil {
		octets := minOctetsUnsigned(v)
		if _, err := w.writeLengthDeterminant(nil, nil, uint64(octets)); err != nil {
			return err
		}
		var bytes [8]byte
		binary.BigEndian.PutUint64(bytes[:], v)
		w.buf.WriteBits(bytes[8-octets:], octets*8)
		return nil
	}

	lower := uint64(0)
	if lb != nil {
		lower = *lb
	}
	upper := noUpperBound
	if ub != nil {
		upper = *ub
	}
	width := bitWidth(upper - lower)
	var bytes [8]byte
	binary.BigEndian.PutUint64(bytes[:], v-lower)
	w.buf.WriteBitsOffset(bytes[:], 64-width, width)
	return nil
}

// writeTwosComplement encodes v into bitLen bits per X.691 11.4.
func (w *Writer) writeTwosComplement(bitLen int, v int64) {
	var bytes [8]byte
	binary.BigEndian.PutUint64(bytes[:], uint64(v))
	w.buf.WriteBitsOffset(bytes[:], 64-bitLen, bitLen)
}

// writeConstrainedWholeNumber encodes v in [lb, ub] per X.691 11.5.
// An empty range encodes nothing.
func (w *Writer) writeConstrainedWholeNumber(lb, ub, v int64) error {
	if v < lb || v > ub {
		return &codec.ValueNotInRangeError{Value: v, Min: lb, Max: ub}
	}
	if lb == ub {
		return nil
	}
	rangeMax := uint64(ub - lb)
	return w.writeNonNegBinaryInteger(nil, &rangeMax, uint64(v-lb))
}

// writeSemiConstrainedWholeNumber encodes v >= lb per X.691 11.7.
func (w *Writer) writeSemiConstrainedWholeNumber(lb, v int64) error {
	if v < lb {
		return &codec.ValueNotInRangeError{Value: v, Min: lb, Max: math.MaxInt64}
	}
	return w.writeNonNegBinaryInteger(nil, nil, uint64(v-lb))
}

// writeUnconstrainedWholeNumber encodes a signed number per X.691 11.8:
// a length determinant then minimum-octet two's complement.
func (w *Writer) writeUnconstrainedWholeNumber(v int64) error {
	octets := minOctetsSigned(v)
	if _, err := w.writeLengthDeterminant(nil, nil, uint64(octets)); err != nil {
		return err
	}
	w.writeTwosComplement(octets*8, v)
	return nil
}

// writeNormallySmall encodes a normally-small non-negative number per
// X.691 11.6: a zero bit and 6 bits when below 64, else a one bit and a
// semi-constrained number.
func (w *Writer) writeNormallySmall(v uint64) error {
	if v < 64 {
		w.buf.WriteBit(false)
		ub := uint64(63)
		return w.writeNonNegBinaryInteger(nil, &ub, v)
	}
	w.buf.WriteBit(true)
	return w.writeNonNegBinaryInteger(nil, nil, v)
}

// writeLengthDeterminant encodes a count or octet length per X.691
// 11.9 and returns how many items the determinant covers: n itself for
// the constrained and small forms, or a multiple of 16384 for the
// fragmented form, in which case the caller emits that many items and
// continues with another determinant.
func (w *Writer) writeLengthDeterminant(lb, ub *uint64, n uint64) (claimed uint64, err error) {
	lower := uint64(0)
	if lb != nil {
		lower = *lb
	}

	if ub != nil && *ub < length64K {
		// 11.9.4.1 -> 11.9.3.4: constrained whole number, no
		// fragmentation below 64K
		if n < lower || n > *ub {
			return 0, &codec.SizeOutOfBoundsError{Size: n, Min: lower, Max: *ub}
		}
		return n, w.writeNonNegBinaryInteger(&lower, ub, n)
	}

	// 11.9.4.2: an upper bound of 64K or more encodes like an
	// unbounded length

	switch {
	case n <= lengthMaxShort:
		// 11.9.3.6: one octet, high bit 0
		w.buf.WriteBit(false)
		ubShort := uint64(lengthMaxShort)
		return n, w.writeNonNegBinaryInteger(nil, &ubShort, n)

	case n <= lengthMaxTwoOctet:
		// 11.9.3.7: two octets, top bits 10
		w.buf.WriteBit(true)
		w.buf.WriteBit(false)
		ubTwo := uint64(lengthMaxTwoOctet)
		return n, w.writeNonNegBinaryInteger(nil, &ubTwo, n)

	default:
		// 11.9.3.8: one octet 11cccccc, c fragments of 16384 items
		w.buf.WriteBit(true)
		w.buf.WriteBit(true)
		fragments := min(n/fragmentUnit, maxFragments)
		count := [1]byte{byte(fragments)}
		w.buf.WriteBitsOffset(count[:], 2, 6)
		return fragments * fragmentUnit, nil
	}
}

// writeOpenType wraps an encoding into a length-prefixed octet string,
// the inner encoding starting bit-aligned (X.691 11.2). An empty
// encoding still occupies one zero octet. The payload runs against this
// writer with the buffer swapped, so emitted code needs no second
// writer instance.
func (w *Writer) writeOpenType(payload func() error) error {
	savedBuf, savedFrames := w.buf, w.frames
	w.buf, w.frames = bitio.NewWriter(), nil
	err := payload()
	content := w.buf.Bytes()
	w.buf, w.frames = savedBuf, savedFrames
	if err != nil {
		return err
	}
	if len(content) == 0 {
		content = []byte{0}
	}
	return w.writeOctetFragments(nil, nil, false, content)
}

// === codec.Writer ===

// WriteBool encodes a boolean as a single bit (X.691 12).
func (w *Writer) WriteBool(v bool) error {
	w.buf.WriteBit(v)
	return nil
}

// WriteNull encodes nothing (X.691 18: the NULL type has an empty
// encoding).
func (w *Writer) WriteNull() error {
	return nil
}

// WriteInt encodes an integer under its declared bounds: constrained,
// semi-constrained or unconstrained, with an extension bit first when
// the constraint is extensible.
func (w *Writer) WriteInt(c codec.Bounds, v int64) error {
	inRoot := (c.Min == nil || v >= *c.Min) && (c.Max == nil || v <= *c.Max)

	if c.Extensible {
		w.buf.WriteBit(!inRoot)
		if !inRoot {
			return w.writeUnconstrainedWholeNumber(v)
		}
	}

	switch {
	case c.Min != nil && c.Max != nil:
		return w.writeConstrainedWholeNumber(*c.Min, *c.Max, v)
	case c.Min != nil:
		return w.writeSemiConstrainedWholeNumber(*c.Min, v)
	default:
		return w.writeUnconstrainedWholeNumber(v)
	}
}

// WriteEnumIndex encodes an enumeration index: a constrained number
// over the root variants, or the extension form when the index is past
// the root (X.691 14).
func (w *Writer) WriteEnumIndex(c codec.Variants, index uint64) error {
	inRoot := index < c.Root
	if c.Extensible {
		w.buf.WriteBit(!inRoot)
		if !inRoot {
			return w.writeNormallySmall(index - c.Root)
		}
	} else if !inRoot {
		return &codec.InvalidIndexError{Index: index, Variants: c.Root}
	}
	if c.Root <= 1 {
		return nil
	}
	ub := c.Root - 1
	return w.writeNonNegBinaryInteger(nil, &ub, index)
}

// WriteChoice encodes the alternative index and its payload. Extension
// alternatives are wrapped in an open type (X.691 23).
func (w *Writer) WriteChoice(c codec.Variants, index uint64, payload func() error) error {
	inRoot := index < c.Root
	if c.Extensible {
		w.buf.WriteBit(!inRoot)
	} else if !inRoot {
		return &codec.InvalidIndexError{Index: index, Variants: c.Root}
	}

	if !inRoot {
		if err := w.writeNormallySmall(index - c.Root); err != nil {
			return err
		}
		return w.writeOpenType(payload)
	}

	if c.Root > 1 {
		ub := c.Root - 1
		if err := w.writeNonNegBinaryInteger(nil, &ub, index); err != nil {
			return err
		}
	}
	return payload()
}

// WriteSequence frames a SEQUENCE or SET (X.691 19): an extension bit
// when the type is extensible, a presence bitmap for the optional root
// components, the root encodings, then the extension additions.
func (w *Writer) WriteSequence(c codec.Sequence, root func() error, ext ...codec.ExtensionField) error {
	anyExt := false
	for _, e := range ext {
		if e.Present {
			anyExt = true
			break
		}
	}

	if c.Extensible {
		w.buf.WriteBit(anyExt)
	} else if anyExt {
		return &codec.InvalidIndexError{Index: uint64(len(ext)), Variants: 0}
	}

	// reserve the presence bits; WriteOpt patches them in field order
	frame := &optFrame{positions: make([]int, c.OptionalFields)}
	for i := range frame.positions {
		frame.positions[i] = w.buf.BitLen()
		w.buf.WriteBit(false)
	}
	w.frames = append(w.frames, frame)

	err := root()
	w.frames = w.frames[:len(w.frames)-1]
	if err != nil {
		return err
	}

	if !anyExt {
		return nil
	}

	// extension additions: normally-small count, presence bitmap, then
	// each present addition as an open type (X.691 19.8)
	if err := w.writeNormallySmall(uint64(len(ext)) - 1); err != nil {
		return err
	}
	for _, e := range ext {
		w.buf.WriteBit(e.Present)
	}
	for _, e := range ext {
		if !e.Present {
			continue
		}
		if err := w.writeOpenType(e.Value); err != nil {
			return err
		}
	}
	return nil
}

// WriteOpt patches the next reserved presence bit and encodes the value
// when present.
func (w *Writer) WriteOpt(present bool, value func() error) error {
	if len(w.frames) == 0 {
		return codec.ErrEndOfOptionals
	}
	frame := w.frames[len(w.frames)-1]
	if frame.next >= len(frame.positions) {
		return codec.ErrEndOfOptionals
	}
	if err := w.buf.SetBit(frame.positions[frame.next], present); err != nil {
		return err
	}
	frame.next++
	if !present {
		return nil
	}
	return value()
}

// WriteSequenceOf encodes the element count under the SIZE constraint,
// then each element, fragmenting at 16384 elements (X.691 20).
func (w *Writer) WriteSequenceOf(c codec.Size, n int, item func(i int) error) error {
	written := 0
	write := func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			if err := item(written); err != nil {
				return err
			}
			written++
		}
		return nil
	}
	return w.writeCountedFragments(c, uint64(n), write)
}

// writeCountedFragments drives the shared count-determinant-plus-items
// loop of SEQUENCE OF and the string types.
func (w *Writer) writeCountedFragments(c codec.Size, n uint64, write func(count uint64) error) error {
	lb, ub, inRoot := sizeBounds(c, n)

	if c.Extensible {
		w.buf.WriteBit(!inRoot)
	} else if !inRoot {
		return &codec.SizeOutOfBoundsError{Size: n, Min: derefOr(lb, 0), Max: derefOr(ub, noUpperBound)}
	}
	if !inRoot {
		lb, ub = nil, nil // 11.9.3.5: unconstrained forms
	}

	if lb != nil && ub != nil && *lb == *ub && *ub < length64K {
		// fixed size below 64K: no determinant
		return write(n)
	}

	if ub != nil && *ub < length64K {
		// constrained determinant, never fragmented (11.9.4.1)
		if _, err := w.writeLengthDeterminant(lb, ub, n); err != nil {
			return err
		}
		return write(n)
	}

	// unbounded forms with 16-KiB fragmentation; an exact multiple
	// terminates with a zero-length determinant (11.9.3.8)
	remaining := n
	for {
		claimed, err := w.writeLengthDeterminant(nil, nil, remaining)
		if err != nil {
			return err
		}
		if err := write(claimed); err != nil {
			return err
		}
		remaining -= claimed
		if claimed < fragmentUnit {
			return nil
		}
	}
}

// sizeBounds extracts the root bounds of a SIZE constraint and whether
// n satisfies them.
func sizeBounds(c codec.Size, n uint64) (lb, ub *uint64, inRoot bool) {
	inRoot = (c.Min == nil || n >= *c.Min) && (c.Max == nil || n <= *c.Max)
	return c.Min, c.Max, inRoot
}

func derefOr(p *uint64, fallback uint64) uint64 {
	if p != nil {
		return *p
	}
	return fallback
}

// WriteOctetString encodes an OCTET STRING under its SIZE constraint
// (X.691 17).
func (w *Writer) WriteOctetString(c codec.Size, b []byte) error {
	return w.writeOctetFragments(c.Min, c.Max, c.Extensible, b)
}

func (w *Writer) writeOctetFragments(lb, ub *uint64, extensible bool, b []byte) error {
	c := codec.Size{Min: lb, Max: ub, Extensible: extensible}
	pos := uint64(0)
	return w.writeCountedFragments(c, uint64(len(b)), func(count uint64) error {
		w.buf.WriteBits(b[pos:pos+count], int(count)*8)
		pos += count
		return nil
	})
}

// WriteBitString encodes a BIT STRING of bitLen bits under its SIZE
// constraint (X.691 16). b holds the bits MSB-first.
func (w *Writer) WriteBitString(c codec.Size, b []byte, bitLen uint64) error {
	if uint64(len(b))*8 < bitLen {
		return &codec.SizeOutOfBoundsError{Size: bitLen, Min: 0, Max: uint64(len(b)) * 8}
	}
	pos := uint64(0)
	return w.writeCountedFragments(c, bitLen, func(count uint64) error {
		w.buf.WriteBitsOffset(b, int(pos), int(count))
		pos += count
		return nil
	})
}

// WriteUTF8String encodes the UTF-8 octets prefixed by their octet
// length (X.691 30.4: UTF8String has no known-multiplier form; the
// SIZE constraint bounds the character count only).
func (w *Writer) WriteUTF8String(c codec.Size, s string) error {
	if !utf8.ValidString(s) {
		return codec.ErrInvalidUTF8
	}
	chars := uint64(len([]rune(s)))
	if (c.Min != nil && chars < *c.Min) || (c.Max != nil && chars > *c.Max) {
		if !c.Extensible {
			return &codec.SizeOutOfBoundsError{Size: chars, Min: derefOr(c.Min, 0), Max: derefOr(c.Max, noUpperBound)}
		}
	}
	return w.writeOctetFragments(nil, nil, false, []byte(s))
}

// WriteIA5String encodes 7-bit character codes (X.691 30, known
// multiplier, alphabet of 128).
func (w *Writer) WriteIA5String(c codec.Size, s string) error {
	return w.writeKnownMultiplier(c, s, 7, codec.ValidIA5, "IA5String")
}

// WriteVisibleString encodes 7-bit character codes restricted to the
// visible range.
func (w *Writer) WriteVisibleString(c codec.Size, s string) error {
	return w.writeKnownMultiplier(c, s, 7, codec.ValidVisible, "VisibleString")
}

// WritePrintableString encodes 7-bit character codes; every printable
// character fits below 128.
func (w *Writer) WritePrintableString(c codec.Size, s string) error {
	return w.writeKnownMultiplier(c, s, 7, codec.ValidPrintable, "PrintableString")
}

// WriteNumericString encodes 4-bit indices into the canonical
// NumericString alphabet.
func (w *Writer) WriteNumericString(c codec.Size, s string) error {
	if at, r := codec.FindInvalid(s, codec.ValidNumeric); at >= 0 {
		return &codec.InvalidCharacterError{Char: r, Position: at, Alphabet: "NumericString"}
	}
	runes := []rune(s)
	pos := 0
	return w.writeCountedFragments(c, uint64(len(runes)), func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			index, _ := codec.NumericIndex(runes[pos])
			char := [1]byte{index << 4}
			w.buf.WriteBits(char[:], 4)
			pos++
		}
		return nil
	})
}

func (w *Writer) writeKnownMultiplier(c codec.Size, s string, bits int, valid func(rune) bool, alphabet string) error {
	if at, r := codec.FindInvalid(s, valid); at >= 0 {
		return &codec.InvalidCharacterError{Char: r, Position: at, Alphabet: alphabet}
	}
	runes := []rune(s)
	pos := 0
	return w.writeCountedFragments(c, uint64(len(runes)), func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			char := [1]byte{byte(runes[pos]) << (8 - bits)}
			w.buf.WriteBits(char[:], bits)
			pos++
		}
		return nil
	})
}
