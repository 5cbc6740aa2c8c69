package uper

import (
	"encoding/binary"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/asn1go/asn1go/bitio"
	"github.com/asn1go/asn1go/codec"
)

// Reader decodes values from a bit buffer.
// The zero value is not usable; create readers with NewReader.
type Reader struct {
	buf    *bitio.Reader
	frames []*flagFrame

	descriptive bool
	path        []string
}

// flagFrame holds the presence bits of one enclosing SEQUENCE or SET,
// consumed in order by ReadOpt.
type flagFrame struct {
	flags []bool
	next  int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithDescriptiveReadErrors enriches codec errors with the field path
// traversed up to the failure. Off by default.
func WithDescriptiveReadErrors() ReaderOption {
	return func(r *Reader) { r.descriptive = true }
}

// NewReader returns a reader over the full byte content of data.
func NewReader(data []byte, opts ...ReaderOption) *Reader {
	r := &Reader{buf: bitio.NewReader(data)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewReaderBits returns a reader over the first bitLen bits of data.
func NewReaderBits(data []byte, bitLen int, opts ...ReaderOption) *Reader {
	r := &Reader{buf: bitio.NewReaderBits(data, bitLen)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return r.buf.Remaining()
}

// Field implements the descriptive-error path bookkeeping.
func (r *Reader) Field(name string, f func() error) error {
	if !r.descriptive {
		return f()
	}
	r.path = append(r.path, name)
	err := f()
	r.path = r.path[:len(r.path)-1]
	if err != nil {
		if _, wrapped := err.(*codec.PathError); !wrapped {
			return &codec.PathError{Path: append(slices.Clone(r.path), name), Err: err}
		}
	}
	return err
}

// === X.691 11.3-11.9 primitives ===

func (r *Reader) readNonNegBinaryInteger(lb, ub *uint64) (uint64, error) {
	if lb == nil && ub == nil {
		octets, _, err := r.readLengthDeterminant(nil, nil)
		if err != nil {
			return 0, err
		}
		if octets > 8 {
			return 0, &codec.SizeOutOfBoundsError{Size: octets, Min: 0, Max: 8}
		}
		var bytes [8]byte
		if err := r.buf.ReadBitsOffset(bytes[:], int(8-octets)*8, int(octets)*8); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(bytes[:]), nil
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
	if err := r.buf.ReadBitsOffset(bytes[:], 64-width, width); err != nil {
		return 0, err
	}
	return lower + binary.BigEndian.Uint64(bytes[:]), nil
}

func (r *Reader) readTwosComplement(bitLen int) (int64, error) {
	if bitLen == 0 || bitLen > 64 {
		return 0, &codec.SizeOutOfBoundsError{Size: uint64(bitLen), Min: 1, Max: 64}
	}
	var bytes [8]byte
	offset := 64 - bitLen
	if err := r.buf.ReadBitsOffset(bytes[:], offset, bitLen); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(bytes[:])
	// sign-extend when the leading bit of the field is set
	if v&(uint64(1)<<(bitLen-1)) != 0 && bitLen < 64 {
		v |= ^uint64(0) << bitLen
	}
	return int64(v), nil
}

func (r *Reader) readConstrainedWholeNumber(lb, ub int64) (int64, error) {
	if lb == ub {
		return lb, nil
	}
	rangeMax := uint64(ub - lb)
	v, err := r.readNonNegBinaryInteger(nil, &rangeMax)
	if err != nil {
		return 0, err
	}
	return lb + int64(v), nil
}

func (r *Reader) readSemiConstrainedWholeNumber(lb int64) (int64, error) {
	v, err := r.readNonNegBinaryInteger(nil, nil)
	if err != nil {
		return 0, err
	}
	return lb + int64(v), nil
}

func (r *Reader) readUnconstrainedWholeNumber() (int64, error) {
	octets, _, err := r.readLengthDeterminant(nil, nil)
	if err != nil {
		return 0, err
	}
	return r.readTwosComplement(int(octets) * 8)
}

func (r *Reader) readNormallySmall() (uint64, error) {
	big, err := r.buf.ReadBit()
	if err != nil {
		return 0, err
	}
	if big {
		return r.readNonNegBinaryInteger(nil, nil)
	}
	ub := uint64(63)
	return r.readNonNegBinaryInteger(nil, &ub)
}

// readLengthDeterminant decodes a count or octet length. A fragmented
// determinant reports fragmented=true: the value covers a multiple of
// 16384 items and another determinant follows the content.
func (r *Reader) readLengthDeterminant(lb, ub *uint64) (value uint64, fragmented bool, err error) {
	if ub != nil && *ub < length64K {
		lower := uint64(0)
		if lb != nil {
			lower = *lb
		}
		v, err := r.readNonNegBinaryInteger(&lower, ub)
		return v, false, err
	}

	long, err := r.buf.ReadBit()
	if err != nil {
		return 0, false, err
	}
	if !long {
		// 11.9.3.6: one octet, value in 7 bits
		ubShort := uint64(lengthMaxShort)
		v, err := r.readNonNegBinaryInteger(nil, &ubShort)
		return v, false, err
	}

	frag, err := r.buf.ReadBit()
	if err != nil {
		return 0, false, err
	}
	if !frag {
		// 11.9.3.7: two octets, value in 14 bits
		ubTwo := uint64(lengthMaxTwoOctet)
		v, err := r.readNonNegBinaryInteger(nil, &ubTwo)
		return v, false, err
	}

	// 11.9.3.8: fragment count in 6 bits
	var count [1]byte
	if err := r.buf.ReadBitsOffset(count[:], 2, 6); err != nil {
		return 0, false, err
	}
	fragments := uint64(count[0])
	if fragments < 1 || fragments > maxFragments {
		return 0, false, &codec.SizeOutOfBoundsError{Size: fragments, Min: 1, Max: maxFragments}
	}
	return fragments * fragmentUnit, true, nil
}

// readOpenType reads a length-prefixed octet wrap and returns its raw
// content.
func (r *Reader) readOpenType() ([]byte, error) {
	var content []byte
	lb, ub := (*uint64)(nil), (*uint64)(nil)
	for {
		count, fragmented, err := r.readLengthDeterminant(lb, ub)
		if err != nil {
			return nil, err
		}
		chunk := make([]byte, count)
		if err := r.buf.ReadBits(chunk, int(count)*8); err != nil {
			return nil, err
		}
		content = append(content, chunk...)
		if !fragmented {
			return content, nil
		}
	}
}

// decodeInner runs a decoding callback against raw open-type content by
// temporarily swapping the buffer.
func (r *Reader) decodeInner(content []byte, decode func() error) error {
	savedBuf, savedFrames := r.buf, r.frames
	r.buf, r.frames = bitio.NewReader(content), nil
	err := decode()
	r.buf, r.frames = savedBuf, savedFrames
	return err
}

// === codec.Reader ===

// ReadBool decodes a single bit (X.691 12).
func (r *Reader) ReadBool() (bool, error) {
	return r.buf.ReadBit()
}

// ReadNull decodes nothing.
func (r *Reader) ReadNull() error {
	return nil
}

// ReadInt decodes an integer under its declared bounds.
func (r *Reader) ReadInt(c codec.Bounds) (int64, error) {
	if c.Extensible {
		extended, err := r.buf.ReadBit()
		if err != nil {
			return 0, err
		}
		if extended {
			return r.readUnconstrainedWholeNumber()
		}
	}

	switch {
	case c.Min != nil && c.Max != nil:
		return r.readConstrainedWholeNumber(*c.Min, *c.Max)
	case c.Min != nil:
		return r.readSemiConstrainedWholeNumber(*c.Min)
	default:
		return r.readUnconstrainedWholeNumber()
	}
}

// ReadEnumIndex decodes an enumeration index (X.691 14).
func (r *Reader) ReadEnumIndex(c codec.Variants) (uint64, error) {
	if c.Extensible {
		extended, err := r.buf.ReadBit()
		if err != nil {
			return 0, err
		}
		if extended {
			v, err := r.readNormallySmall()
			if err != nil {
				return 0, err
			}
			return c.Root + v, nil
		}
	}
	if c.Root <= 1 {
		return 0, nil
	}
	ub := c.Root - 1
	index, err := r.readNonNegBinaryInteger(nil, &ub)
	if err != nil {
		return 0, err
	}
	if index >= c.Root {
		return 0, &codec.InvalidIndexError{Index: index, Variants: c.Root}
	}
	return index, nil
}

// ReadChoice decodes the alternative index and invokes payload with it.
// Extension alternatives are unwrapped from their open type (X.691 23).
func (r *Reader) ReadChoice(c codec.Variants, payload func(index uint64) error) error {
	extended := false
	if c.Extensible {
		var err error
		extended, err = r.buf.ReadBit()
		if err != nil {
			return err
		}
	}

	if extended {
		v, err := r.readNormallySmall()
		if err != nil {
			return err
		}
		content, err := r.readOpenType()
		if err != nil {
			return err
		}
		return r.decodeInner(content, func() error {
			return payload(c.Root + v)
		})
	}

	index := uint64(0)
	if c.Root > 1 {
		ub := c.Root - 1
		var err error
		index, err = r.readNonNegBinaryInteger(nil, &ub)
		if err != nil {
			return err
		}
		if index >= c.Root {
			return &codec.InvalidIndexError{Index: index, Variants: c.Root}
		}
	}
	return payload(index)
}

// ReadSequence frames a SEQUENCE or SET (X.691 19). Extension additions
// without a matching slot are preserved as raw open-type octets.
func (r *Reader) ReadSequence(c codec.Sequence, root func() error, ext ...codec.ExtensionSlot) ([][]byte, error) {
	extended := false
	if c.Extensible {
		var err error
		extended, err = r.buf.ReadBit()
		if err != nil {
			return nil, err
		}
	}

	frame := &flagFrame{flags: make([]bool, c.OptionalFields)}
	for i := range frame.flags {
		bit, err := r.buf.ReadBit()
		if err != nil {
			return nil, err
		}
		frame.flags[i] = bit
	}
	r.frames = append(r.frames, frame)

	err := root()
	r.frames = r.frames[:len(r.frames)-1]
	if err != nil {
		return nil, err
	}

	if !extended {
		return nil, nil
	}

	countMinusOne, err := r.readNormallySmall()
	if err != nil {
		return nil, err
	}
	count := countMinusOne + 1

	present := make([]bool, count)
	for i := range present {
		bit, err := r.buf.ReadBit()
		if err != nil {
			return nil, err
		}
		present[i] = bit
	}

	var unknown [][]byte
	for i := uint64(0); i < count; i++ {
		if !present[i] {
			continue
		}
		content, err := r.readOpenType()
		if err != nil {
			return nil, err
		}
		if i < uint64(len(ext)) && ext[i].Read != nil {
			if err := r.decodeInner(content, ext[i].Read); err != nil {
				return nil, err
			}
		} else {
			unknown = append(unknown, content)
		}
	}
	return unknown, nil
}

// ReadOpt consumes the next presence bit of the enclosing sequence.
func (r *Reader) ReadOpt(value func() error) (bool, error) {
	if len(r.frames) == 0 {
		return false, codec.ErrEndOfOptionals
	}
	frame := r.frames[len(r.frames)-1]
	if frame.next >= len(frame.flags) {
		return false, codec.ErrEndOfOptionals
	}
	present := frame.flags[frame.next]
	frame.next++
	if !present {
		return false, nil
	}
	return true, value()
}

// ReadSequenceOf decodes the element count and each element (X.691 20).
func (r *Reader) ReadSequenceOf(c codec.Size, item func(i int) error) (int, error) {
	read := 0
	total, err := r.readCountedFragments(c, func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			if err := item(read); err != nil {
				return err
			}
			read++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// readCountedFragments drives the shared count-determinant loop,
// mirroring the writer.
func (r *Reader) readCountedFragments(c codec.Size, read func(count uint64) error) (uint64, error) {
	lb, ub := c.Min, c.Max

	if c.Extensible {
		extended, err := r.buf.ReadBit()
		if err != nil {
			return 0, err
		}
		if extended {
			lb, ub = nil, nil
		}
	}

	if lb != nil && ub != nil && *lb == *ub && *ub < length64K {
		return *ub, read(*ub)
	}

	total := uint64(0)
	for {
		count, fragmented, err := r.readLengthDeterminant(lb, ub)
		if err != nil {
			return 0, err
		}
		if err := read(count); err != nil {
			return 0, err
		}
		total += count
		if !fragmented {
			return total, nil
		}
		lb, ub = nil, nil
	}
}

// ReadOctetString decodes an OCTET STRING (X.691 17).
func (r *Reader) ReadOctetString(c codec.Size) ([]byte, error) {
	content := []byte{}
	_, err := r.readCountedFragments(c, func(count uint64) error {
		chunk := make([]byte, count)
		if err := r.buf.ReadBits(chunk, int(count)*8); err != nil {
			return err
		}
		content = append(content, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// ReadBitString decodes a BIT STRING, returning the bits MSB-first and
// the exact bit length (X.691 16).
func (r *Reader) ReadBitString(c codec.Size) ([]byte, uint64, error) {
	bits := bitio.NewWriter()
	total, err := r.readCountedFragments(c, func(count uint64) error {
		chunk := make([]byte, (count+7)/8)
		if err := r.buf.ReadBits(chunk, int(count)); err != nil {
			return err
		}
		bits.WriteBits(chunk, int(count))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return bits.Bytes(), total, nil
}

// ReadUTF8String decodes length-prefixed UTF-8 octets (X.691 30.4).
func (r *Reader) ReadUTF8String(c codec.Size) (string, error) {
	content, err := r.ReadOctetString(codec.Size{})
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", codec.ErrInvalidUTF8
	}
	s := string(content)
	chars := uint64(len([]rune(s)))
	if !c.Extensible {
		if (c.Min != nil && chars < *c.Min) || (c.Max != nil && chars > *c.Max) {
			return "", &codec.SizeOutOfBoundsError{Size: chars, Min: derefOr(c.Min, 0), Max: derefOr(c.Max, math.MaxUint64)}
		}
	}
	return s, nil
}

// ReadIA5String decodes 7-bit character codes.
func (r *Reader) ReadIA5String(c codec.Size) (string, error) {
	return r.readKnownMultiplier(c, 7, codec.ValidIA5, "IA5String")
}

// ReadVisibleString decodes 7-bit character codes restricted to the
// visible range.
func (r *Reader) ReadVisibleString(c codec.Size) (string, error) {
	return r.readKnownMultiplier(c, 7, codec.ValidVisible, "VisibleString")
}

// ReadPrintableString decodes 7-bit character codes restricted to the
// printable alphabet.
func (r *Reader) ReadPrintableString(c codec.Size) (string, error) {
	return r.readKnownMultiplier(c, 7, codec.ValidPrintable, "PrintableString")
}

// ReadNumericString decodes 4-bit indices into the canonical alphabet.
func (r *Reader) ReadNumericString(c codec.Size) (string, error) {
	var runes []rune
	_, err := r.readCountedFragments(c, func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			var char [1]byte
			if err := r.buf.ReadBits(char[:], 4); err != nil {
				return err
			}
			decoded, ok := codec.NumericRune(char[0] >> 4)
			if !ok {
				return &codec.InvalidCharacterError{Char: rune(char[0] >> 4), Position: len(runes), Alphabet: "NumericString"}
			}
			runes = append(runes, decoded)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(runes), nil
}

func (r *Reader) readKnownMultiplier(c codec.Size, bits int, valid func(rune) bool, alphabet string) (string, error) {
	var runes []rune
	_, err := r.readCountedFragments(c, func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			var char [1]byte
			if err := r.buf.ReadBits(char[:], bits); err != nil {
				return err
			}
			decoded := rune(char[0] >> (8 - bits))
			if !valid(decoded) {
				return &codec.InvalidCharacterError{Char: decoded, Position: len(runes), Alphabet: alphabet}
			}
			runes = append(runes, decoded)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(runes), nil
}
