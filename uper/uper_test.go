package uper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1go/asn1go/bitio"
	"github.com/asn1go/asn1go/codec"
)

func TestConstrainedIntegerWidth(t *testing.T) {
	cases := []struct {
		name     string
		min, max int64
		value    int64
		bits     int
	}{
		{"single value encodes nothing", 5, 5, 5, 0},
		{"two values one bit", 0, 1, 1, 1},
		{"1..4 two bits", 1, 4, 2, 2},
		{"0..255 eight bits", 0, 255, 200, 8},
		{"0..256 nine bits", 0, 256, 200, 9},
		{"timestamp range 31 bits", 0, 1209600000, 1234, 31},
		{"negative range", -5, 10, -3, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			require.NoError(t, w.WriteInt(codec.Ranged(tc.min, tc.max), tc.value))
			assert.Equal(t, tc.bits, w.BitLen())

			r := NewReaderBits(w.Bytes(), w.BitLen())
			decoded, err := r.ReadInt(codec.Ranged(tc.min, tc.max))
			require.NoError(t, err)
			assert.Equal(t, tc.value, decoded)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestConstrainedIntegerOutOfRange(t *testing.T) {
	w := NewWriter()
	err := w.WriteInt(codec.Ranged(1, 4), 7)

	var notInRange *codec.ValueNotInRangeError
	require.ErrorAs(t, err, &notInRange)
	assert.Equal(t, int64(7), notInRange.Value)
	assert.Equal(t, int64(1), notInRange.Min)
	assert.Equal(t, int64(4), notInRange.Max)
}

func TestSemiConstrainedInteger(t *testing.T) {
	// RangedMax ::= INTEGER(0..MAX) with value 123:
	// length determinant 1, one octet 0x7B
	w := NewWriter()
	require.NoError(t, w.WriteInt(codec.Bounds{Min: codec.Int64(0)}, 123))

	assert.Equal(t, 16, w.BitLen())
	assert.Equal(t, []byte{0x01, 0x7B}, w.Bytes())

	r := NewReader(w.Bytes())
	decoded, err := r.ReadInt(codec.Bounds{Min: codec.Int64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(123), decoded)
}

func TestUnconstrainedInteger(t *testing.T) {
	cases := []struct {
		value  int64
		octets int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{-1, 1},
		{-128, 1},
		{-129, 2},
		{300, 2},
		{1<<40 - 3, 6},
		{-(1 << 40), 6},
		{1<<63 - 1, 8},
		{-1 << 63, 8},
	}

	for _, tc := range cases {
		w := NewWriter()
		require.NoError(t, w.WriteInt(codec.Bounds{}, tc.value))
		assert.Equal(t, 8+tc.octets*8, w.BitLen(), "value %d", tc.value)

		r := NewReader(w.Bytes())
		decoded, err := r.ReadInt(codec.Bounds{})
		require.NoError(t, err)
		assert.Equal(t, tc.value, decoded)
	}
}

func TestExtensibleIntegerOutsideRoot(t *testing.T) {
	bounds := codec.Bounds{Min: codec.Int64(0), Max: codec.Int64(10), Extensible: true}

	for _, value := range []int64{5, 42, -3} {
		w := NewWriter()
		require.NoError(t, w.WriteInt(bounds, value))

		r := NewReaderBits(w.Bytes(), w.BitLen())
		decoded, err := r.ReadInt(bounds)
		require.NoError(t, err)
		assert.Equal(t, value, decoded)
	}

	// in root: ext bit + 4 bits
	w := NewWriter()
	require.NoError(t, w.WriteInt(bounds, 5))
	assert.Equal(t, 5, w.BitLen())
}

func TestLengthDeterminantForms(t *testing.T) {
	cases := []struct {
		length   int
		expected []byte // determinant octets preceding content
	}{
		{0, []byte{0x00}},
		{5, []byte{0x05}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x80}},
		{3616, []byte{0x8E, 0x20}},
		{16383, []byte{0xBF, 0xFF}},
	}

	for _, tc := range cases {
		w := NewWriter()
		content := make([]byte, tc.length)
		require.NoError(t, w.WriteOctetString(codec.Size{}, content))

		got := w.Bytes()[:len(tc.expected)]
		assert.Equal(t, tc.expected, got, "length %d", tc.length)
	}
}

func TestLengthDeterminantRoundTrip(t *testing.T) {
	// across the one-octet, two-octet and fragmented boundaries,
	// including the exact-multiple trailing zero determinant
	lengths := []int{0, 1, 127, 128, 5000, 16383, 16384, 16385, 32768, 49152, 65536, 70000}

	for _, length := range lengths {
		w := NewWriter()
		content := make([]byte, length)
		for i := range content {
			content[i] = byte(i)
		}
		require.NoError(t, w.WriteOctetString(codec.Size{}, content))

		r := NewReaderBits(w.Bytes(), w.BitLen())
		decoded, err := r.ReadOctetString(codec.Size{})
		require.NoError(t, err)
		assert.Equal(t, length, len(decoded), "length %d", length)
		assert.Equal(t, content, decoded, "length %d", length)
		assert.Equal(t, 0, r.Remaining(), "length %d", length)
	}
}

func TestNormallySmallNumber(t *testing.T) {
	// extensible enum with index past the root exercises the
	// normally-small form
	variants := codec.Variants{Root: 2, Extensible: true}

	// value below 64: bit 1 (extended), bit 0, six bits
	w := NewWriter()
	require.NoError(t, w.WriteEnumIndex(variants, 2))
	assert.Equal(t, 8, w.BitLen())
	assert.Equal(t, []byte{0x80}, w.Bytes())

	for _, index := range []uint64{2, 3, 65, 64 + 100} {
		w := NewWriter()
		require.NoError(t, w.WriteEnumIndex(variants, index))

		r := NewReaderBits(w.Bytes(), w.BitLen())
		decoded, err := r.ReadEnumIndex(variants)
		require.NoError(t, err)
		assert.Equal(t, index, decoded)
	}
}

func TestEnumIndexRoot(t *testing.T) {
	variants := codec.Variants{Root: 4}

	w := NewWriter()
	require.NoError(t, w.WriteEnumIndex(variants, 3))
	assert.Equal(t, 2, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadEnumIndex(variants)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), decoded)
}

func TestEnumIndexOutsideRootFails(t *testing.T) {
	w := NewWriter()
	err := w.WriteEnumIndex(codec.Variants{Root: 2}, 2)

	var invalid *codec.InvalidIndexError
	require.ErrorAs(t, err, &invalid)
}

func TestChoiceRootIndexInvalidOnRead(t *testing.T) {
	// 2 bits encoding index 3 with only 3 root alternatives
	r := NewReaderBits([]byte{0xC0}, 2)
	err := r.ReadChoice(codec.Variants{Root: 3}, func(index uint64) error { return nil })

	var invalid *codec.InvalidIndexError
	require.ErrorAs(t, err, &invalid)
}

func TestChoiceExtensionOpenType(t *testing.T) {
	variants := codec.Variants{Root: 2, Extensible: true}

	w := NewWriter()
	require.NoError(t, w.WriteChoice(variants, 3, func() error {
		return w.WriteInt(codec.Ranged(0, 255), 200)
	}))

	r := NewReaderBits(w.Bytes(), w.BitLen())
	var decodedIndex uint64
	var decodedValue int64
	require.NoError(t, r.ReadChoice(variants, func(index uint64) error {
		decodedIndex = index
		v, err := r.ReadInt(codec.Ranged(0, 255))
		decodedValue = v
		return err
	}))

	assert.Equal(t, uint64(3), decodedIndex)
	assert.Equal(t, int64(200), decodedValue)
}

func TestBoolRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(false))
	assert.Equal(t, 2, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	v, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, v)
	v, err = r.ReadBool()
	require.NoError(t, err)
	assert.False(t, v)
}

func TestFixedSizeOctetStringHasNoLengthPrefix(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteOctetString(codec.FixedSize(3), []byte{0xAA, 0xBB, 0xCC}))

	assert.Equal(t, 24, w.BitLen())
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, w.Bytes())

	r := NewReader(w.Bytes())
	decoded, err := r.ReadOctetString(codec.FixedSize(3))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, decoded)
}

func TestSizeConstrainedOctetString(t *testing.T) {
	size := codec.SizeRange(1, 4)

	w := NewWriter()
	require.NoError(t, w.WriteOctetString(size, []byte{0xAB, 0xCD}))
	// 2 bits of length (range 1..4), then 16 content bits
	assert.Equal(t, 18, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadOctetString(size)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, decoded)
}

func TestOctetStringSizeViolation(t *testing.T) {
	w := NewWriter()
	err := w.WriteOctetString(codec.SizeRange(1, 4), make([]byte, 9))

	var sizeErr *codec.SizeOutOfBoundsError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, uint64(9), sizeErr.Size)
}

func TestExtensibleSizeOutsideRoot(t *testing.T) {
	size := codec.Size{Min: codec.Uint64(1), Max: codec.Uint64(2), Extensible: true}

	w := NewWriter()
	require.NoError(t, w.WriteOctetString(size, []byte{1, 2, 3, 4}))

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadOctetString(size)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, decoded)
}

func TestBitStringRoundTrip(t *testing.T) {
	bits := codec.NewBitString(10)
	bits.SetBit(0, true)
	bits.SetBit(9, true)

	w := NewWriter()
	require.NoError(t, w.WriteBitString(codec.Size{}, bits.Bytes, bits.BitLen))

	r := NewReaderBits(w.Bytes(), w.BitLen())
	content, bitLen, err := r.ReadBitString(codec.Size{})
	require.NoError(t, err)

	decoded := codec.BitString{Bytes: content, BitLen: bitLen}
	assert.True(t, bits.Equal(&decoded))
}

func TestFixedSizeBitString(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteBitString(codec.FixedSize(12), []byte{0xAB, 0xC0}, 12))
	assert.Equal(t, 12, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	content, bitLen, err := r.ReadBitString(codec.FixedSize(12))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), bitLen)
	assert.Equal(t, []byte{0xAB, 0xC0}, content)
}

func TestIA5String(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteIA5String(codec.Size{}, "Hi"))

	// one length octet then two 7-bit characters
	assert.Equal(t, 8+14, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadIA5String(codec.Size{})
	require.NoError(t, err)
	assert.Equal(t, "Hi", decoded)
}

func TestFixedSizeIA5String(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteIA5String(codec.FixedSize(3), "abc"))
	assert.Equal(t, 21, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadIA5String(codec.FixedSize(3))
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded)
}

func TestIA5StringRejectsNonIA5(t *testing.T) {
	w := NewWriter()
	err := w.WriteIA5String(codec.Size{}, "héllo")

	var invalid *codec.InvalidCharacterError
	require.ErrorAs(t, err, &invalid)
}

func TestNumericString(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteNumericString(codec.Size{}, "123 456"))

	// one length octet then seven 4-bit characters
	assert.Equal(t, 8+28, w.BitLen())

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadNumericString(codec.Size{})
	require.NoError(t, err)
	assert.Equal(t, "123 456", decoded)
}

func TestVisibleAndPrintableStrings(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteVisibleString(codec.Size{}, "Visible 123"))
	require.NoError(t, w.WritePrintableString(codec.Size{}, "Printable"))

	r := NewReaderBits(w.Bytes(), w.BitLen())
	visible, err := r.ReadVisibleString(codec.Size{})
	require.NoError(t, err)
	assert.Equal(t, "Visible 123", visible)

	printable, err := r.ReadPrintableString(codec.Size{})
	require.NoError(t, err)
	assert.Equal(t, "Printable", printable)
}

func TestUTF8String(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteUTF8String(codec.Size{}, "héllo wörld"))

	r := NewReaderBits(w.Bytes(), w.BitLen())
	decoded, err := r.ReadUTF8String(codec.Size{})
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", decoded)
}

func TestTruncatedInputFails(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteInt(codec.Ranged(0, 1209600000), 1234))

	// drop the last bit
	r := NewReaderBits(w.Bytes(), w.BitLen()-1)
	_, err := r.ReadInt(codec.Ranged(0, 1209600000))

	var insufficient *bitio.InsufficientBufferError
	require.ErrorAs(t, err, &insufficient)
}
