package bitio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBitSequence(t *testing.T) {
	w := NewWriter()
	for _, bit := range []bool{false, true, false, false} {
		w.WriteBit(bit)
	}

	assert.Equal(t, 4, w.BitLen())
	assert.Equal(t, []byte{0x40}, w.Bytes())
}

func TestWriteBitsSpansBytes(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.WriteBits([]byte{0xFF, 0x00}, 12)

	assert.Equal(t, 13, w.BitLen())
	// 1 followed by 11111111 0000
	assert.Equal(t, []byte{0xFF, 0x80}, w.Bytes())
}

func TestWriteBitsOffset(t *testing.T) {
	w := NewWriter()
	// skip the first 4 bits of 0xAB = 1010 1011
	w.WriteBitsOffset([]byte{0xAB}, 4, 4)

	assert.Equal(t, 4, w.BitLen())
	assert.Equal(t, []byte{0xB0}, w.Bytes())
}

func TestWriterByteAlignedFastPath(t *testing.T) {
	w := NewWriter()
	w.WriteBits([]byte{0x12, 0x34, 0x56}, 24)

	assert.Equal(t, 24, w.BitLen())
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, w.Bytes())
}

func TestSetBitPatchesReservedPosition(t *testing.T) {
	w := NewWriter()
	w.WriteBit(false)
	w.WriteBit(false)
	w.WriteBit(true)

	require.NoError(t, w.SetBit(0, true))
	assert.Equal(t, []byte{0xA0}, w.Bytes())

	require.NoError(t, w.SetBit(2, false))
	assert.Equal(t, []byte{0x80}, w.Bytes())
}

func TestSetBitOutOfRange(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)

	err := w.SetBit(5, true)
	var insufficient *InsufficientBufferError
	require.ErrorAs(t, err, &insufficient)
}

func TestReadBitConsumesInOrder(t *testing.T) {
	r := NewReader([]byte{0xC0})

	for _, expected := range []bool{true, true, false} {
		bit, err := r.ReadBit()
		require.NoError(t, err)
		assert.Equal(t, expected, bit)
	}
	assert.Equal(t, 5, r.Remaining())
}

func TestReadBitsOffsetZeroesPrefix(t *testing.T) {
	r := NewReader([]byte{0xFF})

	var dst [1]byte
	require.NoError(t, r.ReadBitsOffset(dst[:], 4, 4))
	assert.Equal(t, byte(0x0F), dst[0])
	assert.Equal(t, 4, r.Remaining())
}

func TestReadPastEndFailsWithoutConsuming(t *testing.T) {
	r := NewReaderBits([]byte{0xFF}, 3)

	var dst [1]byte
	err := r.ReadBits(dst[:], 4)

	var insufficient *InsufficientBufferError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.NeedBits)
	assert.Equal(t, 3, insufficient.HaveBits)
	assert.Equal(t, 3, r.Remaining(), "failed read must not consume")

	require.NoError(t, r.ReadBits(dst[:], 3))
	assert.Equal(t, 0, r.Remaining())

	_, err = r.ReadBit()
	require.True(t, errors.As(err, &insufficient))
}

func TestWriteReadRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.WriteBits([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 32)
	w.WriteBit(false)
	w.WriteBit(true)

	r := NewReaderBits(w.Bytes(), w.BitLen())

	bit, err := r.ReadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	var dst [4]byte
	require.NoError(t, r.ReadBits(dst[:], 32))
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, dst[:])

	bit, err = r.ReadBit()
	require.NoError(t, err)
	assert.False(t, bit)

	bit, err = r.ReadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	assert.Equal(t, 0, r.Remaining())
}
