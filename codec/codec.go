package codec

// Bounds is the compile-time value constraint of an INTEGER field.
// A nil side is unbounded.
type Bounds struct {
	Min        *int64
	Max        *int64
	Extensible bool
}

// Size is the compile-time SIZE constraint of a string, bit string or
// collection. A nil side is unbounded; the lower bound defaults to 0.
type Size struct {
	Min        *uint64
	Max        *uint64
	Extensible bool
}

// Fixed reports whether the constraint pins the length to one constant.
func (s Size) Fixed() (uint64, bool) {
	if s.Min != nil && s.Max != nil && *s.Min == *s.Max {
		return *s.Min, true
	}
	return 0, false
}

// Variants is the compile-time shape of an ENUMERATED or CHOICE: the
// number of root alternatives and whether an extension marker follows.
type Variants struct {
	Root       uint64
	Extensible bool
}

// Sequence is the compile-time shape of a SEQUENCE or SET: how many
// root components carry a presence bit, and whether the type is
// extensible.
type Sequence struct {
	OptionalFields uint64
	Extensible     bool
}

// Int64 returns a pointer to v, for building Bounds literals.
func Int64(v int64) *int64 { return &v }

// Uint64 returns a pointer to v, for building Size literals.
func Uint64(v uint64) *uint64 { return &v }

// Ranged builds the Bounds of INTEGER (min..max).
func Ranged(min, max int64) Bounds {
	return Bounds{Min: Int64(min), Max: Int64(max)}
}

// SizeRange builds the Size of SIZE (min..max).
func SizeRange(min, max uint64) Size {
	return Size{Min: Uint64(min), Max: Uint64(max)}
}

// FixedSize builds the Size of SIZE (n).
func FixedSize(n uint64) Size {
	return SizeRange(n, n)
}

// ExtensionField is one extension addition of a sequence: its presence
// and the encoding of its value, wrapped by the driver in an open type.
// Value runs against the same writer that frames the sequence.
type ExtensionField struct {
	Present bool
	Value   func() error
}

// ExtensionSlot is the decoding counterpart of ExtensionField. Read is
// invoked only when the addition is present on the wire, against the
// same reader that frames the sequence.
type ExtensionSlot struct {
	Read func() error
}

// Writer drives the encoding of one value. Implementations apply the
// wire-level framing; emitted types call one operation per field in
// declared order (SET: canonical order).
type Writer interface {
	// WriteSequence frames a SEQUENCE or SET: extension bit, presence
	// bitmap for optional root fields, root field encodings, then any
	// present extension additions as open types.
	WriteSequence(c Sequence, root func() error, ext ...ExtensionField) error

	// WriteOpt records the next reserved presence bit and, when
	// present, encodes the value.
	WriteOpt(present bool, value func() error) error

	// WriteSequenceOf frames a SEQUENCE OF / SET OF: count determinant
	// then each element in order.
	WriteSequenceOf(c Size, n int, item func(i int) error) error

	WriteBool(v bool) error
	WriteNull() error
	WriteInt(c Bounds, v int64) error
	WriteEnumIndex(c Variants, index uint64) error
	WriteChoice(c Variants, index uint64, payload func() error) error
	WriteOctetString(c Size, b []byte) error
	WriteBitString(c Size, b []byte, bitLen uint64) error
	WriteUTF8String(c Size, s string) error
	WriteIA5String(c Size, s string) error
	WriteNumericString(c Size, s string) error
	WritePrintableString(c Size, s string) error
	WriteVisibleString(c Size, s string) error

	// Field pushes a field name onto the descriptive-error path for the
	// duration of f. A no-op unless descriptive errors are enabled.
	Field(name string, f func() error) error
}

// Reader drives the decoding of one value, mirroring Writer.
type Reader interface {
	// ReadSequence frames a SEQUENCE or SET. Unknown extension
	// additions beyond the provided slots are preserved as raw
	// open-type octets and returned.
	ReadSequence(c Sequence, root func() error, ext ...ExtensionSlot) (unknown [][]byte, err error)

	// ReadOpt consumes the next presence bit and, when set, decodes
	// the value. Returns whether the value was present.
	ReadOpt(value func() error) (bool, error)

	// ReadSequenceOf reads the count determinant and invokes item for
	// each element.
	ReadSequenceOf(c Size, item func(i int) error) (int, error)

	ReadBool() (bool, error)
	ReadNull() error
	ReadInt(c Bounds) (int64, error)
	ReadEnumIndex(c Variants) (uint64, error)
	ReadChoice(c Variants, payload func(index uint64) error) error
	ReadOctetString(c Size) ([]byte, error)
	ReadBitString(c Size) ([]byte, uint64, error)
	ReadUTF8String(c Size) (string, error)
	ReadIA5String(c Size) (string, error)
	ReadNumericString(c Size) (string, error)
	ReadPrintableString(c Size) (string, error)
	ReadVisibleString(c Size) (string, error)

	// Field pushes a field name onto the descriptive-error path for the
	// duration of f. A no-op unless descriptive errors are enabled.
	Field(name string, f func() error) error
}

// Writable is implemented by emitted types that can encode themselves.
type Writable interface {
	Write(w Writer) error
}

// Readable is implemented by emitted types that can decode themselves
// in place.
type Readable interface {
	Read(r Reader) error
}
