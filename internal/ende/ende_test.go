package ende

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderEndianness(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	be := NewDecoder(data, BigEndian)
	v, err := be.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)

	le := NewDecoder(data, LittleEndian)
	v, err = le.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v)
}

func TestSignedRoundTrip(t *testing.T) {
	for _, e := range []Endian{BigEndian, LittleEndian} {
		t.Run(e.String(), func(t *testing.T) {
			enc := NewEncoder(e, 16)
			enc.I8(-2)
			enc.I16(-300)
			enc.I32(-70000)
			enc.I64(-1 << 40)
			require.Equal(t, 15, enc.Len())

			d := NewDecoder(enc.Bytes(), e)
			i8, err := d.I8()
			require.NoError(t, err)
			i16, err := d.I16()
			require.NoError(t, err)
			i32, err := d.I32()
			require.NoError(t, err)
			i64, err := d.I64()
			require.NoError(t, err)
			assert.Equal(t, int8(-2), i8)
			assert.Equal(t, int16(-300), i16)
			assert.Equal(t, int32(-70000), i32)
			assert.Equal(t, int64(-1<<40), i64)

			in := enc.Bytes()
			in, p8, err := Int8()(in)
			require.NoError(t, err)
			in, p16, err := Int16(e)(in)
			require.NoError(t, err)
			in, p32, err := Int32(e)(in)
			require.NoError(t, err)
			in, p64, err := Int64(e)(in)
			require.NoError(t, err)
			assert.Empty(t, in)
			assert.Equal(t, []any{i8, i16, i32, i64}, []any{p8, p16, p32, p64})
		})
	}
}

func TestUint64Parser(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	rest, v, err := Uint64(BigEndian)(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)
	assert.Equal(t, []byte{9}, rest)

	_, v, err = Uint64(LittleEndian)(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), v)

	rest, _, err = Uint64(BigEndian)(data[:5])
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Len(t, rest, 5)
}

func TestDecoderIncomplete(t *testing.T) {
	d := NewDecoder([]byte{0xAA, 0xBB, 0xCC}, BigEndian)
	_, err := d.U16()
	require.NoError(t, err)

	_, err = d.U32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Offset)
	assert.Equal(t, 3, de.Need)
	// failed reads do not advance
	assert.Equal(t, 1, d.Remaining())
}

func TestDecoderSubKeepsAbsoluteOffset(t *testing.T) {
	d := NewDecoder([]byte{0, 0, 0, 0, 1, 2}, BigEndian)
	require.NoError(t, d.Skip(2))
	sub, err := d.Sub(3)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Offset())

	_, err = sub.U32()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Offset)
	assert.Equal(t, 1, d.Remaining())
}

func TestDecoderRestAndCopy(t *testing.T) {
	in := []byte{1, 2, 3, 4}
	d := NewDecoder(in, BigEndian)
	c, err := d.Copy(2)
	require.NoError(t, err)
	in[0] = 9
	assert.Equal(t, []byte{1, 2}, c)
	assert.Equal(t, []byte{3, 4}, d.Rest())
	assert.Equal(t, 0, d.Remaining())
}

func TestEncoderBackPatch(t *testing.T) {
	e := NewEncoder(BigEndian, 8)
	e.U16(0)
	e.U8(0x7f)
	e.PutU16At(0, 0xBEEF)
	e.Align(4)
	assert.Equal(t, []byte{0xBE, 0xEF, 0x7f, 0x00}, e.Bytes())

	l := NewEncoder(LittleEndian, 0)
	l.U32(0x1A2B3C4D)
	assert.Equal(t, []byte{0x4D, 0x3C, 0x2B, 0x1A}, l.Bytes())
}

func TestDecodeErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		is   error
		kind Kind
	}{
		{NeedMore(0, 1), ErrIncomplete, Incomplete},
		{MalformedAt(4, "bad %s", "thing"), ErrMalformed, Malformed},
		{Decline(), ErrNotApplicable, NotApplicable},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.is)
		assert.Equal(t, tt.kind, KindOf(tt.err))
	}

	custom := Wrap(3, fmt.Errorf("boom"))
	assert.Equal(t, Custom, KindOf(custom))
	assert.NotErrorIs(t, custom, ErrMalformed)
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestMapAndPair(t *testing.T) {
	version := Map(Uint8(), func(b uint8) (int, error) {
		if b>>4 != 4 {
			return 0, fmt.Errorf("version %d", b>>4)
		}
		return int(b&0x0f) * 4, nil
	})

	rest, ihl, err := version([]byte{0x45, 0xff})
	require.NoError(t, err)
	assert.Equal(t, 20, ihl)
	assert.Equal(t, []byte{0xff}, rest)

	_, _, err = version([]byte{0x65})
	assert.ErrorIs(t, err, ErrMalformed)

	p := Pair(Uint16(BigEndian), Rest())
	rest, out, err := p([]byte{0x08, 0x00, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0800), out.First)
	assert.Equal(t, []byte{0xAA}, out.Second)
	assert.Empty(t, rest)

	_, _, err = Take(4)([]byte{1})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestChecksum(t *testing.T) {
	// RFC 1071 sample header
	hdr := []byte{
		0x45, 0x00, 0x00, 0x73, 0x00, 0x00, 0x40, 0x00, 0x40, 0x11,
		0x00, 0x00, // checksum zeroed
		0xc0, 0xa8, 0x00, 0x01, 0xc0, 0xa8, 0x00, 0xc7,
	}
	assert.Equal(t, uint16(0xb861), Checksum(hdr))

	hdr[10], hdr[11] = 0xb8, 0x61
	assert.Equal(t, uint16(0), Checksum(hdr))
}
