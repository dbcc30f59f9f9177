package ende

// Decoder is a forward-only cursor over a byte slice. Returned slices alias
// the input; callers that keep them past the input's lifetime must copy.
type Decoder struct {
	buf    []byte
	pos    int
	base   int
	endian Endian
}

// NewDecoder returns a decoder over buf reading integers in byte order e.
func NewDecoder(buf []byte, e Endian) *Decoder {
	return &Decoder{buf: buf, endian: e}
}

func (d *Decoder) Endian() Endian     { return d.endian }
func (d *Decoder) SetEndian(e Endian) { d.endian = e }

// Offset is the absolute position, including the base of a parent decoder.
func (d *Decoder) Offset() int { return d.base + d.pos }

// Consumed returns the number of bytes read from this decoder.
func (d *Decoder) Consumed() int { return d.pos }

func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) need(n int) error {
	if n < 0 {
		return MalformedAt(d.Offset(), "negative length %d", n)
	}
	if r := d.Remaining(); r < n {
		return NeedMore(d.Offset(), n-r)
	}
	return nil
}

func (d *Decoder) U8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *Decoder) U16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := d.endian.Order().Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *Decoder) U32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := d.endian.Order().Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) U64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := d.endian.Order().Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *Decoder) I8() (int8, error) {
	v, err := d.U8()
	return int8(v), err
}

func (d *Decoder) I16() (int16, error) {
	v, err := d.U16()
	return int16(v), err
}

func (d *Decoder) I32() (int32, error) {
	v, err := d.U32()
	return int32(v), err
}

func (d *Decoder) I64() (int64, error) {
	v, err := d.U64()
	return int64(v), err
}

// Bytes returns the next n bytes without copying.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	v := d.buf[d.pos : d.pos+n : d.pos+n]
	d.pos += n
	return v, nil
}

// Copy returns a copy of the next n bytes.
func (d *Decoder) Copy(n int) ([]byte, error) {
	b, err := d.Bytes(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Fixed fills dst entirely.
func (d *Decoder) Fixed(dst []byte) error {
	b, err := d.Bytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func (d *Decoder) Peek(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	return d.buf[d.pos : d.pos+n], nil
}

func (d *Decoder) Skip(n int) error {
	if err := d.need(n); err != nil {
		return err
	}
	d.pos += n
	return nil
}

// Rest consumes and returns everything left.
func (d *Decoder) Rest() []byte {
	v := d.buf[d.pos:]
	d.pos = len(d.buf)
	return v
}

// Sub consumes n bytes and returns a decoder bounded to them. Offsets
// reported by the child stay absolute.
func (d *Decoder) Sub(n int) (*Decoder, error) {
	start := d.Offset()
	b, err := d.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Decoder{buf: b, base: start, endian: d.endian}, nil
}
