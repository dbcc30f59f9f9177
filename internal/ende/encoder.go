package ende

// Encoder appends encoded values to a growable buffer.
type Encoder struct {
	buf    []byte
	endian Endian
}

func NewEncoder(e Endian, sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint), endian: e}
}

func (e *Encoder) Endian() Endian     { return e.endian }
func (e *Encoder) SetEndian(o Endian) { e.endian = o }
func (e *Encoder) Len() int           { return len(e.buf) }

// Bytes returns the encoded buffer. It aliases the encoder's storage.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) U8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) U16(v uint16) { e.buf = e.endian.appender().AppendUint16(e.buf, v) }

func (e *Encoder) U32(v uint32) { e.buf = e.endian.appender().AppendUint32(e.buf, v) }

func (e *Encoder) U64(v uint64) { e.buf = e.endian.appender().AppendUint64(e.buf, v) }

func (e *Encoder) I8(v int8) { e.U8(uint8(v)) }

func (e *Encoder) I16(v int16) { e.U16(uint16(v)) }

func (e *Encoder) I32(v int32) { e.U32(uint32(v)) }

func (e *Encoder) I64(v int64) { e.U64(uint64(v)) }

func (e *Encoder) Put(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) Zeros(n int) {
	for range n {
		e.buf = append(e.buf, 0)
	}
}

// Align pads with zeros until the length is a multiple of n.
func (e *Encoder) Align(n int) {
	if r := len(e.buf) % n; r != 0 {
		e.Zeros(n - r)
	}
}

// PutU16At overwrites two bytes at off, which must already be written.
func (e *Encoder) PutU16At(off int, v uint16) {
	e.endian.Order().PutUint16(e.buf[off:], v)
}

func (e *Encoder) PutU32At(off int, v uint32) {
	e.endian.Order().PutUint32(e.buf[off:], v)
}

// Write implements io.Writer.
func (e *Encoder) Write(p []byte) (int, error) {
	e.buf = append(e.buf, p...)
	return len(p), nil
}
