package pcap

import (
	"bufio"
	"errors"
	"io"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Reader reads records from a pcap stream.
type Reader struct {
	r       io.Reader
	hdr     Header
	endian  ende.Endian
	nano    bool
	scratch [recordHeaderLen]byte
}

// NewReader consumes the file header. An unknown magic or a short header
// is a malformed capture.
func NewReader(r io.Reader) (*Reader, error) {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}
	var raw [headerLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, core.Malformed("pcap: short file header")
		}
		return nil, err
	}

	d := ende.NewDecoder(raw[:], ende.BigEndian)
	magic, _ := d.U32()
	e, nano, ok := parseMagic(magic)
	if !ok {
		return nil, core.Malformed("pcap: unknown magic %#08x", magic)
	}
	d.SetEndian(e)

	hdr := Header{Magic: magic}
	hdr.VersionMajor, _ = d.U16()
	hdr.VersionMinor, _ = d.U16()
	hdr.ThisZone, _ = d.I32()
	hdr.SigFigs, _ = d.U32()
	hdr.SnapLen, _ = d.U32()
	hdr.Network, _ = d.U32()

	return &Reader{r: r, hdr: hdr, endian: e, nano: nano}, nil
}

func (r *Reader) Header() Header { return r.hdr }

// NextRecord reads the next record into *buf, resizing it to the captured
// length. It returns (nil, nil) on a clean end of file before the record
// header; a record cut short anywhere else is malformed.
func (r *Reader) NextRecord(buf *[]byte) (*RecordHeader, error) {
	n, err := io.ReadFull(r.r, r.scratch[:])
	switch {
	case errors.Is(err, io.EOF) && n == 0:
		return nil, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, core.Malformed("pcap: truncated record header")
	case err != nil:
		return nil, err
	}

	d := ende.NewDecoder(r.scratch[:], r.endian)
	rec := &RecordHeader{}
	rec.TsSec, _ = d.U32()
	rec.TsFrac, _ = d.U32()
	rec.InclLen, _ = d.U32()
	rec.OrigLen, _ = d.U32()

	if int64(rec.InclLen) > int64(maxRecordLen(r.hdr.SnapLen)) {
		return nil, core.Malformed("pcap: record length %d exceeds snap length %d", rec.InclLen, r.hdr.SnapLen)
	}
	if cap(*buf) < int(rec.InclLen) {
		*buf = make([]byte, rec.InclLen)
	}
	*buf = (*buf)[:rec.InclLen]
	if _, err := io.ReadFull(r.r, *buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, core.Malformed("pcap: truncated record body")
		}
		return nil, err
	}
	return rec, nil
}

// maxRecordLen bounds allocations on corrupt lengths. Some writers emit
// records past a small snap length, so the bound is generous.
func maxRecordLen(snaplen uint32) uint32 {
	const ceiling = 256 << 10
	return max(snaplen, ceiling)
}
