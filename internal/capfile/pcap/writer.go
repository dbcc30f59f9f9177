package pcap

import (
	"bufio"
	"io"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Writer writes a pcap stream. Output is buffered; call Flush when done.
type Writer struct {
	w       *bufio.Writer
	snaplen uint32
	enc     *ende.Encoder
}

// NewWriter writes hdr in the byte order its magic selects.
func NewWriter(w io.Writer, hdr Header) (*Writer, error) {
	e, _, ok := parseMagic(hdr.Magic)
	if !ok {
		return nil, core.Malformed("pcap: unknown magic %#08x", hdr.Magic)
	}
	enc := ende.NewEncoder(ende.BigEndian, headerLen)
	enc.U32(hdr.Magic)
	enc.SetEndian(e)
	enc.U16(hdr.VersionMajor)
	enc.U16(hdr.VersionMinor)
	enc.I32(hdr.ThisZone)
	enc.U32(hdr.SigFigs)
	enc.U32(hdr.SnapLen)
	enc.U32(hdr.Network)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(enc.Bytes()); err != nil {
		return nil, err
	}
	enc.Reset()
	return &Writer{w: bw, snaplen: hdr.SnapLen, enc: enc}, nil
}

// WriteRecord appends one record. The captured length must match data and
// may exceed neither the original length nor the snap length.
func (w *Writer) WriteRecord(rec *RecordHeader, data []byte) error {
	switch {
	case int(rec.InclLen) != len(data):
		return core.Malformed("pcap: record length %d, have %d bytes", rec.InclLen, len(data))
	case rec.InclLen > rec.OrigLen:
		return core.Malformed("pcap: captured length %d exceeds original length %d", rec.InclLen, rec.OrigLen)
	case rec.InclLen > w.snaplen:
		return core.Malformed("pcap: captured length %d exceeds snap length %d", rec.InclLen, w.snaplen)
	}
	w.enc.Reset()
	w.enc.U32(rec.TsSec)
	w.enc.U32(rec.TsFrac)
	w.enc.U32(rec.InclLen)
	w.enc.U32(rec.OrigLen)
	if _, err := w.w.Write(w.enc.Bytes()); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}

func (w *Writer) Flush() error { return w.w.Flush() }
