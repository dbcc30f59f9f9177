package pcap

import (
	"fmt"
	"io"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Recorder is a transmit sink writing a little-endian pcap file. The file
// header is written with the first packet, taking its link type and snap
// length; later packets must share the link type.
type Recorder struct {
	out    io.Writer
	nano   bool
	writer *Writer
	link   core.LinkType
}

// NewRecorder records with microsecond timestamps, or nanosecond ones when
// nano is set.
func NewRecorder(out io.Writer, nano bool) *Recorder {
	return &Recorder{out: out, nano: nano}
}

func (r *Recorder) TransmitRaw(raw core.RawPacket) error {
	if r.writer == nil {
		snap := raw.SnapLen
		if snap <= 0 {
			snap = core.DefaultSnapLen
		}
		w, err := NewWriter(r.out, NewHeader(ende.LittleEndian, r.nano, uint32(snap), uint32(raw.LinkType)))
		if err != nil {
			return err
		}
		r.writer, r.link = w, raw.LinkType
	} else if raw.LinkType != r.link {
		return &core.UserError{Err: fmt.Errorf("pcap: link type %s in a %s file", raw.LinkType, r.link)}
	}

	sec, frac := splitTimestamp(raw.Timestamp, r.nano)
	orig := raw.OrigLen
	if orig < len(raw.Data) {
		orig = len(raw.Data)
	}
	return r.writer.WriteRecord(&RecordHeader{
		TsSec:   sec,
		TsFrac:  frac,
		InclLen: uint32(len(raw.Data)),
		OrigLen: uint32(orig),
	}, raw.Data)
}

// Flush writes buffered records out. It is a no-op before the first packet.
func (r *Recorder) Flush() error {
	if r.writer == nil {
		return nil
	}
	return r.writer.Flush()
}

// Close flushes and closes the output when it is an io.Closer.
func (r *Recorder) Close() error {
	err := r.Flush()
	if c, ok := r.out.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
