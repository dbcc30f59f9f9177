package pcapng

import (
	"io"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

type ifaceKey struct {
	device  string
	link    core.LinkType
	snapLen int
}

type recordedIface struct {
	id       uint32
	tsOffset int64
}

// Recorder is a transmit sink writing a single-section pcap-ng file. Each
// distinct device, link type and snap length gets its own interface, whose
// timestamps count nanoseconds from the second of its first packet.
type Recorder struct {
	out    io.Writer
	writer *Writer
	ifaces map[ifaceKey]*recordedIface
}

// NewRecorder writes the section header in byte order e.
func NewRecorder(out io.Writer, e ende.Endian) (*Recorder, error) {
	w := NewWriter(out)
	shb := NewSectionHeader(e)
	shb.Options.AddString(OptSHBUserAppl, "pdukit")
	if err := w.WriteBlock(shb); err != nil {
		return nil, err
	}
	return &Recorder{out: out, writer: w, ifaces: make(map[ifaceKey]*recordedIface)}, nil
}

func (r *Recorder) TransmitRaw(raw core.RawPacket) error {
	key := ifaceKey{link: raw.LinkType, snapLen: raw.SnapLen}
	if raw.Device != nil {
		key.device = raw.Device.Name
	}
	secs := raw.Timestamp.Unix()

	iface, ok := r.ifaces[key]
	if !ok {
		iface = &recordedIface{id: uint32(len(r.ifaces)), tsOffset: secs}
		if err := r.writer.WriteBlock(r.describe(raw, secs)); err != nil {
			return err
		}
		r.ifaces[key] = iface
	}

	var ts uint64
	if secs >= iface.tsOffset {
		ts = uint64(secs-iface.tsOffset)*1e9 + uint64(raw.Timestamp.Nanosecond())
	}
	orig := max(raw.OrigLen, len(raw.Data))
	return r.writer.WriteBlock(&EnhancedPacket{
		InterfaceID: iface.id,
		Timestamp:   ts,
		OrigLen:     uint32(orig),
		Data:        raw.Data,
	})
}

func (r *Recorder) describe(raw core.RawPacket, tsOffset int64) *InterfaceDescription {
	e := r.writer.Endian()
	snap := raw.SnapLen
	if snap <= 0 {
		snap = core.DefaultSnapLen
	}
	b := &InterfaceDescription{LinkType: uint16(raw.LinkType), SnapLen: uint32(snap)}
	if dev := raw.Device; dev != nil {
		b.Options.AddString(OptIfName, dev.Name)
		if dev.Description != "" {
			b.Options.AddString(OptIfDescription, dev.Description)
		}
		for _, a := range dev.IPv4 {
			mask := address.IPv4{0xFF, 0xFF, 0xFF, 0xFF}
			if a.Netmask != nil {
				mask = *a.Netmask
			}
			b.Options.Add(OptIfIPv4Addr, append(a.Addr.Bytes()[:4:4], mask.Bytes()...))
		}
		for _, a := range dev.IPv6 {
			b.Options.Add(OptIfIPv6Addr, append(a.Addr.Bytes()[:16:16], uint8(max(a.PrefixLen, 0))))
		}
		for _, m := range dev.MACs {
			b.Options.Add(OptIfMACAddr, append([]byte(nil), m.Bytes()...))
		}
	}
	b.Options.AddInt64(OptIfTSOffset, tsOffset, e)
	b.Options.AddUint8(OptIfTSResol, 9)
	return b
}

// Flush writes buffered blocks out.
func (r *Recorder) Flush() error { return r.writer.Flush() }

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

var _ core.RawSink = (*Recorder)(nil)
