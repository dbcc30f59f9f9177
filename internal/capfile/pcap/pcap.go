// Package pcap reads and writes classic libpcap capture files.
package pcap

import (
	"time"

	"firestige.xyz/pdukit/internal/ende"
)

// Magic numbers, as the first four file bytes read big-endian.
const (
	MagicMicroBE uint32 = 0xA1B2C3D4
	MagicMicroLE uint32 = 0xD4C3B2A1
	MagicNanoBE  uint32 = 0xA1B23C4D
	MagicNanoLE  uint32 = 0x4D3CB2A1
)

const (
	VersionMajor = 2
	VersionMinor = 4

	headerLen       = 24
	recordHeaderLen = 16
)

// Header is the 24 byte file header.
type Header struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	SnapLen      uint32
	// Network is the link type. Only the low 16 bits are meaningful; the
	// upper bits may carry FCS information.
	Network uint32
}

// NewHeader returns a version 2.4 header.
func NewHeader(e ende.Endian, nano bool, snaplen uint32, network uint32) Header {
	h := Header{
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		SnapLen:      snaplen,
		Network:      network,
	}
	switch {
	case e == ende.BigEndian && nano:
		h.Magic = MagicNanoBE
	case e == ende.BigEndian:
		h.Magic = MagicMicroBE
	case nano:
		h.Magic = MagicNanoLE
	default:
		h.Magic = MagicMicroLE
	}
	return h
}

// parseMagic reports the byte order and precision encoded by magic.
func parseMagic(magic uint32) (e ende.Endian, nano bool, ok bool) {
	switch magic {
	case MagicMicroBE:
		return ende.BigEndian, false, true
	case MagicMicroLE:
		return ende.LittleEndian, false, true
	case MagicNanoBE:
		return ende.BigEndian, true, true
	case MagicNanoLE:
		return ende.LittleEndian, true, true
	}
	return 0, false, false
}

// Endian is the byte order of every field after the magic.
func (h Header) Endian() ende.Endian {
	e, _, _ := parseMagic(h.Magic)
	return e
}

// Nano reports nanosecond timestamps.
func (h Header) Nano() bool {
	_, nano, _ := parseMagic(h.Magic)
	return nano
}

// LinkType masks Network down to the link type proper.
func (h Header) LinkType() uint16 { return uint16(h.Network) }

// RecordHeader precedes every packet.
type RecordHeader struct {
	TsSec   uint32
	TsFrac  uint32
	InclLen uint32
	OrigLen uint32
}

// Timestamp converts the record time. TsFrac is in nanoseconds when nano
// is set and in microseconds otherwise.
func (r *RecordHeader) Timestamp(nano bool) time.Time {
	frac := int64(r.TsFrac)
	if !nano {
		frac *= 1000
	}
	return time.Unix(int64(r.TsSec), frac).UTC()
}

// splitTimestamp is the inverse of Timestamp. Times that do not fit the
// 32 bit seconds field are written as the epoch.
func splitTimestamp(ts time.Time, nano bool) (sec, frac uint32) {
	s := ts.Unix()
	if s < 0 || s > 0xffffffff {
		return 0, 0
	}
	ns := uint32(ts.Nanosecond())
	if !nano {
		ns /= 1000
	}
	return uint32(s), ns
}
