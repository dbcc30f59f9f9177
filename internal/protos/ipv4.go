package protos

import (
	"fmt"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

const ipv4MinHeaderLen = 20

// IPv4 flag bits, as found in the top three bits of the fragment word.
const (
	IPv4Reserved      uint8 = 0x4
	IPv4DontFragment  uint8 = 0x2
	IPv4MoreFragments uint8 = 0x1
)

var IPv4Type = core.NewPDUType("IPv4")

// IPv4 is an IPv4 header. Options are kept as raw bytes, including any
// padding, so they survive a round trip verbatim.
type IPv4 struct {
	core.Base
	Version     uint8
	IHL         uint8
	TOS         uint8
	TotalLength uint16
	ID          uint16
	Flags       uint8
	// FragOffset is in units of 8 bytes.
	FragOffset uint16
	TTL        uint8
	Protocol   uint8
	Checksum   uint16
	Src        address.IPv4
	Dst        address.IPv4
	Options    []byte
	// Trailer holds bytes captured past the total length when the header
	// is the outermost layer. Enclosing layers keep them otherwise.
	Trailer []byte
}

// NewIPv4 returns a header with sane defaults. Call core.MakeCanonical
// once the payload is attached.
func NewIPv4(src, dst address.IPv4, proto uint8) *IPv4 {
	return &IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: proto,
		Src:      src,
		Dst:      dst,
	}
}

// DissectIPv4 decodes an IPv4 header and dispatches the payload through
// the IP protocol table. The payload is bounded by the total length field;
// bytes past it are returned as the unconsumed rest, or kept as Trailer
// when there is no enclosing layer.
func DissectIPv4(buf []byte, s *core.Session, parent *core.TempPDU) ([]byte, core.PDU, error) {
	d := ende.NewDecoder(buf, ende.BigEndian)
	ip := &IPv4{}

	vihl, err := d.U8()
	if err != nil {
		return nil, nil, err
	}
	ip.Version, ip.IHL = vihl>>4, vihl&0x0f
	if ip.Version != 4 {
		return nil, nil, ende.MalformedAt(0, "ipv4: version %d", ip.Version)
	}
	hdrLen := int(ip.IHL) * 4
	if hdrLen < ipv4MinHeaderLen {
		return nil, nil, ende.MalformedAt(0, "ipv4: header length %d", hdrLen)
	}
	if len(buf) < hdrLen {
		return nil, nil, ende.NeedMore(len(buf), hdrLen-len(buf))
	}

	// the header length is checked above, the fixed part cannot fail
	ip.TOS, _ = d.U8()
	ip.TotalLength, _ = d.U16()
	ip.ID, _ = d.U16()
	frag, _ := d.U16()
	ip.Flags, ip.FragOffset = uint8(frag>>13), frag&0x1fff
	ip.TTL, _ = d.U8()
	ip.Protocol, _ = d.U8()
	ip.Checksum, _ = d.U16()
	_ = d.Fixed(ip.Src[:])
	_ = d.Fixed(ip.Dst[:])
	opts, _ := d.Bytes(hdrLen - ipv4MinHeaderLen)
	if len(opts) > 0 {
		ip.Options = append([]byte(nil), opts...)
	}

	total := int(ip.TotalLength)
	if total < hdrLen {
		return nil, nil, ende.MalformedAt(2, "ipv4: total length %d below header length %d", total, hdrLen)
	}
	// a snap length may have cut the datagram short
	end := min(total, len(buf))
	payload := buf[hdrLen:end]

	var inner core.PDU
	if ip.FragOffset != 0 {
		// later fragments carry no upper layer header
		inner = core.NewRaw(payload)
	} else {
		_, inner, err = s.Dissect(IPProtoTable, uint64(ip.Protocol), payload, core.NewTempPDU(ip, parent))
		if err != nil {
			return nil, nil, err
		}
	}
	if err := core.SetInner(ip, inner); err != nil {
		return nil, nil, err
	}
	rest := buf[end:]
	if parent == nil && len(rest) > 0 {
		ip.Trailer = append([]byte(nil), rest...)
		rest = rest[len(rest):]
	}
	return rest, ip, nil
}

func dissectRawIPv4(buf []byte, s *core.Session, parent *core.TempPDU) ([]byte, core.PDU, error) {
	if len(buf) > 0 && buf[0]>>4 != 4 {
		return nil, nil, ende.Decline()
	}
	return DissectIPv4(buf, s, parent)
}

// IsFragment reports whether the datagram is part of a fragmented one.
func (ip *IPv4) IsFragment() bool {
	return ip.Flags&IPv4MoreFragments != 0 || ip.FragOffset != 0
}

func (ip *IPv4) Type() core.PDUType { return IPv4Type }
func (ip *IPv4) HeaderLen() int     { return ipv4MinHeaderLen + len(ip.Options) }
func (ip *IPv4) TrailerLen() int    { return len(ip.Trailer) }

func (ip *IPv4) SerializeTrailer(e *ende.Encoder) error {
	e.Put(ip.Trailer)
	return nil
}

func (ip *IPv4) SerializeHeader(e *ende.Encoder) error {
	e.U8(ip.Version<<4 | ip.IHL&0x0f)
	e.U8(ip.TOS)
	e.U16(ip.TotalLength)
	e.U16(ip.ID)
	e.U16(uint16(ip.Flags&0x7)<<13 | ip.FragOffset&0x1fff)
	e.U8(ip.TTL)
	e.U8(ip.Protocol)
	e.U16(ip.Checksum)
	e.Put(ip.Src[:])
	e.Put(ip.Dst[:])
	e.Put(ip.Options)
	return nil
}

// MakeCanonical pads the options to a word boundary, then recomputes the
// header length, the total length and the header checksum.
func (ip *IPv4) MakeCanonical() {
	if pad := len(ip.Options) % 4; pad != 0 {
		ip.Options = append(ip.Options, make([]byte, 4-pad)...)
	}
	ip.Version = 4
	ip.IHL = uint8(ip.HeaderLen() / 4)
	total := ip.HeaderLen()
	if inner := ip.Inner(); inner != nil {
		total += core.TotalLen(inner)
	}
	ip.TotalLength = uint16(total)
	ip.Checksum = 0

	e := ende.NewEncoder(ende.BigEndian, ip.HeaderLen())
	_ = ip.SerializeHeader(e)
	ip.Checksum = ende.Checksum(e.Bytes())
}

// VerifyChecksum reports whether the stored header checksum is correct.
func (ip *IPv4) VerifyChecksum() bool {
	e := ende.NewEncoder(ende.BigEndian, ip.HeaderLen())
	_ = ip.SerializeHeader(e)
	return ende.Checksum(e.Bytes()) == 0
}

func (ip *IPv4) Dump(d *core.NodeDumper) error {
	return d.Node("Internet Protocol Version 4", "", func(n *core.NodeDumper) error {
		fields := []struct {
			name  string
			v     core.Value
			descr string
		}{
			{"Version", core.UIntValue(uint64(ip.Version)), ""},
			{"Header Length", core.UIntValue(uint64(ip.IHL) * 4), fmt.Sprintf("%d words", ip.IHL)},
			{"Type of Service", core.UIntValue(uint64(ip.TOS)), ""},
			{"Total Length", core.UIntValue(uint64(ip.TotalLength)), ""},
			{"Identification", core.UIntValue(uint64(ip.ID)), fmt.Sprintf("0x%04x", ip.ID)},
			{"Don't Fragment", core.BoolValue(ip.Flags&IPv4DontFragment != 0), ""},
			{"More Fragments", core.BoolValue(ip.Flags&IPv4MoreFragments != 0), ""},
			{"Fragment Offset", core.UIntValue(uint64(ip.FragOffset) * 8), "bytes"},
			{"Time to Live", core.UIntValue(uint64(ip.TTL)), ""},
			{"Protocol", core.UIntValue(uint64(ip.Protocol)), ipProtoNames[ip.Protocol]},
			{"Header Checksum", core.UIntValue(uint64(ip.Checksum)), checksumStatus(ip)},
			{"Source", core.AddressValue(ip.Src), ""},
			{"Destination", core.AddressValue(ip.Dst), ""},
		}
		for _, f := range fields {
			if err := n.Field(f.name, f.v, f.descr); err != nil {
				return err
			}
		}
		if len(ip.Options) > 0 {
			if err := n.Field("Options", core.BytesValue(ip.Options), ""); err != nil {
				return err
			}
		}
		if len(ip.Trailer) > 0 {
			return n.Field("Trailer", core.BytesValue(ip.Trailer), "past total length")
		}
		return nil
	})
}

func checksumStatus(ip *IPv4) string {
	if ip.VerifyChecksum() {
		return "correct"
	}
	return "incorrect"
}

func (ip *IPv4) Clone() core.PDU {
	c := *ip
	c.Base = core.Base{}
	c.Options = append([]byte(nil), ip.Options...)
	c.Trailer = append([]byte(nil), ip.Trailer...)
	return &c
}
