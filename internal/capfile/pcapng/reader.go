package pcapng

import (
	"bufio"
	"errors"
	"io"
	"net/netip"
	"strings"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// maxBlockLen bounds allocations on corrupt lengths.
const maxBlockLen = 64 << 20

// minimum body sizes, after the type and length words and before the
// trailing length
var minBodyLen = map[BlockType]int{
	BlockSectionHeader:        16,
	BlockInterfaceDescription: 8,
	BlockEnhancedPacket:       20,
	BlockSimplePacket:         4,
	BlockInterfaceStatistics:  12,
	BlockDecryptionSecrets:    8,
}

var shbMagic = [4]byte{0x0A, 0x0D, 0x0D, 0x0A}

// Reader reads blocks from a pcap-ng stream. Every returned block owns its
// memory.
type Reader struct {
	r         io.Reader
	endian    ende.Endian
	inSection bool
	// snapLen of the first interface in the section, for simple packets.
	snapLen uint32
	haveIDB bool
	hdr     [12]byte
}

func NewReader(r io.Reader) *Reader {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}
	return &Reader{r: r}
}

// Endian is the byte order of the current section.
func (r *Reader) Endian() ende.Endian { return r.endian }

// NextBlock reads one block. It returns (nil, nil) on a clean end of file
// at a block boundary.
func (r *Reader) NextBlock() (Block, error) {
	n, err := io.ReadFull(r.r, r.hdr[:8])
	switch {
	case errors.Is(err, io.EOF) && n == 0:
		return nil, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, core.Malformed("pcapng: truncated block header")
	case err != nil:
		return nil, err
	}

	consumed := 8
	if [4]byte(r.hdr[:4]) == shbMagic {
		if _, err := io.ReadFull(r.r, r.hdr[8:12]); err != nil {
			return nil, truncated(err)
		}
		switch ende.BigEndian.Order().Uint32(r.hdr[8:12]) {
		case ByteOrderMagic:
			r.endian = ende.BigEndian
		case 0x4D3C2B1A:
			r.endian = ende.LittleEndian
		default:
			return nil, core.Malformed("pcapng: bad byte-order magic % x", r.hdr[8:12])
		}
		r.inSection = true
		r.haveIDB = false
		r.snapLen = 0
		consumed = 12
	} else if !r.inSection {
		return nil, core.Malformed("pcapng: block before section header")
	}

	order := r.endian.Order()
	typ := BlockType(order.Uint32(r.hdr[:4]))
	total := order.Uint32(r.hdr[4:8])
	switch {
	case total < minBlockLen+uint32(minBodyLen[typ]):
		return nil, core.Malformed("pcapng: %s block length %d too short", typ, total)
	case total%4 != 0:
		return nil, core.Malformed("pcapng: %s block length %d not a multiple of 4", typ, total)
	case total > maxBlockLen:
		return nil, core.Malformed("pcapng: %s block length %d too long", typ, total)
	}

	body := make([]byte, int(total)-consumed)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, truncated(err)
	}
	if trailer := order.Uint32(body[len(body)-4:]); trailer != total {
		return nil, core.Malformed("pcapng: %s block length %d, trailing length %d", typ, total, trailer)
	}
	d := ende.NewDecoder(body[:len(body)-4], r.endian)

	switch typ {
	case BlockSectionHeader:
		return r.sectionHeader(d)
	case BlockInterfaceDescription:
		return r.interfaceDescription(d)
	case BlockEnhancedPacket:
		return enhancedPacket(d)
	case BlockSimplePacket:
		return r.simplePacket(d)
	case BlockNameResolution:
		return nameResolution(d)
	case BlockInterfaceStatistics:
		return interfaceStatistics(d)
	case BlockSystemdJournal:
		return &SystemdJournal{Entry: d.Rest()}, nil
	case BlockDecryptionSecrets:
		return decryptionSecrets(d)
	}
	return &RawBlock{Type: typ, Body: d.Rest()}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return core.Malformed("pcapng: truncated block")
	}
	return err
}

// The fixed-size fields below are covered by minBodyLen, so their decode
// errors are impossible.

func (r *Reader) sectionHeader(d *ende.Decoder) (Block, error) {
	b := &SectionHeader{Endian: r.endian}
	b.VersionMajor, _ = d.U16()
	b.VersionMinor, _ = d.U16()
	b.SectionLength, _ = d.I64()
	var err error
	b.Options, err = parseOptions(d, BlockSectionHeader)
	return b, err
}

func (r *Reader) interfaceDescription(d *ende.Decoder) (Block, error) {
	b := &InterfaceDescription{}
	b.LinkType, _ = d.U16()
	_ = d.Skip(2)
	b.SnapLen, _ = d.U32()
	var err error
	if b.Options, err = parseOptions(d, BlockInterfaceDescription); err != nil {
		return nil, err
	}
	if !r.haveIDB {
		r.haveIDB = true
		r.snapLen = b.SnapLen
	}
	return b, nil
}

func enhancedPacket(d *ende.Decoder) (Block, error) {
	b := &EnhancedPacket{}
	b.InterfaceID, _ = d.U32()
	hi, _ := d.U32()
	lo, _ := d.U32()
	b.Timestamp = uint64(hi)<<32 | uint64(lo)
	capLen, _ := d.U32()
	b.OrigLen, _ = d.U32()
	if uint64(capLen)+uint64(pad4(int(capLen))) > uint64(d.Remaining()) {
		return nil, malformedAt(d, "packet data of %d bytes overruns its block", capLen)
	}
	b.Data, _ = d.Bytes(int(capLen))
	_ = d.Skip(pad4(int(capLen)))
	var err error
	b.Options, err = parseOptions(d, BlockEnhancedPacket)
	return b, err
}

func (r *Reader) simplePacket(d *ende.Decoder) (Block, error) {
	if !r.haveIDB {
		return nil, core.Malformed("pcapng: simple packet before any interface description")
	}
	b := &SimplePacket{}
	b.OrigLen, _ = d.U32()
	capLen := b.OrigLen
	if r.snapLen != 0 && r.snapLen < capLen {
		capLen = r.snapLen
	}
	if uint64(capLen) > uint64(d.Remaining()) {
		return nil, malformedAt(d, "packet data of %d bytes overruns its block", capLen)
	}
	b.Data, _ = d.Bytes(int(capLen))
	return b, nil
}

func nameResolution(d *ende.Decoder) (Block, error) {
	b := &NameResolution{}
	for d.Remaining() > 0 {
		if d.Remaining() < 4 {
			return nil, malformedAt(d, "truncated name record")
		}
		typ, _ := d.U16()
		n, _ := d.U16()
		if typ == NameRecordEnd {
			break
		}
		if int(n)+pad4(int(n)) > d.Remaining() {
			return nil, malformedAt(d, "name record overruns its block")
		}
		v, _ := d.Bytes(int(n))
		_ = d.Skip(pad4(int(n)))

		rec := NameRecord{Type: typ}
		switch typ {
		case NameRecordIPv4:
			if len(v) < 4 {
				return nil, malformedAt(d, "IPv4 name record of %d bytes", len(v))
			}
			rec.Addr = netip.AddrFrom4([4]byte(v[:4]))
			rec.Names = splitNames(v[4:])
		case NameRecordIPv6:
			if len(v) < 16 {
				return nil, malformedAt(d, "IPv6 name record of %d bytes", len(v))
			}
			rec.Addr = netip.AddrFrom16([16]byte(v[:16]))
			rec.Names = splitNames(v[16:])
		default:
			rec.Raw = v
		}
		b.Records = append(b.Records, rec)
	}
	var err error
	b.Options, err = parseOptions(d, BlockNameResolution)
	return b, err
}

func splitNames(v []byte) []string {
	var out []string
	for _, n := range strings.Split(string(v), "\x00") {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func interfaceStatistics(d *ende.Decoder) (Block, error) {
	b := &InterfaceStatistics{}
	b.InterfaceID, _ = d.U32()
	hi, _ := d.U32()
	lo, _ := d.U32()
	b.Timestamp = uint64(hi)<<32 | uint64(lo)
	var err error
	b.Options, err = parseOptions(d, BlockInterfaceStatistics)
	return b, err
}

func decryptionSecrets(d *ende.Decoder) (Block, error) {
	b := &DecryptionSecrets{}
	b.SecretsType, _ = d.U32()
	n, _ := d.U32()
	if uint64(n)+uint64(pad4(int(n))) > uint64(d.Remaining()) {
		return nil, malformedAt(d, "secrets of %d bytes overrun their block", n)
	}
	b.Data, _ = d.Bytes(int(n))
	_ = d.Skip(pad4(int(n)))
	var err error
	b.Options, err = parseOptions(d, BlockDecryptionSecrets)
	return b, err
}
