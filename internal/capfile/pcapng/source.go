package pcapng

import (
	"bufio"
	"errors"
	"io"
	"math"
	"math/bits"
	"time"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/log"
	"firestige.xyz/pdukit/internal/metrics"
)

const defaultTSResol = 6

// Interface is an interface described in the current section.
type Interface struct {
	LinkType core.LinkType
	// SnapLen of 0 means unlimited.
	SnapLen  uint32
	TSResol  uint8
	TSOffset int64
	Device   *core.Device
	Block    *InterfaceDescription
	// Stats is the last statistics block seen for the interface.
	Stats *InterfaceStatistics
}

// Source adapts a Reader to the sniffer. Name resolution records and
// decryption secrets go to the bound session.
type Source struct {
	reader  *Reader
	closer  io.Closer
	ifaces  []*Interface
	session *core.Session
	logger  log.Logger
}

// NewSource checks that r starts with a section header. r is closed with
// the source when it implements io.Closer.
func NewSource(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.Malformed("pcapng: missing section header")
		}
		return nil, err
	}
	if [4]byte(head) != shbMagic {
		return nil, core.Malformed("pcapng: file starts with % x, not a section header", head)
	}
	s := &Source{
		reader: NewReader(br),
		logger: log.GetLogger().WithField("source", "pcapng"),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *Source) BindSession(sess *core.Session) {
	s.session = sess
	s.logger = sess.Logger().WithField("source", "pcapng")
}

func (s *Source) Reader() *Reader { return s.reader }

// Interfaces lists the interfaces of the current section by id.
func (s *Source) Interfaces() []*Interface { return s.ifaces }

func (s *Source) NextRaw() (*core.RawPacket, error) {
	for {
		blk, err := s.reader.NextBlock()
		if err != nil || blk == nil {
			return nil, err
		}
		metrics.CaptureBlocksTotal.WithLabelValues(blk.BlockType().String()).Inc()

		switch b := blk.(type) {
		case *SectionHeader:
			s.ifaces = nil
		case *InterfaceDescription:
			iface, err := s.describe(b)
			if err != nil {
				return nil, err
			}
			s.ifaces = append(s.ifaces, iface)
		case *EnhancedPacket:
			iface, err := s.iface(b.InterfaceID)
			if err != nil {
				return nil, err
			}
			return &core.RawPacket{
				LinkType:  iface.LinkType,
				Timestamp: tsCalc(b.Timestamp, iface.TSResol, iface.TSOffset),
				OrigLen:   int(b.OrigLen),
				SnapLen:   int(iface.SnapLen),
				Data:      b.Data,
				Device:    iface.Device,
			}, nil
		case *SimplePacket:
			iface, err := s.iface(0)
			if err != nil {
				return nil, err
			}
			return &core.RawPacket{
				LinkType:  iface.LinkType,
				Timestamp: time.Unix(0, 0).UTC(),
				OrigLen:   int(b.OrigLen),
				SnapLen:   int(iface.SnapLen),
				Data:      b.Data,
				Device:    iface.Device,
			}, nil
		case *InterfaceStatistics:
			iface, err := s.iface(b.InterfaceID)
			if err != nil {
				return nil, err
			}
			iface.Stats = b
		case *NameResolution:
			s.resolve(b)
		case *DecryptionSecrets:
			if s.session != nil {
				s.session.AddSecret(b.SecretsType, b.Data)
			}
		default:
			s.logger.Debugf("skipping %s block", blk.BlockType())
		}
	}
}

func (s *Source) iface(id uint32) (*Interface, error) {
	if int64(id) >= int64(len(s.ifaces)) {
		return nil, core.Malformed("pcapng: interface %d not described (%d known)", id, len(s.ifaces))
	}
	return s.ifaces[id], nil
}

func (s *Source) resolve(b *NameResolution) {
	if s.session == nil {
		return
	}
	for _, rec := range b.Records {
		if rec.Addr.IsValid() && len(rec.Names) > 0 {
			s.session.AddName(rec.Addr, rec.Names...)
		}
	}
}

func (s *Source) describe(b *InterfaceDescription) (*Interface, error) {
	e := s.reader.Endian()
	iface := &Interface{
		LinkType: core.LinkType(b.LinkType),
		SnapLen:  b.SnapLen,
		TSResol:  defaultTSResol,
		Block:    b,
	}
	if r, ok := b.Options.Uint8(OptIfTSResol); ok {
		if (r&0x80 == 0 && r > 19) || r&0x7f > 63 {
			return nil, core.Malformed("pcapng: timestamp resolution %#02x out of range", r)
		}
		iface.TSResol = r
	}
	iface.TSOffset, _ = b.Options.Int64(OptIfTSOffset, e)
	iface.Device = deviceOf(b.Options)
	return iface, nil
}

// deviceOf builds a device from the interface options, or nil when the
// block names nothing.
func deviceOf(opts Options) *core.Device {
	dev := &core.Device{}
	named := false
	if v, ok := opts.String(OptIfName); ok {
		dev.Name, named = v, true
	}
	if v, ok := opts.String(OptIfDescription); ok {
		dev.Description, named = v, true
	}
	for _, v := range opts.All(OptIfIPv4Addr) {
		mask := address.IPv4(v[4:8])
		dev.IPv4 = append(dev.IPv4, core.DeviceIPv4{Addr: address.IPv4(v[:4]), Netmask: &mask})
	}
	for _, v := range opts.All(OptIfIPv6Addr) {
		dev.IPv6 = append(dev.IPv6, core.DeviceIPv6{Addr: address.IPv6(v[:16]), PrefixLen: int(v[16])})
	}
	for _, v := range opts.All(OptIfMACAddr) {
		dev.MACs = append(dev.MACs, address.MAC(v))
	}
	if !named && len(dev.IPv4) == 0 && len(dev.IPv6) == 0 && len(dev.MACs) == 0 {
		return nil
	}
	return dev
}

// tsCalc converts a timestamp in units of resol to wall time. A resolution
// with the high bit set is a negative power of two, otherwise of ten. The
// offset in seconds saturates rather than wrapping.
func tsCalc(ts uint64, resol uint8, offset int64) time.Time {
	var secs, nanos uint64
	if resol&0x80 == 0 {
		mag := uint64(1)
		for range resol {
			mag *= 10
		}
		secs = ts / mag
		hi, lo := bits.Mul64(ts-secs*mag, 1e9)
		nanos, _ = bits.Div64(hi, lo, mag)
	} else {
		r := resol & 0x7f
		secs = ts >> r
		hi, lo := bits.Mul64(ts&(1<<r-1), 1e9)
		nanos = lo>>r | hi<<(64-r)
	}

	if offset >= 0 {
		s, carry := bits.Add64(secs, uint64(offset), 0)
		if carry != 0 {
			s = math.MaxUint64
		}
		secs = s
	} else if neg := uint64(-(offset + 1)) + 1; neg > secs {
		secs = 0
	} else {
		secs -= neg
	}
	return time.Unix(int64(min(secs, math.MaxInt64)), int64(nanos)).UTC()
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var _ core.RawSource = (*Source)(nil)
