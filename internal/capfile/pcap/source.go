package pcap

import (
	"io"

	"firestige.xyz/pdukit/internal/core"
)

// Source adapts a Reader to the sniffer.
type Source struct {
	reader *Reader
	closer io.Closer
	buf    []byte
	dev    *core.Device
}

// NewSource reads the file header from r. r is closed with the source when
// it implements io.Closer.
func NewSource(r io.Reader) (*Source, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	s := &Source{reader: reader}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// WithDevice stamps every packet with dev, such as one describing the file.
func (s *Source) WithDevice(dev *core.Device) *Source {
	s.dev = dev
	return s
}

func (s *Source) Reader() *Reader { return s.reader }

func (s *Source) NextRaw() (*core.RawPacket, error) {
	rec, err := s.reader.NextRecord(&s.buf)
	if err != nil || rec == nil {
		return nil, err
	}
	hdr := s.reader.Header()
	return &core.RawPacket{
		LinkType:  core.LinkType(hdr.LinkType()),
		Timestamp: rec.Timestamp(s.reader.nano),
		OrigLen:   int(rec.OrigLen),
		SnapLen:   int(hdr.SnapLen),
		Data:      s.buf,
		Device:    s.dev,
	}, nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
