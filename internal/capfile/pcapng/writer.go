package pcapng

import (
	"bufio"
	"fmt"
	"io"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Writer writes blocks to a pcap-ng stream. A section header starts each
// section and fixes its byte order; lengths and padding are computed.
type Writer struct {
	w         *bufio.Writer
	enc       *ende.Encoder
	endian    ende.Endian
	inSection bool
	ifaces    int
	snapLen   uint32
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), enc: ende.NewEncoder(ende.LittleEndian, 2048)}
}

// Endian is the byte order of the current section.
func (w *Writer) Endian() ende.Endian { return w.endian }

// WriteBlock encodes and writes one block. The section and interface
// bookkeeping only advances once the block has been written.
func (w *Writer) WriteBlock(b Block) error {
	endian := w.endian
	sh, isSection := b.(*SectionHeader)
	if isSection {
		endian = sh.Endian
	} else if !w.inSection {
		return &core.UserError{Err: fmt.Errorf("pcapng: %s block before section header", b.BlockType())}
	}

	e := w.enc
	e.Reset()
	e.SetEndian(endian)
	e.U32(uint32(b.BlockType()))
	e.U32(0)
	if err := w.encodeBody(e, b); err != nil {
		return err
	}
	e.U32(0)
	total := e.Len()
	e.PutU32At(4, uint32(total))
	e.PutU32At(total-4, uint32(total))

	if _, err := w.w.Write(e.Bytes()); err != nil {
		return err
	}

	switch v := b.(type) {
	case *SectionHeader:
		w.endian = v.Endian
		w.inSection = true
		w.ifaces = 0
		w.snapLen = 0
	case *InterfaceDescription:
		if w.ifaces == 0 {
			w.snapLen = v.SnapLen
		}
		w.ifaces++
	}
	return nil
}

func (w *Writer) encodeBody(e *ende.Encoder, b Block) error {
	switch v := b.(type) {
	case *SectionHeader:
		e.U32(ByteOrderMagic)
		e.U16(v.VersionMajor)
		e.U16(v.VersionMinor)
		e.I64(v.SectionLength)
		return encodeOptions(e, v.Options)

	case *InterfaceDescription:
		e.U16(v.LinkType)
		e.U16(0)
		e.U32(v.SnapLen)
		return encodeOptions(e, v.Options)

	case *EnhancedPacket:
		if int(v.InterfaceID) >= w.ifaces {
			return core.Malformed("pcapng: packet on undescribed interface %d", v.InterfaceID)
		}
		if int64(v.OrigLen) < int64(len(v.Data)) {
			return core.Malformed("pcapng: captured length %d exceeds original length %d", len(v.Data), v.OrigLen)
		}
		e.U32(v.InterfaceID)
		e.U32(uint32(v.Timestamp >> 32))
		e.U32(uint32(v.Timestamp))
		e.U32(uint32(len(v.Data)))
		e.U32(v.OrigLen)
		e.Put(v.Data)
		e.Align(4)
		return encodeOptions(e, v.Options)

	case *SimplePacket:
		if w.ifaces == 0 {
			return core.Malformed("pcapng: simple packet before any interface description")
		}
		want := v.OrigLen
		if w.snapLen != 0 && w.snapLen < want {
			want = w.snapLen
		}
		if int64(len(v.Data)) != int64(want) {
			return core.Malformed("pcapng: simple packet carries %d bytes, want %d", len(v.Data), want)
		}
		e.U32(v.OrigLen)
		e.Put(v.Data)
		e.Align(4)
		return nil

	case *NameResolution:
		for _, rec := range v.Records {
			if err := encodeNameRecord(e, rec); err != nil {
				return err
			}
		}
		e.U16(NameRecordEnd)
		e.U16(0)
		return encodeOptions(e, v.Options)

	case *InterfaceStatistics:
		if int(v.InterfaceID) >= w.ifaces {
			return core.Malformed("pcapng: statistics for undescribed interface %d", v.InterfaceID)
		}
		e.U32(v.InterfaceID)
		e.U32(uint32(v.Timestamp >> 32))
		e.U32(uint32(v.Timestamp))
		return encodeOptions(e, v.Options)

	case *SystemdJournal:
		e.Put(v.Entry)
		e.Align(4)
		return nil

	case *DecryptionSecrets:
		e.U32(v.SecretsType)
		e.U32(uint32(len(v.Data)))
		e.Put(v.Data)
		e.Align(4)
		return encodeOptions(e, v.Options)

	case *RawBlock:
		if v.Type == BlockSectionHeader {
			return &core.UserError{Err: fmt.Errorf("pcapng: section header written as a raw block")}
		}
		e.Put(v.Body)
		e.Align(4)
		return nil
	}
	return &core.UserError{Err: fmt.Errorf("pcapng: cannot write block %T", b)}
}

func encodeNameRecord(e *ende.Encoder, rec NameRecord) error {
	var value []byte
	switch rec.Type {
	case NameRecordIPv4:
		if !rec.Addr.Is4() {
			return &core.UserError{Err: fmt.Errorf("pcapng: IPv4 name record for %v", rec.Addr)}
		}
		a := rec.Addr.As4()
		value = append(value, a[:]...)
	case NameRecordIPv6:
		if !rec.Addr.Is6() {
			return &core.UserError{Err: fmt.Errorf("pcapng: IPv6 name record for %v", rec.Addr)}
		}
		a := rec.Addr.As16()
		value = append(value, a[:]...)
	default:
		value = rec.Raw
	}
	if rec.Type == NameRecordIPv4 || rec.Type == NameRecordIPv6 {
		for _, n := range rec.Names {
			value = append(value, n...)
			value = append(value, 0)
		}
	}
	if len(value) > 0xFFFF {
		return &core.UserError{Err: fmt.Errorf("pcapng: name record of %d bytes", len(value))}
	}
	e.U16(rec.Type)
	e.U16(uint16(len(value)))
	e.Put(value)
	e.Align(4)
	return nil
}

func (w *Writer) Flush() error { return w.w.Flush() }
