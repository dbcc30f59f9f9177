package protos

import (
	"fmt"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

const (
	ethernetHeaderLen = 14
	// minimum frame length without the FCS
	ethernetMinFrame = 60
)

var EthernetType = core.NewPDUType("Ethernet")

// Ethernet is an Ethernet II frame. Bytes captured past the end of the
// payload, usually padding up to the minimum frame size, are kept in
// Trailer so the frame re-serializes to its captured length.
type Ethernet struct {
	core.Base
	Dst       address.MAC
	Src       address.MAC
	EtherType uint16
	Trailer   []byte
}

// DissectEthernet decodes a frame and dispatches its payload through the
// ethertype table.
func DissectEthernet(buf []byte, s *core.Session, parent *core.TempPDU) ([]byte, core.PDU, error) {
	d := ende.NewDecoder(buf, ende.BigEndian)
	eth := &Ethernet{}
	if err := d.Fixed(eth.Dst[:]); err != nil {
		return nil, nil, err
	}
	if err := d.Fixed(eth.Src[:]); err != nil {
		return nil, nil, err
	}
	et, err := d.U16()
	if err != nil {
		return nil, nil, err
	}
	eth.EtherType = et

	rest, inner, err := s.Dissect(EthertypeTable, uint64(et), d.Rest(), core.NewTempPDU(eth, parent))
	if err != nil {
		return nil, nil, err
	}
	if len(rest) > 0 {
		eth.Trailer = append([]byte(nil), rest...)
	}
	if err := core.SetInner(eth, inner); err != nil {
		return nil, nil, err
	}
	return nil, eth, nil
}

func (e *Ethernet) Type() core.PDUType { return EthernetType }
func (e *Ethernet) HeaderLen() int     { return ethernetHeaderLen }
func (e *Ethernet) TrailerLen() int    { return len(e.Trailer) }

func (e *Ethernet) SerializeHeader(enc *ende.Encoder) error {
	enc.Put(e.Dst[:])
	enc.Put(e.Src[:])
	enc.U16(e.EtherType)
	return nil
}

func (e *Ethernet) SerializeTrailer(enc *ende.Encoder) error {
	enc.Put(e.Trailer)
	return nil
}

// MakeCanonical sets the ethertype from a known inner PDU and pads short
// frames to the Ethernet minimum.
func (e *Ethernet) MakeCanonical() {
	inner := e.Inner()
	if inner == nil {
		return
	}
	if et, ok := etherTypeOf[inner.Type()]; ok {
		e.EtherType = et
	}
	if n := ethernetHeaderLen + core.TotalLen(inner) + len(e.Trailer); n < ethernetMinFrame {
		e.Trailer = append(e.Trailer, make([]byte, ethernetMinFrame-n)...)
	}
}

func (e *Ethernet) Dump(d *core.NodeDumper) error {
	return d.Node("Ethernet II", "", func(n *core.NodeDumper) error {
		if err := n.Field("Destination", core.AddressValue(e.Dst), address.FormatOUI(e.Dst)); err != nil {
			return err
		}
		if err := n.Field("Source", core.AddressValue(e.Src), address.FormatOUI(e.Src)); err != nil {
			return err
		}
		if err := n.Field("Type", core.UIntValue(uint64(e.EtherType)), etherTypeName(e.EtherType)); err != nil {
			return err
		}
		if len(e.Trailer) > 0 {
			return n.Field("Trailer", core.BytesValue(e.Trailer), "")
		}
		return nil
	})
}

func (e *Ethernet) Clone() core.PDU {
	c := *e
	c.Base = core.Base{}
	c.Trailer = append([]byte(nil), e.Trailer...)
	return &c
}

func etherTypeName(et uint16) string {
	if name, ok := etherTypeNames[et]; ok {
		return fmt.Sprintf("%s (0x%04x)", name, et)
	}
	return fmt.Sprintf("0x%04x", et)
}
