package core

import (
	"firestige.xyz/pdukit/internal/ende"
)

var RawType = NewPDUType("Raw")

// RawPDU is an undissected run of bytes. It is the leaf fallback for
// anything no dissector claims.
type RawPDU struct {
	Base
	Data []byte
}

// NewRaw copies data into a new RawPDU.
func NewRaw(data []byte) *RawPDU {
	return &RawPDU{Data: append([]byte(nil), data...)}
}

// DissectRaw consumes all of buf.
func DissectRaw(buf []byte, _ *Session, _ *TempPDU) ([]byte, PDU, error) {
	return buf[len(buf):], NewRaw(buf), nil
}

func (r *RawPDU) Type() PDUType  { return RawType }
func (r *RawPDU) HeaderLen() int { return len(r.Data) }

func (r *RawPDU) SerializeHeader(e *ende.Encoder) error {
	e.Put(r.Data)
	return nil
}

func (r *RawPDU) Dump(d *NodeDumper) error {
	return d.Node("Raw Data", "", func(n *NodeDumper) error {
		if err := n.Field("length", UIntValue(uint64(len(r.Data))), ""); err != nil {
			return err
		}
		return n.Field("data", BytesValue(r.Data), "")
	})
}

func (r *RawPDU) Clone() PDU {
	return NewRaw(r.Data)
}
