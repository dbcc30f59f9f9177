package core

import "firestige.xyz/pdukit/internal/ende"

var VirtualType = NewPDUType("Virtual")

// Virtual roots a packet synthesized by a decoder rather than read from the
// wire, such as a reassembled datagram. It contributes no bytes.
type Virtual struct {
	Base
}

func (v *Virtual) Type() PDUType                       { return VirtualType }
func (v *Virtual) HeaderLen() int                      { return 0 }
func (v *Virtual) SerializeHeader(*ende.Encoder) error { return nil }
func (v *Virtual) Clone() PDU                          { return &Virtual{} }

func (v *Virtual) Dump(d *NodeDumper) error {
	return d.Info("Virtual Packet", "synthesized by a decoder")
}
