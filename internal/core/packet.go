package core

import (
	"net/netip"
	"time"

	"firestige.xyz/pdukit/internal/address"
)

// DefaultSnapLen is the snap length assumed when a source does not say.
const DefaultSnapLen = 65535

// RawPacket is one captured frame before dissection. Data is borrowed from
// the source and only valid until the next NextRaw call.
type RawPacket struct {
	LinkType  LinkType
	Timestamp time.Time
	OrigLen   int
	SnapLen   int
	Data      []byte
	Device    *Device
}

// Packet is a dissected frame. It owns its root PDU.
type Packet struct {
	Timestamp time.Time
	Root      PDU
	// Len is the original on-wire length.
	Len     int
	SnapLen int
	Device  *Device
}

// NewPacket wraps root, defaulting Len to its total length.
func NewPacket(ts time.Time, root PDU) *Packet {
	return &Packet{
		Timestamp: ts,
		Root:      root,
		Len:       TotalLen(root),
		SnapLen:   DefaultSnapLen,
	}
}

// Device describes a capture interface, live or recorded.
type Device struct {
	Name        string
	Description string
	MACs        []address.MAC
	IPv4        []DeviceIPv4
	IPv6        []DeviceIPv6
	Loopback    bool
	Up          bool
	Running     bool
}

type DeviceIPv4 struct {
	Addr        address.IPv4
	Netmask     *address.IPv4
	Broadcast   *address.IPv4
	Destination *address.IPv4
}

type DeviceIPv6 struct {
	Addr      address.IPv6
	PrefixLen int // -1 when unknown
}

// Addrs lists every IP address of the device.
func (d *Device) Addrs() []netip.Addr {
	out := make([]netip.Addr, 0, len(d.IPv4)+len(d.IPv6))
	for _, a := range d.IPv4 {
		out = append(out, a.Addr.Addr())
	}
	for _, a := range d.IPv6 {
		out = append(out, a.Addr.Addr())
	}
	return out
}
