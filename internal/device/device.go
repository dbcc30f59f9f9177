// Package device binds live network interfaces through libpcap: listing,
// capturing and injecting frames.
package device

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket/pcap"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
)

// libpcap interface flags.
const (
	flagLoopback uint32 = 0x1
	flagUp       uint32 = 0x2
	flagRunning  uint32 = 0x4
)

// ErrNotFound is returned when no interface has the requested name.
var ErrNotFound = errors.New("pdukit: no such device")

// List returns every interface libpcap can open.
func List() ([]core.Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	out := make([]core.Device, 0, len(ifs))
	for _, ifc := range ifs {
		d := fromInterface(ifc)
		d.MACs = hardwareAddrs(ifc.Name)
		out = append(out, d)
	}
	return out, nil
}

// Lookup returns the named interface.
func Lookup(name string) (*core.Device, error) {
	devs, err := List()
	if err != nil {
		return nil, err
	}
	for i := range devs {
		if devs[i].Name == name {
			return &devs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func fromInterface(ifc pcap.Interface) core.Device {
	d := core.Device{
		Name:        ifc.Name,
		Description: ifc.Description,
		Loopback:    ifc.Flags&flagLoopback != 0,
		Up:          ifc.Flags&flagUp != 0,
		Running:     ifc.Flags&flagRunning != 0,
	}
	for _, a := range ifc.Addresses {
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.Is4() {
			d.IPv4 = append(d.IPv4, core.DeviceIPv4{
				Addr:        address.IPv4(ip.As4()),
				Netmask:     ipv4Ptr(net.IP(a.Netmask)),
				Broadcast:   ipv4Ptr(a.Broadaddr),
				Destination: ipv4Ptr(a.P2P),
			})
			continue
		}
		prefix := -1
		if ones, bits := a.Netmask.Size(); bits == 128 {
			prefix = ones
		}
		d.IPv6 = append(d.IPv6, core.DeviceIPv6{Addr: address.IPv6(ip.As16()), PrefixLen: prefix})
	}
	return d
}

func ipv4Ptr(ip net.IP) *address.IPv4 {
	v4 := ip.To4()
	if v4 == nil {
		return nil
	}
	a := address.IPv4(v4)
	return &a
}

// hardwareAddrs asks the OS for the MAC of name. libpcap does not report
// link-layer addresses on every platform.
func hardwareAddrs(name string) []address.MAC {
	ifc, err := net.InterfaceByName(name)
	if err != nil || len(ifc.HardwareAddr) != 6 {
		return nil
	}
	return []address.MAC{address.MAC(ifc.HardwareAddr)}
}
