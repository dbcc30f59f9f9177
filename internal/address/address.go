// Package address implements fixed-width hardware and network addresses,
// subnets over them, and IEEE OUI manufacturer lookup for MAC addresses.
package address

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Address is implemented by the fixed-width address types of this package.
type Address interface {
	comparable
	fmt.Stringer
	BitLen() int
	Bytes() []byte
}

// MAC is a 48-bit IEEE 802 MAC address.
type MAC [6]byte

// Broadcast is ff:ff:ff:ff:ff:ff.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses colon or hyphen separated hex octets.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, err
	}
	if len(hw) != len(m) {
		return m, fmt.Errorf("address: %q is not a 48-bit MAC", s)
	}
	copy(m[:], hw)
	return m, nil
}

// MustParseMAC is ParseMAC for literals.
func MustParseMAC(s string) MAC {
	m, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MACFromUint64 takes the low 48 bits of v.
func MACFromUint64(v uint64) MAC {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	var m MAC
	copy(m[:], b[2:])
	return m
}

func (m MAC) String() string { return hexColon(m[:]) }
func (m MAC) BitLen() int    { return 48 }
func (m MAC) Bytes() []byte  { return m[:] }

func (m MAC) Uint64() uint64 {
	var b [8]byte
	copy(b[2:], m[:])
	return binary.BigEndian.Uint64(b[:])
}

func (m MAC) IsBroadcast() bool { return m == Broadcast }
func (m MAC) IsMulticast() bool { return m[0]&0x01 != 0 }
func (m MAC) IsLocal() bool     { return m[0]&0x02 != 0 }

// EUI64 inserts ff:fe in the middle and flips the universal/local bit.
func (m MAC) EUI64() EUI64 {
	return EUI64{m[0] ^ 2, m[1], m[2], 0xff, 0xfe, m[3], m[4], m[5]}
}

// EUI64 is a 64-bit extended unique identifier.
type EUI64 [8]byte

func ParseEUI64(s string) (EUI64, error) {
	var e EUI64
	hw, err := net.ParseMAC(s)
	if err != nil {
		return e, err
	}
	if len(hw) != len(e) {
		return e, fmt.Errorf("address: %q is not a 64-bit EUI", s)
	}
	copy(e[:], hw)
	return e, nil
}

func (e EUI64) String() string { return hexColon(e[:]) }
func (e EUI64) BitLen() int    { return 64 }
func (e EUI64) Bytes() []byte  { return e[:] }

// MAC reverses MAC.EUI64. It fails unless bytes 3 and 4 are ff:fe.
func (e EUI64) MAC() (MAC, bool) {
	if e[3] != 0xff || e[4] != 0xfe {
		return MAC{}, false
	}
	return MAC{e[0] ^ 2, e[1], e[2], e[5], e[6], e[7]}, true
}

// IPv4 is an IPv4 address in network byte order.
type IPv4 [4]byte

func ParseIPv4(s string) (IPv4, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return IPv4{}, err
	}
	if !a.Is4() {
		return IPv4{}, fmt.Errorf("address: %q is not an IPv4 address", s)
	}
	return IPv4(a.As4()), nil
}

func MustParseIPv4(s string) IPv4 {
	a, err := ParseIPv4(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a IPv4) String() string   { return a.Addr().String() }
func (a IPv4) BitLen() int      { return 32 }
func (a IPv4) Bytes() []byte    { return a[:] }
func (a IPv4) Addr() netip.Addr { return netip.AddrFrom4(a) }
func (a IPv4) Uint32() uint32   { return binary.BigEndian.Uint32(a[:]) }

func IPv4FromUint32(v uint32) IPv4 {
	var a IPv4
	binary.BigEndian.PutUint32(a[:], v)
	return a
}

// IPv6 is an IPv6 address in network byte order.
type IPv6 [16]byte

func ParseIPv6(s string) (IPv6, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return IPv6{}, err
	}
	if !a.Is6() || a.Zone() != "" {
		return IPv6{}, fmt.Errorf("address: %q is not an IPv6 address", s)
	}
	return IPv6(a.As16()), nil
}

func MustParseIPv6(s string) IPv6 {
	a, err := ParseIPv6(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a IPv6) String() string   { return a.Addr().String() }
func (a IPv6) BitLen() int      { return 128 }
func (a IPv6) Bytes() []byte    { return a[:] }
func (a IPv6) Addr() netip.Addr { return netip.AddrFrom16(a) }

func hexColon(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02x", v)
	}
	return sb.String()
}
