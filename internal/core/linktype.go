package core

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

// LinkType is the DLT/LINKTYPE number identifying the outermost framing of
// a captured frame.
type LinkType uint16

const (
	LinkTypeNull      LinkType = 0
	LinkTypeEthernet  LinkType = 1
	LinkTypeRaw       LinkType = 101
	LinkTypeIEEE80211 LinkType = 105
	LinkTypeLoop      LinkType = 108
	LinkTypeLinuxSLL  LinkType = 113
	LinkTypeIPv4      LinkType = 228
	LinkTypeIPv6      LinkType = 229
)

// String uses gopacket's link type names where one exists.
func (l LinkType) String() string {
	if l <= 0xff {
		if name := layers.LinkType(l).String(); name != "" && name != "UnknownLinkType" {
			return name
		}
	}
	return fmt.Sprintf("LinkType(%d)", uint16(l))
}
