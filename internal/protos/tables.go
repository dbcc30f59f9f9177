// Package protos holds the reference dissectors: Ethernet II and IPv4.
// Importing it registers them in the default registry.
package protos

import "firestige.xyz/pdukit/internal/core"

// Dispatch tables fed by the reference dissectors.
const (
	// EthertypeTable is keyed by the Ethernet II type field.
	EthertypeTable core.TableID = "ethertype"
	// IPProtoTable is keyed by the IPv4 protocol field.
	IPProtoTable core.TableID = "ip.proto"
)

// Well-known ethertypes.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeVLAN uint16 = 0x8100
	EtherTypeIPv6 uint16 = 0x86DD
	EtherTypeQinQ uint16 = 0x88A8
)

var etherTypeNames = map[uint16]string{
	EtherTypeIPv4: "IPv4",
	EtherTypeARP:  "ARP",
	EtherTypeVLAN: "802.1Q",
	EtherTypeIPv6: "IPv6",
	EtherTypeQinQ: "802.1ad",
	0x88CC:        "LLDP",
	0x8847:        "MPLS",
}

// Well-known IP protocol numbers.
const (
	IPProtoICMP uint8 = 1
	IPProtoTCP  uint8 = 6
	IPProtoUDP  uint8 = 17
)

var ipProtoNames = map[uint8]string{
	IPProtoICMP: "ICMP",
	2:           "IGMP",
	IPProtoTCP:  "TCP",
	IPProtoUDP:  "UDP",
	41:          "IPv6",
	47:          "GRE",
	50:          "ESP",
	132:         "SCTP",
}

// etherTypeOf maps the PDU kinds this package dissects from the ethertype
// table back to their ethertype, for canonicalization.
var etherTypeOf = map[core.PDUType]uint16{}

func init() {
	core.MustRegisterTable(EthertypeTable)
	core.MustRegisterTable(IPProtoTable)

	core.MustRegister(core.Entry{
		Table:   core.LinkTypeTable,
		Key:     uint64(core.LinkTypeEthernet),
		PDUType: EthernetType,
		Name:    "eth",
		Fn:      DissectEthernet,
	})
	core.MustRegisterLinkLayer(EthernetType, core.LinkTypeEthernet)

	core.MustRegister(core.Entry{
		Table:   EthertypeTable,
		Key:     uint64(EtherTypeIPv4),
		PDUType: IPv4Type,
		Name:    "ip",
		Fn:      DissectIPv4,
	})
	etherTypeOf[IPv4Type] = EtherTypeIPv4

	// raw IP captures carry no framing
	for _, lt := range []core.LinkType{core.LinkTypeRaw, core.LinkTypeIPv4} {
		core.MustRegister(core.Entry{
			Table:   core.LinkTypeTable,
			Key:     uint64(lt),
			PDUType: IPv4Type,
			Name:    "ip",
			Fn:      dissectRawIPv4,
		})
	}
	core.MustRegisterLinkLayer(IPv4Type, core.LinkTypeRaw)
}
