// Package pcapng reads and writes pcap-ng capture files and adapts them to
// the sniffer and transmit facades.
package pcapng

import (
	"fmt"
	"net/netip"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// BlockType is the 32-bit block type code.
type BlockType uint32

const (
	BlockInterfaceDescription BlockType = 0x00000001
	BlockSimplePacket         BlockType = 0x00000003
	BlockNameResolution       BlockType = 0x00000004
	BlockInterfaceStatistics  BlockType = 0x00000005
	BlockEnhancedPacket       BlockType = 0x00000006
	BlockSystemdJournal       BlockType = 0x00000009
	BlockDecryptionSecrets    BlockType = 0x0000000A
	BlockSectionHeader        BlockType = 0x0A0D0D0A
)

var blockNames = map[BlockType]string{
	BlockInterfaceDescription: "InterfaceDescription",
	BlockSimplePacket:         "SimplePacket",
	BlockNameResolution:       "NameResolution",
	BlockInterfaceStatistics:  "InterfaceStatistics",
	BlockEnhancedPacket:       "EnhancedPacket",
	BlockSystemdJournal:       "SystemdJournal",
	BlockDecryptionSecrets:    "DecryptionSecrets",
	BlockSectionHeader:        "SectionHeader",
}

func (t BlockType) String() string {
	if n, ok := blockNames[t]; ok {
		return n
	}
	return fmt.Sprintf("BlockType(%#08x)", uint32(t))
}

// ByteOrderMagic is the section header byte-order magic.
const ByteOrderMagic uint32 = 0x1A2B3C4D

// Decryption secret types.
const (
	SecretsTLSKeyLog uint32 = 0x544c534b
	SecretsWireGuard uint32 = 0x57474b4c
	SecretsZigBeeNWK uint32 = 0x5a4e574b
	SecretsZigBeeAPS uint32 = 0x5a415053
)

// Name resolution record types.
const (
	NameRecordEnd  uint16 = 0
	NameRecordIPv4 uint16 = 1
	NameRecordIPv6 uint16 = 2
)

// minBlockLen covers the type, both length fields and nothing else.
const minBlockLen = 12

// Block is one pcap-ng block.
type Block interface {
	BlockType() BlockType
}

type SectionHeader struct {
	// Endian is the byte order of the whole section.
	Endian       ende.Endian
	VersionMajor uint16
	VersionMinor uint16
	// SectionLength is -1 when not specified.
	SectionLength int64
	Options       Options
}

// NewSectionHeader returns a version 1.0 header of unspecified length.
func NewSectionHeader(e ende.Endian) *SectionHeader {
	return &SectionHeader{Endian: e, VersionMajor: 1, VersionMinor: 0, SectionLength: -1}
}

type InterfaceDescription struct {
	LinkType uint16
	// SnapLen of 0 means unlimited.
	SnapLen uint32
	Options Options
}

type EnhancedPacket struct {
	InterfaceID uint32
	// Timestamp is in units of the interface's resolution.
	Timestamp uint64
	OrigLen   uint32
	Data      []byte
	Options   Options
}

type SimplePacket struct {
	OrigLen uint32
	Data    []byte
}

// NameRecord maps an address to host names. Records of unknown type keep
// their value in Raw.
type NameRecord struct {
	Type  uint16
	Addr  netip.Addr
	Names []string
	Raw   []byte
}

type NameResolution struct {
	Records []NameRecord
	Options Options
}

type InterfaceStatistics struct {
	InterfaceID uint32
	Timestamp   uint64
	Options     Options
}

type SystemdJournal struct {
	Entry []byte
}

type DecryptionSecrets struct {
	SecretsType uint32
	Data        []byte
	Options     Options
}

// RawBlock carries a block of a type this package does not interpret.
type RawBlock struct {
	Type BlockType
	Body []byte
}

func (*SectionHeader) BlockType() BlockType        { return BlockSectionHeader }
func (*InterfaceDescription) BlockType() BlockType { return BlockInterfaceDescription }
func (*EnhancedPacket) BlockType() BlockType       { return BlockEnhancedPacket }
func (*SimplePacket) BlockType() BlockType         { return BlockSimplePacket }
func (*NameResolution) BlockType() BlockType       { return BlockNameResolution }
func (*InterfaceStatistics) BlockType() BlockType  { return BlockInterfaceStatistics }
func (*SystemdJournal) BlockType() BlockType       { return BlockSystemdJournal }
func (*DecryptionSecrets) BlockType() BlockType    { return BlockDecryptionSecrets }
func (b *RawBlock) BlockType() BlockType           { return b.Type }

// Direction is the packet direction from the EPB flags word.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionInbound
	DirectionOutbound
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	}
	return "unknown"
}

// ReceptionType is the link-layer reception type from the EPB flags word.
type ReceptionType uint8

const (
	ReceptionUnspecified ReceptionType = iota
	ReceptionUnicast
	ReceptionMulticast
	ReceptionBroadcast
	ReceptionPromiscuous
)

func (r ReceptionType) String() string {
	switch r {
	case ReceptionUnicast:
		return "unicast"
	case ReceptionMulticast:
		return "multicast"
	case ReceptionBroadcast:
		return "broadcast"
	case ReceptionPromiscuous:
		return "promiscuous"
	}
	return "unspecified"
}

// Flags returns the epb_flags word.
func (b *EnhancedPacket) Flags(e ende.Endian) (uint32, bool) {
	return b.Options.Uint32(OptEPBFlags, e)
}

func (b *EnhancedPacket) Direction(e ende.Endian) Direction {
	f, _ := b.Flags(e)
	if d := Direction(f & 0x3); d <= DirectionOutbound {
		return d
	}
	return DirectionUnknown
}

func (b *EnhancedPacket) Reception(e ende.Endian) ReceptionType {
	f, _ := b.Flags(e)
	if r := ReceptionType((f >> 2) & 0x7); r <= ReceptionPromiscuous {
		return r
	}
	return ReceptionUnspecified
}

// FCSLen returns the FCS length in bytes, if the flags word carries one.
func (b *EnhancedPacket) FCSLen(e ende.Endian) (int, bool) {
	f, ok := b.Flags(e)
	if !ok || (f>>5)&0xF == 0 {
		return 0, false
	}
	return int((f >> 5) & 0xF), true
}

// LinkLayerErrors returns the upper 16 bits of the flags word.
func (b *EnhancedPacket) LinkLayerErrors(e ende.Endian) uint16 {
	f, _ := b.Flags(e)
	return uint16(f >> 16)
}

// PacketFlags assembles an epb_flags word.
func PacketFlags(dir Direction, rec ReceptionType, fcsLen int) uint32 {
	return uint32(dir)&0x3 | (uint32(rec)&0x7)<<2 | (uint32(fcsLen)&0xF)<<5
}

func malformedAt(d *ende.Decoder, format string, args ...any) error {
	return core.Malformed("pcapng: offset %d: %s", d.Offset(), fmt.Sprintf(format, args...))
}
