// Package ende provides the byte-level encode and decode primitives used by
// the protocol decoders and capture file codecs.
package ende

import "encoding/binary"

// Endian selects the byte order of multi-byte integers.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

// Order returns the encoding/binary byte order for e.
func (e Endian) Order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e Endian) appender() binary.AppendByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e Endian) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}
