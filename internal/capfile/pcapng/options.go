package pcapng

import (
	"bytes"
	"fmt"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Option codes shared by every block.
const (
	OptEndOfOpt uint16 = 0
	OptComment  uint16 = 1
)

// Section header options.
const (
	OptSHBHardware uint16 = 2
	OptSHBOS       uint16 = 3
	OptSHBUserAppl uint16 = 4
)

// Interface description options.
const (
	OptIfName        uint16 = 2
	OptIfDescription uint16 = 3
	OptIfIPv4Addr    uint16 = 4
	OptIfIPv6Addr    uint16 = 5
	OptIfMACAddr     uint16 = 6
	OptIfEUIAddr     uint16 = 7
	OptIfSpeed       uint16 = 8
	OptIfTSResol     uint16 = 9
	OptIfTZone       uint16 = 10
	OptIfFilter      uint16 = 11
	OptIfOS          uint16 = 12
	OptIfFCSLen      uint16 = 13
	OptIfTSOffset    uint16 = 14
	OptIfHardware    uint16 = 15
	OptIfTxSpeed     uint16 = 16
	OptIfRxSpeed     uint16 = 17
)

// Enhanced packet options.
const (
	OptEPBFlags     uint16 = 2
	OptEPBHash      uint16 = 3
	OptEPBDropCount uint16 = 4
	OptEPBPacketID  uint16 = 5
	OptEPBQueue     uint16 = 6
	OptEPBVerdict   uint16 = 7
)

// Name resolution options.
const (
	OptNSDNSName uint16 = 2
	OptNSDNSIP4  uint16 = 3
	OptNSDNSIP6  uint16 = 4
)

// Interface statistics options.
const (
	OptISBStartTime    uint16 = 2
	OptISBEndTime      uint16 = 3
	OptISBIfRecv       uint16 = 4
	OptISBIfDrop       uint16 = 5
	OptISBFilterAccept uint16 = 6
	OptISBOSDrop       uint16 = 7
	OptISBUsrDeliv     uint16 = 8
)

// fixedOptionLen lists the options whose value has a fixed size, per block.
// A value of any other size is a malformed capture.
var fixedOptionLen = map[BlockType]map[uint16]int{
	BlockInterfaceDescription: {
		OptIfIPv4Addr: 8,
		OptIfIPv6Addr: 17,
		OptIfMACAddr:  6,
		OptIfEUIAddr:  8,
		OptIfSpeed:    8,
		OptIfTSResol:  1,
		OptIfTZone:    4,
		OptIfFCSLen:   1,
		OptIfTSOffset: 8,
		OptIfTxSpeed:  8,
		OptIfRxSpeed:  8,
	},
	BlockEnhancedPacket: {
		OptEPBFlags:     4,
		OptEPBDropCount: 8,
		OptEPBPacketID:  8,
		OptEPBQueue:     4,
	},
	BlockNameResolution: {
		OptNSDNSIP4: 4,
		OptNSDNSIP6: 16,
	},
	BlockInterfaceStatistics: {
		OptISBStartTime:    8,
		OptISBEndTime:      8,
		OptISBIfRecv:       8,
		OptISBIfDrop:       8,
		OptISBFilterAccept: 8,
		OptISBOSDrop:       8,
		OptISBUsrDeliv:     8,
	},
}

// Option is one TLV option. Value is kept in the byte order of the section
// holding the block.
type Option struct {
	Code  uint16
	Value []byte
}

// Options is the option list of a block, in file order, without the
// end-of-options marker.
type Options []Option

// Get returns the first value with the given code.
func (o Options) Get(code uint16) ([]byte, bool) {
	for _, opt := range o {
		if opt.Code == code {
			return opt.Value, true
		}
	}
	return nil, false
}

// All returns every value with the given code.
func (o Options) All(code uint16) [][]byte {
	var out [][]byte
	for _, opt := range o {
		if opt.Code == code {
			out = append(out, opt.Value)
		}
	}
	return out
}

// String returns a UTF-8 option, dropping any NUL terminator some writers
// add.
func (o Options) String(code uint16) (string, bool) {
	v, ok := o.Get(code)
	if !ok {
		return "", false
	}
	return string(bytes.TrimRight(v, "\x00")), true
}

func (o Options) Comments() []string {
	var out []string
	for _, v := range o.All(OptComment) {
		out = append(out, string(bytes.TrimRight(v, "\x00")))
	}
	return out
}

func (o Options) Uint8(code uint16) (uint8, bool) {
	v, ok := o.Get(code)
	if !ok || len(v) < 1 {
		return 0, false
	}
	return v[0], true
}

func (o Options) Uint32(code uint16, e ende.Endian) (uint32, bool) {
	v, ok := o.Get(code)
	if !ok || len(v) < 4 {
		return 0, false
	}
	return e.Order().Uint32(v), true
}

func (o Options) Uint64(code uint16, e ende.Endian) (uint64, bool) {
	v, ok := o.Get(code)
	if !ok || len(v) < 8 {
		return 0, false
	}
	return e.Order().Uint64(v), true
}

func (o Options) Int64(code uint16, e ende.Endian) (int64, bool) {
	v, ok := o.Uint64(code, e)
	return int64(v), ok
}

// Timestamp reads a 64-bit timestamp stored as two 32-bit halves, high
// half first, as the statistics start and end times are.
func (o Options) Timestamp(code uint16, e ende.Endian) (uint64, bool) {
	v, ok := o.Get(code)
	if !ok || len(v) < 8 {
		return 0, false
	}
	return uint64(e.Order().Uint32(v))<<32 | uint64(e.Order().Uint32(v[4:])), true
}

func (o *Options) Add(code uint16, value []byte) {
	*o = append(*o, Option{Code: code, Value: value})
}

func (o *Options) AddString(code uint16, s string) {
	o.Add(code, []byte(s))
}

func (o *Options) AddUint8(code uint16, v uint8) {
	o.Add(code, []byte{v})
}

func (o *Options) AddUint32(code uint16, v uint32, e ende.Endian) {
	b := make([]byte, 4)
	e.Order().PutUint32(b, v)
	o.Add(code, b)
}

func (o *Options) AddUint64(code uint16, v uint64, e ende.Endian) {
	b := make([]byte, 8)
	e.Order().PutUint64(b, v)
	o.Add(code, b)
}

func (o *Options) AddInt64(code uint16, v int64, e ende.Endian) {
	o.AddUint64(code, uint64(v), e)
}

func (o *Options) AddTimestamp(code uint16, ts uint64, e ende.Endian) {
	b := make([]byte, 8)
	e.Order().PutUint32(b, uint32(ts>>32))
	e.Order().PutUint32(b[4:], uint32(ts))
	o.Add(code, b)
}

// parseOptions reads options until the end-of-options marker or the end of
// d. Values alias the block buffer.
func parseOptions(d *ende.Decoder, bt BlockType) (Options, error) {
	var out Options
	fixed := fixedOptionLen[bt]
	for d.Remaining() > 0 {
		if d.Remaining() < 4 {
			return nil, malformedAt(d, "truncated option header")
		}
		code, _ := d.U16()
		n, _ := d.U16()
		if code == OptEndOfOpt {
			if n != 0 {
				return nil, malformedAt(d, "end-of-options with length %d", n)
			}
			break
		}
		padded := int(n) + pad4(int(n))
		if padded > d.Remaining() {
			return nil, malformedAt(d, "option %d overruns its block", code)
		}
		if want, ok := fixed[code]; ok && int(n) != want {
			return nil, malformedAt(d, "option %d has length %d, want %d", code, n, want)
		}
		v, _ := d.Bytes(int(n))
		_ = d.Skip(pad4(int(n)))
		out = append(out, Option{Code: code, Value: v})
	}
	return out, nil
}

func encodeOptions(e *ende.Encoder, opts Options) error {
	if len(opts) == 0 {
		return nil
	}
	for _, opt := range opts {
		if len(opt.Value) > 0xFFFF {
			return &core.UserError{Err: fmt.Errorf("pcapng: option %d value of %d bytes", opt.Code, len(opt.Value))}
		}
		e.U16(opt.Code)
		e.U16(uint16(len(opt.Value)))
		e.Put(opt.Value)
		e.Align(4)
	}
	e.U16(OptEndOfOpt)
	e.U16(0)
	return nil
}

func pad4(n int) int { return (4 - n%4) % 4 }
