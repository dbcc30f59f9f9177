package core

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindBool ValueKind = iota + 1
	KindInt
	KindUInt
	KindFloat
	KindString
	KindBytes
	KindAddress
	KindSubnet
	KindTime
	KindDuration
)

// Value is a dumped field value.
type Value struct {
	Kind ValueKind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	raw  []byte
	obj  fmt.Stringer
	t    time.Time
	d    time.Duration
}

func BoolValue(v bool) Value              { return Value{Kind: KindBool, b: v} }
func IntValue(v int64) Value              { return Value{Kind: KindInt, i: v} }
func UIntValue(v uint64) Value            { return Value{Kind: KindUInt, u: v} }
func FloatValue(v float64) Value          { return Value{Kind: KindFloat, f: v} }
func StringValue(v string) Value          { return Value{Kind: KindString, s: v} }
func BytesValue(v []byte) Value           { return Value{Kind: KindBytes, raw: v} }
func AddressValue(v fmt.Stringer) Value   { return Value{Kind: KindAddress, obj: v} }
func SubnetValue(v fmt.Stringer) Value    { return Value{Kind: KindSubnet, obj: v} }
func TimeValue(v time.Time) Value         { return Value{Kind: KindTime, t: v} }
func DurationValue(v time.Duration) Value { return Value{Kind: KindDuration, d: v} }

// Address returns the address or subnet held by v.
func (v Value) Address() fmt.Stringer { return v.obj }

// Interface returns the Go value held by v.
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindUInt:
		return v.u
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindAddress, KindSubnet:
		return v.obj
	case KindTime:
		return v.t
	case KindDuration:
		return v.d
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUInt:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return strings.ToUpper(hex.EncodeToString(v.raw))
	case KindAddress, KindSubnet:
		if v.obj == nil {
			return ""
		}
		return v.obj.String()
	case KindTime:
		return v.t.UTC().Format("2006-01-02 15:04:05.999999999")
	case KindDuration:
		return v.d.String()
	}
	return ""
}

// Dumper is a dump back-end. Calls arrive properly nested: every Start has
// a matching End, fields and infos only inside a packet.
type Dumper interface {
	StartPacket() error
	EndPacket()
	StartNode(name, descr string) error
	EndNode()
	AddField(name string, v Value, descr string) error
	AddInfo(name, descr string) error
	StartList(name, descr string) error
	EndList()
	AddListItem(v Value, descr string) error
	StartListNode(descr string) error
	EndListNode()
}

// NodeDumper is the handle a PDU dumps itself into.
type NodeDumper struct {
	d Dumper
}

// NewNodeDumper wraps a back-end for code dumping outside DumpPacket.
func NewNodeDumper(d Dumper) *NodeDumper { return &NodeDumper{d: d} }

// Node opens a child node, runs fn in it and closes it.
func (n *NodeDumper) Node(name, descr string, fn func(*NodeDumper) error) error {
	if err := n.d.StartNode(name, descr); err != nil {
		return err
	}
	defer n.d.EndNode()
	return fn(n)
}

func (n *NodeDumper) Field(name string, v Value, descr string) error {
	return n.d.AddField(name, v, descr)
}

func (n *NodeDumper) Info(name, descr string) error {
	return n.d.AddInfo(name, descr)
}

// List opens a list, runs fn in it and closes it.
func (n *NodeDumper) List(name, descr string, fn func(*ListDumper) error) error {
	if err := n.d.StartList(name, descr); err != nil {
		return err
	}
	defer n.d.EndList()
	return fn(&ListDumper{d: n.d})
}

// ListDumper adds items to an open list.
type ListDumper struct {
	d Dumper
}

func (l *ListDumper) Item(v Value, descr string) error {
	return l.d.AddListItem(v, descr)
}

// Node adds a structured list item.
func (l *ListDumper) Node(descr string, fn func(*NodeDumper) error) error {
	if err := l.d.StartListNode(descr); err != nil {
		return err
	}
	defer l.d.EndListNode()
	return fn(&NodeDumper{d: l.d})
}

// DumpPacket renders pkt and every PDU of its chain into d.
func DumpPacket(d Dumper, pkt *Packet) error {
	if err := d.StartPacket(); err != nil {
		return err
	}
	defer d.EndPacket()

	n := &NodeDumper{d: d}
	if err := n.Field("Timestamp", TimeValue(pkt.Timestamp), ""); err != nil {
		return err
	}
	if err := n.Field("Length", UIntValue(uint64(pkt.Len)), ""); err != nil {
		return err
	}
	if pkt.Device != nil {
		if err := n.Field("Device", StringValue(pkt.Device.Name), pkt.Device.Description); err != nil {
			return err
		}
	}
	for p := range Chain(pkt.Root) {
		if err := p.Dump(n); err != nil {
			return err
		}
	}
	return nil
}
