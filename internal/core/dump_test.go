package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pdukit/internal/address"
)

func TestValueString(t *testing.T) {
	mac := address.MustParseMAC("00:00:0c:12:34:56")
	tests := []struct {
		v    Value
		want string
	}{
		{BoolValue(true), "true"},
		{IntValue(-3), "-3"},
		{UIntValue(42), "42"},
		{FloatValue(1.5), "1.5"},
		{StringValue("hi"), "hi"},
		{BytesValue([]byte{0xde, 0xad, 0x01}), "DEAD01"},
		{AddressValue(mac), "00:00:0c:12:34:56"},
		{SubnetValue(address.MustSubnet(address.MustParseIPv4("10.1.2.3"), 8)), "10.0.0.0/8"},
		{TimeValue(time.Date(2024, 5, 6, 7, 8, 9, 500, time.UTC)), "2024-05-06 07:08:09.0000005"},
		{DurationValue(1500 * time.Millisecond), "1.5s"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
	assert.Equal(t, uint64(42), UIntValue(42).Interface())
	assert.Equal(t, KindAddress, AddressValue(mac).Kind)
	assert.Equal(t, mac, AddressValue(mac).Address())
}

func TestDumpPacket(t *testing.T) {
	root := chain(&tag{ID: 1, Next: 2}, NewRaw([]byte{0xab}))
	pkt := NewPacket(time.Unix(0, 0), root)

	r := &recorder{}
	require.NoError(t, DumpPacket(r, pkt))
	assert.Equal(t, []string{
		"packet",
		"field Timestamp=1970-01-01 00:00:00",
		"field Length=3",
		"node Tag",
		"field id=1",
		"field next=2",
		"/node",
		"node Raw Data",
		"field length=1",
		"field data=AB",
		"/node",
		"/packet",
	}, r.events)
}

func TestDumpLists(t *testing.T) {
	r := &recorder{}
	n := NewNodeDumper(r)
	err := n.List("addrs", "", func(l *ListDumper) error {
		if err := l.Item(StringValue("a"), ""); err != nil {
			return err
		}
		return l.Node("entry", func(n *NodeDumper) error {
			return n.Field("x", IntValue(1), "")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"list addrs", "item a", "listnode entry", "field x=1", "/listnode", "/list"}, r.events)
}

func TestDumpVirtual(t *testing.T) {
	r := &recorder{}
	require.NoError(t, (&Virtual{}).Dump(NewNodeDumper(r)))
	assert.Equal(t, []string{"info Virtual Packet synthesized by a decoder"}, r.events)
}
