package dump

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/protos"
)

var cisco = address.MustParseMAC("00:00:0c:ab:cd:ef")

func emit(t *testing.T, d core.Dumper) {
	t.Helper()
	require.NoError(t, d.StartPacket())
	defer d.EndPacket()
	n := core.NewNodeDumper(d)
	require.NoError(t, n.Field("Length", core.UIntValue(60), ""))
	require.NoError(t, n.Node("Ethernet II", "", func(n *core.NodeDumper) error {
		if err := n.Field("Source", core.AddressValue(cisco), address.FormatOUI(cisco)); err != nil {
			return err
		}
		if err := n.Field("Type", core.UIntValue(0x0800), "IPv4"); err != nil {
			return err
		}
		if err := n.List("Options", "2 entries", func(l *core.ListDumper) error {
			if err := l.Item(core.StringValue("nop"), ""); err != nil {
				return err
			}
			return l.Node("timestamp", func(n *core.NodeDumper) error {
				return n.Field("Value", core.IntValue(-3), "")
			})
		}); err != nil {
			return err
		}
		return n.Info("Note", "truncated")
	}))
}

func TestText(t *testing.T) {
	var out bytes.Buffer
	d := NewText(&out, Options{})
	emit(t, d)
	emit(t, d)
	require.NoError(t, d.Close())

	one := `Length: 60
Ethernet II.Source: 00:00:0c:ab:cd:ef (Cisco_ab:cd:ef)
Ethernet II.Type: 2048 (IPv4)
Ethernet II.Options: 2 entries
Ethernet II.Options[0]: nop
Ethernet II.Options[1]: timestamp
Ethernet II.Options[1].Value: -3
Ethernet II.Note: truncated
`
	assert.Equal(t, one+"\n"+one, out.String())
}

func TestTree(t *testing.T) {
	var out bytes.Buffer
	d := NewTree(&out, Options{OUINames: true})
	emit(t, d)
	emit(t, d)
	require.NoError(t, d.Close())

	body := `  Length: 60
  Ethernet II
    Source: Cisco_ab:cd:ef
    Type: 2048 (IPv4)
    Options: (2 entries)
      - nop
      - timestamp
        Value: -3
    Note: truncated
`
	assert.Equal(t, "Packet 1\n"+body+"\nPacket 2\n"+body, out.String())
}

func TestYAML(t *testing.T) {
	var out bytes.Buffer
	d := NewYAML(&out, Options{})
	emit(t, d)
	emit(t, d)
	require.NoError(t, d.Close())
	assert.Contains(t, out.String(), "# IPv4")

	dec := yaml.NewDecoder(&out)
	docs := 0
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		docs++

		assert.Equal(t, 60, doc["Length"])
		eth, ok := doc["Ethernet II"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "00:00:0c:ab:cd:ef", eth["Source"])
		assert.Equal(t, 2048, eth["Type"])
		assert.Equal(t, "truncated", eth["Note"])
		opts, ok := eth["Options"].([]any)
		require.True(t, ok)
		require.Len(t, opts, 2)
		assert.Equal(t, "nop", opts[0])
		assert.Equal(t, map[string]any{"Value": -3}, opts[1])
	}
	assert.Equal(t, 2, docs)
}

func TestDumpEthernetPacket(t *testing.T) {
	eth := &protos.Ethernet{Dst: address.Broadcast, Src: cisco, EtherType: 0x9999}
	pkt := core.NewPacket(time.Unix(1, 0), eth)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			d, err := New(name, &out, Options{OUINames: true})
			require.NoError(t, err)
			require.NoError(t, core.DumpPacket(d, pkt))
			require.NoError(t, d.Close())
			assert.Contains(t, out.String(), "Cisco_ab:cd:ef")
			assert.Contains(t, out.String(), "1970-01-01 00:00:01")
		})
	}
}

func TestNew(t *testing.T) {
	assert.Equal(t, []string{"text", "tree", "yaml"}, Names())
	_, err := New("xml", io.Discard, Options{})
	var ue *core.UserError
	assert.ErrorAs(t, err, &ue)
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("disk full")
}

func TestWriteErrorIsSticky(t *testing.T) {
	w := &failWriter{}
	d := NewText(w, Options{})
	require.NoError(t, d.StartPacket())
	n := core.NewNodeDumper(d)
	assert.Error(t, n.Field("A", core.BoolValue(true), ""))
	assert.Error(t, n.Info("B", "x"))
	d.EndPacket()
	assert.EqualError(t, d.Close(), "disk full")
	assert.Equal(t, 1, w.n)
}

func TestAnnotate(t *testing.T) {
	assert.Equal(t, "a (b)", annotate("a", "b"))
	assert.Equal(t, "a", annotate("a", "a"))
	assert.Equal(t, "a", annotate("a", ""))
	assert.Equal(t, "b", annotate("", "b"))
	assert.True(t, strings.HasPrefix(Options{OUINames: true}.render(core.AddressValue(cisco)), "Cisco_"))
}
