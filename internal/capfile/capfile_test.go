package capfile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

func samplePackets() []core.RawPacket {
	base := time.Unix(1700000000, 123000)
	return []core.RawPacket{
		{LinkType: core.LinkTypeEthernet, Timestamp: base, OrigLen: 64, SnapLen: 1024, Data: bytes.Repeat([]byte{0xab}, 20)},
		{LinkType: core.LinkTypeEthernet, Timestamp: base.Add(time.Second), OrigLen: 3, SnapLen: 1024, Data: []byte{1, 2, 3}},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	for _, format := range []Format{Pcap, PcapNG} {
		for _, comp := range []Compression{None, Gzip, Zstd, LZ4} {
			t.Run(fmt.Sprintf("%s/%s", format, comp), func(t *testing.T) {
				var out bytes.Buffer
				rec, err := NewRecorder(&out, RecordOptions{Format: format, Compression: comp, Endian: ende.BigEndian})
				require.NoError(t, err)
				for _, p := range samplePackets() {
					require.NoError(t, rec.TransmitRaw(p))
				}
				require.NoError(t, rec.Close())
				assert.Equal(t, comp, DetectCompression(out.Bytes()))

				src, err := NewSource(bytes.NewReader(out.Bytes()))
				require.NoError(t, err)
				defer src.Close()
				for _, want := range samplePackets() {
					got, err := src.NextRaw()
					require.NoError(t, err)
					require.NotNil(t, got)
					assert.Equal(t, want.Data, got.Data)
					assert.Equal(t, want.OrigLen, got.OrigLen)
					assert.Equal(t, want.LinkType, got.LinkType)
					assert.True(t, want.Timestamp.Equal(got.Timestamp))
				}
				got, err := src.NextRaw()
				assert.NoError(t, err)
				assert.Nil(t, got)
			})
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		head   []byte
		format Format
		ok     bool
	}{
		{[]byte{0x0a, 0x0d, 0x0d, 0x0a}, PcapNG, true},
		{[]byte{0xd4, 0xc3, 0xb2, 0xa1}, Pcap, true},
		{[]byte{0xa1, 0xb2, 0x3c, 0x4d}, Pcap, true},
		{[]byte{0x00, 0x01}, 0, false},
		{[]byte("GET /"), 0, false},
	}
	for _, tt := range tests {
		f, ok := DetectFormat(tt.head)
		assert.Equal(t, tt.ok, ok, "% x", tt.head)
		assert.Equal(t, tt.format, f, "% x", tt.head)
	}
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, Gzip, CompressionFromPath("a.pcap.gz"))
	assert.Equal(t, Zstd, CompressionFromPath("a.pcapng.ZST"))
	assert.Equal(t, LZ4, CompressionFromPath("a.lz4"))
	assert.Equal(t, None, CompressionFromPath("a.pcap"))

	f, ok := FormatFromPath("trace.pcapng.gz")
	assert.True(t, ok)
	assert.Equal(t, PcapNG, f)
	f, ok = FormatFromPath("trace.cap")
	assert.True(t, ok)
	assert.Equal(t, Pcap, f)
	_, ok = FormatFromPath("trace.txt")
	assert.False(t, ok)

	f, err := ParseFormat("PCAPNG")
	assert.NoError(t, err)
	assert.Equal(t, PcapNG, f)
	_, err = ParseFormat("erf")
	var ue *core.UserError
	assert.ErrorAs(t, err, &ue)
	assert.Equal(t, ".zst", Zstd.Extension())
}

func TestUnrecognisedInput(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not a capture")} {
		_, err := NewSource(bytes.NewReader(data))
		assert.ErrorIs(t, err, core.ErrMalformedCapture)
	}
}

type trackedReader struct {
	*bytes.Reader
	closed bool
}

func (r *trackedReader) Close() error {
	r.closed = true
	return nil
}

func TestFailedOpenClosesInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"bad gzip header", []byte{0x1f, 0x8b, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"unknown format", []byte("not a capture")},
		{"truncated pcap header", []byte{0xd4, 0xc3, 0xb2, 0xa1, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &trackedReader{Reader: bytes.NewReader(tt.data)}
			_, err := NewSource(r)
			assert.Error(t, err)
			assert.True(t, r.closed)
		})
	}
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcapng.zst")
	format, ok := FormatFromPath(path)
	require.True(t, ok)
	rec, err := Create(path, RecordOptions{Format: format})
	require.NoError(t, err)
	require.NoError(t, rec.TransmitRaw(samplePackets()[0]))
	require.NoError(t, rec.Close())

	src, err := Open(path)
	require.NoError(t, err)
	got, err := src.NextRaw()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Data, 20)
	assert.NoError(t, src.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.pcap"))
	assert.Error(t, err)
}
