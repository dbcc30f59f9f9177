package pcap

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

func writeFile(t *testing.T, hdr Header, recs []RecordHeader, data [][]byte) []byte {
	t.Helper()
	var out bytes.Buffer
	w, err := NewWriter(&out, hdr)
	require.NoError(t, err)
	for i := range recs {
		require.NoError(t, w.WriteRecord(&recs[i], data[i]))
	}
	require.NoError(t, w.Flush())
	return out.Bytes()
}

func TestHeaderMagic(t *testing.T) {
	tests := []struct {
		magic  uint32
		endian ende.Endian
		nano   bool
		first  byte
	}{
		{MagicMicroBE, ende.BigEndian, false, 0xA1},
		{MagicMicroLE, ende.LittleEndian, false, 0xD4},
		{MagicNanoBE, ende.BigEndian, true, 0xA1},
		{MagicNanoLE, ende.LittleEndian, true, 0x4D},
	}
	for _, tt := range tests {
		h := NewHeader(tt.endian, tt.nano, 65535, 1)
		assert.Equal(t, tt.magic, h.Magic)
		assert.Equal(t, tt.endian, h.Endian())
		assert.Equal(t, tt.nano, h.Nano())

		out := writeFile(t, h, nil, nil)
		require.Len(t, out, headerLen)
		assert.Equal(t, tt.first, out[0])

		r, err := NewReader(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, h, r.Header())
	}
}

func TestReaderWriterSymmetry(t *testing.T) {
	recs := []RecordHeader{
		{TsSec: 1, TsFrac: 2, InclLen: 3, OrigLen: 3},
		{TsSec: 1700000000, TsFrac: 999999, InclLen: 0, OrigLen: 0},
		{TsSec: 7, TsFrac: 1, InclLen: 4, OrigLen: 1500},
	}
	data := [][]byte{{1, 2, 3}, {}, {9, 9, 9, 9}}

	for _, magic := range []uint32{MagicMicroBE, MagicMicroLE, MagicNanoBE, MagicNanoLE} {
		hdr := Header{Magic: magic, VersionMajor: 2, VersionMinor: 4, ThisZone: -3600, SigFigs: 0, SnapLen: 96, Network: 1 | 0x1000_0000}
		file := writeFile(t, hdr, recs, data)

		r, err := NewReader(bytes.NewReader(file))
		require.NoError(t, err)
		assert.Equal(t, uint16(1), r.Header().LinkType())

		var gotRecs []RecordHeader
		var gotData [][]byte
		var buf []byte
		for {
			rec, err := r.NextRecord(&buf)
			require.NoError(t, err)
			if rec == nil {
				break
			}
			gotRecs = append(gotRecs, *rec)
			gotData = append(gotData, append([]byte{}, buf...))
		}
		assert.Equal(t, recs, gotRecs)
		assert.Equal(t, file, writeFile(t, r.Header(), gotRecs, gotData), "magic %#x", magic)
	}
}

func TestWriterRejects(t *testing.T) {
	var out bytes.Buffer
	w, err := NewWriter(&out, NewHeader(ende.LittleEndian, false, 200, 1))
	require.NoError(t, err)

	err = w.WriteRecord(&RecordHeader{InclLen: 100, OrigLen: 50}, make([]byte, 100))
	assert.ErrorIs(t, err, core.ErrMalformedCapture)

	err = w.WriteRecord(&RecordHeader{InclLen: 10, OrigLen: 10}, make([]byte, 9))
	assert.ErrorIs(t, err, core.ErrMalformedCapture)

	err = w.WriteRecord(&RecordHeader{InclLen: 201, OrigLen: 300}, make([]byte, 201))
	assert.ErrorIs(t, err, core.ErrMalformedCapture)

	_, err = NewWriter(&out, Header{Magic: 0x12345678})
	assert.ErrorIs(t, err, core.ErrMalformedCapture)
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xD4, 0xC3}))
	assert.ErrorIs(t, err, core.ErrMalformedCapture)

	bad := make([]byte, headerLen)
	_, err = NewReader(bytes.NewReader(bad))
	assert.ErrorIs(t, err, core.ErrMalformedCapture)

	file := writeFile(t, NewHeader(ende.LittleEndian, false, 65535, 1),
		[]RecordHeader{{InclLen: 4, OrigLen: 4}}, [][]byte{{1, 2, 3, 4}})

	var buf []byte
	for cut := headerLen + 1; cut < len(file); cut++ {
		r, err := NewReader(bytes.NewReader(file[:cut]))
		require.NoError(t, err)
		_, err = r.NextRecord(&buf)
		assert.ErrorIs(t, err, core.ErrMalformedCapture, "cut at %d", cut)
	}

	r, err := NewReader(bytes.NewReader(file[:headerLen]))
	require.NoError(t, err)
	rec, err := r.NextRecord(&buf)
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReaderIOError(t *testing.T) {
	hdr := writeFile(t, NewHeader(ende.BigEndian, true, 65535, 1), nil, nil)
	r, err := NewReader(io.MultiReader(bytes.NewReader(hdr), failingReader{}))
	require.NoError(t, err)
	var buf []byte
	_, err = r.NextRecord(&buf)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.NotErrorIs(t, err, core.ErrMalformedCapture)
}

func TestTimestamp(t *testing.T) {
	rec := RecordHeader{TsSec: 10, TsFrac: 5}
	assert.Equal(t, time.Unix(10, 5000).UTC(), rec.Timestamp(false))
	assert.Equal(t, time.Unix(10, 5).UTC(), rec.Timestamp(true))

	sec, frac := splitTimestamp(time.Unix(10, 5000), false)
	assert.Equal(t, [2]uint32{10, 5}, [2]uint32{sec, frac})
	sec, frac = splitTimestamp(time.Unix(-5, 0), true)
	assert.Equal(t, [2]uint32{0, 0}, [2]uint32{sec, frac})
	sec, frac = splitTimestamp(time.Unix(1<<33, 0), true)
	assert.Equal(t, [2]uint32{0, 0}, [2]uint32{sec, frac})
}

func TestReadsPcapgoFile(t *testing.T) {
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	require.NoError(t, w.WriteFileHeader(1024, layers.LinkTypeEthernet))
	ci := gopacket.CaptureInfo{Timestamp: time.Unix(1234, 567000), CaptureLength: 3, Length: 60}
	require.NoError(t, w.WritePacket(ci, []byte{1, 2, 3}))

	src, err := NewSource(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	raw, err := src.NextRaw()
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, core.LinkTypeEthernet, raw.LinkType)
	assert.Equal(t, time.Unix(1234, 567000).UTC(), raw.Timestamp)
	assert.Equal(t, 60, raw.OrigLen)
	assert.Equal(t, 1024, raw.SnapLen)
	assert.Equal(t, []byte{1, 2, 3}, raw.Data)

	raw, err = src.NextRaw()
	assert.NoError(t, err)
	assert.Nil(t, raw)
	assert.NoError(t, src.Close())
}

func TestRecorderReadByPcapgo(t *testing.T) {
	var out bytes.Buffer
	rec := NewRecorder(&out, true)
	ts := time.Unix(1700000000, 123456789)
	require.NoError(t, rec.TransmitRaw(core.RawPacket{
		LinkType: core.LinkTypeEthernet, Timestamp: ts, OrigLen: 80, SnapLen: 2048, Data: []byte{0xaa, 0xbb},
	}))
	err := rec.TransmitRaw(core.RawPacket{LinkType: core.LinkTypeRaw, Data: []byte{1}})
	var ue *core.UserError
	assert.ErrorAs(t, err, &ue)
	require.NoError(t, rec.Flush())

	r, err := pcapgo.NewReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())
	assert.Equal(t, uint32(2048), r.Snaplen())
	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, data)
	assert.Equal(t, 80, ci.Length)
	assert.True(t, ts.Equal(ci.Timestamp))
}
