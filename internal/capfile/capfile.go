// Package capfile opens and creates capture files of either format,
// transparently handling gzip, zstd and lz4 compression.
package capfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"firestige.xyz/pdukit/internal/capfile/pcap"
	"firestige.xyz/pdukit/internal/capfile/pcapng"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
)

// Compression is the compression applied around a capture file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "none"
}

// Extension returns the file suffix for c, including the dot.
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	}
	return ""
}

// Format is a capture file format.
type Format int

const (
	Pcap Format = iota
	PcapNG
)

func (f Format) String() string {
	if f == PcapNG {
		return "pcapng"
	}
	return "pcap"
}

// ParseFormat accepts the names used in configuration.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "pcap":
		return Pcap, nil
	case "pcapng":
		return PcapNG, nil
	}
	return 0, &core.UserError{Err: fmt.Errorf("unknown capture format %q", s)}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// DetectCompression inspects the first bytes of a stream.
func DetectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	}
	return None
}

// DetectFormat inspects the first four bytes of an uncompressed capture.
func DetectFormat(head []byte) (Format, bool) {
	if len(head) < 4 {
		return 0, false
	}
	switch ende.BigEndian.Order().Uint32(head) {
	case 0x0A0D0D0A:
		return PcapNG, true
	case pcap.MagicMicroBE, pcap.MagicMicroLE, pcap.MagicNanoBE, pcap.MagicNanoLE:
		return Pcap, true
	}
	return 0, false
}

// CompressionFromPath picks the compression from a file suffix.
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	return None
}

// FormatFromPath picks the format from a file suffix, ignoring any
// compression suffix.
func FormatFromPath(path string) (Format, bool) {
	if c := CompressionFromPath(path); c != None {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcapng", ".ntar":
		return PcapNG, true
	case ".pcap", ".cap", ".dmp":
		return Pcap, true
	}
	return 0, false
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Decompress wraps r in a decompressor chosen from its leading bytes. The
// returned reader closes r when it is an io.Closer; so does a failure.
func Decompress(r io.Reader) (io.ReadCloser, Compression, error) {
	closeInput := func() {
		if cl, ok := r.(io.Closer); ok {
			cl.Close()
		}
	}
	br := bufio.NewReaderSize(r, 32*1024)
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		closeInput()
		return nil, None, err
	}

	rc := &readCloser{}
	c := DetectCompression(head)
	switch c {
	case None:
		rc.Reader = br
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			closeInput()
			return nil, c, core.Malformed("gzip: %v", err)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, zr.Close)
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			closeInput()
			return nil, c, err
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, func() error {
			zr.Close()
			return nil
		})
	case LZ4:
		rc.Reader = lz4.NewReader(br)
	}
	if cl, ok := r.(io.Closer); ok {
		rc.closers = append(rc.closers, cl.Close)
	}
	return rc, c, nil
}

// NewSource decompresses r as needed and picks the reader for the capture
// format found. Closing the source closes r, and r is closed on failure.
func NewSource(r io.Reader) (core.RawSource, error) {
	rc, _, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(rc)
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		rc.Close()
		return nil, err
	}
	format, ok := DetectFormat(head)
	if !ok {
		rc.Close()
		return nil, core.Malformed("unrecognised capture file (starts with % x)", head)
	}

	in := &readCloser{Reader: br, closers: []func() error{rc.Close}}
	var src core.RawSource
	if format == PcapNG {
		src, err = pcapng.NewSource(in)
	} else {
		src, err = pcap.NewSource(in)
	}
	if err != nil {
		rc.Close()
		return nil, err
	}
	return src, nil
}

// Open opens a capture file by path.
func Open(path string) (core.RawSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Recorder is a capture file sink.
type Recorder interface {
	core.RawSink
	Flush() error
	Close() error
}

// RecordOptions selects the output encoding.
type RecordOptions struct {
	Format      Format
	Compression Compression
	// Nano selects nanosecond timestamps in pcap files.
	Nano bool
	// Endian is the byte order of pcap-ng sections.
	Endian ende.Endian
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewRecorder writes a capture to w. Closing the recorder finishes the
// compressed stream and closes w when it is an io.Closer.
func NewRecorder(w io.Writer, opts RecordOptions) (Recorder, error) {
	out := &writeCloser{}
	switch opts.Compression {
	case None:
		out.Writer = w
	case Gzip:
		zw := gzip.NewWriter(w)
		out.Writer = zw
		out.closers = append(out.closers, zw.Close)
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		out.Writer = zw
		out.closers = append(out.closers, zw.Close)
	case LZ4:
		zw := lz4.NewWriter(w)
		out.Writer = zw
		out.closers = append(out.closers, zw.Close)
	default:
		return nil, &core.UserError{Err: fmt.Errorf("unknown compression %d", opts.Compression)}
	}
	if c, ok := w.(io.Closer); ok {
		out.closers = append(out.closers, c.Close)
	}

	if opts.Format == PcapNG {
		rec, err := pcapng.NewRecorder(out, opts.Endian)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return pcap.NewRecorder(out, opts.Nano), nil
}

// Create creates a capture file at path. Compression follows the path's
// suffix when opts leaves it unset.
func Create(path string, opts RecordOptions) (Recorder, error) {
	if opts.Compression == None {
		opts.Compression = CompressionFromPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	rec, err := NewRecorder(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return rec, nil
}
