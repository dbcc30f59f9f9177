package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcap"

	"firestige.xyz/pdukit/internal/config"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/log"
)

// Options configure a capture handle.
type Options struct {
	SnapLen     int
	Promiscuous bool
	// Timeout bounds each read. Zero blocks until a frame arrives.
	Timeout time.Duration
	// Filter is a tcpdump expression compiled into the kernel.
	Filter   string
	BufferMB int
	// FanoutID joins an AF_PACKET fanout group. Ignored by libpcap.
	FanoutID uint16
}

// OptionsFrom maps the capture section of the configuration.
func OptionsFrom(c config.CaptureConfig) Options {
	return Options{
		SnapLen:     c.SnapLen,
		Promiscuous: c.Promiscuous,
		Timeout:     c.ReadTimeout(),
		Filter:      c.Filter,
		BufferMB:    c.BufferMB,
		FanoutID:    c.FanoutID,
	}
}

// Open starts a live capture on name with the configured engine.
func Open(name string, c config.CaptureConfig) (core.RawSource, error) {
	opts := OptionsFrom(c)
	if c.Engine == "afpacket" {
		return OpenRing(name, opts)
	}
	return OpenSniffer(name, opts)
}

// Sniffer reads frames from a live interface.
type Sniffer struct {
	handle  *pcap.Handle
	device  *core.Device
	link    core.LinkType
	snapLen int
	logger  log.Logger
}

// OpenSniffer activates a capture handle on the named interface.
func OpenSniffer(name string, opts Options) (*Sniffer, error) {
	if opts.SnapLen <= 0 {
		opts.SnapLen = core.DefaultSnapLen
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = pcap.BlockForever
	}

	inactive, err := pcap.NewInactiveHandle(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(opts.Promiscuous); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return nil, err
	}
	if opts.BufferMB > 0 {
		if err := inactive.SetBufferSize(opts.BufferMB * 1024 * 1024); err != nil {
			return nil, err
		}
	}
	h, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("activating %s: %w", name, err)
	}
	if opts.Filter != "" {
		if err := h.SetBPFFilter(opts.Filter); err != nil {
			h.Close()
			return nil, &core.UserError{Err: fmt.Errorf("filter %q: %w", opts.Filter, err)}
		}
	}

	dev, err := Lookup(name)
	if err != nil {
		// Handles can be opened on names libpcap does not enumerate.
		dev = &core.Device{Name: name}
	}
	s := &Sniffer{
		handle:  h,
		device:  dev,
		link:    core.LinkType(h.LinkType()),
		snapLen: opts.SnapLen,
		logger:  log.GetLogger().WithField("device", name),
	}
	s.logger.Debugf("capturing on %s (link %s, snaplen %d)", name, s.link, s.snapLen)
	return s, nil
}

func (s *Sniffer) Live() bool              { return true }
func (s *Sniffer) Device() *core.Device    { return s.device }
func (s *Sniffer) LinkType() core.LinkType { return s.link }

// NextRaw returns (nil, nil) when the read timeout expires.
func (s *Sniffer) NextRaw() (*core.RawPacket, error) {
	data, ci, err := s.handle.ReadPacketData()
	switch {
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return nil, nil
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return nil, core.ErrSourceClosed
	case err != nil:
		return nil, err
	}
	return &core.RawPacket{
		LinkType:  s.link,
		Timestamp: ci.Timestamp,
		OrigLen:   ci.Length,
		SnapLen:   s.snapLen,
		Data:      data,
		Device:    s.device,
	}, nil
}

// Stats reports the kernel's received and dropped counters.
func (s *Sniffer) Stats() (*pcap.Stats, error) {
	return s.handle.Stats()
}

func (s *Sniffer) Close() error {
	s.handle.Close()
	return nil
}

var _ core.RawSource = (*Sniffer)(nil)
var _ core.LiveSource = (*Sniffer)(nil)
