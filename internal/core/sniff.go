package core

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"golang.org/x/net/bpf"

	"firestige.xyz/pdukit/internal/ende"
	"firestige.xyz/pdukit/internal/log"
	"firestige.xyz/pdukit/internal/metrics"
)

// RawSource yields captured frames. NextRaw returns (nil, nil) at the end
// of a file or, for live sources, when the read timeout expires.
type RawSource interface {
	NextRaw() (*RawPacket, error)
	Close() error
}

// LiveSource is implemented by sources where (nil, nil) means "nothing yet"
// rather than end of input.
type LiveSource interface {
	Live() bool
}

// SessionBinder is implemented by sources that feed the session, such as
// pcap-ng name resolution and decryption secret blocks.
type SessionBinder interface {
	BindSession(s *Session)
}

type sniffOptions struct {
	session *Session
	filter  []bpf.Instruction
	logger  log.Logger
	label   string
}

type SnifferOption func(*sniffOptions)

// WithSession dissects with s instead of a fresh session.
func WithSession(s *Session) SnifferOption {
	return func(o *sniffOptions) { o.session = s }
}

// WithFilter drops frames the BPF program rejects before dissection.
func WithFilter(prog []bpf.Instruction) SnifferOption {
	return func(o *sniffOptions) { o.filter = prog }
}

func WithLogger(l log.Logger) SnifferOption {
	return func(o *sniffOptions) { o.logger = l }
}

// WithMetricsLabel sets the source label of the sniffer metrics.
func WithMetricsLabel(label string) SnifferOption {
	return func(o *sniffOptions) { o.label = label }
}

// Sniffer turns raw frames from a source into dissected packets.
type Sniffer struct {
	src     RawSource
	session *Session
	vm      *bpf.VM
	logger  log.Logger
	label   string
	live    bool
}

func NewSniffer(src RawSource, opts ...SnifferOption) (*Sniffer, error) {
	o := sniffOptions{label: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.session == nil {
		o.session = NewSession()
	}
	if o.logger == nil {
		o.logger = o.session.Logger()
	}

	s := &Sniffer{
		src:     src,
		session: o.session,
		logger:  o.logger.WithField("source", o.label),
		label:   o.label,
	}
	if len(o.filter) > 0 {
		vm, err := bpf.NewVM(o.filter)
		if err != nil {
			return nil, &UserError{Err: fmt.Errorf("invalid filter: %w", err)}
		}
		s.vm = vm
	}
	if l, ok := src.(LiveSource); ok {
		s.live = l.Live()
	}
	if b, ok := src.(SessionBinder); ok {
		b.BindSession(s.session)
	}
	return s, nil
}

func (s *Sniffer) Session() *Session { return s.session }

// Live reports whether (nil, nil) from Sniff is a pause rather than the end.
func (s *Sniffer) Live() bool { return s.live }

// NextRaw reads the next frame without dissecting it or applying the filter.
func (s *Sniffer) NextRaw() (*RawPacket, error) {
	raw, err := s.src.NextRaw()
	if err != nil {
		metrics.CaptureErrorsTotal.WithLabelValues(s.label).Inc()
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	if raw.SnapLen == 0 {
		raw.SnapLen = DefaultSnapLen
	}
	s.session.observe(raw)
	metrics.SniffedPacketsTotal.WithLabelValues(s.label).Inc()
	metrics.SniffedBytesTotal.WithLabelValues(s.label).Add(float64(len(raw.Data)))
	metrics.PacketSizeBytes.WithLabelValues(s.label).Observe(float64(len(raw.Data)))
	return raw, nil
}

// Sniff returns the next dissected packet. Virtual packets queued by
// decoders come first. Frames that fail to decode are returned with a
// RawPDU root; errors raised by decoders for other reasons are returned
// wrapped in a *UserError.
func (s *Sniffer) Sniff() (*Packet, error) {
	if pkt, ok := s.session.NextVirtual(); ok {
		return pkt, nil
	}
	for {
		raw, err := s.NextRaw()
		if err != nil || raw == nil {
			return nil, err
		}
		if s.vm != nil {
			n, err := s.vm.Run(raw.Data)
			if err != nil {
				return nil, &UserError{Err: fmt.Errorf("filter: %w", err)}
			}
			if n == 0 {
				metrics.FilteredPacketsTotal.WithLabelValues(s.label).Inc()
				continue
			}
		}
		return s.dissect(raw)
	}
}

func (s *Sniffer) dissect(raw *RawPacket) (*Packet, error) {
	rest, root, err := s.session.DissectStrict(LinkTypeTable, uint64(raw.LinkType), raw.Data, nil)
	if err == nil && len(rest) > 0 {
		err = ende.MalformedAt(len(raw.Data)-len(rest), "%d bytes left over by %s", len(rest), root.Type())
	}
	if err != nil {
		reason := ""
		switch {
		case errors.Is(err, ErrNoDissector):
			reason = "unknown_link_type"
		case ende.KindOf(err) != 0:
			reason = ende.KindOf(err).String()
		default:
			return nil, &UserError{Err: err}
		}
		s.logger.WithError(err).Debugf("dissection of %s frame fell back to raw", raw.LinkType)
		metrics.DissectFallbacksTotal.WithLabelValues(s.label, reason).Inc()
		root = NewRaw(raw.Data)
	}
	return &Packet{
		Timestamp: raw.Timestamp,
		Root:      root,
		Len:       raw.OrigLen,
		SnapLen:   raw.SnapLen,
		Device:    raw.Device,
	}, nil
}

// Packets iterates over dissected packets until the source ends, ctx is
// done or a capture error occurs. User errors are yielded and iteration
// goes on.
func (s *Sniffer) Packets(ctx context.Context) iter.Seq2[*Packet, error] {
	return func(yield func(*Packet, error) bool) {
		for ctx.Err() == nil {
			pkt, err := s.Sniff()
			if err != nil {
				var ue *UserError
				if !yield(nil, err) || !errors.As(err, &ue) {
					return
				}
				continue
			}
			if pkt == nil {
				if s.live {
					continue
				}
				return
			}
			if !yield(pkt, nil) {
				return
			}
		}
	}
}

func (s *Sniffer) Close() error {
	return s.src.Close()
}
