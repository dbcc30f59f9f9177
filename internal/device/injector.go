package device

import (
	"fmt"
	"sync"

	"github.com/google/gopacket/pcap"

	"firestige.xyz/pdukit/internal/core"
)

// Injector writes frames to a live interface. It is safe for concurrent
// use.
type Injector struct {
	mu     sync.Mutex
	handle *pcap.Handle
	name   string
}

func OpenInjector(name string) (*Injector, error) {
	h, err := pcap.OpenLive(name, core.DefaultSnapLen, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Injector{handle: h, name: name}, nil
}

// TransmitRaw sends raw.Data as is. The link type must match the
// interface's.
func (i *Injector) TransmitRaw(raw core.RawPacket) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.handle == nil {
		return core.ErrSourceClosed
	}
	if lt := core.LinkType(i.handle.LinkType()); lt != raw.LinkType {
		return &core.UserError{Err: fmt.Errorf("%s carries %s, not %s", i.name, lt, raw.LinkType)}
	}
	if err := i.handle.WritePacketData(raw.Data); err != nil {
		return fmt.Errorf("injecting on %s: %w", i.name, err)
	}
	return nil
}

func (i *Injector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.handle != nil {
		i.handle.Close()
		i.handle = nil
	}
	return nil
}

// AsyncInjector injects from a worker goroutine so callers can give up
// waiting through a context.
type AsyncInjector struct {
	*core.AsyncTransmitter
	inj *Injector
}

// NewAsyncInjector takes ownership of inj. A nil registry means the
// default one.
func NewAsyncInjector(inj *Injector, r *core.Registry) *AsyncInjector {
	return &AsyncInjector{AsyncTransmitter: core.NewAsyncTransmitter(inj, r), inj: inj}
}

// Close waits for queued frames and closes the interface.
func (a *AsyncInjector) Close() error {
	a.AsyncTransmitter.Close()
	return a.inj.Close()
}

var _ core.RawSink = (*Injector)(nil)
