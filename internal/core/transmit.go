package core

import (
	"context"
	"fmt"

	"firestige.xyz/pdukit/internal/metrics"
)

// RawSink consumes serialized frames: a capture file recorder or a device.
type RawSink interface {
	TransmitRaw(raw RawPacket) error
}

// Transmit serializes pkt and hands it to sink, stamped with the link type
// registered for its root PDU.
func Transmit(sink RawSink, pkt *Packet) error {
	return TransmitWith(DefaultRegistry(), sink, pkt)
}

// TransmitWith is Transmit resolving link types through r.
func TransmitWith(r *Registry, sink RawSink, pkt *Packet) error {
	lt, ok := r.LinkTypeOf(pkt.Root.Type())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLinkType, pkt.Root.Type())
	}
	data, err := Bytes(pkt.Root)
	if err != nil {
		return err
	}
	snap := pkt.SnapLen
	if snap == 0 {
		snap = DefaultSnapLen
	}
	err = sink.TransmitRaw(RawPacket{
		LinkType:  lt,
		Timestamp: pkt.Timestamp,
		OrigLen:   len(data),
		SnapLen:   snap,
		Data:      data,
		Device:    pkt.Device,
	})
	if err != nil {
		return err
	}
	metrics.TransmittedPacketsTotal.WithLabelValues(lt.String()).Inc()
	return nil
}

// AsyncTransmitter runs blocking transmissions on a single goroutine so
// callers can wait on a context instead.
type AsyncTransmitter struct {
	sink     RawSink
	registry *Registry
	reqs chan asyncReq
	done chan struct{}
}

type asyncReq struct {
	pkt *Packet
	res chan error
}

// NewAsyncTransmitter starts the worker. A nil registry means the default
// one.
func NewAsyncTransmitter(sink RawSink, r *Registry) *AsyncTransmitter {
	if r == nil {
		r = DefaultRegistry()
	}
	t := &AsyncTransmitter{
		sink:     sink,
		registry: r,
		reqs:     make(chan asyncReq),
		done:     make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *AsyncTransmitter) loop() {
	defer close(t.done)
	for req := range t.reqs {
		req.res <- TransmitWith(t.registry, t.sink, req.pkt)
	}
}

// Transmit queues pkt and waits for its result or for ctx to end. A packet
// whose context ended after it was queued is still transmitted.
func (t *AsyncTransmitter) Transmit(ctx context.Context, pkt *Packet) error {
	req := asyncReq{pkt: pkt, res: make(chan error, 1)}
	select {
	case t.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after pending transmissions finish. Transmit must
// not be called after Close.
func (t *AsyncTransmitter) Close() {
	close(t.reqs)
	<-t.done
}
