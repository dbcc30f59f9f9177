//go:build linux

package device

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/gopacket/afpacket"
	"golang.org/x/net/bpf"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/log"
)

// Ring captures Ethernet frames through a memory-mapped AF_PACKET ring.
type Ring struct {
	tp      *afpacket.TPacket
	device  *core.Device
	snapLen int
}

// OpenRing maps a TPACKET_V3 ring on the named interface. A non-zero fanout
// id joins a fanout group so several processes share the load.
func OpenRing(name string, opts Options) (core.RawSource, error) {
	if opts.SnapLen <= 0 {
		opts.SnapLen = core.DefaultSnapLen
	}
	if opts.BufferMB <= 0 {
		opts.BufferMB = 8
	}
	frameSize, blockSize, numBlocks, err := ringGeometry(opts.BufferMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, &core.UserError{Err: err}
	}

	tpOpts := []any{
		afpacket.OptInterface(name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	}
	if opts.Timeout > 0 {
		tpOpts = append(tpOpts, afpacket.OptPollTimeout(opts.Timeout))
	}
	tp, err := afpacket.NewTPacket(tpOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if opts.FanoutID > 0 {
		if err := tp.SetFanout(afpacket.FanoutHashWithDefrag, opts.FanoutID); err != nil {
			tp.Close()
			return nil, fmt.Errorf("%s: fanout %d: %w", name, opts.FanoutID, err)
		}
	}
	if opts.Filter != "" {
		prog, err := CompileFilter(core.LinkTypeEthernet, opts.SnapLen, opts.Filter)
		if err == nil {
			var raw []bpf.RawInstruction
			if raw, err = bpf.Assemble(prog); err == nil {
				err = tp.SetBPF(raw)
			}
		}
		if err != nil {
			tp.Close()
			return nil, err
		}
	}

	dev, err := Lookup(name)
	if err != nil {
		dev = &core.Device{Name: name}
	}
	log.GetLogger().WithField("device", name).Debugf("ring of %d x %d byte blocks, %d byte frames",
		numBlocks, blockSize, frameSize)
	return &Ring{tp: tp, device: dev, snapLen: opts.SnapLen}, nil
}

func (r *Ring) Live() bool { return true }

// NextRaw returns (nil, nil) when the poll timeout expires.
func (r *Ring) NextRaw() (*core.RawPacket, error) {
	data, ci, err := r.tp.ReadPacketData()
	switch {
	case errors.Is(err, afpacket.ErrTimeout):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &core.RawPacket{
		LinkType:  core.LinkTypeEthernet,
		Timestamp: ci.Timestamp,
		OrigLen:   ci.Length,
		SnapLen:   r.snapLen,
		Data:      data,
		Device:    r.device,
	}, nil
}

// Stats reports the ring's packet and drop counters.
func (r *Ring) Stats() (afpacket.SocketStatsV3, error) {
	_, v3, err := r.tp.SocketStats()
	return v3, err
}

func (r *Ring) Close() error {
	r.tp.Close()
	return nil
}
