package core

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"firestige.xyz/pdukit/internal/ende"
	"firestige.xyz/pdukit/internal/log"
)

// Well-known decryption secret types carried by pcap-ng DSB blocks.
const (
	SecretTLSKeyLog uint32 = 0x544c534b
	SecretWireGuard uint32 = 0x57474b4c
	SecretZigBeeNWK uint32 = 0x5a4e574b
	SecretZigBeeAPS uint32 = 0x5a415053
)

// Session is the per-capture dissection context: a frozen copy of the
// registry plus decoder state. It is not safe for concurrent use.
type Session struct {
	id       string
	registry *Registry
	state    map[any]any
	names    *cache.Cache
	secrets  map[uint32][][]byte
	virtual  []PDU
	logger   log.Logger

	// last raw packet seen, used to stamp virtual packets
	lastTS      time.Time
	lastDevice  *Device
	lastSnapLen int
}

type SessionOption func(*Session)

// WithRegistry uses r instead of the default registry. r is snapshotted.
func WithRegistry(r *Registry) SessionOption {
	return func(s *Session) { s.registry = r.Snapshot() }
}

func WithSessionLogger(l log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithNameTTL expires resolved names after ttl. Names never expire by default.
func WithNameTTL(ttl time.Duration) SessionOption {
	return func(s *Session) { s.names = cache.New(ttl, ttl) }
}

// NewSession freezes the default registry on first use and snapshots it.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:          uuid.NewString(),
		state:       map[any]any{},
		names:       cache.New(cache.NoExpiration, 0),
		secrets:     map[uint32][][]byte{},
		lastTS:      time.Unix(0, 0).UTC(),
		lastSnapLen: DefaultSnapLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		defaultRegistry.Freeze()
		s.registry = defaultRegistry.Snapshot()
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	s.logger = s.logger.WithField("session", s.id)
	return s
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Registry() *Registry { return s.registry }
func (s *Session) Logger() log.Logger  { return s.logger }

// GetOrInit returns the sub-state stored under key, creating it with
// factory on first use. Use a pointer type for T to mutate the state.
func GetOrInit[T any](s *Session, key any, factory func() T) T {
	if v, ok := s.state[key]; ok {
		t, ok := v.(T)
		if !ok {
			panic(fmt.Sprintf("pdukit: session state %v holds %T", key, v))
		}
		return t
	}
	t := factory()
	s.state[key] = t
	return t
}

// State returns the raw sub-state stored under key.
func (s *Session) State(key any) (any, bool) {
	v, ok := s.state[key]
	return v, ok
}

// Lookup returns the dissectors registered for key in descending priority.
func (s *Session) Lookup(table TableID, key uint64) []Entry {
	return s.registry.Lookup(table, key)
}

// Dissect dispatches buf through table[key]. Missing tables or keys, and
// keys whose dissectors all decline, produce a RawPDU over buf.
func (s *Session) Dissect(table TableID, key uint64, buf []byte, parent *TempPDU) ([]byte, PDU, error) {
	rest, p, err := s.DissectStrict(table, key, buf, parent)
	if errors.Is(err, ErrNoDissector) {
		return DissectRaw(buf, s, parent)
	}
	return rest, p, err
}

// DissectStrict is Dissect without the raw fallback: it reports
// ErrNoDissector instead.
func (s *Session) DissectStrict(table TableID, key uint64, buf []byte, parent *TempPDU) ([]byte, PDU, error) {
	for _, e := range s.registry.Lookup(table, key) {
		rest, p, err := e.Fn(buf, s, parent)
		if err == nil {
			return rest, p, nil
		}
		if errors.Is(err, ende.ErrNotApplicable) {
			continue
		}
		return nil, nil, err
	}
	return nil, nil, fmt.Errorf("%w: table %q key %#x", ErrNoDissector, table, key)
}

// AddName records host names for addr, as read from a name resolution block.
func (s *Session) AddName(addr netip.Addr, names ...string) {
	key := addr.String()
	var prev []string
	if v, ok := s.names.Get(key); ok {
		prev = v.([]string)
	}
	s.names.Set(key, slices.Concat(prev, names), cache.DefaultExpiration)
}

// ResolveName returns the names recorded for addr.
func (s *Session) ResolveName(addr netip.Addr) ([]string, bool) {
	v, ok := s.names.Get(addr.String())
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

// AddSecret stores decryption material of the given secret type.
func (s *Session) AddSecret(typ uint32, data []byte) {
	s.secrets[typ] = append(s.secrets[typ], append([]byte(nil), data...))
}

// Secrets returns all material of a secret type in arrival order.
func (s *Session) Secrets(typ uint32) [][]byte {
	return s.secrets[typ]
}

// EnqueueVirtual queues a synthesized PDU chain. The sniffer yields queued
// chains, each under a Virtual root, before reading the next frame.
func (s *Session) EnqueueVirtual(p PDU) {
	s.virtual = append(s.virtual, p)
}

// NextVirtual pops the oldest queued chain wrapped in a packet.
func (s *Session) NextVirtual() (*Packet, bool) {
	if len(s.virtual) == 0 {
		return nil, false
	}
	p := s.virtual[0]
	s.virtual[0] = nil
	s.virtual = s.virtual[1:]

	root := &Virtual{}
	MustSetInner(root, p)
	pkt := NewPacket(s.lastTS, root)
	pkt.SnapLen = s.lastSnapLen
	pkt.Device = s.lastDevice
	return pkt, true
}

// Now is the timestamp of the last frame read, the epoch before any.
func (s *Session) Now() time.Time { return s.lastTS }

func (s *Session) observe(raw *RawPacket) {
	s.lastTS = raw.Timestamp
	s.lastDevice = raw.Device
	s.lastSnapLen = raw.SnapLen
}
