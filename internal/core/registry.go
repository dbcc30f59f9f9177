package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// TableID names a dispatch point, such as the ethertype of an Ethernet frame.
type TableID string

// LinkTypeTable roots dissection of every captured frame. Keys are LinkType.
const LinkTypeTable TableID = "link-type"

// Priority orders dissectors sharing a key. Higher runs first.
type Priority int

// DissectFunc decodes a PDU from the head of buf and returns the unconsumed
// rest. A decoder that does not handle the input returns ende.Decline() so
// dispatch moves on to the next candidate.
type DissectFunc func(buf []byte, s *Session, parent *TempPDU) ([]byte, PDU, error)

// Entry is one registered dissector.
type Entry struct {
	Table    TableID
	Key      uint64
	Priority Priority
	// PDUType is the kind the dissector produces.
	PDUType PDUType
	Name    string
	Fn      DissectFunc
}

// Registry maps tables and keys to priority-ordered dissectors, plus link
// layer PDU kinds to their link type. It is written during program init
// and frozen before the first Session takes a snapshot.
type Registry struct {
	mu        sync.RWMutex
	frozen    bool
	tables    map[TableID]map[uint64][]Entry
	linkTypes map[PDUType]LinkType
}

// NewRegistry returns an empty registry holding only the link-type table.
func NewRegistry() *Registry {
	return &Registry{
		tables:    map[TableID]map[uint64][]Entry{LinkTypeTable: {}},
		linkTypes: map[PDUType]LinkType{},
	}
}

// RegisterTable declares a dispatch table. Declaring an existing table is a
// no-op so protocol packages can declare the tables they feed.
func (r *Registry) RegisterTable(id TableID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: table %q", ErrRegistryFrozen, id)
	}
	if _, ok := r.tables[id]; !ok {
		r.tables[id] = map[uint64][]Entry{}
	}
	return nil
}

// Register adds a dissector. Registering the same PDU type twice under one
// table key is rejected.
func (r *Registry) Register(e Entry) error {
	if e.Fn == nil {
		return fmt.Errorf("pdukit: dissector %q has no function", e.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: dissector %q", ErrRegistryFrozen, e.Name)
	}
	table, ok := r.tables[e.Table]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, e.Table)
	}
	list := table[e.Key]
	for _, x := range list {
		if x.PDUType == e.PDUType {
			return fmt.Errorf("%w: %s in table %q key %#x", ErrDuplicateDissector, e.PDUType, e.Table, e.Key)
		}
	}
	list = append(list, e)
	// stable: equal priorities keep registration order
	slices.SortStableFunc(list, func(a, b Entry) int { return cmp.Compare(b.Priority, a.Priority) })
	table[e.Key] = list
	return nil
}

// RegisterLinkLayer maps a link layer PDU kind to the link type Transmit
// will stamp on its packets.
func (r *Registry) RegisterLinkLayer(t PDUType, lt LinkType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: link layer %s", ErrRegistryFrozen, t)
	}
	if prev, ok := r.linkTypes[t]; ok {
		return fmt.Errorf("%w: %s is %s", ErrDuplicateLinkType, t, prev)
	}
	r.linkTypes[t] = lt
	return nil
}

// Freeze rejects all further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Snapshot returns a frozen deep copy.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{
		frozen:    true,
		tables:    make(map[TableID]map[uint64][]Entry, len(r.tables)),
		linkTypes: maps.Clone(r.linkTypes),
	}
	for id, t := range r.tables {
		ct := make(map[uint64][]Entry, len(t))
		for k, list := range t {
			ct[k] = slices.Clone(list)
		}
		out.tables[id] = ct
	}
	return out
}

// Lookup returns the dissectors for key in descending priority.
func (r *Registry) Lookup(table TableID, key uint64) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[table][key]
}

// HasTable reports whether table was declared.
func (r *Registry) HasTable(table TableID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[table]
	return ok
}

// Tables lists the declared tables in name order.
func (r *Registry) Tables() []TableID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tables))
}

// Keys lists the populated keys of table in ascending order.
func (r *Registry) Keys(table TableID) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tables[table]))
}

// LinkTypeOf reverses RegisterLinkLayer.
func (r *Registry) LinkTypeOf(t PDUType) (LinkType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lt, ok := r.linkTypes[t]
	return lt, ok
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry filled by protocol packages
// from their init functions.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterTable declares a table in the default registry.
func RegisterTable(id TableID) error { return defaultRegistry.RegisterTable(id) }

// Register adds a dissector to the default registry.
func Register(e Entry) error { return defaultRegistry.Register(e) }

// RegisterLinkLayer adds a link layer mapping to the default registry.
func RegisterLinkLayer(t PDUType, lt LinkType) error {
	return defaultRegistry.RegisterLinkLayer(t, lt)
}

// MustRegisterTable, MustRegister and MustRegisterLinkLayer panic on error.
// They are meant for init functions, where a failure is a programming bug.
func MustRegisterTable(id TableID) {
	if err := RegisterTable(id); err != nil {
		panic(err)
	}
}

func MustRegister(e Entry) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

func MustRegisterLinkLayer(t PDUType, lt LinkType) {
	if err := RegisterLinkLayer(t, lt); err != nil {
		panic(err)
	}
}

// LinkTypeOf looks up a link layer mapping in the default registry.
func LinkTypeOf(t PDUType) (LinkType, bool) { return defaultRegistry.LinkTypeOf(t) }
