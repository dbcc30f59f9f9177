package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pdukit/internal/ende"
)

var (
	altType  = NewPDUType("test-alt")
	userType = NewPDUType("test-user")
)

func declining(buf []byte, _ *Session, _ *TempPDU) ([]byte, PDU, error) {
	return nil, nil, ende.Decline()
}

func TestRegisterUnknownTable(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Entry{Table: "nope", Key: 1, PDUType: tagType, Fn: dissectTag})
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Fn: dissectTag}))

	err := r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Priority: 5, Fn: dissectTag})
	assert.ErrorIs(t, err, ErrDuplicateDissector)

	// same type under another key, or another type under the same key
	assert.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 2, PDUType: tagType, Fn: dissectTag}))
	assert.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: altType, Fn: declining}))

	require.NoError(t, r.RegisterLinkLayer(tagType, 147))
	assert.ErrorIs(t, r.RegisterLinkLayer(tagType, 148), ErrDuplicateLinkType)
}

func TestRegisterNilFunc(t *testing.T) {
	assert.Error(t, NewRegistry().Register(Entry{Table: LinkTypeTable, Name: "empty"}))
}

func TestRegistryFreeze(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTable("a"))
	require.NoError(t, r.RegisterTable("a"), "redeclaring a table is allowed")
	r.Freeze()

	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.RegisterTable("b"), ErrRegistryFrozen)
	assert.ErrorIs(t, r.Register(Entry{Table: "a", PDUType: tagType, Fn: dissectTag}), ErrRegistryFrozen)
	assert.ErrorIs(t, r.RegisterLinkLayer(tagType, 1), ErrRegistryFrozen)
}

func TestRegistrySnapshotIsolated(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Fn: dissectTag}))
	snap := r.Snapshot()
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: altType, Fn: declining}))

	assert.True(t, snap.Frozen())
	assert.False(t, r.Frozen())
	assert.Len(t, snap.Lookup(LinkTypeTable, 1), 1)
	assert.Len(t, r.Lookup(LinkTypeTable, 1), 2)
}

func TestRegistryListing(t *testing.T) {
	r := tagRegistry()
	assert.Equal(t, []TableID{LinkTypeTable, tagTable}, r.Tables())
	assert.Equal(t, []uint64{uint64(tagLinkType)}, r.Keys(LinkTypeTable))
	assert.True(t, r.HasTable(tagTable))
	assert.False(t, r.HasTable("missing"))

	lt, ok := r.LinkTypeOf(tagType)
	require.True(t, ok)
	assert.Equal(t, tagLinkType, lt)
	_, ok = r.LinkTypeOf(altType)
	assert.False(t, ok)
}

func TestPriorityOrder(t *testing.T) {
	r := NewRegistry()
	var order []string
	mk := func(name string) DissectFunc {
		return func([]byte, *Session, *TempPDU) ([]byte, PDU, error) {
			order = append(order, name)
			return nil, nil, ende.Decline()
		}
	}
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Priority: 0, Name: "low", Fn: mk("low")}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: altType, Priority: 10, Name: "high", Fn: mk("high")}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: userType, Priority: 0, Name: "low2", Fn: mk("low2")}))

	s := NewSession(WithRegistry(r))
	_, _, err := s.DissectStrict(LinkTypeTable, 1, []byte{1}, nil)
	assert.ErrorIs(t, err, ErrNoDissector)
	assert.Equal(t, []string{"high", "low", "low2"}, order)
}

func TestPriorityExtremes(t *testing.T) {
	r := NewRegistry()
	fn := func([]byte, *Session, *TempPDU) ([]byte, PDU, error) { return nil, nil, ende.Decline() }
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Priority: math.MinInt, Name: "min", Fn: fn}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: altType, Priority: math.MaxInt, Name: "max", Fn: fn}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: userType, Priority: 0, Name: "zero", Fn: fn}))

	var names []string
	for _, e := range r.Lookup(LinkTypeTable, 1) {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"max", "zero", "min"}, names)
}

func TestDispatchFallsThroughDecline(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: altType, Priority: 10, Fn: declining}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Priority: 0, Fn: dissectTag}))
	s := NewSession(WithRegistry(r))

	rest, p, err := s.Dissect(LinkTypeTable, 1, []byte{4, 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, tagType, p.Type())
	assert.Equal(t, []PDUType{tagType, RawType}, Layers(p))
}

func TestDispatchPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: userType, Priority: 10,
		Fn: func([]byte, *Session, *TempPDU) ([]byte, PDU, error) { return nil, nil, boom }}))
	require.NoError(t, r.Register(Entry{Table: LinkTypeTable, Key: 1, PDUType: tagType, Fn: dissectTag}))
	s := NewSession(WithRegistry(r))

	_, _, err := s.Dissect(LinkTypeTable, 1, []byte{1, 2}, nil)
	assert.ErrorIs(t, err, boom)

	_, _, err = s.Dissect(LinkTypeTable, 2, []byte{1}, nil)
	assert.NoError(t, err, "unknown key falls back to raw")
}

func TestDispatchRawFallback(t *testing.T) {
	s := NewSession(WithRegistry(NewRegistry()))
	buf := []byte{1, 2, 3}

	rest, p, err := s.Dissect("missing-table", 9, buf, nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	raw, ok := As[*RawPDU](p)
	require.True(t, ok)
	assert.Equal(t, buf, raw.Data)

	buf[0] = 0
	assert.Equal(t, byte(1), raw.Data[0], "raw data is copied")
}
