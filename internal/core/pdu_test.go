package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(pdus ...PDU) PDU {
	for i := len(pdus) - 1; i > 0; i-- {
		MustSetInner(pdus[i-1], pdus[i])
	}
	return pdus[0]
}

func TestSetInnerLinks(t *testing.T) {
	outer := &tag{ID: 1}
	inner := &tag{ID: 2}
	require.NoError(t, SetInner(outer, inner))

	assert.Same(t, inner, Inner(outer))
	assert.Same(t, outer, Parent(inner))
	assert.Same(t, outer, Root(inner))
	assert.Nil(t, Parent(outer))
}

func TestSetInnerMovesChild(t *testing.T) {
	a, b := &tag{ID: 1}, &tag{ID: 2}
	child := &tag{ID: 3}
	MustSetInner(a, child)
	MustSetInner(b, child)

	assert.Nil(t, Inner(a))
	assert.Same(t, child, Inner(b))
	assert.Same(t, b, Parent(child))
}

func TestSetInnerReplacesChild(t *testing.T) {
	p := &tag{}
	old := &tag{ID: 1}
	MustSetInner(p, old)
	MustSetInner(p, NewRaw([]byte{1}))

	assert.Nil(t, Parent(old))
}

func TestSetInnerCycle(t *testing.T) {
	a, b, c := &tag{ID: 1}, &tag{ID: 2}, &tag{ID: 3}
	chain(a, b, c)

	assert.ErrorIs(t, SetInner(c, a), ErrPDUCycle)
	assert.ErrorIs(t, SetInner(b, b), ErrPDUCycle)
	assert.Panics(t, func() { MustSetInner(c, b) })
	// chain untouched
	assert.Equal(t, []PDUType{tagType, tagType, tagType}, Layers(a))
}

func TestTakeInner(t *testing.T) {
	p := chain(&tag{}, NewRaw([]byte{9}))
	raw := TakeInner(p)

	require.NotNil(t, raw)
	assert.Nil(t, Inner(p))
	assert.Nil(t, Parent(raw))
	assert.Nil(t, TakeInner(p))
}

func TestTotalLenAndSerialize(t *testing.T) {
	root := chain(&trailed{End: 0xBB}, &tag{ID: 7, Next: 1}, NewRaw([]byte{1, 2, 3}))

	assert.Equal(t, 1+2+3+1, TotalLen(root))
	b, err := Bytes(root)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 7, 1, 1, 2, 3, 0xBB}, b)
}

func TestFindHelpers(t *testing.T) {
	raw := NewRaw([]byte{1})
	root := chain(&trailed{}, &tag{ID: 5}, raw)

	tg, ok := Find[*tag](root)
	require.True(t, ok)
	assert.Equal(t, uint8(5), tg.ID)

	tr, ok := FindParent[*trailed](raw)
	require.True(t, ok)
	assert.Same(t, root, PDU(tr))

	_, ok = FindParent[*RawPDU](raw)
	assert.False(t, ok)

	_, ok = As[*tag](root)
	assert.False(t, ok)
}

func TestDeepClone(t *testing.T) {
	root := chain(&tag{ID: 1, Next: 2}, NewRaw([]byte{4, 5}))
	clone := DeepClone(root)

	assert.NotSame(t, root, clone)
	assert.Nil(t, Parent(clone))
	a, _ := Bytes(root)
	b, _ := Bytes(clone)
	assert.Equal(t, a, b)

	clone.(*tag).ID = 9
	Inner(clone).(*RawPDU).Data[0] = 0
	a2, _ := Bytes(root)
	assert.Equal(t, a, a2)
}

func TestTempPDU(t *testing.T) {
	outer := NewTempPDU(&trailed{}, nil)
	inner := NewTempPDU(&tag{ID: 3}, outer)

	assert.Equal(t, 2, inner.Depth())
	assert.Equal(t, 0, (*TempPDU)(nil).Depth())

	tr, ok := FindAncestor[*trailed](inner)
	require.True(t, ok)
	assert.Same(t, outer.PDU, PDU(tr))

	_, ok = FindAncestor[*RawPDU](inner)
	assert.False(t, ok)
}

func TestPDUTypeNames(t *testing.T) {
	assert.Equal(t, "Raw", RawType.String())
	assert.Equal(t, "test-tag", tagType.String())
	assert.Equal(t, "PDUType(99999)", PDUType(99999).String())
	assert.Panics(t, func() { NewPDUType("Raw") })
}

func TestLinkTypeString(t *testing.T) {
	assert.Equal(t, "Ethernet", LinkTypeEthernet.String())
	assert.Equal(t, "LinkType(147)", LinkType(147).String())
}
