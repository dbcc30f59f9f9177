package core

import (
	"iter"

	"firestige.xyz/pdukit/internal/ende"
)

// PDU is one decoded protocol layer. Concrete kinds embed Base, which links
// the layer into its chain.
type PDU interface {
	pduBase() *Base

	Type() PDUType
	// HeaderLen is the number of bytes emitted before the inner PDU.
	HeaderLen() int
	// TrailerLen is the number of bytes emitted after the inner PDU.
	TrailerLen() int
	SerializeHeader(e *ende.Encoder) error
	SerializeTrailer(e *ende.Encoder) error
	Dump(d *NodeDumper) error
	// Clone copies the layer's own fields. The copy is unlinked.
	Clone() PDU
}

// Canonicalizer is implemented by PDUs with derived fields (lengths,
// checksums) that should be recomputed before serialization.
type Canonicalizer interface {
	MakeCanonical()
}

// Base holds the links of a PDU. The inner PDU is owned; the parent is a
// back-reference maintained by SetInner and TakeInner only.
type Base struct {
	inner  PDU
	parent PDU
}

func (b *Base) pduBase() *Base { return b }

func (b *Base) Inner() PDU  { return b.inner }
func (b *Base) Parent() PDU { return b.parent }

func (b *Base) TrailerLen() int                        { return 0 }
func (b *Base) SerializeTrailer(_ *ende.Encoder) error { return nil }

// SetInner installs inner as the child of p, detaching it from any previous
// parent and unlinking p's previous child. Linking an ancestor of p (or p
// itself) fails with ErrPDUCycle.
func SetInner(p, inner PDU) error {
	pb := p.pduBase()
	if inner != nil {
		for a := p; a != nil; a = a.pduBase().parent {
			if a == inner {
				return ErrPDUCycle
			}
		}
		ib := inner.pduBase()
		if old := ib.parent; old != nil {
			old.pduBase().inner = nil
		}
		ib.parent = p
	}
	if pb.inner != nil && pb.inner != inner {
		pb.inner.pduBase().parent = nil
	}
	pb.inner = inner
	return nil
}

// MustSetInner is SetInner for chains built by hand.
func MustSetInner(p, inner PDU) {
	if err := SetInner(p, inner); err != nil {
		panic(err)
	}
}

// TakeInner unlinks and returns p's child.
func TakeInner(p PDU) PDU {
	pb := p.pduBase()
	inner := pb.inner
	if inner != nil {
		inner.pduBase().parent = nil
		pb.inner = nil
	}
	return inner
}

func Inner(p PDU) PDU  { return p.pduBase().inner }
func Parent(p PDU) PDU { return p.pduBase().parent }

// Root follows parent links to the top of the chain.
func Root(p PDU) PDU {
	for p.pduBase().parent != nil {
		p = p.pduBase().parent
	}
	return p
}

// TotalLen is header + inner + trailer, recursively.
func TotalLen(p PDU) int {
	n := 0
	for cur := p; cur != nil; cur = cur.pduBase().inner {
		n += cur.HeaderLen() + cur.TrailerLen()
	}
	return n
}

// Serialize appends the wire form of p and its inner chain to e.
func Serialize(p PDU, e *ende.Encoder) error {
	if err := p.SerializeHeader(e); err != nil {
		return err
	}
	if inner := p.pduBase().inner; inner != nil {
		if err := Serialize(inner, e); err != nil {
			return err
		}
	}
	return p.SerializeTrailer(e)
}

// Bytes serializes p into a fresh buffer.
func Bytes(p PDU) ([]byte, error) {
	e := ende.NewEncoder(ende.BigEndian, TotalLen(p))
	if err := Serialize(p, e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// MakeCanonical recomputes derived fields, innermost layer first so outer
// lengths see the final inner sizes.
func MakeCanonical(p PDU) {
	if inner := p.pduBase().inner; inner != nil {
		MakeCanonical(inner)
	}
	if c, ok := p.(Canonicalizer); ok {
		c.MakeCanonical()
	}
}

// Chain yields p and every PDU below it.
func Chain(p PDU) iter.Seq[PDU] {
	return func(yield func(PDU) bool) {
		for cur := p; cur != nil; cur = cur.pduBase().inner {
			if !yield(cur) {
				return
			}
		}
	}
}

// Layers lists the types of p's chain from outermost to innermost.
func Layers(p PDU) []PDUType {
	var out []PDUType
	for cur := range Chain(p) {
		out = append(out, cur.Type())
	}
	return out
}

// Find returns the first PDU of type T in p's chain, p included.
func Find[T PDU](p PDU) (T, bool) {
	for cur := range Chain(p) {
		if t, ok := cur.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// FindParent returns the nearest ancestor of p with type T.
func FindParent[T PDU](p PDU) (T, bool) {
	for cur := p.pduBase().parent; cur != nil; cur = cur.pduBase().parent {
		if t, ok := cur.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// As downcasts p itself.
func As[T PDU](p PDU) (T, bool) {
	t, ok := p.(T)
	return t, ok
}

// DeepClone copies p and its inner chain.
func DeepClone(p PDU) PDU {
	out := p.Clone()
	if inner := p.pduBase().inner; inner != nil {
		MustSetInner(out, DeepClone(inner))
	}
	return out
}
