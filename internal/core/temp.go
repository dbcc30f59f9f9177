package core

import "iter"

// TempPDU exposes the partially dissected chain to a child decoder. It is a
// stack frame: decoders build one around themselves, pass it down, and drop
// it when the child returns. Nothing should retain it.
type TempPDU struct {
	PDU    PDU
	Parent *TempPDU
}

// NewTempPDU pushes p on top of parent.
func NewTempPDU(p PDU, parent *TempPDU) *TempPDU {
	return &TempPDU{PDU: p, Parent: parent}
}

// Ancestors yields the frames' PDUs from the innermost outwards.
func (t *TempPDU) Ancestors() iter.Seq[PDU] {
	return func(yield func(PDU) bool) {
		for f := t; f != nil; f = f.Parent {
			if !yield(f.PDU) {
				return
			}
		}
	}
}

// Depth is the number of frames, 0 for a nil frame.
func (t *TempPDU) Depth() int {
	n := 0
	for f := t; f != nil; f = f.Parent {
		n++
	}
	return n
}

// FindAncestor returns the nearest frame holding a T.
func FindAncestor[T PDU](t *TempPDU) (T, bool) {
	for p := range t.Ancestors() {
		if v, ok := p.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
