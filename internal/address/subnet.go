package address

import "fmt"

// Subnet is a prefix range of addresses. The base is always masked.
type Subnet[A Address] struct {
	base   A
	prefix int
}

// NewSubnet masks base to prefix bits.
func NewSubnet[A Address](base A, prefix int) (Subnet[A], error) {
	if prefix < 0 || prefix > base.BitLen() {
		return Subnet[A]{}, fmt.Errorf("address: prefix length %d out of range for %d-bit address", prefix, base.BitLen())
	}
	b := base.Bytes()
	masked := make([]byte, len(b))
	for i := range b {
		masked[i] = b[i] & maskByte(i, prefix)
	}
	return Subnet[A]{base: fromBytes[A](masked), prefix: prefix}, nil
}

// MustSubnet panics on an invalid prefix.
func MustSubnet[A Address](base A, prefix int) Subnet[A] {
	s, err := NewSubnet(base, prefix)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Subnet[A]) Base() A        { return s.base }
func (s Subnet[A]) PrefixLen() int { return s.prefix }

func (s Subnet[A]) Mask() A {
	n := s.base.BitLen() / 8
	m := make([]byte, n)
	for i := range m {
		m[i] = maskByte(i, s.prefix)
	}
	return fromBytes[A](m)
}

func (s Subnet[A]) Contains(a A) bool {
	ab, bb := a.Bytes(), s.base.Bytes()
	for i := range bb {
		if ab[i]&maskByte(i, s.prefix) != bb[i] {
			return false
		}
	}
	return true
}

func (s Subnet[A]) First() A { return s.base }

func (s Subnet[A]) Last() A {
	bb := s.base.Bytes()
	out := make([]byte, len(bb))
	for i := range bb {
		out[i] = bb[i] | ^maskByte(i, s.prefix)
	}
	return fromBytes[A](out)
}

func (s Subnet[A]) String() string {
	return fmt.Sprintf("%s/%d", s.base, s.prefix)
}

func maskByte(i, prefix int) byte {
	bits := prefix - i*8
	switch {
	case bits >= 8:
		return 0xff
	case bits <= 0:
		return 0
	default:
		return ^byte(0xff >> bits)
	}
}

func fromBytes[A Address](b []byte) A {
	var a A
	switch p := any(&a).(type) {
	case *MAC:
		copy(p[:], b)
	case *EUI64:
		copy(p[:], b)
	case *IPv4:
		copy(p[:], b)
	case *IPv6:
		copy(p[:], b)
	default:
		panic(fmt.Sprintf("address: unsupported address type %T", a))
	}
	return a
}
