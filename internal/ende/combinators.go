package ende

// Parser consumes a prefix of its input and returns the unconsumed rest.
type Parser[T any] func(in []byte) ([]byte, T, error)

// Take returns the first n bytes.
func Take(n int) Parser[[]byte] {
	return func(in []byte) ([]byte, []byte, error) {
		if len(in) < n {
			return in, nil, NeedMore(0, n-len(in))
		}
		return in[n:], in[:n], nil
	}
}

// Rest takes everything.
func Rest() Parser[[]byte] {
	return func(in []byte) ([]byte, []byte, error) {
		return in[len(in):], in, nil
	}
}

func Uint8() Parser[uint8] {
	return func(in []byte) ([]byte, uint8, error) {
		if len(in) < 1 {
			return in, 0, NeedMore(0, 1)
		}
		return in[1:], in[0], nil
	}
}

// fixed reads a size byte integer with get.
func fixed[T any](size int, get func([]byte) T) Parser[T] {
	return func(in []byte) ([]byte, T, error) {
		if len(in) < size {
			var zero T
			return in, zero, NeedMore(0, size-len(in))
		}
		return in[size:], get(in), nil
	}
}

func Uint16(e Endian) Parser[uint16] { return fixed(2, e.Order().Uint16) }
func Uint32(e Endian) Parser[uint32] { return fixed(4, e.Order().Uint32) }
func Uint64(e Endian) Parser[uint64] { return fixed(8, e.Order().Uint64) }

func Int8() Parser[int8] {
	return fixed(1, func(b []byte) int8 { return int8(b[0]) })
}

func Int16(e Endian) Parser[int16] {
	return fixed(2, func(b []byte) int16 { return int16(e.Order().Uint16(b)) })
}

func Int32(e Endian) Parser[int32] {
	return fixed(4, func(b []byte) int32 { return int32(e.Order().Uint32(b)) })
}

func Int64(e Endian) Parser[int64] {
	return fixed(8, func(b []byte) int64 { return int64(e.Order().Uint64(b)) })
}

// Map converts the output of p with fn. An error from fn is reported as
// malformed input unless it already is a decode error.
func Map[A, B any](p Parser[A], fn func(A) (B, error)) Parser[B] {
	return func(in []byte) ([]byte, B, error) {
		var zero B
		rest, a, err := p(in)
		if err != nil {
			return in, zero, err
		}
		b, err := fn(a)
		if err != nil {
			if KindOf(err) == 0 {
				err = &DecodeError{Kind: Malformed, Err: err}
			}
			return in, zero, err
		}
		return rest, b, nil
	}
}

// Tuple holds the results of Pair.
type Tuple[A, B any] struct {
	First  A
	Second B
}

// Pair runs a then b.
func Pair[A, B any](a Parser[A], b Parser[B]) Parser[Tuple[A, B]] {
	return func(in []byte) ([]byte, Tuple[A, B], error) {
		var out Tuple[A, B]
		rest, va, err := a(in)
		if err != nil {
			return in, out, err
		}
		rest, vb, err := b(rest)
		if err != nil {
			return in, out, err
		}
		out.First, out.Second = va, vb
		return rest, out, nil
	}
}
