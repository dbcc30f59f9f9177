package ende

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind uint8

const (
	// Incomplete means the input ended before the structure did.
	Incomplete Kind = iota + 1
	// Malformed means the input is structurally invalid.
	Malformed
	// NotApplicable means a decoder declined the input. Dispatch moves on
	// to the next candidate.
	NotApplicable
	// Custom wraps an opaque decoder-specific error.
	Custom
)

func (k Kind) String() string {
	switch k {
	case Incomplete:
		return "incomplete"
	case Malformed:
		return "malformed"
	case NotApplicable:
		return "not applicable"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *DecodeError of the same kind.
var (
	ErrIncomplete    = errors.New("ende: incomplete input")
	ErrMalformed     = errors.New("ende: malformed input")
	ErrNotApplicable = errors.New("ende: decoder not applicable")
)

// DecodeError describes where and why decoding stopped.
type DecodeError struct {
	Kind   Kind
	Offset int
	// Need is the number of additional bytes required, 0 if unknown.
	Need int
	Err  error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind == Incomplete && e.Need > 0:
		return fmt.Sprintf("ende: incomplete input at offset %d: need %d more bytes", e.Offset, e.Need)
	case e.Err != nil:
		return fmt.Sprintf("ende: %s at offset %d: %v", e.Kind, e.Offset, e.Err)
	default:
		return fmt.Sprintf("ende: %s at offset %d", e.Kind, e.Offset)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports kind equality against the package sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrIncomplete:
		return e.Kind == Incomplete
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrNotApplicable:
		return e.Kind == NotApplicable
	}
	return false
}

// NeedMore reports that n more bytes are required at offset.
func NeedMore(offset, n int) error {
	return &DecodeError{Kind: Incomplete, Offset: offset, Need: n}
}

// MalformedAt reports a structural error at offset.
func MalformedAt(offset int, format string, args ...any) error {
	return &DecodeError{Kind: Malformed, Offset: offset, Err: fmt.Errorf(format, args...)}
}

// Decline is returned by a decoder that does not handle the input.
func Decline() error {
	return &DecodeError{Kind: NotApplicable}
}

// Wrap turns an arbitrary decoder error into a Custom decode error.
// Errors that already are a *DecodeError are returned unchanged.
func Wrap(offset int, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Kind: Custom, Offset: offset, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not a decode error.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
