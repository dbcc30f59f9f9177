//go:build !linux

package device

import (
	"errors"

	"firestige.xyz/pdukit/internal/core"
)

// OpenRing is only available on Linux.
func OpenRing(name string, opts Options) (core.RawSource, error) {
	return nil, &core.UserError{Err: errors.New("afpacket capture requires Linux")}
}
