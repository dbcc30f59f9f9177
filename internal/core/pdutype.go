package core

import (
	"fmt"
	"sync"
)

// PDUType is a process-wide discriminant identifying a PDU kind. Values are
// handed out by NewPDUType, normally from a package-level var initializer.
type PDUType uint32

var pduTypes = struct {
	sync.RWMutex
	names []string
}{names: []string{"invalid"}}

// NewPDUType allocates a discriminant for a PDU kind.
func NewPDUType(name string) PDUType {
	pduTypes.Lock()
	defer pduTypes.Unlock()
	for i, n := range pduTypes.names {
		if n == name {
			panic(fmt.Sprintf("pdukit: pdu type %q declared twice (id %d)", name, i))
		}
	}
	pduTypes.names = append(pduTypes.names, name)
	return PDUType(len(pduTypes.names) - 1)
}

func (t PDUType) String() string {
	pduTypes.RLock()
	defer pduTypes.RUnlock()
	if int(t) < len(pduTypes.names) {
		return pduTypes.names[t]
	}
	return fmt.Sprintf("PDUType(%d)", uint32(t))
}
