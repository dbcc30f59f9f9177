package address

import (
	"cmp"
	"fmt"
	"slices"
)

// Assignment is a range of MAC addresses registered to one organization.
type Assignment struct {
	Range Subnet[MAC]
	Abbrv string
	Name  string
}

//go:generate go run ../../tools/ouigen -dir ../../oui-sources -out oui_table.go

// Database returns the IEEE assignment table sorted by base address.
func Database() []Assignment { return assignments }

// Lookup finds the assignment covering mac.
func Lookup(mac MAC) (*Assignment, bool) {
	return lookupIn(assignments, mac)
}

func lookupIn(table []Assignment, mac MAC) (*Assignment, bool) {
	i, found := slices.BinarySearchFunc(table, mac, func(e Assignment, m MAC) int {
		switch {
		case e.Range.Base().Uint64() > m.Uint64():
			return 1
		case e.Range.Contains(m):
			return 0
		default:
			return -1
		}
	})
	if !found {
		return nil, false
	}
	return &table[i], true
}

// FormatOUI renders mac with its manufacturer abbreviation replacing the
// assigned prefix, e.g. Xerox_12:34:56. Unassigned addresses print plainly.
func FormatOUI(mac MAC) string {
	a, _ := Lookup(mac)
	return FormatWith(mac, a)
}

// FormatWith is FormatOUI with a pre-resolved assignment, which may be nil.
func FormatWith(mac MAC, a *Assignment) string {
	if a == nil {
		return mac.String()
	}
	switch a.Range.PrefixLen() {
	case 36:
		return fmt.Sprintf("%s_%x:%02x", a.Abbrv, mac[4]&0x0f, mac[5])
	case 32:
		return fmt.Sprintf("%s_%02x:%02x", a.Abbrv, mac[4], mac[5])
	case 28:
		return fmt.Sprintf("%s_%x:%02x:%02x", a.Abbrv, mac[3]&0x0f, mac[4], mac[5])
	default:
		return fmt.Sprintf("%s_%02x:%02x:%02x", a.Abbrv, mac[3], mac[4], mac[5])
	}
}

// SortAssignments orders a table by base address, as Lookup requires.
func SortAssignments(table []Assignment) {
	slices.SortStableFunc(table, func(a, b Assignment) int {
		return cmp.Compare(a.Range.Base().Uint64(), b.Range.Base().Uint64())
	})
}
