// Package precedence implements the RFC 6724 §2.1 default policy table
// lookup: label -> precedence value.
package precedence

import "github.com/gortc/resolved/internal/addrclass"

// table is a dense array indexed by addrclass.Label; unlisted labels
// (any value outside the RFC 6724 default policy table) resolve to 0,
// per spec.md §4.2.
var table = [32]uint8{
	addrclass.LabelLocalhost: 50,
	addrclass.LabelGeneral:   40,
	addrclass.Label6to4:      30,
	addrclass.LabelV4Compat:  1,
	addrclass.LabelV4Mapped:  35,
	addrclass.LabelTeredo:    5,
	addrclass.LabelSiteLocal: 1,
	addrclass.LabelSixBone:   1,
	addrclass.LabelULA:       3,
}

// For returns the precedence value for label, per the RFC 6724 default
// policy table. Total on all inputs; labels outside [0,31] or not in
// the table return 0.
func For(label addrclass.Label) uint8 {
	if int(label) >= len(table) {
		return 0
	}
	return table[label]
}
