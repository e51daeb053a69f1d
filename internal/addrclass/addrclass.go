// Package addrclass implements RFC 6724 §3.1/§10.2 address classification:
// deriving a destination's multicast scope and precedence label from its
// IPv6 (or IPv4-mapped) form.
package addrclass

import "net"

// Scope is the RFC 4291 multicast-scope numbering reused by RFC 6724 to
// rank how local an address is. Smaller values are more local.
type Scope byte

// Scope values, per RFC 4291 §2.7.
const (
	ScopeInterfaceLocal Scope = 0x1
	ScopeLinkLocal      Scope = 0x2
	ScopeRealm          Scope = 0x3
	ScopeAdmin          Scope = 0x4
	ScopeSite           Scope = 0x5
	ScopeOrg            Scope = 0x8
	ScopeGlobal         Scope = 0xE
)

func (s Scope) String() string {
	switch s {
	case ScopeInterfaceLocal:
		return "interface-local"
	case ScopeLinkLocal:
		return "link-local"
	case ScopeRealm:
		return "realm-local"
	case ScopeAdmin:
		return "admin-local"
	case ScopeSite:
		return "site-local"
	case ScopeOrg:
		return "organization-local"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Label names an RFC 6724 precedence class. Ids are constrained to
// [0,31] so that "presence of label L" can be represented as bit L of a
// 32-bit mask (see sourcesum.Summary).
type Label byte

// Label ids, per RFC 6724 §2.1 table.
const (
	LabelLocalhost  Label = 0
	LabelGeneral    Label = 1
	Label6to4       Label = 2
	LabelV4Compat   Label = 3
	LabelV4Mapped   Label = 4
	LabelTeredo     Label = 5
	LabelSiteLocal  Label = 11
	LabelSixBone    Label = 12
	LabelULA        Label = 13
)

func (l Label) String() string {
	switch l {
	case LabelLocalhost:
		return "localhost"
	case LabelGeneral:
		return "general"
	case Label6to4:
		return "6to4"
	case LabelV4Compat:
		return "v4-compat"
	case LabelV4Mapped:
		return "v4-mapped"
	case LabelTeredo:
		return "teredo"
	case LabelSiteLocal:
		return "site-local"
	case LabelSixBone:
		return "6bone"
	case LabelULA:
		return "ula"
	default:
		return "unknown"
	}
}

var (
	_, prefixV4Mapped, _ = net.ParseCIDR("::ffff:0:0/96")
	_, prefixV4Compat, _ = net.ParseCIDR("::/96")
	_, prefixTeredo, _   = net.ParseCIDR("2001::/32")
	_, prefix6to4, _     = net.ParseCIDR("2002::/16")
	_, prefixSixBone, _  = net.ParseCIDR("3ffe::/16")
	_, prefixSiteLocal, _ = net.ParseCIDR("fec0::/10")
	_, prefixULA, _      = net.ParseCIDR("fc00::/7")

	loopback = net.IPv6loopback
)

// ToV6 maps an address into its unified IPv6 view: a native IPv6 address
// is returned unchanged, an IPv4 address is mapped as ::ffff:a.b.c.d.
// The zone id, when present, is not part of this view and must be
// tracked by the caller separately (classification never examines it).
func ToV6(ip net.IP) net.IP {
	if v4 := ip.To4(); v4 != nil {
		return v4.To16()
	}
	return ip
}

// IsV4Mapped reports whether v (already in unified IPv6 view, as
// returned by ToV6) represents a mapped IPv4 address.
func IsV4Mapped(v net.IP) bool {
	return prefixV4Mapped.Contains(v)
}

// Scope6 derives the RFC 6724 scope of v, which must already be in
// unified IPv6 view (see ToV6). Total on all inputs.
func Scope6(v net.IP) Scope {
	if v.IsMulticast() {
		// The scope is the low nibble of the second address byte.
		return Scope(v[1] & 0x0F)
	}
	switch {
	case v.IsLinkLocalUnicast(), v.Equal(loopback), isV4MappedLinkLocal(v), isV4MappedLoopback(v):
		return ScopeLinkLocal
	case prefixSiteLocal.Contains(v):
		return ScopeSite
	default:
		return ScopeGlobal
	}
}

func isV4MappedLinkLocal(v net.IP) bool {
	v4 := v.To4()
	return v4 != nil && v4[0] == 169 && v4[1] == 254
}

func isV4MappedLoopback(v net.IP) bool {
	v4 := v.To4()
	return v4 != nil && v4[0] == 127
}

// Label6 derives the RFC 6724 precedence label of v, which must already
// be in unified IPv6 view (see ToV6). Predicates are evaluated in this
// fixed order, first match wins; this is an Open Question call (see
// DESIGN.md): the "::/96" (V4Compat) predicate does not itself exclude
// "::1", the ordering below does, by placing Localhost first.
func Label6(v net.IP) Label {
	switch {
	case v.Equal(loopback):
		return LabelLocalhost
	case prefixV4Mapped.Contains(v):
		return LabelV4Mapped
	case prefixV4Compat.Contains(v):
		return LabelV4Compat
	case prefixTeredo.Contains(v):
		return LabelTeredo
	case prefix6to4.Contains(v):
		return Label6to4
	case prefixSixBone.Contains(v):
		return LabelSixBone
	case prefixSiteLocal.Contains(v):
		return LabelSiteLocal
	case prefixULA.Contains(v):
		return LabelULA
	default:
		return LabelGeneral
	}
}

// Classify is the combined (scope, label) derivation for an address in
// its native form (IPv4 or IPv6); IPv4 is mapped into unified IPv6 view
// internally. Returns exactly one scope and one label, total on all
// inputs.
func Classify(ip net.IP) (Scope, Label) {
	v := ToV6(ip)
	return Scope6(v), Label6(v)
}
