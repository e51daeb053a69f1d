// Package sourcesum implements SourceSummary (spec.md §4.3): a compact
// bitmask summary of the scopes and labels observed across the locally
// available source addresses, consumed by the destination comparator.
package sourcesum

import (
	"net"

	"github.com/gortc/resolved/internal/addrclass"
)

// Summary is three 32-bit presence masks. It is built once per lookup
// and is immutable for the remainder of that call (spec.md §3
// invariant); the zero value is an empty summary.
type Summary struct {
	ipv6Scopes uint32
	ipv4Scopes uint32
	labels     uint32
}

// Add folds a candidate source address into the summary. ip may be
// IPv4 or IPv6; IPv4 is mapped into unified IPv6 view before
// classification, matching the destination-side view used by the
// comparator.
func (s *Summary) Add(ip net.IP) {
	v := addrclass.ToV6(ip)
	scope, label := addrclass.Scope6(v), addrclass.Label6(v)
	s.labels |= 1 << uint(label)
	if addrclass.IsV4Mapped(v) {
		s.ipv4Scopes |= 1 << uint(scope)
	} else {
		s.ipv6Scopes |= 1 << uint(scope)
	}
}

// MatchingScope reports whether a source of dest's scope exists in the
// family-appropriate mask. This is the presence heuristic described in
// spec.md §4.3: it does not perform full RFC 6724 §5 source address
// selection, only asks whether a plausible source exists at all.
func (s Summary) MatchingScope(dest net.IP) bool {
	v := addrclass.ToV6(dest)
	scope := addrclass.Scope6(v)
	mask := s.ipv6Scopes
	if addrclass.IsV4Mapped(v) {
		mask = s.ipv4Scopes
	}
	return mask&(1<<uint(scope)) != 0
}

// MatchingLabel reports whether a source carrying dest's label exists
// among the candidates folded into the summary.
func (s Summary) MatchingLabel(dest net.IP) bool {
	_, label := addrclass.Classify(dest)
	return s.labels&(1<<uint(label)) != 0
}
