// Package destsort implements the RFC 6724 §6 destination-address
// comparator and a stable sort built on top of it (spec.md §4.4, §4.5).
//
// The sorter's shape, an ordered chain of independent comparison
// functions fed into a custom sort.Interface, follows the pattern used
// by hashicorp/go-sockaddr's multiIfAddrSorter/OrderedIfAddrBy (see
// _examples/thevilledev-go-sockaddr/ifaddrs.go), adapted here to a
// single rule-ordered comparator instead of a variadic list of
// independent ones, and wrapped with sort.Stable instead of sort.Sort
// so that spec.md's rule 10 (leave order unchanged on ties) holds.
package destsort

import (
	"net"
	"sort"

	"github.com/gortc/resolved/internal/addrclass"
	"github.com/gortc/resolved/internal/precedence"
	"github.com/gortc/resolved/internal/sourcesum"
)

// Classifier supplies the scope/label/precedence derivation Compare
// consults. defaultClassifier wraps the pure RFC 6724 built-ins;
// internal/policy.Table implements the same two methods, letting
// callers that loaded operator overrides pass *policy.Table directly
// in place of the default.
type Classifier interface {
	Classify(ip net.IP) (addrclass.Scope, addrclass.Label)
	Precedence(ip net.IP, label addrclass.Label) uint8
}

type defaultClassifier struct{}

func (defaultClassifier) Classify(ip net.IP) (addrclass.Scope, addrclass.Label) {
	return addrclass.Classify(ip)
}

func (defaultClassifier) Precedence(_ net.IP, label addrclass.Label) uint8 {
	return precedence.For(label)
}

// Compare returns a signed preference between destinations a and b
// given source summary s: positive means a is preferred, negative means
// b, zero means the two are equal under every implemented rule. Rules
// are evaluated top-down; the first non-zero result wins. Total on all
// inputs; cmp(a,b,s) == -cmp(b,a,s) always holds. Equivalent to
// CompareWith(a, b, s, defaultClassifier{}).
func Compare(a, b net.IP, s sourcesum.Summary) int {
	return CompareWith(a, b, s, defaultClassifier{})
}

// CompareWith is Compare generalized over a Classifier, letting a
// caller holding operator-configured overrides (internal/policy.Table)
// substitute them for the RFC 6724 built-in tables in rules 6 and 8.
// Rules 2 and 5 consult s, whose MatchingScope/MatchingLabel use the
// built-in classification; c does not affect them.
func CompareWith(a, b net.IP, s sourcesum.Summary, c Classifier) int {
	// Rule 2: prefer matching scope.
	if d := boolCmp(s.MatchingScope(a), s.MatchingScope(b)); d != 0 {
		return d
	}
	// Rule 5: prefer matching label.
	if d := boolCmp(s.MatchingLabel(a), s.MatchingLabel(b)); d != 0 {
		return d
	}
	// Rule 6: prefer higher precedence.
	scopeA, labelA := c.Classify(a)
	scopeB, labelB := c.Classify(b)
	if d := int(c.Precedence(a, labelA)) - int(c.Precedence(b, labelB)); d != 0 {
		return d
	}
	// Rule 8: prefer smaller scope.
	if scopeA != scopeB {
		if scopeA < scopeB {
			return 1
		}
		return -1
	}
	return 0
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// byPreference implements sort.Interface, ordering destinations from
// most to least preferred using CompareWith. Sort uses sort.Stable
// over this type so that elements treated as equal retain their
// relative input order (rule 10).
type byPreference struct {
	dest []net.IP
	sum  sourcesum.Summary
	c    Classifier
}

func (p *byPreference) Len() int      { return len(p.dest) }
func (p *byPreference) Swap(i, j int) { p.dest[i], p.dest[j] = p.dest[j], p.dest[i] }
func (p *byPreference) Less(i, j int) bool {
	return CompareWith(p.dest[i], p.dest[j], p.sum, p.c) > 0
}

// Sort orders dest in place from most to least preferred destination,
// per RFC 6724 §6, using the source summary sum. Lists of length <= 1
// are left untouched. IPv4 elements are viewed as IPv4-mapped IPv6 only
// for the duration of the comparison; the stored net.IP values are
// never mutated or replaced. Equivalent to SortWith(dest, sum,
// defaultClassifier{}).
func Sort(dest []net.IP, sum sourcesum.Summary) {
	SortWith(dest, sum, defaultClassifier{})
}

// SortWith is Sort generalized over a Classifier, so a caller holding
// operator-configured overrides (internal/policy.Table) can have them
// applied during the sort, in the rules CompareWith feeds from c.
func SortWith(dest []net.IP, sum sourcesum.Summary, c Classifier) {
	if len(dest) <= 1 {
		return
	}
	sort.Stable(&byPreference{dest: dest, sum: sum, c: c})
}
