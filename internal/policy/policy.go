// Package policy implements an operator-configurable override of
// AddrClass/PrecedenceTable, keyed by CIDR prefix and modeled on
// glibc's gai.conf label/precedence/scope directives.
//
// The rule list shape, an ordered slice of CIDR-matching rules
// consulted first-match-wins and falling back to a default when
// nothing matches, is adapted from gortcd/internal/filter's
// List/subnetRule (renamed from allow/deny actions to scope/label/
// precedence overrides; Pass becomes "no override, keep looking").
package policy

import (
	"net"

	"github.com/pkg/errors"

	"github.com/gortc/resolved/internal/addrclass"
	"github.com/gortc/resolved/internal/precedence"
)

// Override holds the fields a rule may replace. A nil field leaves the
// corresponding RFC 6724 built-in value untouched.
type Override struct {
	Scope      *addrclass.Scope
	Label      *addrclass.Label
	Precedence *uint8
}

// Entry is one configured rule: apply Override to every address inside
// Subnet (CIDR notation, e.g. "2001:db8::/32").
type Entry struct {
	Subnet   string
	Override Override
}

type rule struct {
	net *net.IPNet
	ov  Override
}

// Table is an ordered, first-match-wins list of CIDR rules. The zero
// value is an empty table that never overrides anything; Table is safe
// for concurrent reads once built, matching the immutability the
// lookup facade expects of its classification inputs.
type Table struct {
	rules []rule
}

// New parses entries into a Table. Rules are matched in the order
// given; the first subnet containing the query address wins.
func New(entries ...Entry) (*Table, error) {
	t := &Table{rules: make([]rule, 0, len(entries))}
	for _, e := range entries {
		_, ipnet, err := net.ParseCIDR(e.Subnet)
		if err != nil {
			return nil, errors.Wrapf(err, "policy: invalid subnet %q", e.Subnet)
		}
		t.rules = append(t.rules, rule{net: ipnet, ov: e.Override})
	}
	return t, nil
}

// lookup returns the override, if any, of the first rule whose subnet
// contains ip.
func (t *Table) lookup(ip net.IP) (Override, bool) {
	if t == nil {
		return Override{}, false
	}
	for _, r := range t.rules {
		if r.net.Contains(ip) {
			return r.ov, true
		}
	}
	return Override{}, false
}

// Classify returns the scope and label for ip, consulting t before
// falling back to the RFC 6724 built-in derivation in addrclass.
func (t *Table) Classify(ip net.IP) (addrclass.Scope, addrclass.Label) {
	scope, label := addrclass.Classify(ip)
	ov, matched := t.lookup(ip)
	if !matched {
		return scope, label
	}
	if ov.Scope != nil {
		scope = *ov.Scope
	}
	if ov.Label != nil {
		label = *ov.Label
	}
	return scope, label
}

// Precedence returns the precedence value for label as seen from ip,
// consulting t's overrides before falling back to the built-in
// precedence.For.
func (t *Table) Precedence(ip net.IP, label addrclass.Label) uint8 {
	ov, matched := t.lookup(ip)
	if matched && ov.Precedence != nil {
		return *ov.Precedence
	}
	return precedence.For(label)
}
