// Package addrinfo defines the result-record shapes produced by the
// lookup facade: AddrInfo, mirroring C's struct addrinfo (linked via
// ai_next), and HostEntry, mirroring the legacy struct hostent
// returned by gethostbyname (spec.md §6).
package addrinfo

import (
	"net"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Family names the address family of a record.
type Family int

// Supported families (spec.md §6: family ∈ {unspecified, v4, v6}).
const (
	Unspec Family = iota
	V4
	V6
)

// AddrInfo is one result record, chained via Next the way C's
// ai_next field chains struct addrinfo values. A caller-facing list
// is always terminated by a nil Next.
type AddrInfo struct {
	Family    Family
	SockType  int
	Protocol  int
	Addr      net.IP
	Port      uint16
	// Zone carries the IPv6 zone id verbatim; it is never consulted
	// by classification or comparison (spec.md §3 "IpAddr").
	Zone      string
	CanonName string
	Next      *AddrInfo
}

// Free walks the list starting at ai, detaching each node's Next
// pointer. Go's collector reclaims the memory regardless; Free exists
// so callers get the same idempotent, list-walking release shape as
// lwip_freeaddrinfo (spec.md §5 "Resource discipline") and so holding
// a reference to a freed node visibly can't reach the rest of the
// list. Safe to call on a nil list.
func (ai *AddrInfo) Free() {
	for ai != nil {
		next := ai.Next
		ai.Next = nil
		ai = next
	}
}

// Len counts the records reachable from ai, including ai itself.
func (ai *AddrInfo) Len() int {
	n := 0
	for cur := ai; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// HostEntry mirrors struct hostent as returned by gethostbyname and
// gethostbyname_r: a single canonical name plus the address list the
// original resolver found for it.
type HostEntry struct {
	Name     string
	Aliases  []string
	AddrList []net.IP
}

var foldCaser = cases.Fold()

// CanonicalName case-folds a hostname the way glibc's resolver
// canonicalizes names before comparison, using the same Unicode
// case-folding golang.org/x/text/cases implements rather than
// strings.ToLower's ASCII-only behavior.
func CanonicalName(name string) string {
	return foldCaser.String(name)
}
