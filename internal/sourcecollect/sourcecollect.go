// Package sourcecollect implements SourceCollector (spec.md §4.6): it
// walks the platform interface table and folds every candidate source
// address it finds into a sourcesum.Summary, capped at a fixed upper
// bound so the cost of building the summary never grows with the
// number of configured addresses.
//
// Interface and address enumeration is grounded on
// github.com/hashicorp/go-sockaddr's GetAllInterfaces/OrderedIfAddrBy
// pattern (see _examples/thevilledev-go-sockaddr/ifaddrs.go) rather
// than calling net.Interfaces directly: it gives a single library-
// provided place to add future filtering (by RFC, by type) and a
// deterministic address order via AscIfName/AscIfAddress instead of
// whatever order the kernel happens to return.
package sourcecollect

import (
	"net"

	sockaddr "github.com/hashicorp/go-sockaddr"

	"github.com/gortc/resolved/internal/sourcesum"
)

// ipv6SlotsPerInterface mirrors lwIP's LWIP_IPV6_NUM_ADDRESSES default
// (netdb.c), the per-interface IPv6 address-table size the original
// collector iterates.
const ipv6SlotsPerInterface = 3

// MaxCandidates bounds the total number of source addresses folded
// into a single summary, matching the original's
// MAX_CAND_SOURCE_ADDRESSES = (LWIP_IPV6_NUM_ADDRESSES + 1) * 6.
const MaxCandidates = (ipv6SlotsPerInterface + 1) * 6

// Collect walks every usable local interface and returns a SourceSummary
// built from the addresses found, up to MaxCandidates entries. It never
// returns a non-nil error for lack of candidates; an empty interface
// table yields an empty, still-usable Summary. Errors are reserved for
// failures enumerating the interface table itself.
func Collect() (sourcesum.Summary, error) {
	ifAddrs, err := sockaddr.GetAllInterfaces()
	if err != nil {
		return sourcesum.Summary{}, err
	}

	ifAddrs, _ = sockaddr.FilterIfByType(ifAddrs, sockaddr.TypeIP)
	sockaddr.OrderedIfAddrBy(sockaddr.AscIfName, sockaddr.AscIfAddress).Sort(ifAddrs)

	var sum sourcesum.Summary
	total := 0
	v6PerIf := make(map[string]int, 4)

	for _, ifa := range ifAddrs {
		if total >= MaxCandidates {
			break
		}
		if !interfaceUsable(ifa.Interface) {
			continue
		}
		ip, ok := netIP(ifa.SockAddr)
		if !ok || ip.IsUnspecified() {
			continue
		}
		if ip4 := ip.To4(); ip4 == nil {
			// IPv6: cap at ipv6SlotsPerInterface per interface, matching
			// the original's per-netif ip6_addr[] table size.
			name := ifa.Interface.Name
			if v6PerIf[name] >= ipv6SlotsPerInterface {
				continue
			}
			v6PerIf[name]++
		}
		sum.Add(ip)
		total++
	}

	return sum, nil
}

// netIP extracts a net.IP from a go-sockaddr SockAddr, recognizing the
// IPv4 and IPv6 variants produced by GetAllInterfaces.
func netIP(sa sockaddr.SockAddr) (net.IP, bool) {
	switch v := sa.(type) {
	case sockaddr.IPv4Addr:
		ip := v.NetIP()
		if ip == nil {
			return nil, false
		}
		return *ip, true
	case sockaddr.IPv6Addr:
		ip := v.NetIP()
		if ip == nil {
			return nil, false
		}
		return *ip, true
	default:
		return nil, false
	}
}

// interfaceUsable reports whether intf should contribute source
// candidates. The loopback interface is included deliberately: a
// loopback destination must still be able to match a loopback source.
func interfaceUsable(intf net.Interface) bool {
	if intf.Flags&net.FlagUp == 0 {
		return false
	}
	return interfaceRunning(intf)
}
