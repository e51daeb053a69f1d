// Package lookup implements LookupFacade (spec.md §4.7): the single
// entry point getaddrinfo/gethostbyname/gethostbyname_r are built on
// top of. It orchestrates internal/resolver, internal/sourcecollect
// and internal/destsort exactly in the order spec.md's pseudocode
// lays out, and owns the process-wide singleton storage the legacy
// gethostbyname shape is allowed to return (spec.md §5 "Shared
// state").
package lookup

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/aierr"
	"github.com/gortc/resolved/internal/destsort"
	"github.com/gortc/resolved/internal/policy"
	"github.com/gortc/resolved/internal/resolver"
	"github.com/gortc/resolved/internal/sourcecollect"
)

// maxNameLength mirrors DNS_MAX_NAME_LENGTH (netdb.c): names longer
// than this cannot be a valid DNS question and fail fast with FAIL
// rather than reaching the resolver.
const maxNameLength = 255

// Hints mirrors the recognised fields of struct addrinfo's hints
// (spec.md §6): family restricts which record types are queried,
// SockType/Protocol are passed through to each result record
// unvalidated, Passive selects wildcard-vs-loopback synthesis when
// Node is empty, and NumericHost skips resolution entirely.
type Hints struct {
	Family      addrinfo.Family
	SockType    int
	Protocol    int
	Passive     bool
	NumericHost bool
}

// Facade is LookupFacade. The zero value is not usable; build one
// with New.
type Facade struct {
	resolver resolver.Resolver
	policy   *policy.Table
	log      *zap.Logger
	debug    bool

	mu   sync.RWMutex
	last *addrinfo.HostEntry // legacy gethostbyname singleton storage
}

// New builds a Facade. policyTable may be nil, meaning no operator
// overrides apply. debug gates a go-spew structure dump of the
// collected SourceSummary, matching zmux-server's
// spew.Dump-gated debug helper.
func New(log *zap.Logger, res resolver.Resolver, policyTable *policy.Table, debug bool) *Facade {
	return &Facade{
		resolver: res,
		policy:   policyTable,
		log:      log.Named("lookup"),
		debug:    debug,
	}
}

// GetAddrInfo implements getaddrinfo (spec.md §4.7/§6).
func (f *Facade) GetAddrInfo(ctx context.Context, node, service string, hints Hints) (*addrinfo.AddrInfo, error) {
	if node == "" && service == "" {
		return nil, aierr.New(aierr.NONAME, "node and service both empty")
	}
	if len(node) > maxNameLength {
		return nil, aierr.New(aierr.FAIL, "node name exceeds %d bytes", maxNameLength)
	}

	var port uint16
	if service != "" {
		p, err := strconv.Atoi(service)
		if err != nil || p < 0 || p > 0xffff {
			return nil, aierr.New(aierr.SERVICE, "invalid service %q", service)
		}
		port = uint16(p)
	}

	ips, err := f.collectAddresses(ctx, node, hints)
	if err != nil {
		return nil, err
	}

	if len(ips) >= 2 {
		f.sortDestinations(ips)
	}

	return f.buildList(ips, node, port, hints), nil
}

// collectAddresses resolves node's candidate addresses per spec.md
// §4.7 steps 2-5: literal/NUMERICHOST parsing, empty-node wildcard/
// loopback synthesis, or delegation to the DNS collaborator.
func (f *Facade) collectAddresses(ctx context.Context, node string, hints Hints) ([]net.IP, error) {
	if node == "" {
		return f.synthesize(hints), nil
	}
	if hints.NumericHost {
		ip := net.ParseIP(node)
		if ip == nil {
			return nil, aierr.New(aierr.NONAME, "%q is not a numeric address", node)
		}
		if familyMismatch(ip, hints.Family) {
			return nil, aierr.New(aierr.NONAME, "address family mismatch for %q", node)
		}
		return []net.IP{ip}, nil
	}

	ips, err := f.resolver.Resolve(ctx, node, hints.Family)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup: resolve %q", node)
	}
	return ips, nil
}

func familyMismatch(ip net.IP, family addrinfo.Family) bool {
	isV4 := ip.To4() != nil
	switch family {
	case addrinfo.V4:
		return !isV4
	case addrinfo.V6:
		return isV4
	default:
		return false
	}
}

// synthesize builds the wildcard or loopback address used when node
// is absent, per hints.Passive and hints.Family.
func (f *Facade) synthesize(hints Hints) []net.IP {
	var out []net.IP
	wantV4 := hints.Family == addrinfo.V4 || hints.Family == addrinfo.Unspec
	wantV6 := hints.Family == addrinfo.V6 || hints.Family == addrinfo.Unspec
	if wantV6 {
		if hints.Passive {
			out = append(out, net.IPv6unspecified)
		} else {
			out = append(out, net.IPv6loopback)
		}
	}
	if wantV4 {
		if hints.Passive {
			out = append(out, net.IPv4zero)
		} else {
			out = append(out, net.IPv4(127, 0, 0, 1))
		}
	}
	return out
}

// sortDestinations builds a SourceSummary via internal/sourcecollect
// and reorders ips in place via internal/destsort (spec.md §4.7 step
// 6), consulting f.policy's overrides when set.
func (f *Facade) sortDestinations(ips []net.IP) {
	sum, err := sourcecollect.Collect()
	if err != nil {
		f.log.Warn("source collection failed, destinations left unsorted", zap.Error(err))
		return
	}
	if f.debug {
		f.log.Debug("collected source summary", zap.String("summary", spew.Sdump(sum)))
	}
	if f.policy != nil {
		destsort.SortWith(ips, sum, f.policy)
	} else {
		destsort.Sort(ips, sum)
	}
}

// buildList materialises one AddrInfo per address, in the order ips
// already has them, per spec.md §4.7 step 7.
func (f *Facade) buildList(ips []net.IP, node string, port uint16, hints Hints) *addrinfo.AddrInfo {
	var head, tail *addrinfo.AddrInfo
	var canon string
	if node != "" {
		canon = addrinfo.CanonicalName(node)
	}
	for _, ip := range ips {
		family := addrinfo.V4
		if ip.To4() == nil {
			family = addrinfo.V6
		}
		node := &addrinfo.AddrInfo{
			Family:    family,
			SockType:  hints.SockType,
			Protocol:  hints.Protocol,
			Addr:      ip,
			Port:      port,
			CanonName: canon,
		}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

// GetHostByName implements gethostbyname (spec.md §6): a single IPv4
// lookup, with the result cached in process-wide storage the way the
// legacy API's static hostent buffer did, guarded by a mutex instead
// of being genuinely single-threaded (spec.md §5 "Shared state" point
// b). Returns aierr.HostNotFound, not an error, on miss, matching the
// legacy h_errno-out-parameter convention.
func (f *Facade) GetHostByName(ctx context.Context, name string) (*addrinfo.HostEntry, aierr.HErrno) {
	ips, err := f.resolver.Resolve(ctx, name, addrinfo.V4)
	if err != nil || len(ips) == 0 {
		return nil, aierr.HostNotFound
	}
	entry := &addrinfo.HostEntry{
		Name:     addrinfo.CanonicalName(name),
		AddrList: ips[:1],
	}
	f.mu.Lock()
	f.last = entry
	f.mu.Unlock()
	return entry, 0
}

// LastHostEntry returns the most recent GetHostByName result, mirroring
// the legacy API's ability to return a pointer into static storage that
// remains valid (and is overwritten) across calls.
func (f *Facade) LastHostEntry() *addrinfo.HostEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

// ErrRange is returned by GetHostByNameR when buf is too small to hold
// the result, mirroring gethostbyname_r's ERANGE.
var ErrRange = errors.New("lookup: buffer too small")

// GetHostByNameR implements gethostbyname_r (spec.md §6): a reentrant,
// per-call allocation that never touches the process-wide storage
// GetHostByName uses. buf emulates the caller-supplied scratch buffer
// the C API requires; Go has no use for the bytes themselves, but the
// size check is kept so undersized callers still observe ErrRange
// instead of silently succeeding.
func (f *Facade) GetHostByNameR(ctx context.Context, name string, buf []byte) (*addrinfo.HostEntry, error) {
	if name == "" {
		return nil, errors.New("lookup: empty name")
	}
	needed := len(name) + 1
	if len(buf) < needed {
		return nil, ErrRange
	}
	ips, err := f.resolver.Resolve(ctx, name, addrinfo.V4)
	if err != nil || len(ips) == 0 {
		return nil, aierr.New(aierr.FAIL, "gethostbyname_r: %q not found", name)
	}
	return &addrinfo.HostEntry{
		Name:     addrinfo.CanonicalName(name),
		AddrList: ips[:1],
	}, nil
}
