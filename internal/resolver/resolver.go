// Package resolver implements the DNS collaborator LookupFacade
// delegates to (spec.md §4.7 step 5): up to one A and one AAAA query
// per name, each answer trimmed to its first usable address, matching
// the original's "only the first address of a host is returned"
// limitation (original_source/src/api/netdb.c).
package resolver

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/aierr"
)

// Resolver is the narrow interface LookupFacade depends on, letting
// tests substitute a fake without spinning up a real DNS client.
type Resolver interface {
	// Resolve returns the addresses found for name restricted to
	// family (addrinfo.Unspec queries both A and AAAA). An empty,
	// nil-error result means the name resolved to zero usable
	// addresses for the requested family.
	Resolve(ctx context.Context, name string, family addrinfo.Family) ([]net.IP, error)
}

// DNSResolver is the default Resolver, sending A/AAAA queries over UDP
// via github.com/miekg/dns, grounded on the wire-format query pattern
// shared by every DNS-speaking repo in the pack (zeroconf, blocky,
// mosdns, tailscale's net/dns/resolver).
type DNSResolver struct {
	servers []string
	timeout time.Duration
	dial    dialer
	reuse   bool
	log     *zap.Logger
}

// Option configures a DNSResolver.
type Option func(*DNSResolver)

// WithTimeout overrides the per-query timeout (default 2s).
func WithTimeout(d time.Duration) Option {
	return func(r *DNSResolver) { r.timeout = d }
}

// WithReusePort enables SO_REUSEPORT on outbound query sockets when
// the platform supports it, matching resolver.reuseport in the ambient
// configuration layer.
func WithReusePort(reuse bool) Option {
	return func(r *DNSResolver) { r.reuse = reuse }
}

// New builds a DNSResolver querying servers (host:port form) in order,
// stopping at the first that answers.
func New(log *zap.Logger, servers []string, opts ...Option) *DNSResolver {
	r := &DNSResolver{
		servers: servers,
		timeout: 2 * time.Second,
		log:     log.Named("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dial = newDialer(r.reuse)
	return r
}

// Resolve implements Resolver.
func (r *DNSResolver) Resolve(ctx context.Context, name string, family addrinfo.Family) ([]net.IP, error) {
	var qtypes []uint16
	switch family {
	case addrinfo.V4:
		qtypes = []uint16{dns.TypeA}
	case addrinfo.V6:
		qtypes = []uint16{dns.TypeAAAA}
	default:
		qtypes = []uint16{dns.TypeAAAA, dns.TypeA}
	}

	var out []net.IP
	for _, qtype := range qtypes {
		ip, err := r.queryOne(ctx, name, qtype)
		if err != nil {
			r.log.Debug("query failed",
				zap.String("name", name), zap.Uint16("qtype", qtype), zap.Error(err))
			continue
		}
		if ip != nil {
			out = append(out, ip)
		}
	}
	if len(out) == 0 {
		return nil, aierr.New(aierr.FAIL, "no usable answer for %q", name)
	}
	return out, nil
}

// queryOne sends a single question to the first server that responds
// and returns the first address of the matching type in the answer,
// or a nil IP (not an error) when the name has no such record.
func (r *DNSResolver) queryOne(ctx context.Context, name string, qtype uint16) (net.IP, error) {
	if len(r.servers) == 0 {
		return nil, errors.New("resolver: no upstream servers configured")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: r.timeout}

	var lastErr error
	for _, server := range r.servers {
		resp, err := r.exchange(ctx, client, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = errors.Errorf("resolver: %s answered rcode %d", server, resp.Rcode)
			continue
		}
		return firstAddr(resp, qtype), nil
	}
	return nil, errors.Wrap(lastErr, "resolver: all upstream servers failed")
}

// exchange dials server with r's configured dialer (plain or
// SO_REUSEPORT) and sends msg over the resulting connection, applying
// ctx's deadline as the connection's read/write deadline.
func (r *DNSResolver) exchange(ctx context.Context, client *dns.Client, msg *dns.Msg, server string) (*dns.Msg, error) {
	conn, err := r.dial.Dial("udp", server)
	if err != nil {
		return nil, errors.Wrap(err, "resolver: dial")
	}
	defer conn.Close()

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "resolver: set deadline")
	}

	resp, _, err := client.ExchangeWithConn(msg, &dns.Conn{Conn: conn})
	if err != nil {
		return nil, errors.Wrap(err, "resolver: exchange")
	}
	return resp, nil
}

func firstAddr(resp *dns.Msg, qtype uint16) net.IP {
	for _, rr := range resp.Answer {
		switch qtype {
		case dns.TypeA:
			if a, ok := rr.(*dns.A); ok {
				return a.A
			}
		case dns.TypeAAAA:
			if aaaa, ok := rr.(*dns.AAAA); ok {
				return aaaa.AAAA
			}
		}
	}
	return nil
}
