package resolver

import (
	"net"

	"github.com/libp2p/go-reuseport"
)

// dialer opens the outbound connection a single DNS query is sent
// over. The split between a plain-socket implementation and a
// SO_REUSEPORT-aware one is adapted from gortcd/internal/allocator's
// NetPortAllocator/SystemPortAllocator (renamed from TURN relay port
// allocation to DNS query source-port allocation; turn.Protocol and
// turn.Addr have no analog here).
type dialer interface {
	Dial(network, raddr string) (net.Conn, error)
}

// systemDialer dials with an OS-assigned ephemeral local port,
// following gortcd/internal/allocator/port_sys.go's plain net dial.
type systemDialer struct{}

func (systemDialer) Dial(network, raddr string) (net.Conn, error) {
	var d net.Dialer
	return d.Dial(network, raddr)
}

// reusePortDialer dials via SO_REUSEPORT so concurrent outbound
// queries can share a local port, matching
// gortcd/internal/server/server.go's worker-socket reuse pattern
// (there applied to the listening side, here to the outbound side).
type reusePortDialer struct{}

func (reusePortDialer) Dial(network, raddr string) (net.Conn, error) {
	return reuseport.Dial(network, "", raddr)
}

func newDialer(reuse bool) dialer {
	if reuse && reuseport.Available() {
		return reusePortDialer{}
	}
	return systemDialer{}
}
