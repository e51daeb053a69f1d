package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/lookup"
)

var contextPool = &sync.Pool{
	New: func() interface{} {
		return &context{buf: make([]byte, 0, 512)}
	},
}

func acquireContext() *context {
	return contextPool.Get().(*context)
}

func putContext(c *context) {
	c.reset()
	contextPool.Put(c)
}

// context is the per-request state a workerPool job carries, reused
// across requests the way gortcd/internal/server.context reuses a
// STUN message pair: w/r/requestID are set fresh by handleLookup, buf
// keeps its capacity across uses (no handler writes into it; responses
// are encoded straight to the ResponseWriter), and
// node/service/hints/result/err are cleared between uses so a pooled
// context can never leak a previous request's data.
type context struct {
	w         http.ResponseWriter
	r         *http.Request
	requestID string
	started   time.Time

	node    string
	service string
	hints   lookup.Hints

	result *addrinfo.AddrInfo
	err    error
	done   chan struct{}

	buf []byte
}

func (c *context) reset() {
	c.w = nil
	c.r = nil
	c.requestID = ""
	c.started = time.Time{}
	c.node = ""
	c.service = ""
	c.hints = lookup.Hints{}
	c.result = nil
	c.err = nil
	c.done = nil
	c.buf = c.buf[:0]
}
