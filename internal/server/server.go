// Package server implements the JSON lookup API: a long-running HTTP
// front end over internal/lookup.Facade, replacing the UDP STUN/TURN
// packet server gortcd/internal/server implemented. The shapes it
// keeps from the teacher (Options/New/Server, the atomic-swappable
// Updater in reload.go, the sync.Pool-backed per-request context in
// context.go, the bounded workerPool in worker_pool.go, and the
// prometheus.Collector metrics struct in server_metrics.go) are the
// same regardless of what is being served; only the per-request work
// (a lookup instead of a STUN transaction) changed.
package server

import (
	stdcontext "context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/aierr"
	"github.com/gortc/resolved/internal/lookup"
)

// MetricsRegistry mirrors gortcd/internal/server.MetricsRegistry: the
// one prometheus.Registerer method Server actually needs, so tests can
// supply a fake instead of a real *prometheus.Registry.
type MetricsRegistry interface {
	Register(c prometheus.Collector) error
}

// Options configures a Server. Facade is the only field every request
// consults; the rest mirror gortcd/internal/server.Options in spirit
// (Log, Workers, metrics wiring, a DebugCollect escape hatch).
type Options struct {
	Facade         *lookup.Facade
	Log            *zap.Logger
	Registry       MetricsRegistry
	Labels         prometheus.Labels
	MetricsEnabled bool
	Workers        int
	DebugCollect   bool
}

// Server is the JSON lookup API's HTTP front end.
type Server struct {
	cfg         *config
	log         *zap.Logger
	mux         *http.ServeMux
	pool        *workerPool
	promMetrics *promMetrics
}

// New builds a Server from o. Workers defaults to 100, matching
// gortcd/internal/server.New's default worker count.
func New(o Options) (*Server, error) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Facade == nil {
		return nil, errors.New("server: Options.Facade is required")
	}
	if o.Workers == 0 {
		o.Workers = 100
	}
	if len(o.Labels) == 0 {
		o.Labels = prometheus.Labels{}
	}

	s := &Server{
		cfg: newConfig(o),
		log: o.Log,
	}
	s.pool = &workerPool{
		WorkerFunc:      s.serveJob,
		MaxWorkersCount: o.Workers,
		Logger:          o.Log.Named("pool"),
	}

	if o.MetricsEnabled && o.Registry != nil {
		s.promMetrics = newPromMetrics(o.Labels)
		if err := o.Registry.Register(s.promMetrics); err != nil {
			return nil, errors.Wrap(err, "server: register metrics")
		}
	}

	s.mux = http.NewServeMux()
	s.mux.Handle("/lookup", withRequestID(http.HandlerFunc(s.handleLookup)))
	s.mux.Handle("/hostbyname", withRequestID(http.HandlerFunc(s.handleHostByName)))
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	s.pool.Start()
	return s, nil
}

func (s *Server) setOptions(o Options) { s.cfg.update(o) }

// Close stops the worker pool. The underlying http.Server, if any, is
// owned by the caller (internal/cli), matching Serve's ListenAndServe
// split in gortcd/internal/cli.ListenUDPAndServe.
func (s *Server) Close() error {
	s.pool.Stop()
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type lookupRequest struct {
	Node        string `json:"node"`
	Service     string `json:"service"`
	Family      string `json:"family"`
	Passive     bool   `json:"passive"`
	NumericHost bool   `json:"numeric_host"`
}

type addrInfoView struct {
	Family    string `json:"family"`
	Addr      string `json:"addr"`
	Port      uint16 `json:"port"`
	CanonName string `json:"canon_name,omitempty"`
}

type lookupResponse struct {
	Results []addrInfoView `json:"results"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func parseFamily(s string) (addrinfo.Family, error) {
	switch s {
	case "", "unspec":
		return addrinfo.Unspec, nil
	case "v4", "ipv4":
		return addrinfo.V4, nil
	case "v6", "ipv6":
		return addrinfo.V6, nil
	default:
		return addrinfo.Unspec, fmt.Errorf("unknown family %q", s)
	}
}

func familyName(f addrinfo.Family) string {
	switch f {
	case addrinfo.V4:
		return "v4"
	case addrinfo.V6:
		return "v6"
	default:
		return "unspec"
	}
}

// handleLookup decodes a lookupRequest, hands it to the worker pool,
// and blocks for the result. Requests are still processed by a pool
// goroutine (not inline) so MaxWorkersCount bounds concurrent
// facade.GetAddrInfo calls the same way gortcd bounded concurrent STUN
// transaction processing.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, aierr.New(aierr.NONAME, "invalid request body"))
		return
	}
	family, err := parseFamily(req.Family)
	if err != nil {
		writeError(w, http.StatusBadRequest, aierr.New(aierr.FAMILY, "%s", err))
		return
	}

	c := acquireContext()
	defer putContext(c)
	c.w = w
	c.r = r
	c.requestID = r.Header.Get(requestIDHeader)
	c.started = time.Now()
	c.node = req.Node
	c.service = req.Service
	c.hints = lookup.Hints{Family: family, Passive: req.Passive, NumericHost: req.NumericHost}
	c.done = make(chan struct{})

	if !s.pool.Serve(c) {
		writeError(w, http.StatusServiceUnavailable, aierr.New(aierr.FAIL, "lookup queue full"))
		return
	}
	<-c.done

	elapsed := time.Since(c.started).Seconds()
	if s.promMetrics != nil {
		s.promMetrics.observeLookup(elapsed, c.err)
	}
	if c.err != nil {
		s.writeLookupError(w, c.err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c.result))
}

func toResponse(head *addrinfo.AddrInfo) lookupResponse {
	var resp lookupResponse
	for cur := head; cur != nil; cur = cur.Next {
		resp.Results = append(resp.Results, addrInfoView{
			Family:    familyName(cur.Family),
			Addr:      cur.Addr.String(),
			Port:      cur.Port,
			CanonName: cur.CanonName,
		})
	}
	return resp
}

type hostByNameResponse struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
}

func (s *Server) handleHostByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, aierr.New(aierr.NONAME, "missing name query parameter"))
		return
	}
	entry, hErr := s.cfg.Facade().GetHostByName(r.Context(), name)
	if hErr != 0 {
		writeError(w, http.StatusNotFound, aierr.New(aierr.NONAME, "%s", hErr))
		return
	}
	addrs := make([]string, len(entry.AddrList))
	for i, ip := range entry.AddrList {
		addrs[i] = ip.String()
	}
	writeJSON(w, http.StatusOK, hostByNameResponse{Name: entry.Name, Addresses: addrs})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveJob is the workerPool's single WorkerFunc: every handler that
// enqueues a context populates node/service/hints and a fresh done
// channel, then blocks on it, so the pool itself never branches on
// which HTTP handler produced the job.
func (s *Server) serveJob(c *context) error {
	defer close(c.done)
	ctx := stdcontext.Background()
	if c.r != nil {
		ctx = c.r.Context()
	}
	c.result, c.err = s.cfg.Facade().GetAddrInfo(ctx, c.node, c.service, c.hints)
	return c.err
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if aiErr, ok := err.(*aierr.Error); ok {
		writeError(w, http.StatusNotFound, aiErr)
		return
	}
	writeError(w, http.StatusInternalServerError, aierr.New(aierr.FAIL, "%s", err))
}

func writeError(w http.ResponseWriter, status int, err *aierr.Error) {
	writeJSON(w, status, errorResponse{Code: int(err.Code), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
