package server

import (
	"bytes"
	stdcontext "context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/lookup"
)

// fakeResolver is a small hand-written double, matching the "no
// mock-heavy indirection" test style the teacher uses throughout
// gortcd's own test suite.
type fakeResolver struct {
	ips []net.IP
	err error
}

func (f *fakeResolver) Resolve(_ stdcontext.Context, _ string, _ addrinfo.Family) ([]net.IP, error) {
	return f.ips, f.err
}

func newTestServer(t *testing.T, r *fakeResolver) *Server {
	t.Helper()
	facade := lookup.New(zap.NewNop(), r, nil, false)
	s, err := New(Options{Facade: facade, Log: zap.NewNop(), Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHandleLookupNumericHost(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	body, _ := json.Marshal(lookupRequest{Node: "203.0.113.9", NumericHost: true})
	req := httptest.NewRequest("POST", "/lookup", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp lookupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Addr != "203.0.113.9" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleLookupRejectsGet(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	req := httptest.NewRequest("GET", "/lookup", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 405 {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleLookupBadBody(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	req := httptest.NewRequest("POST", "/lookup", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLookupSetsRequestIDHeader(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	body, _ := json.Marshal(lookupRequest{Node: "203.0.113.9", NumericHost: true})
	req := httptest.NewRequest("POST", "/lookup", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id header")
	}
}

func TestHandleHostByNameMissingName(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	req := httptest.NewRequest("GET", "/hostbyname", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHostByNameFound(t *testing.T) {
	s := newTestServer(t, &fakeResolver{ips: []net.IP{net.ParseIP("198.51.100.7")}})
	req := httptest.NewRequest("GET", "/hostbyname?name=example.com", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp hostByNameResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Addresses) != 1 || resp.Addresses[0] != "198.51.100.7" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSetOptionsSwapsFacade(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	newFacade := lookup.New(zap.NewNop(), &fakeResolver{ips: []net.IP{net.ParseIP("198.51.100.9")}}, nil, false)
	s.setOptions(Options{Facade: newFacade, Workers: 4})
	req := httptest.NewRequest("GET", "/hostbyname?name=example.com", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var resp hostByNameResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Addresses[0] != "198.51.100.9" {
		t.Fatalf("expected swapped facade's resolver result, got %+v", resp)
	}
}
