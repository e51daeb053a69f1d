package lookup

import (
	"context"
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/aierr"
	"github.com/gortc/resolved/internal/policy"
)

// fakeResolver is a hand-written test double, matching the teacher's
// style of fake interface implementations over a mocking library
// (e.g. gortcd's internal/server tests).
type fakeResolver struct {
	ips []net.IP
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, _ addrinfo.Family) ([]net.IP, error) {
	return f.ips, f.err
}

func newTestFacade(r *fakeResolver) *Facade {
	return New(zap.NewNop(), r, nil, false)
}

func TestGetAddrInfoNoNodeNoService(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	_, err := f.GetAddrInfo(context.Background(), "", "", Hints{})
	aiErr, ok := err.(*aierr.Error)
	if !ok || aiErr.Code != aierr.NONAME {
		t.Fatalf("expected NONAME, got %v", err)
	}
}

func TestGetAddrInfoInvalidService(t *testing.T) {
	f := newTestFacade(&fakeResolver{ips: []net.IP{net.ParseIP("127.0.0.1")}})
	_, err := f.GetAddrInfo(context.Background(), "example.com", "not-a-port", Hints{})
	aiErr, ok := err.(*aierr.Error)
	if !ok || aiErr.Code != aierr.SERVICE {
		t.Fatalf("expected SERVICE, got %v", err)
	}
}

func TestGetAddrInfoNumericHostMismatch(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	_, err := f.GetAddrInfo(context.Background(), "127.0.0.1", "80", Hints{NumericHost: true, Family: addrinfo.V6})
	aiErr, ok := err.(*aierr.Error)
	if !ok || aiErr.Code != aierr.NONAME {
		t.Fatalf("expected NONAME on family mismatch, got %v", err)
	}
}

func TestGetAddrInfoNumericHostOK(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	info, err := f.GetAddrInfo(context.Background(), "203.0.113.5", "80", Hints{NumericHost: true})
	if err != nil {
		t.Fatal(err)
	}
	if info.Len() != 1 || !info.Addr.Equal(net.ParseIP("203.0.113.5")) {
		t.Fatalf("unexpected result: %+v", info)
	}
	if info.Port != 80 {
		t.Fatalf("expected port 80, got %d", info.Port)
	}
}

func TestGetAddrInfoEmptyNodePassive(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	info, err := f.GetAddrInfo(context.Background(), "", "80", Hints{Passive: true, Family: addrinfo.V4})
	if err != nil {
		t.Fatal(err)
	}
	if info.Len() != 1 || !info.Addr.Equal(net.IPv4zero) {
		t.Fatalf("expected wildcard v4 address, got %+v", info)
	}
}

func TestGetAddrInfoEmptyNodeNotPassive(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	info, err := f.GetAddrInfo(context.Background(), "", "80", Hints{Family: addrinfo.V4})
	if err != nil {
		t.Fatal(err)
	}
	if !info.Addr.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Fatalf("expected v4 loopback, got %+v", info)
	}
}

func TestGetAddrInfoNameTooLong(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	_, err := f.GetAddrInfo(context.Background(), string(long), "", Hints{})
	aiErr, ok := err.(*aierr.Error)
	if !ok || aiErr.Code != aierr.FAIL {
		t.Fatalf("expected FAIL, got %v", err)
	}
}

func TestGetAddrInfoSortsMultipleResults(t *testing.T) {
	r := &fakeResolver{ips: []net.IP{
		net.ParseIP("3ffe::1"),
		net.ParseIP("2001:db8::1"),
	}}
	f := newTestFacade(r)
	info, err := f.GetAddrInfo(context.Background(), "example.com", "", Hints{})
	if err != nil {
		t.Fatal(err)
	}
	if info.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", info.Len())
	}
	if info.CanonName == "" {
		t.Fatal("expected a canonical name to be set")
	}
}

func TestGetAddrInfoWithPolicyOverride(t *testing.T) {
	boosted, err := policy.New(policy.Entry{
		Subnet:   "3ffe::/16",
		Override: policy.Override{Precedence: uint8Ptr(99)},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := &fakeResolver{ips: []net.IP{
		net.ParseIP("2001:db8::1"),
		net.ParseIP("3ffe::1"),
	}}
	f := New(zap.NewNop(), r, boosted, false)
	info, err := f.GetAddrInfo(context.Background(), "example.com", "", Hints{})
	if err != nil {
		t.Fatal(err)
	}
	if !info.Addr.Equal(net.ParseIP("3ffe::1")) {
		t.Fatalf("expected policy-boosted address first, got %v", info.Addr)
	}
}

func TestGetAddrInfoResolverError(t *testing.T) {
	f := newTestFacade(&fakeResolver{err: aierr.New(aierr.FAIL, "boom")})
	_, err := f.GetAddrInfo(context.Background(), "example.com", "", Hints{})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestGetHostByNameStoresLastEntry(t *testing.T) {
	r := &fakeResolver{ips: []net.IP{net.ParseIP("198.51.100.1")}}
	f := newTestFacade(r)
	entry, h := f.GetHostByName(context.Background(), "Example.COM")
	if h != 0 {
		t.Fatalf("unexpected h_errno %d", h)
	}
	if entry.Name != "example.com" {
		t.Fatalf("expected folded name, got %q", entry.Name)
	}
	if f.LastHostEntry() != entry {
		t.Fatal("expected LastHostEntry to return the same pointer just returned")
	}
}

func TestGetHostByNameNotFound(t *testing.T) {
	f := newTestFacade(&fakeResolver{})
	_, h := f.GetHostByName(context.Background(), "nowhere.invalid")
	if h != aierr.HostNotFound {
		t.Fatalf("expected HostNotFound, got %d", h)
	}
}

func TestGetHostByNameRBufferTooSmall(t *testing.T) {
	r := &fakeResolver{ips: []net.IP{net.ParseIP("198.51.100.1")}}
	f := newTestFacade(r)
	_, err := f.GetHostByNameR(context.Background(), "example.com", make([]byte, 2))
	if err != ErrRange {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}

func TestGetHostByNameRDoesNotTouchSingleton(t *testing.T) {
	r := &fakeResolver{ips: []net.IP{net.ParseIP("198.51.100.1")}}
	f := newTestFacade(r)
	buf := make([]byte, 64)
	_, err := f.GetHostByNameR(context.Background(), "example.com", buf)
	if err != nil {
		t.Fatal(err)
	}
	if f.LastHostEntry() != nil {
		t.Fatal("GetHostByNameR must not populate the GetHostByName singleton")
	}
}

func uint8Ptr(v uint8) *uint8 { return &v }
