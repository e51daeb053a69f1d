package addrinfo

import (
	"net"
	"testing"
)

func buildList(n int) *AddrInfo {
	var head, tail *AddrInfo
	for i := 0; i < n; i++ {
		node := &AddrInfo{Addr: net.ParseIP("2001:db8::1")}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

func TestLen(t *testing.T) {
	if got := buildList(3).Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	var nilList *AddrInfo
	if got := nilList.Len(); got != 0 {
		t.Errorf("Len() on nil = %d, want 0", got)
	}
}

func TestFreeIdempotent(t *testing.T) {
	list := buildList(3)
	list.Free()
	if list.Next != nil {
		t.Fatal("Free must detach Next on the head node")
	}
	// Idempotent: freeing again, or freeing nil, must not panic.
	list.Free()
	var nilList *AddrInfo
	nilList.Free()
}

func TestFreeDetachesWholeChain(t *testing.T) {
	a := &AddrInfo{}
	b := &AddrInfo{}
	a.Next = b
	a.Free()
	if b.Next != nil {
		t.Fatal("Free must detach every node reachable from the head")
	}
}

func TestCanonicalNameFolds(t *testing.T) {
	if got := CanonicalName("Example.COM"); got != "example.com" {
		t.Errorf("CanonicalName = %q, want %q", got, "example.com")
	}
}
