package policy

import (
	"net"
	"testing"

	"github.com/gortc/resolved/internal/addrclass"
)

func label(l addrclass.Label) *addrclass.Label { return &l }
func prec(p uint8) *uint8                      { return &p }

func TestNew_ParseError(t *testing.T) {
	if _, err := New(Entry{Subnet: "not-a-cidr"}); err == nil {
		t.Error("should error")
	}
}

func TestTable_ClassifyOverride(t *testing.T) {
	tbl, err := New(Entry{
		Subnet:   "2001:db8::/32",
		Override: Override{Label: label(addrclass.LabelULA)},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		addr      string
		wantLabel addrclass.Label
	}{
		{"2001:db8::1", addrclass.LabelULA},
		{"2001:db9::1", addrclass.LabelGeneral},
	} {
		t.Run(tc.addr, func(t *testing.T) {
			_, got := tbl.Classify(net.ParseIP(tc.addr))
			if got != tc.wantLabel {
				t.Errorf("Classify label = %v, want %v", got, tc.wantLabel)
			}
		})
	}
}

func TestTable_PrecedenceOverride(t *testing.T) {
	tbl, err := New(Entry{
		Subnet:   "fc00::/7",
		Override: Override{Precedence: prec(99)},
	})
	if err != nil {
		t.Fatal(err)
	}
	ip := net.ParseIP("fc00::1")
	if got := tbl.Precedence(ip, addrclass.LabelULA); got != 99 {
		t.Errorf("Precedence = %d, want 99", got)
	}
	other := net.ParseIP("2001:db8::1")
	if got := tbl.Precedence(other, addrclass.LabelGeneral); got != 40 {
		t.Errorf("Precedence = %d, want built-in 40", got)
	}
}

func TestTable_FirstMatchWins(t *testing.T) {
	tbl, err := New(
		Entry{Subnet: "2001:db8::/32", Override: Override{Label: label(addrclass.LabelULA)}},
		Entry{Subnet: "2001:db8::/48", Override: Override{Label: label(addrclass.LabelTeredo)}},
	)
	if err != nil {
		t.Fatal(err)
	}
	_, got := tbl.Classify(net.ParseIP("2001:db8::1"))
	if got != addrclass.LabelULA {
		t.Errorf("expected the first configured rule to win, got %v", got)
	}
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	scope, l := tbl.Classify(net.ParseIP("2001:db8::1"))
	if scope != addrclass.ScopeGlobal || l != addrclass.LabelGeneral {
		t.Fatal("nil table must fall through to the built-in classification")
	}
}
