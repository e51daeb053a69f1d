package cli

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/config"
)

func getTestViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestRootRunListensOnConfiguredAddr(t *testing.T) {
	v := getTestViper()
	var gotAddr string
	cmd := getRoot(v, func(_ *zap.Logger, addr string, _ bool, _ http.Handler) error {
		gotAddr = addr
		return nil
	})
	f := cmd.Flags()
	if err := f.Set("listen", "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	cmd.Run(cmd, []string{})
	if gotAddr != "127.0.0.1:0" {
		t.Errorf("unexpected listen addr %q", gotAddr)
	}
}

func TestConfigInitRejectsBadVersion(t *testing.T) {
	v := getTestViper()
	v.Set("version", "2")
	if err := config.Init(v, cfgFile); err == nil {
		t.Fatal("expected an error for unsupported config version")
	}
}

func TestParseFamily(t *testing.T) {
	cases := map[string]bool{
		"":     true,
		"v4":   true,
		"ipv6": true,
		"6":    true,
		"bogus": false,
	}
	for in, ok := range cases {
		_, err := parseFamily(in)
		if (err == nil) != ok {
			t.Errorf("parseFamily(%q): err=%v, want ok=%v", in, err, ok)
		}
	}
}

func TestResolveCommandNumericHost(t *testing.T) {
	v := getTestViper()
	cmd := getResolveCmd(v)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--numeric", "--family", "v4", "203.0.113.5"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("expected output for a numeric host lookup")
	}
}

func TestResolveCommandRejectsUnknownFamily(t *testing.T) {
	v := getTestViper()
	cmd := getResolveCmd(v)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--family", "bogus", "--numeric", "203.0.113.5"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown family")
	}
}
