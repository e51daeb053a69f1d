// Package config loads resolved's configuration the way
// gortcd/internal/cli does: a viper.Viper instance bound to CLI flags,
// searched across a fixed set of default paths, decoded into the
// concrete Go types the rest of the program consumes (zap.Config,
// policy.Entry list, resolver options), with no global package-level
// viper state.
package config

import (
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"github.com/gortc/resolved/internal/addrclass"
	"github.com/gortc/resolved/internal/policy"
)

// Keys used both to set defaults and to read values back; kept as
// constants so a typo in one place doesn't silently diverge from the
// other, the way keyPrometheusActive is used in gortcd/internal/cli.
const (
	keyResolverServers   = "resolver.servers"
	keyResolverTimeout   = "resolver.timeout"
	keyResolverReuseport = "resolver.reuseport"
	keyServerAddr        = "server.addr"
	keyServerWorkers     = "server.workers"
	keyServerDebugDump   = "server.debug.collect"
	keyPrometheusAddr    = "server.prometheus.addr"
	keyPrometheusActive  = "server.prometheus.active"
	keyPprofAddr         = "server.pprof"
	keyAPIAddr           = "api.addr"
	keyVersion           = "version"
)

// SetDefaults installs the baseline values the config version and the
// resolver/server options fall back to when the config file is silent
// on them, mirroring gortcd/internal/cli.initViper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(keyVersion, "1")
	v.SetDefault(keyResolverServers, []string{"8.8.8.8:53", "1.1.1.1:53"})
	v.SetDefault(keyResolverTimeout, "2s")
	v.SetDefault(keyResolverReuseport, true)
	v.SetDefault(keyServerAddr, "127.0.0.1:8853")
	v.SetDefault(keyServerWorkers, 100)
	v.SetDefault(keyPrometheusActive, true)
}

// Init locates and reads the config file, following
// gortcd/internal/cli.initConfig's search order: an explicit path (the
// --config flag) takes precedence; otherwise $PWD, /etc/resolved/, and
// $HOME are searched for resolved.{yaml,yml,json,toml,...} (any format
// viper's codec registry understands). Finding no file on the search
// paths is not an error: defaults set via SetDefaults still apply. An
// explicit path that cannot be read is an error. The version check
// applies in both cases, to whatever value version resolves to.
func Init(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "config: resolve home directory")
		}
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/resolved/")
		v.AddConfigPath(home)
		v.SetConfigName("resolved")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "config: read")
		}
	}
	if major := strings.Split(v.GetString(keyVersion), ".")[0]; major != "1" {
		return errors.Errorf("config: unsupported config version %q", v.GetString(keyVersion))
	}
	return nil
}

// ZapConfig decodes the logging section of the config file, following
// gortcd/internal/cli.getZapConfig: a JSON-encoding production default,
// a development default when server.development is set, both
// overridable by a yaml-decoded server.log block when a config file
// was actually loaded.
func ZapConfig(v *viper.Viper) (zap.Config, error) {
	type wrapper struct {
		Server struct {
			Log zap.Config `yaml:"log"`
		} `yaml:"server"`
	}

	d := zap.Config{
		DisableCaller:     true,
		DisableStacktrace: true,
		Level:             zap.NewAtomicLevel(),
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.EpochTimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if v.GetBool("server.development") {
		d = zap.NewDevelopmentConfig()
	}
	if v.ConfigFileUsed() == "" {
		return d, nil
	}

	raw := &wrapper{}
	raw.Server.Log = d
	f, err := os.Open(v.ConfigFileUsed())
	if err != nil {
		return d, errors.Wrap(err, "config: open config file for log section")
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Println("config: failed to close config file:", closeErr)
		}
	}()
	buf, err := ioutil.ReadAll(f)
	if err != nil {
		return d, errors.Wrap(err, "config: read config file for log section")
	}
	return raw.Server.Log, yaml.Unmarshal(buf, raw)
}

// PolicyEntry is the mapstructure shape a single policy rule takes in
// the config file, mirroring gortcd/internal/cli's rawRuleItem.
type PolicyEntry struct {
	Subnet     string `mapstructure:"subnet"`
	Scope      *uint8 `mapstructure:"scope"`
	Label      *uint8 `mapstructure:"label"`
	Precedence *uint8 `mapstructure:"precedence"`
}

// Policy decodes the policy.* section into an *policy.Table, following
// the shape of gortcd/internal/cli.parseFilteringRules: read a raw,
// mapstructure-decoded slice under a fixed key, validate and convert
// each entry, and fail loudly (wrapped error) rather than silently
// drop a malformed rule.
func Policy(v *viper.Viper) (*policy.Table, error) {
	var raw []PolicyEntry
	if err := v.UnmarshalKey("policy.rules", &raw); err != nil {
		return nil, errors.Wrap(err, "config: decode policy.rules")
	}
	entries := make([]policy.Entry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, policy.Entry{
			Subnet: r.Subnet,
			Override: policy.Override{
				Scope:      scopePtr(r.Scope),
				Label:      labelPtr(r.Label),
				Precedence: r.Precedence,
			},
		})
	}
	return policy.New(entries...)
}

func scopePtr(v *uint8) *addrclass.Scope {
	if v == nil {
		return nil
	}
	s := addrclass.Scope(*v)
	return &s
}

func labelPtr(v *uint8) *addrclass.Label {
	if v == nil {
		return nil
	}
	l := addrclass.Label(*v)
	return &l
}

// ResolverOptions mirrors the subset of resolver.Option the config
// file can drive: upstream server list, per-query timeout, and whether
// outbound query sockets are opened with SO_REUSEPORT.
type ResolverOptions struct {
	Servers   []string
	Timeout   string
	ReusePort bool
}

// Resolver decodes the resolver.* section.
func Resolver(v *viper.Viper) ResolverOptions {
	return ResolverOptions{
		Servers:   v.GetStringSlice(keyResolverServers),
		Timeout:   v.GetString(keyResolverTimeout),
		ReusePort: v.GetBool(keyResolverReuseport),
	}
}

// ServerAddr is the listen address of the JSON lookup API.
func ServerAddr(v *viper.Viper) string { return v.GetString(keyServerAddr) }

// ServerWorkers is the size of the lookup server's worker pool.
func ServerWorkers(v *viper.Viper) int { return v.GetInt(keyServerWorkers) }

// DebugCollect reports whether the lookup facade should spew-dump
// collected source summaries, mirroring server.debug.collect in
// gortcd's own Options.DebugCollect.
func DebugCollect(v *viper.Viper) bool { return v.GetBool(keyServerDebugDump) }

// PrometheusAddr is the listen address for /metrics, empty meaning
// disabled, mirroring gortcd/internal/cli's server.prometheus.addr.
func PrometheusAddr(v *viper.Viper) string { return v.GetString(keyPrometheusAddr) }

// PrometheusActive reports whether lookup metrics should be collected,
// independent of whether an HTTP endpoint is configured to expose
// them.
func PrometheusActive(v *viper.Viper) bool { return v.GetBool(keyPrometheusActive) }

// PprofAddr is the listen address pprof handlers are served on, empty
// meaning disabled.
func PprofAddr(v *viper.Viper) string { return v.GetString(keyPprofAddr) }

// APIAddr is the listen address of the management API (/reload,
// /healthz), mirroring gortcd/internal/cli's api.addr.
func APIAddr(v *viper.Viper) string { return v.GetString(keyAPIAddr) }
