// Package cli implements the command line interface for resolved,
// grounded on gortcd/internal/cli's cobra+viper wiring: a persistent
// --config flag, a fixed search path for the config file, a version
// check, and a root command that brings up prometheus/pprof/the
// management API before serving.
package cli

import (
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/libp2p/go-reuseport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gortc/resolved/internal/config"
	"github.com/gortc/resolved/internal/lookup"
	"github.com/gortc/resolved/internal/manage"
	"github.com/gortc/resolved/internal/reload"
	"github.com/gortc/resolved/internal/resolver"
	"github.com/gortc/resolved/internal/server"
)

// listenFunc starts serving h on addr, letting tests substitute a
// fake that records the address instead of actually binding a port,
// the way gortcd/internal/cli's run_test.go injects a fake
// ListenUDPAndServe into getRoot.
type listenFunc func(log *zap.Logger, addr string, reuse bool, h http.Handler) error

func listenAndServe(log *zap.Logger, addr string, reuse bool, h http.Handler) error {
	var (
		ln  net.Listener
		err error
	)
	if reuse && reuseport.Available() {
		ln, err = reuseport.Listen("tcp", addr)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return err
	}
	return http.Serve(ln, h)
}

// buildFacade wires internal/config, internal/resolver and
// internal/lookup into a ready-to-serve Facade, the shared
// construction path both the root "serve" command and the "resolve"
// one-shot command use.
func buildFacade(v *viper.Viper, l *zap.Logger) (*lookup.Facade, error) {
	policyTable, err := config.Policy(v)
	if err != nil {
		return nil, err
	}
	ro := config.Resolver(v)
	timeout, err := time.ParseDuration(ro.Timeout)
	if err != nil {
		return nil, err
	}
	res := resolver.New(l, ro.Servers,
		resolver.WithTimeout(timeout),
		resolver.WithReusePort(ro.ReusePort),
	)
	return lookup.New(l, res, policyTable, config.DebugCollect(v)), nil
}

var cfgFile string

func getRoot(v *viper.Viper, listen listenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolved",
		Short: "resolved is a name resolution and destination address sorting server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.Init(v, cfgFile); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			logCfg, err := config.ZapConfig(v)
			if err != nil {
				panic(err)
			}
			l, err := logCfg.Build()
			if err != nil {
				panic(err)
			}
			if cfgPath := v.ConfigFileUsed(); cfgPath != "" {
				l.Info("config file used", zap.String("path", cfgPath))
			} else {
				l.Info("default configuration used")
			}

			reg := prometheus.NewPedanticRegistry()
			metricsEnabled := config.PrometheusActive(v)
			if addr := config.PrometheusAddr(v); addr != "" {
				l.Warn("running prometheus metrics", zap.String("addr", addr))
				go serveMetrics(l, addr, reg)
			} else if metricsEnabled {
				l.Warn("ignoring server.prometheus.active because server.prometheus.addr is not configured")
				metricsEnabled = false
			}
			if addr := config.PprofAddr(v); addr != "" {
				l.Warn("running pprof", zap.String("addr", addr))
				go servePprof(l, addr)
			}

			facade, err := buildFacade(v, l)
			if err != nil {
				l.Fatal("failed to build lookup facade", zap.Error(err))
			}

			opts := server.Options{
				Facade:         facade,
				Log:            l,
				Registry:       reg,
				MetricsEnabled: metricsEnabled,
				Workers:        config.ServerWorkers(v),
				DebugCollect:   config.DebugCollect(v),
			}
			u := server.NewUpdater(opts)
			s, err := server.New(opts)
			if err != nil {
				l.Fatal("failed to build server", zap.Error(err))
			}
			u.Subscribe(s)

			n := reload.NewNotifier()
			if cfgPath := v.ConfigFileUsed(); cfgPath != "" {
				w, err := reload.Watch(cfgPath, n, l.Named("watch"))
				if err != nil {
					l.Warn("failed to watch config file", zap.String("path", cfgPath), zap.Error(err))
				} else {
					defer func() { _ = w.Close() }()
				}
			}
			go watchReload(v, l, u, n)

			if addr := config.APIAddr(v); addr != "" {
				m := manage.NewManager(l.Named("api"), n)
				go func() {
					l.Info("api listening", zap.String("addr", addr))
					if err := http.ListenAndServe(addr, m); err != nil {
						l.Error("api failed to listen", zap.String("addr", addr), zap.Error(err))
					}
				}()
			}

			addr := config.ServerAddr(v)
			l.Info("resolved listening", zap.String("addr", addr))
			if err := listen(l, addr, config.Resolver(v).ReusePort, s); err != nil {
				l.Fatal("failed to listen", zap.Error(err))
			}
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: resolved.* searched in ., /etc/resolved/, $HOME)")
	cmd.Flags().StringP("listen", "l", "127.0.0.1:8853", "address the JSON lookup API listens on")
	cmd.Flags().String("pprof", "", "pprof address if specified")
	mustBind(v.BindPFlag("server.addr", cmd.Flags().Lookup("listen")))
	mustBind(v.BindPFlag("server.pprof", cmd.Flags().Lookup("pprof")))

	cmd.AddCommand(getReloadCmd(v))
	cmd.AddCommand(getResolveCmd(v))
	return cmd
}

func mustBind(err error) {
	if err != nil {
		fmt.Println("failed to bind flag:", err)
		os.Exit(1)
	}
}

func serveMetrics(l *zap.Logger, addr string, reg *prometheus.Registry) {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(l),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	if err := http.ListenAndServe(addr, h); err != nil {
		l.Error("prometheus failed to listen", zap.String("addr", addr), zap.Error(err))
	}
}

func servePprof(l *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if err := http.ListenAndServe(addr, mux); err != nil {
		l.Error("pprof failed to listen", zap.String("addr", addr), zap.Error(err))
	}
}

func watchReload(v *viper.Viper, l *zap.Logger, u *server.Updater, n reload.Notifier) {
	for range n.C {
		l.Info("trying to update config")
		if err := v.ReadInConfig(); err != nil {
			l.Error("failed to read config", zap.Error(err))
			continue
		}
		facade, err := buildFacade(v, l)
		if err != nil {
			l.Error("failed to rebuild lookup facade", zap.Error(err))
			continue
		}
		opts := u.Get()
		opts.Facade = facade
		opts.DebugCollect = config.DebugCollect(v)
		u.Set(opts)
		l.Info("config updated")
	}
}

// Execute starts the root command.
func Execute() {
	v := viper.GetViper()
	config.SetDefaults(v)
	rootCmd := getRoot(v, listenAndServe)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
