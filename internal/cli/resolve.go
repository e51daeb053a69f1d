package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/gortc/resolved/internal/addrinfo"
	"github.com/gortc/resolved/internal/config"
	"github.com/gortc/resolved/internal/lookup"
)

func parseFamily(s string) (addrinfo.Family, error) {
	switch strings.ToLower(s) {
	case "", "unspec", "any":
		return addrinfo.Unspec, nil
	case "v4", "ipv4", "4":
		return addrinfo.V4, nil
	case "v6", "ipv6", "6":
		return addrinfo.V6, nil
	default:
		return addrinfo.Unspec, fmt.Errorf("unknown family %q", s)
	}
}

func familyString(f addrinfo.Family) string {
	switch f {
	case addrinfo.V4:
		return "v4"
	case addrinfo.V6:
		return "v6"
	default:
		return "unspec"
	}
}

// getResolveCmd is a one-shot equivalent of the /lookup HTTP endpoint,
// useful for operators checking a policy.rules change without
// standing up the full server, the CLI analogue of running getent
// hosts against a glibc resolver.
func getResolveCmd(v *viper.Viper) *cobra.Command {
	var family, service string
	var numeric bool
	cmd := &cobra.Command{
		Use:   "resolve [node]",
		Short: "resolve a host name and print RFC 6724-sorted addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(v, cfgFile); err != nil {
				return err
			}
			logCfg, err := config.ZapConfig(v)
			if err != nil {
				return err
			}
			logCfg.Level.SetLevel(zapcore.WarnLevel)
			l, err := logCfg.Build()
			if err != nil {
				return err
			}
			facade, err := buildFacade(v, l)
			if err != nil {
				return err
			}
			fam, err := parseFamily(family)
			if err != nil {
				return err
			}
			hints := lookup.Hints{Family: fam, NumericHost: numeric}
			head, err := facade.GetAddrInfo(context.Background(), args[0], service, hints)
			if err != nil {
				return err
			}
			for ai := head; ai != nil; ai = ai.Next {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s:%d\n", familyString(ai.Family), ai.Addr, ai.Port)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "address family to restrict to (v4, v6, unspec)")
	cmd.Flags().StringVar(&service, "service", "", "decimal port number (service names are not supported)")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "treat node as a numeric address (AI_NUMERICHOST)")
	return cmd
}
