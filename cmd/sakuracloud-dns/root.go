package main

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/config"
	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns"
	_ "github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns/providers"
	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/metrics"
)

type options struct {
	configPath      string
	logLevel        string
	logFormat       string
	metricsTextfile string
}

// app carries what every subcommand needs once the root pre-run has
// loaded the configuration.
type app struct {
	opts     options
	log      logr.Logger
	provider dns.Provider
}

func newRootCommand() *cobra.Command {
	a := &app{log: logr.Discard()}

	root := &cobra.Command{
		Use:           "sakuracloud-dns",
		Short:         "Manage Sakura Cloud DNS zones as code",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.metricsTextfile == "" {
				return nil
			}
			if err := metrics.WriteTextfile(a.opts.metricsTextfile); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "provider config file (default $DNS_PROVIDER_PATH or configs/dns-provider.yaml)")
	flags.StringVar(&a.opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&a.opts.logFormat, "log-format", "console", "log format: console or json")
	flags.StringVar(&a.opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(newZonesCommand(a), newDumpCommand(a), newSyncCommand(a))
	return root
}

func (a *app) setup() error {
	log, err := newLogger(a.opts.logLevel, a.opts.logFormat)
	if err != nil {
		return err
	}
	a.log = log
	setupLog := log.WithName("setup")
	setupLog.V(1).Info("starting sakuracloud-dns", "version", Version)

	var cfg *config.ProviderConfig
	if a.opts.configPath != "" {
		cfg, err = config.LoadProviderConfigFromPath(a.opts.configPath)
	} else {
		cfg, err = config.LoadProviderConfig()
	}
	if err != nil {
		return fmt.Errorf("unable to load provider config: %w", err)
	}
	setupLog.V(1).Info("loaded provider config", "provider", cfg.Provider)

	a.provider, err = dns.NewProvider(cfg.Provider, log.WithName("dns-"+cfg.Provider), cfg.Settings)
	if err != nil {
		return fmt.Errorf("unable to create DNS provider: %w", err)
	}
	return nil
}

func newLogger(level, format string) (logr.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return logr.Discard(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return logr.Discard(), fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}
