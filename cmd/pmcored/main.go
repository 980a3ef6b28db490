package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/arclight-labs/pmcore/internal/adapters/engine"
	"github.com/arclight-labs/pmcore/internal/adapters/freq"
	"github.com/arclight-labs/pmcore/internal/adapters/policy"
	"github.com/arclight-labs/pmcore/internal/adapters/qos"
	"github.com/arclight-labs/pmcore/internal/api"
	"github.com/arclight-labs/pmcore/internal/audit"
	"github.com/arclight-labs/pmcore/internal/cliconfig"
	"github.com/arclight-labs/pmcore/internal/coordinator"
	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/dvfs"
	"github.com/arclight-labs/pmcore/internal/endpoint"
	"github.com/arclight-labs/pmcore/internal/notify"
	"github.com/arclight-labs/pmcore/internal/wakeup"
	"github.com/arclight-labs/pmcore/pkg/log"
)

const longHelp = `pmcored coordinates system sleep transitions and frequency limits.

It exposes a local text-token control API: sleep state entry, wakeup
count handshakes, frequency floor/ceiling locks, and debug test levels.
Capabilities are configured per platform via file, env, or flags.`

const exampleUsage = `  pmcored --listen 127.0.0.1:7655
  pmcored --config /etc/pmcore/config.toml --debug`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.NewZerologAdapter()

	root := &cobra.Command{
		Use:     "pmcored",
		Short:   "Power management coordination daemon",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info("configuration",
				log.Any("valid_states", cfg.ValidStates),
				log.Bool("hibernate", cfg.Hibernate),
				log.Bool("test_levels", cfg.TestLevels),
				log.Bool("dvfs", cfg.DVFS),
				log.String("listen", cfg.ListenAddr),
				log.Bool("debug", cfg.Debug))

			return run(cmd.Context(), cfg, cfgFile, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pmcore/config.toml)")
	root.Flags().StringSliceVar(&cfg.ValidStates, "states", cfg.ValidStates, "volatile sleep states the platform supports")
	root.Flags().BoolVar(&cfg.Hibernate, "hibernate", cfg.Hibernate, "enable the persist-to-storage state")
	root.Flags().BoolVar(&cfg.TestLevels, "test-levels", cfg.TestLevels, "expose the debug test level surface")
	root.Flags().BoolVar(&cfg.DVFS, "dvfs", cfg.DVFS, "expose the frequency limit surface")
	root.Flags().IntSliceVar(&cfg.FreqTableKHz, "freq-table", cfg.FreqTableKHz, "platform frequency table in kHz")
	root.Flags().IntVar(&cfg.QoSDefaultKHz, "qos-default", cfg.QoSDefaultKHz, "QoS requirement when the floor is unconstrained (kHz)")
	root.Flags().StringVar(&cfg.QoSClient, "qos-client", cfg.QoSClient, "client name registered with the QoS aggregator")
	root.Flags().StringVar(&cfg.AuditDB, "audit-db", cfg.AuditDB, "SQLite path for the transition audit trail (empty disables)")
	root.Flags().IntVar(&cfg.AuditMaxRows, "audit-max-rows", cfg.AuditMaxRows, "audit rows retained (0 keeps everything)")
	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "control API bind address")
	root.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "log frequency resolution decisions")
	root.Flags().DurationVar(&cfg.StageDelay, "stage-delay", cfg.StageDelay, "simulated per-stage engine latency")

	if err := root.Execute(); err != nil {
		logger.Error("pmcored", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, cfgFile string, logger log.Logger) error {
	states, err := cfg.States()
	if err != nil {
		return err
	}

	bus := notify.NewBus()
	counter := wakeup.NewCounter()
	bus.Register(counter)

	var coord *coordinator.Coordinator
	engOpts := engine.Options{
		TestLevel:    func() domain.TestLevel { return coord.TestLevel() },
		AsyncEnabled: func() bool { return coord.AsyncEnabled() },
		Counter:      counter,
		StageDelay:   cfg.StageDelay,
		Logger:       logger,
	}
	coord = coordinator.New(coordinator.Capabilities{
		ValidStates: states,
		Hibernate:   cfg.Hibernate,
		TestLevels:  cfg.TestLevels,
		DVFS:        cfg.DVFS,
	}, engine.NewSimSuspend(engOpts), engine.NewSimHibernate(engOpts), bus, logger)

	var arb *dvfs.Arbiter
	var agg *qos.Aggregator
	if cfg.DVFS {
		table, err := freq.NewStaticTable(cfg.FreqTableKHz)
		if err != nil {
			return fmt.Errorf("frequency table: %w", err)
		}
		agg = qos.NewAggregator(cfg.QoSDefaultKHz, logger)
		refresher := policy.NewLogRefresher(runtime.NumCPU(), logger)
		arb = dvfs.NewArbiter(table, agg, refresher, cfg.QoSClient, logger)
		arb.SetDebug(cfg.Debug)
	}

	if cfg.AuditDB != "" {
		recorder, err := audit.Open(cfg.AuditDB, cfg.AuditMaxRows, logger)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer recorder.Close()
		bus.Register(recorder)
	}

	registry := endpoint.NewRegistry(coord, counter, arb)
	server := api.NewServer(registry, api.ServerOptions{
		Addr:   cfg.ListenAddr,
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfgFile != "" {
		watcher := cliconfig.NewWatcher(cfgFile, func(fc cliconfig.FileConfig) {
			// Only runtime-tunable fields apply on reload; capability and
			// listener changes require a restart.
			if fc.Debug != nil && arb != nil {
				arb.SetDebug(*fc.Debug)
			}
			if agg != nil {
				agg.SetDefaultValue(fc.QoSDefaultKHz)
			}
		}, logger)
		go watcher.Run(ctx)
	}

	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logger.Info("received signal, stopping")
	case <-ctx.Done():
	}

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("stop api server: %w", err)
	}
	return nil
}
