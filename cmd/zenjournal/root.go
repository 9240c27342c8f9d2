package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zenjournal/internal/config"
	"zenjournal/internal/journal"
	"zenjournal/internal/kv"
	"zenjournal/internal/logging"
	"zenjournal/internal/metrics"
	"zenjournal/internal/zen"
)

// app holds everything a command needs once PersistentPreRunE has run.
type app struct {
	configPath string
	verbose    bool

	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
	store    kv.Store
	server   *http.Server

	// metricsAddr is the bound listener address, useful when addr had port 0.
	metricsAddr string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "zenjournal",
		Short: "Release thoughts and breathe",
		Long: `zenjournal keeps a private stream of short thoughts you want to let go of
and guides box-breathing sessions (4s in, 2s hold, 4s out, 2s hold).

Storage, logging and metrics are configured in
$XDG_CONFIG_HOME/zenjournal/config.yaml or through ZENJOURNAL_* variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newRecentCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newStatsCmd(a),
		newZenCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.recorder = metrics.NewRecorder(a.registry)
	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}

	store, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.store = kv.Instrument(store, logger, a.recorder)
	logger.Debug("storage ready", zap.String("driver", cfg.Storage.Driver))
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.metricsAddr = ln.Addr().String()
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.metricsAddr))
	return nil
}

func (a *app) journal(ctx context.Context) (*journal.Store, error) {
	j, err := journal.Open(ctx, a.store,
		journal.WithLogger(a.logger),
		journal.WithMetrics(a.recorder))
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (a *app) history() *zen.History {
	return zen.NewHistory(a.store, zen.WithLogger(a.logger), zen.WithMetrics(a.recorder))
}

// close releases resources in reverse order of setup. Safe after a failed setup.
func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close storage", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
