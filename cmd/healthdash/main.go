package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/healthdash/internal/checker"
	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/dashboard"
	"github.com/hazz-dev/healthdash/internal/logging"
	"github.com/hazz-dev/healthdash/internal/metrics"
	"github.com/hazz-dev/healthdash/internal/monitor"
	"github.com/hazz-dev/healthdash/internal/scheduler"
	"github.com/hazz-dev/healthdash/internal/server"
	"github.com/hazz-dev/healthdash/internal/state"
	"github.com/hazz-dev/healthdash/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          version.Name,
		Short:        "Service health dashboard",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "healthdash.yml", "settings file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// setup loads settings and builds the logger every command shares.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Load settings and logger
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		"source", cfg.Services.Source,
		"timeout", cfg.Check.Timeout.Duration,
		"refresh_interval", cfg.Check.RefreshInterval.Duration,
	)

	// 2. Build monitor
	store := state.NewStore(logger)
	eval := checker.New(cfg.Check.Timeout.Duration, logger)
	mon := monitor.New(monitor.SourceLoader(cfg.Services.Source, cfg.Services.Timeout.Duration), eval, store, logger)

	// 3. Build optional refresh scheduler
	sched := scheduler.New(cfg.Check.RefreshInterval.Duration, func(context.Context) error {
		_, err := mon.Recheck()
		return err
	}, logger)

	// 4. Mount routes on a single mux
	apiServer := server.New(mon, logger)
	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Router())
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", dashboard.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 6. Load services and run the first check
	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	sched.Start(ctx)

	// 7. Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 8. Wait for signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 9. Graceful shutdown
	sched.Wait()
	mon.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a one-off check of all configured services",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	services, err := monitor.SourceLoader(cfg.Services.Source, cfg.Services.Timeout.Duration)(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading services: %w", err)
	}
	return executeCheck(cmd, checker.New(cfg.Check.Timeout.Duration, logger), services)
}

func statusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the state of a running dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeStatus(cmd, newStateClient(addr))
		},
	}
	cmd.Flags().StringVar(&addr, "server", "http://localhost:8080", "base URL of a running healthdash")
	return cmd
}
