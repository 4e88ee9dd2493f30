package cli

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

	"github.com/dreamware/rowgate/internal/config"
	"github.com/dreamware/rowgate/internal/health"
	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/server"
	"github.com/dreamware/rowgate/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway",
		Long: `Start the HTTP gateway.

Loads every table layout from the configured layout directory, opens the
bbolt database, starts the instance health monitor, and serves until
SIGINT or SIGTERM. Shutdown drains in-flight requests up to the
configured timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	layouts, err := layout.LoadDir(cfg.LayoutDir)
	if err != nil {
		return err
	}
	if len(layouts) == 0 {
		return fmt.Errorf("no table layouts in %s", cfg.LayoutDir)
	}
	resolved, err := cfg.ResolveLayouts(layouts)
	if err != nil {
		return err
	}

	backend, err := store.OpenBolt(cfg.DataPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	catalog, err := store.NewCatalog(backend, resolved)
	if err != nil {
		return err
	}

	monitor := health.NewMonitor(catalog, time.Duration(cfg.HealthInterval), slog.Default())
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(catalog, monitor, slog.Default()).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening",
			slog.String("addr", cfg.Listen),
			slog.String("data", cfg.DataPath),
			slog.Int("instances", len(catalog.Instances())),
			slog.Int("tables", len(layouts)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
