package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/containerd/log"
	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/viant/diskor"
	"github.com/viant/diskor/bus"
	"github.com/viant/diskor/tracing"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Publish the storage service on the message bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *diskor.Config) error {
	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.Tracing.Service, Version, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() { _ = tracing.Shutdown(context.Background()) }()
	}
	srv, err := diskor.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()
	if err = srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Address != "" {
		httpServer := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           promhttp.HandlerFor(srv.Metrics().Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.G(ctx).WithError(err).Error("metrics endpoint failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
	}

	conn, err := connect(cfg.Bus.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to %v bus: %w", cfg.Bus.Address, err)
	}
	defer func() { _ = conn.Close() }()
	server, err := bus.Publish(ctx, conn, cfg.Bus.Name, bus.Services{
		Storage: srv.Storage(),
		ZFCP:    srv.ZFCP(),
		Runner:  srv.Tasks(),
		Events:  srv.Events(),
	})
	if err != nil {
		return err
	}
	defer server.Close()
	log.G(ctx).WithField("name", cfg.Bus.Name).WithField("bus", cfg.Bus.Address).Info("diskord published")
	<-ctx.Done()
	log.G(ctx).Info("diskord stopping")
	return nil
}

func connect(address string) (*dbus.Conn, error) {
	if address == diskor.BusSession {
		return dbus.ConnectSessionBus()
	}
	return dbus.ConnectSystemBus()
}
