package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/rece/internal/config"
	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/internal/gateway"
	"github.com/mmynk/rece/internal/middleware"
	"github.com/mmynk/rece/internal/receipt"
	"github.com/mmynk/rece/internal/service"
	"github.com/mmynk/rece/internal/storage"
	"github.com/mmynk/rece/internal/storage/memory"
	"github.com/mmynk/rece/internal/storage/postgres"
	"github.com/mmynk/rece/internal/storage/sqlite"
	"github.com/mmynk/rece/pkg/api/apiconnect"
	"github.com/mmynk/rece/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := docstore.Open(ctx, backend, docstore.WithKeyFunc(receipt.NewReceiptID))
	if err != nil {
		backend.Close()
		return err
	}
	defer store.Close()

	svc := service.NewReceiptService(store, cfg.App.PaymentNote)
	rpcPath, rpcHandler := apiconnect.NewReceiptServiceHandler(svc,
		connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor()),
	)

	handler := gateway.New(svc, gateway.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		RPCPath:     rpcPath,
		RPCHandler:  rpcHandler,
		Metrics:     promhttp.Handler(),
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(middleware.RequestID(handler), &http2.Server{}),
		ReadHeaderTimeout: cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", server.Addr, "store", cfg.Store.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Watch streams only end when their client goes away, so give up on
	// them after the grace period.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Graceful shutdown timed out", "error", err)
		return server.Close()
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("Using in-memory store; receipts are lost on restart")
		return memory.New(), nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.Store.URL)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Store.Driver)
		return store, nil
	default:
		store, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Store.Driver, "database", cfg.Store.Path)
		return store, nil
	}
}
