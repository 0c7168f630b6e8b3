// v0
// cmd/quizhub/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/clock"
	"github.com/nrgchamp/quizhub/internal/config"
	"github.com/nrgchamp/quizhub/internal/controller"
	"github.com/nrgchamp/quizhub/internal/httpapi"
	"github.com/nrgchamp/quizhub/internal/logging"
	"github.com/nrgchamp/quizhub/internal/metrics"
	"github.com/nrgchamp/quizhub/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	lg, closeLog, err := logging.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLog()

	lg.Info("quizhub starting", slog.String("listen", cfg.ListenAddress), slog.String("store_dir", cfg.StoreDataDir))

	st, err := store.NewFileStore(cfg.StoreDataDir, lg)
	if err != nil {
		lg.Error("failed to init store", slog.Any("err", err))
		return
	}
	if err := st.SeedAdmin(ctx, cfg.AdminSeedUser, store.SHA256Hex(cfg.AdminSeedPass)); err != nil {
		lg.Warn("admin_seed_failed", slog.Any("err", err))
	}

	external := cache.NewRedisTier(cfg.RedisAddr, lg)
	defer external.Close()
	local := cache.NewLocal()
	ch := cache.New(external, local, lg)

	clk := clock.Real{}

	registry := controller.NewRegistry(st, ch, clk, lg, cfg.RoomMaxSockets, cfg.RoomAcceptRate)
	m := metrics.New(func() float64 { return float64(registry.Count()) })

	srv := httpapi.NewServer(cfg, st, ch, registry, clk, lg, m)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := run(ctx, lg, httpServer); err != nil {
		lg.Error("quizhub terminated", slog.Any("err", err))
	}
}

// run starts httpServer in a goroutine and blocks until ctx is canceled
// (an OS signal) or the server itself fails, then drains a graceful
// shutdown window before returning.
func run(ctx context.Context, lg *slog.Logger, httpServer *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		lg.Info("http_server_listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		lg.Info("shutdown_signal_received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return nil
	}
}
