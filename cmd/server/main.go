package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/streampay/config"
	"github.com/jaki95/streampay/internal/catalog"
	"github.com/jaki95/streampay/internal/crypt"
	"github.com/jaki95/streampay/internal/metrics"
	"github.com/jaki95/streampay/internal/onramp"
	"github.com/jaki95/streampay/internal/release"
	"github.com/jaki95/streampay/internal/server"
	"github.com/jaki95/streampay/internal/storage"
	"github.com/jaki95/streampay/internal/x402"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)
	if slog.Level(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cipher, err := crypt.New(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	cat, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		return err
	}
	defer cat.Close()
	if err := cat.Migrate(ctx); err != nil {
		return err
	}

	ramp, err := onramp.NewClient(cfg.Onramp)
	if err != nil {
		return err
	}
	if !ramp.Configured() {
		slog.Warn("Onramp API keys not set, /onramp-session will fail")
	}

	srv := server.New(cfg, server.Deps{
		Catalog: cat,
		Store:   store,
		Cipher:  cipher,
		Challenges: x402.NewChallengeBuilder(x402.Asset{
			Network: cfg.Payment.Network,
			Address: cfg.Payment.Asset,
			Name:    cfg.Payment.AssetName,
			Version: cfg.Payment.AssetVersion,
		}),
		Gate:     x402.NewGate(x402.NewFacilitatorClient(cfg.Payment.FacilitatorURL, cfg.Payment.FacilitatorTimeout)),
		Releases: release.NewService(cipher, store, cat, cfg.Payment.DefaultPricePerMinuteCents),
		Onramp:   ramp,
		Metrics:  metrics.New(),
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting streaming server",
			"port", cfg.Server.Port,
			"storage", cfg.Storage.Type,
			"network", cfg.Payment.Network,
			"facilitator", cfg.Payment.FacilitatorURL,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
