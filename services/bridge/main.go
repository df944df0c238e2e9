package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/guest-registry/internal/bridge"
	"github.com/diagnosis/guest-registry/internal/rpcclient"
	"github.com/diagnosis/guest-registry/pkg/config"
	"github.com/diagnosis/guest-registry/pkg/events"
	"github.com/diagnosis/guest-registry/pkg/logger"
)

// Standalone event bridge for deployments where the registry runs with
// BRIDGE_ENABLED=false. REGISTRY_URL points at the registry's RPC surface.
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	client := rpcclient.New(cfg.Bridge.RegistryURL, cfg.Bridge.RPCTimeout)
	b := bridge.New(eventBus, client, bridge.Options{
		Subject:     cfg.NATS.GuestEventsSubject,
		QueueGroup:  cfg.NATS.QueueGroup,
		RPCTimeout:  cfg.Bridge.RPCTimeout,
		MaxInFlight: int64(cfg.Bridge.MaxInFlight),
	})
	if err := b.Start(ctx); err != nil {
		logger.Error("Failed to start event bridge", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting bridge service", "registry_url", cfg.Bridge.RegistryURL)
	<-ctx.Done()

	logger.Info("Shutting down bridge service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.Wait(shutdownCtx); err != nil {
		logger.Error("Bridge shutdown error", "error", err)
	}
	logger.Info("Bridge stopped", "stats", b.Stats())
}
