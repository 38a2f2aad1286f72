package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-pilot/pilot/internal/api"
	"github.com/mcp-pilot/pilot/internal/config"
	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
	"github.com/mcp-pilot/pilot/internal/domain/usage"
	"github.com/mcp-pilot/pilot/internal/gateway"
	"github.com/mcp-pilot/pilot/internal/logger"
	"github.com/mcp-pilot/pilot/internal/orchestrator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	appDir := os.Getenv("PILOT_CONFIG_DIR")
	if appDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			configDir = "."
		}
		appDir = filepath.Join(configDir, "mcp-pilot")
	}
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return fmt.Errorf("create app dir: %w", err)
	}

	cfg, err := config.Load(filepath.Join(appDir, "pilot.toml"))
	if err != nil {
		return err
	}

	log, err := logger.New(os.Getenv("PILOT_LOG_LEVEL"), appDir)
	if err != nil {
		return err
	}
	defer log.Sync()

	interval, idle, budget := cfg.Durations()

	overridePath := cfg.OverridePath
	if overridePath == "" {
		overridePath = filepath.Join(appDir, "overrides.yaml")
	}
	overrides, _ := config.LoadOverrides(overridePath, log)

	profilePath := cfg.ProfilePath
	if profilePath == "" {
		profilePath = filepath.Join(appDir, "profiles.yaml")
	}
	profiles, err := profile.NewStore(profilePath).Load()
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	gw := gateway.NewClient(
		gateway.NewExecRunner(cfg.GatewayCommand, budget, log),
		cfg.Catalog,
		log,
	)

	discoverer := catalog.NewDiscoverer(gw, catalog.DiscovererOptions{
		Workers:    cfg.DiscoveryWorkers,
		CallBudget: budget,
		Logger:     log,
	})
	registry := catalog.NewRegistry(discoverer, catalog.RegistryOptions{
		Interval:  interval,
		Overrides: overrides,
	})

	orch := orchestrator.New(orchestrator.Options{
		Registry: registry,
		Monitor:  usage.NewMonitor(usage.MonitorOptions{IdleThreshold: idle}),
		Gateway:  gw,
		Profiles: profiles,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the cache before serving; a dead gateway at boot is not
	// fatal, requests will retry the refresh.
	if _, err := registry.Refresh(ctx, false); err != nil {
		log.Warn("initial discovery failed", zap.Error(err))
	}

	refresher := catalog.NewRefresher(registry, interval, log)
	go refresher.Run(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ControlPort),
		Handler: api.NewControlServer(orch, gw, log),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("control server listening", zap.Int("port", cfg.ControlPort))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control server failed: %w", err)
	}
	return nil
}
