package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ramen-office/config"
	"ramen-office/handlers"
	"ramen-office/services"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// --- Database ---
	dsn := cfg.DBPath
	if cfg.DBDriver == "mysql" {
		dsn = cfg.MySQLDSN()
	}
	db, err := services.OpenDatabase(cfg.DBDriver, dsn, logger)
	if err != nil {
		return err
	}

	// --- Office ---
	layout := services.DefaultOfficeLayout()
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("invalid office layout: %w", err)
	}

	hub := handlers.NewClientManager(logger.Named("ws"))
	logBuffer := services.NewLogBuffer(db, cfg.LogFlushSize, cfg.LogFlushInterval, logger.Named("logs"))

	sim := services.NewOfficeSimulator(layout, services.SimulatorConfig{
		Activity: services.ActivityConfig{
			TickInterval:          cfg.ActivityTickInterval,
			MinCooldown:           cfg.ActivityMinCooldown,
			MaxCooldown:           cfg.ActivityMaxCooldown,
			ActivityProbability:   cfg.ActivityProbability,
			MaxSimultaneousStarts: cfg.ActivityMaxStarts,
			MinPopulation:         cfg.ActivityMinPopulation,
		},
		StepDuration:  cfg.WalkStepDuration,
		FrameInterval: cfg.FrameInterval,
	}, hub.BroadcastMessage, logger.Named("office"))
	sim.OnActivity(logBuffer.LogActivity)

	registry := services.NewDeviceRegistry(db, cfg.OfflineThreshold, logger.Named("registry"))
	presence := services.NewPresence(registry, layout, sim, logBuffer, hub.BroadcastMessage, logger.Named("presence"))

	subnet, err := cfg.ScanPrefix()
	if err != nil {
		return err
	}
	scanner := services.NewScanner(services.CommandArpSource{Subnet: subnet}, registry, presence, cfg.ScanInterval, logger.Named("scanner"))

	if err := presence.Restore(); err != nil {
		return fmt.Errorf("restoring online devices: %w", err)
	}

	// --- HTTP ---
	app := handlers.NewApp(&handlers.Handler{
		Hub:       hub,
		Registry:  registry,
		Presence:  presence,
		Scanner:   scanner,
		Simulator: sim,
		Logs:      services.NewLogQuery(db),
		Logger:    logger.Named("http"),
	}, cfg.AllowOrigins, true)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return sim.Run(gctx) })
	g.Go(func() error { return logBuffer.Run(gctx) })

	if cfg.ScanEnabled {
		g.Go(func() error { return scanner.Run(gctx) })
	} else {
		logger.Info("network scanning disabled")
		if err := scanner.LoadKnown(); err != nil {
			return err
		}
	}

	g.Go(func() error {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		return app.Listen(cfg.HTTPAddr)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}
