package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"udo-backend/internal/api"
	"udo-backend/internal/app"
	"udo-backend/internal/config"
	"udo-backend/internal/logging"
	"udo-backend/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("UDO_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("❌ Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid config:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is required")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("❌ ", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Enabled: cfg.OTelEnabled,
		Stdout:  cfg.OTelStdout,
		Service: "udo-api",
		Version: version,
	})
	if err != nil {
		logger.Fatal("failed to init telemetry", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to open storage", zap.Error(err))
	}
	defer a.Close()

	handler := api.NewRouter(api.Deps{
		Orchestrator: a.Orchestrator,
		Gateway:      a.Gateway,
		Events:       a.Events,
		Secret:       []byte(cfg.JWTSecret),
		Logger:       logger,
	})

	if err := api.Serve(ctx, cfg.HTTPAddr, handler, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
