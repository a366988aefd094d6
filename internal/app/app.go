// Package app assembles storage, the AI gateway and the orchestrator from
// configuration. Both binaries start here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"udo-backend/internal/ai"
	"udo-backend/internal/analytics"
	"udo-backend/internal/config"
	"udo-backend/internal/db"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/tasks"
)

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        *tasks.Store
	Gateway      *ai.Client
	Events       analytics.Sink
	Orchestrator *orchestrator.Orchestrator

	pg     *sql.DB
	sqlite *gorm.DB
}

// Open connects the configured storage back-end and builds the AI client.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	gateway, err := ai.NewClient(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Store = tasks.NewStore(repo)
	a.Gateway = gateway
	a.Orchestrator = orchestrator.New(a.Store, gateway, a.Events, logger)
	return a, nil
}

func (a *App) openRepository(ctx context.Context) (tasks.Repository, error) {
	cfg := a.Config

	switch cfg.Storage {
	case config.StorageMemory:
		a.Events = analytics.LogSink{Logger: a.Logger}
		return tasks.NewMemoryRepository(), nil

	case config.StorageSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = gdb
		a.Events = analytics.LogSink{Logger: a.Logger}
		a.Logger.Info("✅ Opened SQLite store", zap.String("path", cfg.SQLitePath))
		return tasks.NewSQLiteRepository(gdb)

	case config.StoragePostgres:
		pg, err := db.Connect(cfg.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect DB: %w", err)
		}
		a.pg = pg
		a.Logger.Info("✅ Connected to PostgreSQL!")

		repo := tasks.NewPostgresRepository(pg)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sink := analytics.NewPostgresSink(pg)
		if err := sink.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.Events = sink
		return repo, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// Close releases database handles. Safe to call more than once.
func (a *App) Close() {
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Logger.Warn("failed to close postgres", zap.Error(err))
		}
		a.pg = nil
	}
	if a.sqlite != nil {
		if err := db.CloseSQLite(a.sqlite); err != nil {
			a.Logger.Warn("failed to close sqlite", zap.Error(err))
		}
		a.sqlite = nil
	}
}
