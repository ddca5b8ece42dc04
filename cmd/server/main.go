package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/service"
	appworkflow "github.com/procurelab/procuresim/internal/application/workflow"
	"github.com/procurelab/procuresim/internal/config"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/infrastructure/materialdir"
	"github.com/procurelab/procuresim/internal/infrastructure/persistence/memstore"
	"github.com/procurelab/procuresim/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/procurelab/procuresim/internal/interfaces/http"
	"github.com/procurelab/procuresim/internal/report"
	"github.com/procurelab/procuresim/pkg/database"
	"github.com/procurelab/procuresim/pkg/utils"
)

func main() {
	// Optional .env for local development
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	snapshotter, err := sqlite.New(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize snapshotter", zap.Error(err))
	}

	store := memstore.New(logger)
	snap, found, err := snapshotter.Load(context.Background())
	if err != nil {
		logger.Fatal("Failed to load snapshot", zap.Error(err))
	}
	if found {
		store.Restore(snap)
		logger.Info("State restored from snapshot",
			zap.Int("requisitions", len(snap.Requisitions)),
			zap.Int("orders", len(snap.Orders)))
	}

	materials := materialdir.New(seedMaterials(cfg.Materials))

	requisitions := service.NewRequisitionService(store, materials, logger)
	orders := service.NewOrderService(store, materials, logger)
	facade := appworkflow.NewFacade(requisitions, orders, logger)
	exporter := report.NewExporter(logger)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ExportDir:    cfg.Export.OutputDir,
	}, facade, exporter, logger)

	snapCtx, stopSnapshots := context.WithCancel(context.Background())
	go store.RunSnapshots(snapCtx, cfg.Store.SnapshotInterval, snapshotter)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSnapshots()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Final snapshot so nothing accepted since the last tick is lost
	if err := snapshotter.Save(ctx, store.Snapshot()); err != nil {
		logger.Error("Final snapshot failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func seedMaterials(entries []config.MaterialEntry) []entity.Material {
	materials := make([]entity.Material, 0, len(entries))
	for _, e := range entries {
		status := entity.MaterialStatus(e.Status)
		if e.Status == "" {
			status = entity.MaterialActive
		}
		materials = append(materials, entity.Material{
			ID:       e.ID,
			Name:     e.Name,
			BaseUnit: e.Unit,
			Status:   status,
		})
	}
	return materials
}
