// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/eyewear-backend/internal/infrastructure/database/redis"
	"github.com/your-org/eyewear-backend/internal/interfaces/http"
	"github.com/your-org/eyewear-backend/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	appLogger.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("🚀 Starting %s", cfg.App.Name)

	// Connect to database
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Health check
	if err := db.Health(); err != nil {
		appLogger.WithError(err).Fatal("Database health check failed")
	}

	if err := redisClient.Health(); err != nil {
		appLogger.WithError(err).Fatal("Redis health check failed")
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB())

	if cfg.IsDevelopment() && cfg.Database.ResetOnStart {
		if err := migration.DropAllTables(); err != nil {
			appLogger.WithError(err).Fatal("Database reset failed")
		}
	}

	if err := migration.RunAutoMigrations(); err != nil {
		appLogger.WithError(err).Fatal("Database migration failed")
	}

	if err := migration.CreateIndexes(); err != nil {
		appLogger.WithError(err).Warn("Index creation failed")
	}

	// Seed the demo catalog in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			appLogger.WithError(err).Warn("Data seeding failed")
		}
		if err := migration.GetTableInfo(); err != nil {
			appLogger.WithError(err).Warn("Failed to read table info")
		}
	}

	appLogger.Info("✅ All systems operational!")

	server := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), appLogger)

	go func() {
		if err := server.Start(); err != nil {
			appLogger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("👋 Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	appLogger.Info("✅ Server shutdown completed")
}
