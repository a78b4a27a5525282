package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cortexchain/chain-machine/internal/api"
	"github.com/cortexchain/chain-machine/internal/chain"
	"github.com/cortexchain/chain-machine/internal/config"
	"github.com/cortexchain/chain-machine/internal/directory"
	"github.com/cortexchain/chain-machine/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting chain-machine...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/chain.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// The record store must be up before any request is accepted;
	// a failed connection is fatal, not something to limp past.
	recordStore, err := store.New(context.Background(), cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("record store connection failed", zap.Error(err))
	}
	defer recordStore.Close()

	if err := recordStore.Migrate(context.Background(), "migrations"); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// The directory client only carries an endpoint and a timeout;
	// the directory's own lifecycle is not this process's concern.
	dirClient := directory.NewClient(
		cfg.Directory.Endpoint,
		time.Duration(cfg.Directory.TimeoutSeconds)*time.Second,
		logger,
	)

	resolver := chain.NewResolver(recordStore, dirClient, logger)
	handler := api.NewHandler(resolver, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("chain-machine listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down chain-machine...")
	srv.Shutdown(context.Background())
}
