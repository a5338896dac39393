package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/covenlabs/coven-indexer/internal/adapter"
	"github.com/covenlabs/coven-indexer/internal/bridge"
	"github.com/covenlabs/coven-indexer/internal/config"
	"github.com/covenlabs/coven-indexer/internal/engine"
	"github.com/covenlabs/coven-indexer/internal/logger"
	"github.com/covenlabs/coven-indexer/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to environment files directory")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAggregatorConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "aggregator"},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting aggregator")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if cfg.Database.MaxOpenConns > 0 {
		if err := store.ConfigureConnectionPool(db,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
			cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)
	eng := engine.New(dataStore, engine.Contracts{
		NFTAddress:         cfg.Contracts.NFTAddress,
		MarketplaceAddress: cfg.Contracts.MarketplaceAddress,
	})

	// Create bridge
	source, err := bridge.NewBridge(
		bridge.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			Subject:        cfg.NATS.Subject,
			ConsumerName:   cfg.NATS.ConsumerName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		},
		adapter.NewNatsJetStream(),
		adapter.NewJSON(),
	)
	if err != nil {
		logger.Fatal("Failed to create bridge", zap.Error(err))
	}
	defer source.Close()
	logger.Info("Bridge created",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := source.Run(ctx, eng.ProcessBatch); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "bridge"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Aggregator stopped")
}
